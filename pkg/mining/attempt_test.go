package mining

import (
	"testing"
	"time"

	"nockminer/pkg/core"
	"nockminer/pkg/field"
)

func testCandidate(id string, target uint64) *core.CandidateBlock {
	return &core.CandidateBlock{
		ID:         id,
		ParentHash: []byte("parent-hash-for-" + id),
		Payload:    []byte("payload-for-" + id),
		Target:     target,
		Height:     42,
		Timestamp:  time.Unix(1700000000, 0),
	}
}

func TestSealSeedDeterministic(t *testing.T) {
	block := testCandidate("cand-a", 1000)
	pubKey := []byte("miner-pubkey")

	a := sealSeed(block, pubKey)
	b := sealSeed(block, pubKey)

	if len(a) != core.DigestSeedWidth {
		t.Fatalf("seed width = %d, want %d", len(a), core.DigestSeedWidth)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("seed element %d differs between identical derivations", i)
		}
		if !field.Valid(a[i].Uint64()) {
			t.Fatalf("seed element %d = %d is not canonical", i, a[i].Uint64())
		}
	}
}

func TestSealSeedBindsPubKey(t *testing.T) {
	block := testCandidate("cand-a", 1000)

	a := sealSeed(block, []byte("miner-one"))
	b := sealSeed(block, []byte("miner-two"))

	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different public keys produced the same seed")
	}
}

func TestSealCommitmentDiffersAcrossCandidates(t *testing.T) {
	pubKey := []byte("miner-pubkey")
	sealA := sealCommitment(sealSeed(testCandidate("cand-a", 1), pubKey))
	sealB := sealCommitment(sealSeed(testCandidate("cand-b", 1), pubKey))

	if sealA == sealB {
		t.Fatal("distinct candidates produced the same seal commitment")
	}
}

func TestPowDigestDeterministic(t *testing.T) {
	block := testCandidate("cand-a", 1000)
	pubKey := []byte("miner-pubkey")
	seed := sealSeed(block, pubKey)
	seal := sealCommitment(seed)

	scratch := make([]field.Element, core.KernelScratchSize)

	d1 := powDigest(seed, seal, 7, scratch)
	d2 := powDigest(seed, seal, 7, scratch)
	if d1 != d2 {
		t.Fatalf("digest not deterministic: %v vs %v", d1, d2)
	}
	if !field.Valid(d1.Uint64()) {
		t.Fatalf("digest %d is not canonical", d1.Uint64())
	}

	d3 := powDigest(seed, seal, 8, scratch)
	if d1 == d3 {
		t.Fatal("adjacent nonces produced identical digests")
	}
}

func TestOutcomeStrings(t *testing.T) {
	cases := map[Outcome]string{
		OutcomeSolved:     "solved",
		OutcomeExhausted:  "exhausted",
		OutcomeSuperseded: "superseded",
		OutcomeFailed:     "failed",
	}
	for outcome, want := range cases {
		if got := outcome.String(); got != want {
			t.Errorf("Outcome(%d).String() = %q, want %q", outcome, got, want)
		}
	}
}
