package prover

import (
	"math/big"
	"testing"

	"nockminer/pkg/field"
)

func TestGroth16RoundTrip(t *testing.T) {
	sys, err := NewSystem()
	if err != nil {
		t.Fatalf("Failed to build proof system: %v", err)
	}

	seal := field.New(0xdeadbeefcafe)
	digest := field.New(123456789)
	nonce := uint64(42)

	proof, err := sys.Prove(seal, digest, nonce)
	if err != nil {
		t.Fatalf("Prove failed: %v", err)
	}
	if len(proof.Bytes) == 0 {
		t.Fatal("Prove returned empty proof bytes")
	}
	if proof.WorkCommitment.Cmp(WorkCommitment(seal, digest, nonce)) != 0 {
		t.Fatal("proof carries wrong work commitment")
	}

	ok, err := sys.Verify(proof, seal)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !ok {
		t.Fatal("valid proof rejected")
	}

	t.Logf("✅ groth16 round trip: %d proof bytes", len(proof.Bytes))
}

func TestGroth16RejectsTamperedCommitment(t *testing.T) {
	sys, err := NewSystem()
	if err != nil {
		t.Fatalf("Failed to build proof system: %v", err)
	}

	seal := field.New(7777)
	proof, err := sys.Prove(seal, field.New(1000), 5)
	if err != nil {
		t.Fatalf("Prove failed: %v", err)
	}

	tampered := &Proof{
		Bytes:          proof.Bytes,
		WorkCommitment: new(big.Int).Add(proof.WorkCommitment, big.NewInt(1)),
	}

	ok, err := sys.Verify(tampered, seal)
	if err != nil {
		t.Fatalf("Verify errored: %v", err)
	}
	if ok {
		t.Fatal("tampered commitment accepted")
	}
}

func TestGroth16RejectsWrongSeal(t *testing.T) {
	sys, err := NewSystem()
	if err != nil {
		t.Fatalf("Failed to build proof system: %v", err)
	}

	seal := field.New(31337)
	proof, err := sys.Prove(seal, field.New(9), 1)
	if err != nil {
		t.Fatalf("Prove failed: %v", err)
	}

	ok, err := sys.Verify(proof, field.New(31338))
	if err != nil {
		t.Fatalf("Verify errored: %v", err)
	}
	if ok {
		t.Fatal("proof accepted under a different seal")
	}
}
