package mining

import (
	"encoding/binary"
	"io"
	"time"

	"golang.org/x/crypto/sha3"

	"nockminer/pkg/core"
	"nockminer/pkg/field"
	"nockminer/pkg/prover"
)

// Outcome classifies one finished mining attempt.
type Outcome int

const (
	// OutcomeSolved means the attempt found a nonce whose digest met the
	// target and produced a proof for it.
	OutcomeSolved Outcome = iota

	// OutcomeExhausted means the whole nonce slice was scanned with no hit.
	OutcomeExhausted

	// OutcomeSuperseded means the candidate was retired while the attempt
	// was in flight.
	OutcomeSuperseded

	// OutcomeFailed means the attempt died on an internal error. Recoverable;
	// the worker starts a fresh attempt.
	OutcomeFailed

	// outcomeFault is a worker-level failure, not an attempt result. Fatal
	// faults stop the worker.
	outcomeFault
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSolved:
		return "solved"
	case OutcomeExhausted:
		return "exhausted"
	case OutcomeSuperseded:
		return "superseded"
	case OutcomeFailed:
		return "failed"
	case outcomeFault:
		return "fault"
	default:
		return "unknown"
	}
}

// attemptResult is the fan-in message a worker sends after each attempt.
type attemptResult struct {
	workerID int
	cand     *candidateState
	outcome  Outcome
	nonce    uint64
	digest   field.Element
	proof    *prover.Proof
	scanned  uint64
	elapsed  time.Duration
	err      error
	fatal    bool
}

// sealSeed expands a candidate and the mining public key into
// DigestSeedWidth field elements via SHAKE-256. Every worker attempting the
// same candidate derives the same seed.
func sealSeed(block *core.CandidateBlock, pubKey []byte) []field.Element {
	shake := sha3.NewShake256()
	shake.Write(block.ParentHash)
	shake.Write(block.Payload)
	shake.Write(pubKey)

	var height [8]byte
	binary.LittleEndian.PutUint64(height[:], block.Height)
	shake.Write(height[:])

	seed := make([]field.Element, core.DigestSeedWidth)
	var buf [8]byte
	for i := range seed {
		io.ReadFull(shake, buf[:])
		seed[i] = field.New(binary.LittleEndian.Uint64(buf[:]))
	}
	return seed
}

// sealCommitment folds a seed into the single public field element the
// proof binds to.
func sealCommitment(seed []field.Element) field.Element {
	c := field.One()
	for _, s := range seed {
		c = field.Add(field.Mul(c, field.Generator), s)
	}
	return c
}

// powDigest evaluates the mining digest for one nonce. The scratch slice is
// the kernel's working area; it must hold at least DigestSeedWidth elements.
// Deterministic in (seed, seal, nonce).
func powDigest(seed []field.Element, seal field.Element, nonce uint64, scratch []field.Element) field.Element {
	w := scratch[:len(seed)]

	x := field.Add(seal, field.New(nonce))
	field.ScaleSlice(w, seed, x)
	field.MulSlice(w, w, seed)

	d := x
	for i := range w {
		d = field.Add(field.Mul(d, field.Generator), w[i])
	}
	return field.Pow(d, 7)
}
