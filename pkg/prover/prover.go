package prover

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"

	"nockminer/pkg/field"
)

// The proof-validity predicate is an external cryptographic collaborator as
// far as the mining core is concerned: workers hand it a digest and nonce,
// it hands back opaque proof bytes, and the coordinator asks it to verify.
// The mining target check itself (digest <= target) stays outside the proof.

// Proof is one serialized proof plus the public work commitment it binds.
type Proof struct {
	Bytes          []byte
	WorkCommitment *big.Int
}

// Backend generates and checks proofs for mining attempts. Implementations
// must be safe for use from a single worker at a time; concurrent workers
// each hold their own Backend via the kernel pool.
type Backend interface {
	// Prove produces a proof that the prover knows a digest and nonce
	// consistent with the public seal commitment.
	Prove(seal, digest field.Element, nonce uint64) (*Proof, error)

	// Verify checks a proof against the seal it was produced for.
	Verify(p *Proof, seal field.Element) (bool, error)
}

// WorkCommitment computes the public binding value digest*seal + nonce over
// the proof system's scalar field.
func WorkCommitment(seal, digest field.Element, nonce uint64) *big.Int {
	c := new(big.Int).SetUint64(digest.Uint64())
	c.Mul(c, new(big.Int).SetUint64(seal.Uint64()))
	c.Add(c, new(big.Int).SetUint64(nonce))
	return c.Mod(c, ecc.BN254.ScalarField())
}
