package prover

import (
	"bytes"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"nockminer/pkg/field"
)

// WorkCircuit binds a secret mining digest and nonce to the public seal
// and work commitments: WorkCommitment == Digest*SealCommitment + Nonce.
// It is deliberately a binding relation, not a re-derivation of the digest
// chain; the real consensus predicate lives outside this core.
type WorkCircuit struct {
	Digest frontend.Variable `gnark:",secret"`
	Nonce  frontend.Variable `gnark:",secret"`

	SealCommitment frontend.Variable `gnark:",public"`
	WorkCommitment frontend.Variable `gnark:",public"`
}

func (circuit *WorkCircuit) Define(api frontend.API) error {
	bound := api.Add(api.Mul(circuit.Digest, circuit.SealCommitment), circuit.Nonce)
	api.AssertIsEqual(circuit.WorkCommitment, bound)
	return nil
}

// System is the groth16 Backend. Construction compiles the circuit and runs
// the proving/verifying key setup, which is the expensive part the kernel
// pool exists to amortize: one System per kernel, built once at warm-up.
type System struct {
	provingKey   groth16.ProvingKey
	verifyingKey groth16.VerifyingKey
	r1cs         constraint.ConstraintSystem
}

func NewSystem() (*System, error) {
	circuit := WorkCircuit{}

	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &circuit)
	if err != nil {
		return nil, fmt.Errorf("failed to compile circuit: %w", err)
	}

	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, fmt.Errorf("failed to setup keys: %w", err)
	}

	return &System{
		provingKey:   pk,
		verifyingKey: vk,
		r1cs:         ccs,
	}, nil
}

func (s *System) Prove(seal, digest field.Element, nonce uint64) (*Proof, error) {
	commitment := WorkCommitment(seal, digest, nonce)

	assignment := &WorkCircuit{
		Digest:         digest.Uint64(),
		Nonce:          nonce,
		SealCommitment: seal.Uint64(),
		WorkCommitment: commitment,
	}

	witness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("failed to create witness: %w", err)
	}

	proof, err := groth16.Prove(s.r1cs, s.provingKey, witness)
	if err != nil {
		return nil, fmt.Errorf("failed to generate proof: %w", err)
	}

	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize proof: %w", err)
	}

	return &Proof{Bytes: buf.Bytes(), WorkCommitment: commitment}, nil
}

func (s *System) Verify(p *Proof, seal field.Element) (bool, error) {
	publicAssignment := &WorkCircuit{
		SealCommitment: seal.Uint64(),
		WorkCommitment: p.WorkCommitment,
	}

	publicWitness, err := frontend.NewWitness(publicAssignment, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return false, fmt.Errorf("failed to create public witness: %w", err)
	}

	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(bytes.NewReader(p.Bytes)); err != nil {
		return false, fmt.Errorf("failed to unmarshal proof: %w", err)
	}

	if err := groth16.Verify(proof, s.verifyingKey, publicWitness); err != nil {
		return false, nil
	}

	return true, nil
}
