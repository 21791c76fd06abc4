package core

import (
	"encoding/hex"
	"time"
)

// CandidateBlock is the unit of mining work handed down by the surrounding
// node: a block template plus its difficulty target. Immutable once issued;
// workers share it read-only. A digest d wins when d <= Target, so a smaller
// target means harder work.
type CandidateBlock struct {
	ID         string
	ParentHash []byte
	Payload    []byte
	Target     uint64
	Height     uint64
	Timestamp  time.Time
}

func (c *CandidateBlock) ShortID() string {
	if len(c.ID) <= 12 {
		return c.ID
	}
	return c.ID[:12]
}

// SolvedBlock is a candidate plus the winning nonce, its digest and the
// serialized proof, ready to hand upward to the networking/consensus layers.
type SolvedBlock struct {
	Candidate      *CandidateBlock
	Nonce          uint64
	Digest         uint64
	Proof          []byte
	WorkCommitment []byte
	WorkerID       int
	Elapsed        time.Duration
}

func (s *SolvedBlock) ProofHex() string {
	return hex.EncodeToString(s.Proof)
}
