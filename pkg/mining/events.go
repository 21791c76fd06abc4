package mining

import (
	"time"

	"nockminer/pkg/core"
)

// EventType discriminates entries on the coordinator's event stream.
type EventType int

const (
	// EventSolved carries a candidate solved with a verified proof.
	EventSolved EventType = iota

	// EventStats is the periodic statistics tick.
	EventStats

	// EventWorkerFault reports a degraded or stopped worker. A fault with
	// WorkerID -1 and Fatal set means the whole worker set collapsed and
	// the coordinator is stopping.
	EventWorkerFault
)

func (t EventType) String() string {
	switch t {
	case EventSolved:
		return "solved_block"
	case EventStats:
		return "stats_tick"
	case EventWorkerFault:
		return "worker_fault"
	default:
		return "unknown"
	}
}

// Event is one entry on the stream returned by Coordinator.Events. Exactly
// one of Solved, Stats or Fault is set, matching Type.
type Event struct {
	Type   EventType
	Solved *core.SolvedBlock
	Stats  *Stats
	Fault  *WorkerFault
}

// Stats is a snapshot of mining progress since startup plus rates over the
// last interval.
type Stats struct {
	CandidateID    string
	Height         uint64
	Attempts       uint64
	NoncesScanned  uint64
	Solved         uint64
	Superseded     uint64
	Failed         uint64
	AttemptsPerSec float64
	NoncesPerSec   float64
	ActiveWorkers  int
	IdleKernels    int
	Interval       time.Duration
}

// WorkerFault describes one worker's failure. Fatal faults mean the worker
// has stopped and will not come back.
type WorkerFault struct {
	WorkerID int
	Err      error
	Fatal    bool
}
