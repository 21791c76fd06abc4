package mining

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"nockminer/pkg/core"
	"nockminer/pkg/kernel"
	"nockminer/pkg/logging"
	"nockminer/pkg/utils"
)

// WorkerState is one worker's position in its cycle:
// Idle -> Fetching -> Attempting -> Reporting -> Idle, with
// Stopping -> Stopped reachable from anywhere on cancellation.
type WorkerState int32

const (
	StateIdle WorkerState = iota
	StateFetching
	StateAttempting
	StateReporting
	StateStopping
	StateStopped
)

func (s WorkerState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateAttempting:
		return "attempting"
	case StateReporting:
		return "reporting"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// worker is one mining thread of control. It owns no kernel long-term; each
// cycle checks one out for exactly one attempt.
type worker struct {
	id      int
	coord   *Coordinator
	state   atomic.Int32
	breaker *utils.CircuitBreaker
	log     *zap.Logger
}

func newWorker(id int, coord *Coordinator) *worker {
	return &worker{
		id:    id,
		coord: coord,
		breaker: utils.NewCircuitBreaker(
			fmt.Sprintf("worker-%d-checkout", id),
			core.CheckoutFailureLimit,
			time.Minute,
		),
		log: logging.Named("worker").With(zap.Int("worker", id)),
	}
}

func (w *worker) State() WorkerState {
	return WorkerState(w.state.Load())
}

func (w *worker) setState(s WorkerState) {
	w.state.Store(int32(s))
}

func (w *worker) run() {
	defer w.finish()

	for {
		select {
		case <-w.coord.quit:
			w.setState(StateStopping)
			return
		default:
		}

		w.setState(StateFetching)
		cand := w.coord.waitCandidate()
		if cand == nil {
			w.setState(StateStopping)
			return
		}

		k, err := w.checkout()
		if err != nil {
			if w.coord.stopping() {
				w.setState(StateStopping)
				return
			}
			if w.breaker.GetState() == "open" {
				// Three consecutive checkout failures. The worker is done;
				// the rest of the pool keeps mining.
				w.log.Error("🔴 kernel checkout degraded, worker stopping", zap.Error(err))
				w.coord.report(attemptResult{
					workerID: w.id,
					cand:     cand,
					outcome:  outcomeFault,
					err: utils.NewRecoverableError(
						err, utils.SeverityCritical, "worker", false),
					fatal: true,
				})
				w.setState(StateStopping)
				return
			}
			w.log.Warn("⚠️ kernel checkout failed, retrying", zap.Error(err))
			continue
		}

		w.setState(StateAttempting)
		res := w.attempt(k, cand)

		w.setState(StateReporting)
		w.coord.report(res)
		w.setState(StateIdle)
	}
}

// checkout acquires a kernel through the worker's circuit breaker so that
// consecutive failures are counted.
func (w *worker) checkout() (*kernel.Kernel, error) {
	var k *kernel.Kernel
	waitStart := time.Now()
	err := w.breaker.Call(func() error {
		got, err := w.coord.pool.Checkout(w.coord.ctx)
		if err != nil {
			return err
		}
		k = got
		return nil
	})
	if err != nil {
		return nil, err
	}
	w.coord.met.CheckoutWait.Observe(time.Since(waitStart).Seconds())
	return k, nil
}

// attempt claims one nonce slice of the candidate and scans it. The kernel
// goes back to the pool on every exit path, and a panic inside the scan is
// converted into a failed attempt rather than a dead worker.
func (w *worker) attempt(k *kernel.Kernel, cand *candidateState) (res attemptResult) {
	start := time.Now()
	defer w.coord.pool.Return(k)
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("🚨 attempt panicked", zap.Any("panic", r))
			res = attemptResult{
				workerID: w.id,
				cand:     cand,
				outcome:  OutcomeFailed,
				elapsed:  time.Since(start),
				err:      fmt.Errorf("attempt panic: %v", r),
			}
		}
	}()

	first := cand.claimSlice(w.coord.cfg.NonceSliceSize)
	res = attemptResult{workerID: w.id, cand: cand}

	for i := uint64(0); i < w.coord.cfg.NonceSliceSize; i++ {
		if i%core.SupersedeCheckStride == 0 && cand.isRetired() {
			res.outcome = OutcomeSuperseded
			res.scanned = i
			res.elapsed = time.Since(start)
			return res
		}

		nonce := first + i
		digest := powDigest(cand.seed, cand.seal, nonce, k.Scratch())
		if digest.Uint64() > cand.block.Target {
			continue
		}

		// Digest hit: pay for the proof.
		proofStart := time.Now()
		proof, err := k.Backend().Prove(cand.seal, digest, nonce)
		if err != nil {
			res.outcome = OutcomeFailed
			res.scanned = i + 1
			res.elapsed = time.Since(start)
			res.err = fmt.Errorf("proof generation: %w", err)
			return res
		}
		w.coord.met.ObserveProof(proofStart)

		res.outcome = OutcomeSolved
		res.nonce = nonce
		res.digest = digest
		res.proof = proof
		res.scanned = i + 1
		res.elapsed = time.Since(start)
		return res
	}

	res.outcome = OutcomeExhausted
	res.scanned = w.coord.cfg.NonceSliceSize
	res.elapsed = time.Since(start)
	return res
}

// finish runs on every worker exit. The last worker out checks whether the
// whole set collapsed while the coordinator still wanted to run.
func (w *worker) finish() {
	if r := recover(); r != nil {
		w.log.Error("🚨 worker panicked", zap.Any("panic", r))
	}
	w.setState(StateStopped)

	c := w.coord
	if atomic.AddInt32(&c.activeWorkers, -1) == 0 {
		select {
		case <-c.quit:
		default:
			c.workerCollapse()
		}
	}
	c.wg.Done()
}

var ErrWorkersCollapsed = errors.New("mining: all workers stopped")
