package mining

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"nockminer/pkg/core"
	"nockminer/pkg/field"
	"nockminer/pkg/kernel"
	"nockminer/pkg/logging"
	"nockminer/pkg/metrics"
)

// candidateState is one candidate plus everything workers share while
// mining it: the derived seed and seal, the nonce cursor, and the retired
// flag that supersession and first-success both flip.
type candidateState struct {
	block      *core.CandidateBlock
	generation uint64
	seed       []field.Element
	seal       field.Element
	nextNonce  atomic.Uint64
	solved     bool // guarded by the coordinator mutex
	retired    chan struct{}
	issuedAt   time.Time
}

// claimSlice hands the caller an exclusive range [start, start+n).
func (cs *candidateState) claimSlice(n uint64) uint64 {
	return cs.nextNonce.Add(n) - n
}

func (cs *candidateState) isRetired() bool {
	select {
	case <-cs.retired:
		return true
	default:
		return false
	}
}

// Coordinator owns the worker set and the kernel pool. Candidates fan out
// to workers through the shared candidate slot; results fan in over one
// bounded channel; solved blocks, stats ticks and worker faults go upward
// on the event stream.
type Coordinator struct {
	cfg  Config
	pool *kernel.Pool
	met  *metrics.MinerMetrics
	log  *zap.Logger

	mu         sync.Mutex
	candidate  *candidateState
	generation uint64
	updated    chan struct{} // closed and replaced on every SubmitCandidate

	results chan attemptResult
	events  chan Event
	quit    chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc

	workers       []*worker
	activeWorkers int32
	wg            sync.WaitGroup
	loopDone      chan struct{}
	statsDone     chan struct{}

	started  bool
	stopOnce sync.Once

	attempts   atomic.Uint64
	scanned    atomic.Uint64
	solved     atomic.Uint64
	superseded atomic.Uint64
	failed     atomic.Uint64
}

func NewCoordinator(cfg Config, pool *kernel.Pool, met *metrics.MinerMetrics) (*Coordinator, error) {
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, fmt.Errorf("mining: coordinator requires a kernel pool")
	}
	if met == nil {
		met = metrics.NewMinerMetrics()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		cfg:       cfg,
		pool:      pool,
		met:       met,
		log:       logging.Named("coordinator"),
		updated:   make(chan struct{}),
		results:   make(chan attemptResult, cfg.Workers*core.ResultBufferFactor),
		events:    make(chan Event, core.EventBufferSize),
		quit:      make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
		loopDone:  make(chan struct{}),
		statsDone: make(chan struct{}),
	}, nil
}

// Start spawns the workers and the result and stats loops. The workers idle
// until the first SubmitCandidate.
func (c *Coordinator) Start() error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return fmt.Errorf("mining: coordinator already started")
	}
	c.started = true
	c.mu.Unlock()

	atomic.StoreInt32(&c.activeWorkers, int32(c.cfg.Workers))
	for i := 0; i < c.cfg.Workers; i++ {
		w := newWorker(i, c)
		c.workers = append(c.workers, w)
		c.wg.Add(1)
		go w.run()
	}

	go c.resultLoop()
	go c.statsLoop()

	c.log.Info("⛏️ mining coordinator started",
		zap.Int("workers", c.cfg.Workers),
		zap.Int("kernels", c.pool.Size()),
		zap.Uint64("nonce_slice", c.cfg.NonceSliceSize),
	)
	return nil
}

// SubmitCandidate replaces the current candidate. In-flight attempts on the
// old one finish but their results are discarded as superseded.
func (c *Coordinator) SubmitCandidate(block *core.CandidateBlock) {
	seed := sealSeed(block, c.cfg.PubKey)
	seal := sealCommitment(seed)

	c.mu.Lock()
	if c.candidate != nil && !c.candidate.isRetired() {
		close(c.candidate.retired)
	}
	c.generation++
	cand := &candidateState{
		block:      block,
		generation: c.generation,
		seed:       seed,
		seal:       seal,
		retired:    make(chan struct{}),
		issuedAt:   time.Now(),
	}
	c.candidate = cand
	close(c.updated)
	c.updated = make(chan struct{})
	c.mu.Unlock()

	c.met.CandidateHeight.Set(float64(block.Height))
	c.log.Info("📥 new candidate",
		zap.String("candidate", block.ShortID()),
		zap.Uint64("height", block.Height),
		zap.Uint64("target", block.Target),
	)
}

// Events is the upward stream of solved blocks, stats ticks and worker
// faults. Closed by Stop.
func (c *Coordinator) Events() <-chan Event {
	return c.events
}

// Stop signals the workers, waits for them to finish their current attempt,
// drains results, shuts the kernel pool down and closes the event stream.
// Safe to call more than once; concurrent callers block until the first
// finishes.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() {
		c.mu.Lock()
		started := c.started
		c.mu.Unlock()
		if !started {
			c.pool.Shutdown()
			close(c.events)
			return
		}

		c.log.Info("🛑 stopping mining coordinator")

		close(c.quit)
		c.cancel()

		c.wg.Wait()
		close(c.results)
		<-c.loopDone
		<-c.statsDone

		c.pool.Shutdown()
		close(c.events)

		c.log.Info("✅ mining coordinator stopped",
			zap.Uint64("attempts", c.attempts.Load()),
			zap.Uint64("nonces", c.scanned.Load()),
			zap.Uint64("solved", c.solved.Load()),
		)
	})
}

// WorkerStates snapshots every worker's state, indexed by worker ID.
func (c *Coordinator) WorkerStates() []WorkerState {
	states := make([]WorkerState, len(c.workers))
	for i, w := range c.workers {
		states[i] = w.State()
	}
	return states
}

// ActiveWorkers is the number of workers that have not stopped.
func (c *Coordinator) ActiveWorkers() int {
	return int(atomic.LoadInt32(&c.activeWorkers))
}

func (c *Coordinator) stopping() bool {
	select {
	case <-c.quit:
		return true
	default:
		return false
	}
}

// waitCandidate blocks until a live candidate is available, returning nil
// once the coordinator is stopping.
func (c *Coordinator) waitCandidate() *candidateState {
	for {
		c.mu.Lock()
		cand, updated := c.candidate, c.updated
		c.mu.Unlock()

		if cand != nil && !cand.isRetired() {
			return cand
		}

		select {
		case <-updated:
		case <-c.quit:
			return nil
		}
	}
}

// report sends one result into the fan-in channel. A full channel applies
// backpressure to the worker; the quit case keeps shutdown from deadlocking
// on a send nobody will drain.
func (c *Coordinator) report(res attemptResult) {
	select {
	case c.results <- res:
	case <-c.quit:
	}
}

// workerCollapse fires when the last worker stops while mining should still
// be running. Total loss of capacity is fatal; the coordinator stops
// cleanly and reports upward.
func (c *Coordinator) workerCollapse() {
	c.log.Error("🚨 all workers stopped, shutting down")
	c.emit(Event{
		Type:  EventWorkerFault,
		Fault: &WorkerFault{WorkerID: -1, Err: ErrWorkersCollapsed, Fatal: true},
	})
	go c.Stop()
}

func (c *Coordinator) resultLoop() {
	defer close(c.loopDone)
	for res := range c.results {
		c.handleResult(res)
	}
}

// handleResult processes fan-in results in arrival order. The first valid
// success per candidate wins; everything after it on the same candidate is
// superseded.
func (c *Coordinator) handleResult(res attemptResult) {
	if res.outcome == outcomeFault {
		c.met.FailedAttempts.Inc()
		c.emit(Event{
			Type:  EventWorkerFault,
			Fault: &WorkerFault{WorkerID: res.workerID, Err: res.err, Fatal: res.fatal},
		})
		return
	}

	c.attempts.Add(1)
	c.scanned.Add(res.scanned)
	c.met.ObserveAttempt(time.Now().Add(-res.elapsed), res.scanned)

	switch res.outcome {
	case OutcomeExhausted:
		// Nothing to do; the worker claims the next slice on its own.

	case OutcomeSuperseded:
		c.superseded.Add(1)
		c.met.SupersededAttempts.Inc()

	case OutcomeFailed:
		c.failed.Add(1)
		c.met.FailedAttempts.Inc()
		c.log.Warn("⚠️ attempt failed",
			zap.Int("worker", res.workerID),
			zap.Error(res.err),
		)

	case OutcomeSolved:
		c.handleSolved(res)
	}
}

func (c *Coordinator) handleSolved(res attemptResult) {
	cand := res.cand

	c.mu.Lock()
	stale := cand != c.candidate || cand.solved
	c.mu.Unlock()
	if stale {
		c.superseded.Add(1)
		c.met.SupersededAttempts.Inc()
		return
	}

	if !c.verifySolution(res) {
		c.failed.Add(1)
		c.met.ProofFailures.Inc()
		c.log.Warn("⚠️ rejected claimed solution",
			zap.Int("worker", res.workerID),
			zap.Uint64("nonce", res.nonce),
		)
		return
	}

	// Atomic claim: flip solved and retire under the same mutex used for
	// candidate replacement, then re-check staleness.
	c.mu.Lock()
	if cand != c.candidate || cand.solved {
		c.mu.Unlock()
		c.superseded.Add(1)
		c.met.SupersededAttempts.Inc()
		return
	}
	cand.solved = true
	close(cand.retired)
	c.mu.Unlock()

	c.solved.Add(1)
	c.met.SolvedBlocks.Inc()

	solved := &core.SolvedBlock{
		Candidate:      cand.block,
		Nonce:          res.nonce,
		Digest:         res.digest.Uint64(),
		Proof:          res.proof.Bytes,
		WorkCommitment: res.proof.WorkCommitment.Bytes(),
		WorkerID:       res.workerID,
		Elapsed:        time.Since(cand.issuedAt),
	}

	c.log.Info("🎉 candidate solved",
		zap.String("candidate", cand.block.ShortID()),
		zap.Uint64("height", cand.block.Height),
		zap.Uint64("nonce", res.nonce),
		zap.Int("worker", res.workerID),
		zap.Duration("elapsed", solved.Elapsed),
	)

	c.emit(Event{Type: EventSolved, Solved: solved})
}

// verifySolution re-checks a claimed success before it goes upward: the
// digest must meet the target and the proof must verify against the seal.
// Verification borrows a kernel like any other proof work.
func (c *Coordinator) verifySolution(res attemptResult) bool {
	if res.digest.Uint64() > res.cand.block.Target {
		return false
	}
	if res.proof == nil {
		return false
	}

	k, err := c.pool.Checkout(c.ctx)
	if err != nil {
		c.log.Warn("⚠️ no kernel for verification", zap.Error(err))
		return false
	}
	defer c.pool.Return(k)

	ok, err := k.Backend().Verify(res.proof, res.cand.seal)
	if err != nil {
		c.log.Warn("⚠️ proof verification errored", zap.Error(err))
		return false
	}
	return ok
}

func (c *Coordinator) statsLoop() {
	defer close(c.statsDone)

	ticker := time.NewTicker(c.cfg.StatsInterval)
	defer ticker.Stop()

	var lastAttempts, lastScanned uint64
	lastTick := time.Now()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			interval := now.Sub(lastTick)
			lastTick = now

			attempts := c.attempts.Load()
			scanned := c.scanned.Load()

			stats := &Stats{
				Attempts:       attempts,
				NoncesScanned:  scanned,
				Solved:         c.solved.Load(),
				Superseded:     c.superseded.Load(),
				Failed:         c.failed.Load(),
				AttemptsPerSec: float64(attempts-lastAttempts) / interval.Seconds(),
				NoncesPerSec:   float64(scanned-lastScanned) / interval.Seconds(),
				ActiveWorkers:  c.ActiveWorkers(),
				IdleKernels:    c.pool.Idle(),
				Interval:       interval,
			}
			lastAttempts, lastScanned = attempts, scanned

			c.mu.Lock()
			if c.candidate != nil {
				stats.CandidateID = c.candidate.block.ShortID()
				stats.Height = c.candidate.block.Height
			}
			c.mu.Unlock()

			c.met.ActiveWorkers.Set(float64(stats.ActiveWorkers))
			c.met.IdleKernels.Set(float64(stats.IdleKernels))

			c.emit(Event{Type: EventStats, Stats: stats})

		case <-c.quit:
			return
		}
	}
}

// emit delivers an event without ever blocking mining on a slow consumer.
func (c *Coordinator) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
		c.log.Debug("event dropped, stream full", zap.String("type", ev.Type.String()))
	}
}
