package kernel

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/google/uuid"

	"nockminer/pkg/core"
	"nockminer/pkg/field"
	"nockminer/pkg/prover"
)

var ErrPoolClosed = errors.New("kernel: pool closed")

// Kernel is one reusable proof-generation execution context: a proof
// backend whose setup cost is paid once at pool warm-up, plus an isolated
// scratch area so concurrent kernels never share mutable state.
type Kernel struct {
	id      string
	backend prover.Backend
	scratch []field.Element
	inUse   bool // guarded by the pool mutex
}

func (k *Kernel) ID() string { return k.id }

func (k *Kernel) Backend() prover.Backend { return k.backend }

// Scratch returns the kernel's working area. Only the worker currently
// holding the kernel may touch it.
func (k *Kernel) Scratch() []field.Element { return k.scratch }

// wipe resets the scratch between uses. Conservative default; cheap next to
// a proof attempt.
func (k *Kernel) wipe() {
	for i := range k.scratch {
		k.scratch[i] = 0
	}
}

// Factory builds the proof backend for one kernel. It runs once per kernel
// at warm-up.
type Factory func() (prover.Backend, error)

// Pool is a fixed set of pre-initialized kernels with checkout/return
// semantics. The idle set is a buffered channel (so checkout blocks on
// availability without spinning); kernel state and shutdown bookkeeping sit
// behind a mutex.
type Pool struct {
	mu          sync.Mutex
	cond        *sync.Cond
	kernels     []*Kernel
	idle        chan *Kernel
	quit        chan struct{}
	closed      bool
	outstanding int
}

// DefaultSize is min(KernelPoolFactor * logical CPUs, KernelPoolCap),
// never below one.
func DefaultSize() int {
	n := core.KernelPoolFactor * runtime.NumCPU()
	if n > core.KernelPoolCap {
		n = core.KernelPoolCap
	}
	if n < 1 {
		n = 1
	}
	return n
}

// NewPool eagerly warms up size kernels before any mining begins. Kernel
// initialization is the expensive part of an attempt; building them all up
// front moves that cost out of the mining hot path.
func NewPool(size int, factory Factory) (*Pool, error) {
	if size < 1 {
		size = 1
	}

	p := &Pool{
		idle: make(chan *Kernel, size),
		quit: make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.mu)

	for i := 0; i < size; i++ {
		backend, err := factory()
		if err != nil {
			p.release()
			return nil, fmt.Errorf("kernel: warm-up of instance %d: %w", i, err)
		}
		k := &Kernel{
			id:      uuid.NewString(),
			backend: backend,
			scratch: make([]field.Element, core.KernelScratchSize),
		}
		p.kernels = append(p.kernels, k)
		p.idle <- k
	}

	return p, nil
}

// Checkout blocks until a kernel is idle and returns exclusive access to
// it. It fails with ErrPoolClosed once Shutdown has begun, or with the
// context error if ctx ends first.
func (p *Pool) Checkout(ctx context.Context) (*Kernel, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	p.mu.Unlock()

	select {
	case k := <-p.idle:
		p.mu.Lock()
		if p.closed {
			// Shutdown raced the checkout; hand the kernel straight back.
			p.idle <- k
			p.cond.Broadcast()
			p.mu.Unlock()
			return nil, ErrPoolClosed
		}
		k.inUse = true
		p.outstanding++
		p.mu.Unlock()
		return k, nil
	case <-p.quit:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Return marks the kernel idle again. It must be called exactly once per
// successful Checkout, including on attempt failure; returning a kernel
// that is not checked out is a programming error.
func (p *Pool) Return(k *Kernel) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !k.inUse {
		panic("kernel: Return of a kernel that is not checked out")
	}
	k.inUse = false
	k.wipe()
	p.outstanding--
	p.idle <- k
	p.cond.Broadcast()
}

// Shutdown prevents further checkouts, waits for all outstanding kernels
// to be returned, then releases their scratch space. Idempotent.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.quit)

	for p.outstanding > 0 {
		p.cond.Wait()
	}
	p.mu.Unlock()

	p.release()
}

func (p *Pool) release() {
	for {
		select {
		case k := <-p.idle:
			k.scratch = nil
		default:
			return
		}
	}
}

// Size is the configured number of kernels.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.kernels)
}

// Idle is the number of kernels currently available for checkout.
func (p *Pool) Idle() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0
	}
	return len(p.idle)
}

// InUse is the number of kernels currently held by workers.
func (p *Pool) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outstanding
}

// Closed reports whether Shutdown has begun.
func (p *Pool) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
