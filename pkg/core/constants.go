package core

import "time"

const (
	// DefaultWorkerCap bounds the worker pool; the default worker count is
	// min(logical CPUs, DefaultWorkerCap).
	DefaultWorkerCap = 8

	// KernelPoolFactor and KernelPoolCap size the kernel pool at
	// min(KernelPoolFactor * logical CPUs, KernelPoolCap), never below one.
	// 2x cores overlaps one kernel's setup/teardown with productive use of
	// another without unbounded memory growth.
	KernelPoolFactor = 2
	KernelPoolCap    = 24

	// KernelScratchSize is the per-kernel scratch area in field elements.
	KernelScratchSize = 256

	// DigestSeedWidth is how many field elements the candidate seal expands
	// into before the digest chain runs.
	DigestSeedWidth = 8

	// DefaultNonceSliceSize is the number of nonces one mining attempt
	// scans before reporting back. Small enough to keep shutdown latency
	// bounded, large enough to amortize a kernel checkout.
	DefaultNonceSliceSize = 4096

	// SupersedeCheckStride is how often (in nonces) an in-flight attempt
	// looks at the candidate's retired flag.
	SupersedeCheckStride = 256

	DefaultStatsInterval = 10 * time.Second

	// ResultBufferFactor scales the fan-in result channel: capacity is
	// workers * factor. A full channel applies backpressure to workers
	// instead of dropping results.
	ResultBufferFactor = 2

	EventBufferSize = 64

	// CheckoutFailureLimit is how many consecutive kernel-checkout failures
	// a worker tolerates before degrading to Stopped.
	CheckoutFailureLimit = 3
)
