package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MinerMetrics is the full Prometheus surface of the mining core. All
// metrics live on one registry so the /metrics endpoint exposes exactly
// what the miner owns and nothing from the process default.
type MinerMetrics struct {
	registry *prometheus.Registry

	AttemptsTotal      prometheus.Counter
	NoncesScanned      prometheus.Counter
	SolvedBlocks       prometheus.Counter
	SupersededAttempts prometheus.Counter
	FailedAttempts     prometheus.Counter
	ProofsGenerated    prometheus.Counter
	ProofFailures      prometheus.Counter

	CandidateHeight prometheus.Gauge
	ActiveWorkers   prometheus.Gauge
	IdleKernels     prometheus.Gauge

	AttemptDuration prometheus.Histogram
	ProofDuration   prometheus.Histogram
	CheckoutWait    prometheus.Histogram
}

func NewMinerMetrics() *MinerMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &MinerMetrics{
		registry: reg,
		AttemptsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "nockminer_attempts_total",
			Help: "Total number of mining attempts (nonce slices) completed",
		}),
		NoncesScanned: factory.NewCounter(prometheus.CounterOpts{
			Name: "nockminer_nonces_scanned_total",
			Help: "Total number of nonces evaluated against the target",
		}),
		SolvedBlocks: factory.NewCounter(prometheus.CounterOpts{
			Name: "nockminer_blocks_solved_total",
			Help: "Total number of candidates solved with a verified proof",
		}),
		SupersededAttempts: factory.NewCounter(prometheus.CounterOpts{
			Name: "nockminer_attempts_superseded_total",
			Help: "Total number of attempts abandoned because the candidate was replaced",
		}),
		FailedAttempts: factory.NewCounter(prometheus.CounterOpts{
			Name: "nockminer_attempts_failed_total",
			Help: "Total number of attempts that ended in an error",
		}),
		ProofsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Name: "nockminer_proofs_generated_total",
			Help: "Total number of proofs produced by kernels",
		}),
		ProofFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "nockminer_proof_failures_total",
			Help: "Total number of proof generations or verifications that failed",
		}),
		CandidateHeight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "nockminer_candidate_height",
			Help: "Height of the candidate currently being mined",
		}),
		ActiveWorkers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "nockminer_workers_active",
			Help: "Number of workers currently running",
		}),
		IdleKernels: factory.NewGauge(prometheus.GaugeOpts{
			Name: "nockminer_kernels_idle",
			Help: "Number of kernels available for checkout",
		}),
		AttemptDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "nockminer_attempt_duration_seconds",
			Help:    "Wall time of one mining attempt over a nonce slice",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		}),
		ProofDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "nockminer_proof_duration_seconds",
			Help:    "Wall time of one proof generation",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
		}),
		CheckoutWait: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "nockminer_kernel_checkout_wait_seconds",
			Help:    "Time a worker waited for an idle kernel",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1.0, 5.0},
		}),
	}
}

// Handler serves the miner's registry in the Prometheus text format.
func (m *MinerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry so callers can add collectors
// of their own, e.g. process or Go runtime collectors in the binary.
func (m *MinerMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveAttempt records one finished attempt.
func (m *MinerMetrics) ObserveAttempt(start time.Time, nonces uint64) {
	m.AttemptsTotal.Inc()
	m.NoncesScanned.Add(float64(nonces))
	m.AttemptDuration.Observe(time.Since(start).Seconds())
}

// ObserveProof records one proof generation.
func (m *MinerMetrics) ObserveProof(start time.Time) {
	m.ProofsGenerated.Inc()
	m.ProofDuration.Observe(time.Since(start).Seconds())
}
