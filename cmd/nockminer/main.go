package main

import (
	"encoding/binary"
	"fmt"
	"math"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/sha3"

	"nockminer/pkg/core"
	"nockminer/pkg/kernel"
	"nockminer/pkg/logging"
	"nockminer/pkg/metrics"
	"nockminer/pkg/mining"
	"nockminer/pkg/prover"
	"nockminer/pkg/utils"
)

func main() {
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println("⛏️  NOCKMINER Proof-of-Work Mining Core")
	fmt.Println("   Field arithmetic + pooled proof kernels")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	logLevel := envString("NOCKMINER_LOG_LEVEL", "info")
	useJSONLogs := os.Getenv("NOCKMINER_JSON_LOGS") == "true"

	logger, err := logging.New(logLevel, useJSONLogs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)
	log := logging.Named("main")

	shutdownMgr := utils.NewShutdownManager(10 * time.Second)
	minerMetrics := metrics.NewMinerMetrics()

	cfg := mining.Config{
		Workers:        envInt("NOCKMINER_WORKERS", 0),
		KernelPoolSize: envInt("NOCKMINER_KERNELS", 0),
		PubKey:         []byte(envString("NOCKMINER_PUBKEY", "")),
		NonceSliceSize: uint64(envInt("NOCKMINER_NONCE_SLICE", 0)),
	}
	if len(cfg.PubKey) == 0 {
		// DEV MODE: no key configured, mine under a throwaway identity.
		devKey := uuid.NewString()
		log.Warn("⚠️ no NOCKMINER_PUBKEY set, generated dev identity", zap.String("pubkey", devKey))
		cfg.PubKey = []byte(devKey)
	}

	target := uint64(math.MaxUint64 >> 20)
	if targetStr := os.Getenv("NOCKMINER_TARGET"); targetStr != "" {
		if parsed, err := strconv.ParseUint(targetStr, 10, 64); err == nil {
			target = parsed
		}
	}

	poolSize := cfg.KernelPoolSize
	if poolSize <= 0 {
		poolSize = kernel.DefaultSize()
	}

	log.Info("🔥 warming up kernel pool", zap.Int("kernels", poolSize))
	warmStart := time.Now()
	pool, err := kernel.NewPool(poolSize, func() (prover.Backend, error) {
		return prover.NewSystem()
	})
	if err != nil {
		log.Fatal("❌ kernel pool warm-up failed", zap.Error(err))
	}
	log.Info("✅ kernel pool ready",
		zap.Int("kernels", pool.Size()),
		zap.Duration("warm_up", time.Since(warmStart)),
	)

	coordinator, err := mining.NewCoordinator(cfg, pool, minerMetrics)
	if err != nil {
		log.Fatal("❌ failed to build coordinator", zap.Error(err))
	}
	if err := coordinator.Start(); err != nil {
		log.Fatal("❌ failed to start coordinator", zap.Error(err))
	}
	shutdownMgr.RegisterShutdownHook("coordinator", func() error {
		coordinator.Stop()
		return nil
	})

	healthMonitor := utils.NewHealthMonitor(15 * time.Second)
	workerTotal := coordinator.ActiveWorkers()
	healthMonitor.RegisterComponent("workers", func() (utils.HealthStatus, string) {
		active := coordinator.ActiveWorkers()
		switch {
		case active == 0:
			return utils.StatusUnhealthy, "all workers stopped"
		case active < workerTotal:
			return utils.StatusDegraded, fmt.Sprintf("%d/%d workers running", active, workerTotal)
		default:
			return utils.StatusHealthy, fmt.Sprintf("%d workers running", active)
		}
	})
	healthMonitor.RegisterComponent("kernel-pool", func() (utils.HealthStatus, string) {
		if pool.Closed() {
			return utils.StatusUnhealthy, "pool shut down"
		}
		return utils.StatusHealthy, fmt.Sprintf("%d idle / %d total", pool.Idle(), pool.Size())
	})
	healthMonitor.StartPeriodicChecks()

	metricsPort := envInt("NOCKMINER_METRICS_PORT", 9090)
	mux := http.NewServeMux()
	mux.Handle("/metrics", minerMetrics.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, healthMonitor.GetHealthReport())
	})
	utils.SafeGoroutine("metrics-server", func() {
		addr := fmt.Sprintf(":%d", metricsPort)
		log.Info("📊 metrics server listening", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Warn("⚠️ metrics server error", zap.Error(err))
		}
	})

	// The surrounding node normally supplies candidates over its own
	// transport; this binary stands in with a self-advancing chain so the
	// core mines end to end out of the box.
	utils.SafeGoroutine("candidate-feed", func() {
		height := uint64(1)
		parent := []byte("nockminer-genesis")
		coordinator.SubmitCandidate(newCandidate(height, parent, target))

		for {
			select {
			case ev, open := <-coordinator.Events():
				if !open {
					return
				}
				switch ev.Type {
				case mining.EventSolved:
					solved := ev.Solved
					log.Info("🎉 block mined",
						zap.String("candidate", solved.Candidate.ShortID()),
						zap.Uint64("height", solved.Candidate.Height),
						zap.Uint64("nonce", solved.Nonce),
						zap.Int("worker", solved.WorkerID),
						zap.Duration("elapsed", solved.Elapsed),
					)
					height++
					parent = solvedParent(solved)
					coordinator.SubmitCandidate(newCandidate(height, parent, target))

				case mining.EventStats:
					stats := ev.Stats
					log.Info("📈 mining stats",
						zap.String("candidate", stats.CandidateID),
						zap.Float64("nonces_per_sec", stats.NoncesPerSec),
						zap.Uint64("attempts", stats.Attempts),
						zap.Uint64("solved", stats.Solved),
						zap.Int("active_workers", stats.ActiveWorkers),
						zap.Int("idle_kernels", stats.IdleKernels),
					)

				case mining.EventWorkerFault:
					fault := ev.Fault
					if fault.Fatal && fault.WorkerID == -1 {
						log.Error("🚨 mining capacity collapsed", zap.Error(fault.Err))
						go shutdownMgr.InitiateShutdown()
						return
					}
					log.Warn("⚠️ worker fault",
						zap.Int("worker", fault.WorkerID),
						zap.Bool("fatal", fault.Fatal),
						zap.Error(fault.Err),
					)
				}

			case <-shutdownMgr.Context().Done():
				return
			}
		}
	})

	fmt.Println("💡 Miner is running.")
	fmt.Printf("   - Metrics:  http://localhost:%d/metrics\n", metricsPort)
	fmt.Printf("   - Health:   http://localhost:%d/health\n", metricsPort)
	fmt.Println("   - Press Ctrl+C to stop")
	fmt.Println()

	<-shutdownMgr.Done()

	fmt.Println("\n✅ Shutdown complete. Goodbye!")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
}

func newCandidate(height uint64, parent []byte, target uint64) *core.CandidateBlock {
	payload := make([]byte, 16)
	binary.LittleEndian.PutUint64(payload[:8], height)
	binary.LittleEndian.PutUint64(payload[8:], uint64(time.Now().UnixNano()))

	return &core.CandidateBlock{
		ID:         uuid.NewString(),
		ParentHash: parent,
		Payload:    payload,
		Target:     target,
		Height:     height,
		Timestamp:  time.Now(),
	}
}

func solvedParent(solved *core.SolvedBlock) []byte {
	buf := make([]byte, 16, 16+len(solved.Proof))
	binary.LittleEndian.PutUint64(buf[:8], solved.Digest)
	binary.LittleEndian.PutUint64(buf[8:], solved.Nonce)
	sum := sha3.Sum256(append(buf, solved.Proof...))
	return sum[:]
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}
