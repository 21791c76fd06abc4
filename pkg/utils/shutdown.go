package utils

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"nockminer/pkg/logging"
)

// ShutdownManager owns the process shutdown sequence: it cancels its context
// on SIGINT/SIGTERM, waits for registered tasks up to the grace period, then
// runs shutdown hooks in reverse registration order.
type ShutdownManager struct {
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	shutdownHooks  []func() error
	hookNames      []string
	hooksMutex     sync.Mutex
	gracePeriod    time.Duration
	shutdownSignal chan os.Signal
	log            *zap.Logger
	once           sync.Once
	done           chan struct{}
}

func NewShutdownManager(gracePeriod time.Duration) *ShutdownManager {
	ctx, cancel := context.WithCancel(context.Background())

	sm := &ShutdownManager{
		ctx:            ctx,
		cancel:         cancel,
		gracePeriod:    gracePeriod,
		shutdownSignal: make(chan os.Signal, 1),
		log:            logging.Named("shutdown"),
		done:           make(chan struct{}),
	}

	signal.Notify(sm.shutdownSignal, syscall.SIGINT, syscall.SIGTERM)
	go sm.waitForShutdownSignal()

	return sm
}

func (sm *ShutdownManager) waitForShutdownSignal() {
	sig := <-sm.shutdownSignal
	sm.log.Info("🛑 received shutdown signal", zap.String("signal", sig.String()))
	sm.InitiateShutdown()
}

func (sm *ShutdownManager) RegisterShutdownHook(name string, hook func() error) {
	sm.hooksMutex.Lock()
	defer sm.hooksMutex.Unlock()
	sm.shutdownHooks = append(sm.shutdownHooks, hook)
	sm.hookNames = append(sm.hookNames, name)
}

// InitiateShutdown cancels the context, waits for tasks up to the grace
// period, then runs every hook. Safe to call more than once; only the first
// call does the work.
func (sm *ShutdownManager) InitiateShutdown() {
	sm.once.Do(func() {
		sm.log.Info("🔄 initiating graceful shutdown", zap.Duration("grace_period", sm.gracePeriod))

		sm.cancel()

		waited := make(chan struct{})
		go func() {
			sm.wg.Wait()
			close(waited)
		}()

		select {
		case <-waited:
			sm.log.Info("✅ all tasks completed gracefully")
		case <-time.After(sm.gracePeriod):
			sm.log.Warn("⚠️ grace period expired, forcing shutdown")
		}

		sm.executeShutdownHooks()
		close(sm.done)
	})
}

func (sm *ShutdownManager) executeShutdownHooks() {
	sm.hooksMutex.Lock()
	hooks := make([]func() error, len(sm.shutdownHooks))
	names := make([]string, len(sm.hookNames))
	copy(hooks, sm.shutdownHooks)
	copy(names, sm.hookNames)
	sm.hooksMutex.Unlock()

	for i := len(hooks) - 1; i >= 0; i-- {
		sm.log.Info("📦 executing shutdown hook", zap.String("hook", names[i]))
		if err := hooks[i](); err != nil {
			sm.log.Warn("⚠️ shutdown hook failed", zap.String("hook", names[i]), zap.Error(err))
		}
	}
}

func (sm *ShutdownManager) Context() context.Context {
	return sm.ctx
}

// Done closes once shutdown hooks have finished. main blocks on this.
func (sm *ShutdownManager) Done() <-chan struct{} {
	return sm.done
}

func (sm *ShutdownManager) AddTask() {
	sm.wg.Add(1)
}

func (sm *ShutdownManager) TaskDone() {
	sm.wg.Done()
}
