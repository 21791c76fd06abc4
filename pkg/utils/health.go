package utils

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"nockminer/pkg/logging"
)

type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

type ComponentHealth struct {
	Name      string        `json:"name"`
	Status    HealthStatus  `json:"status"`
	Message   string        `json:"message"`
	LastCheck time.Time     `json:"last_check"`
	Uptime    time.Duration `json:"uptime"`
}

// HealthMonitor polls registered components. The miner registers the kernel
// pool and worker set so an operator can see degradation (stopped workers,
// drained pool) without reading logs.
type HealthMonitor struct {
	components    map[string]*ComponentHealth
	mutex         sync.RWMutex
	startTime     time.Time
	checkInterval time.Duration
	healthChecks  map[string]func() (HealthStatus, string)
	log           *zap.Logger
}

func NewHealthMonitor(checkInterval time.Duration) *HealthMonitor {
	return &HealthMonitor{
		components:    make(map[string]*ComponentHealth),
		startTime:     time.Now(),
		checkInterval: checkInterval,
		healthChecks:  make(map[string]func() (HealthStatus, string)),
		log:           logging.Named("health"),
	}
}

func (hm *HealthMonitor) RegisterComponent(name string, healthCheck func() (HealthStatus, string)) {
	hm.mutex.Lock()
	defer hm.mutex.Unlock()

	hm.components[name] = &ComponentHealth{
		Name:      name,
		Status:    StatusHealthy,
		LastCheck: time.Now(),
	}
	hm.healthChecks[name] = healthCheck
	hm.log.Info("💚 component registered", zap.String("component", name))
}

func (hm *HealthMonitor) CheckHealth(name string) {
	hm.mutex.Lock()
	defer hm.mutex.Unlock()

	check, exists := hm.healthChecks[name]
	if !exists {
		return
	}

	status, message := check()
	comp, ok := hm.components[name]
	if !ok {
		return
	}

	comp.Status = status
	comp.Message = message
	comp.LastCheck = time.Now()
	comp.Uptime = time.Since(hm.startTime)

	switch status {
	case StatusUnhealthy:
		hm.log.Error("⚠️ component unhealthy", zap.String("component", name), zap.String("message", message))
	case StatusDegraded:
		hm.log.Warn("⚠️ component degraded", zap.String("component", name), zap.String("message", message))
	}
}

func (hm *HealthMonitor) CheckAllHealth() {
	hm.mutex.RLock()
	names := make([]string, 0, len(hm.healthChecks))
	for name := range hm.healthChecks {
		names = append(names, name)
	}
	hm.mutex.RUnlock()

	for _, name := range names {
		hm.CheckHealth(name)
	}
}

func (hm *HealthMonitor) GetHealth(name string) *ComponentHealth {
	hm.mutex.RLock()
	defer hm.mutex.RUnlock()
	return hm.components[name]
}

func (hm *HealthMonitor) GetOverallHealth() HealthStatus {
	hm.mutex.RLock()
	defer hm.mutex.RUnlock()
	return hm.overallLocked()
}

func (hm *HealthMonitor) overallLocked() HealthStatus {
	hasUnhealthy := false
	hasDegraded := false

	for _, comp := range hm.components {
		switch comp.Status {
		case StatusUnhealthy:
			hasUnhealthy = true
		case StatusDegraded:
			hasDegraded = true
		}
	}

	if hasUnhealthy {
		return StatusUnhealthy
	}
	if hasDegraded {
		return StatusDegraded
	}
	return StatusHealthy
}

func (hm *HealthMonitor) GetHealthReport() string {
	hm.mutex.RLock()
	defer hm.mutex.RUnlock()

	report := map[string]interface{}{
		"overall_status": hm.overallLocked(),
		"uptime":         time.Since(hm.startTime).String(),
		"components":     hm.components,
		"timestamp":      time.Now(),
	}

	jsonReport, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error generating report: %v", err)
	}
	return string(jsonReport)
}

// StartPeriodicChecks polls all components for the life of the process.
func (hm *HealthMonitor) StartPeriodicChecks() {
	SafeGoroutine("health-monitor", func() {
		ticker := time.NewTicker(hm.checkInterval)
		defer ticker.Stop()

		for range ticker.C {
			hm.CheckAllHealth()
		}
	})
	hm.log.Info("💚 health monitor started", zap.Duration("interval", hm.checkInterval))
}
