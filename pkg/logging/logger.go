package logging

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Structured logging for the miner. One zap logger is built at startup and
// shared through the package default; components take a named child via
// Named so every line carries its component.

// New builds a logger at the given level. jsonFormat selects the production
// JSON encoder; otherwise a human-readable console encoder is used.
func New(level string, jsonFormat bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logging: bad level %q: %w", level, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if jsonFormat {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(os.Stdout), lvl)
	return zap.New(core), nil
}

var (
	mu            sync.RWMutex
	defaultLogger = zap.NewNop()
)

// SetDefault installs the process-wide logger. Call once at startup before
// other components grab children.
func SetDefault(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = l
}

// Default returns the process-wide logger; a no-op logger until SetDefault.
func Default() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// Named returns a child of the default logger carrying a component name.
func Named(component string) *zap.Logger {
	return Default().Named(component)
}
