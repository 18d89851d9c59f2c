package logger

import (
	"log/slog"
	"os"
	"sync"
)

// NameKey is the attribute that carries a logger's name.
const NameKey = "logger"

var setupOnce sync.Once

// Setup installs the process-wide default logger: fixed line format,
// INFO and above, written to stderr. Only the first call has an effect.
func Setup() {
	setupOnce.Do(func() {
		h := NewHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
		slog.SetDefault(slog.New(h))
	})
}

// Named returns the default logger tagged with name.
func Named(name string) *slog.Logger {
	return slog.Default().With(NameKey, name)
}
