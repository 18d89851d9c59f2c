package config

import (
	"sync"

	"vector-rag/internal/logger"
)

// Loader memoizes the first successful Load. Failed loads are not cached,
// so a later call retries against the then-current environment.
type Loader struct {
	opts  []Option
	setup func()

	mu       sync.Mutex
	settings *Settings
}

// NewLoader returns a Loader that applies opts on its first load and
// installs the process logging configuration once it succeeds.
func NewLoader(opts ...Option) *Loader {
	return &Loader{opts: opts, setup: logger.Setup}
}

// Get returns the cached settings, loading them on first use.
func (l *Loader) Get() (*Settings, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.settings != nil {
		return l.settings, nil
	}
	s, err := Load(l.opts...)
	if err != nil {
		return nil, err
	}
	if l.setup != nil {
		l.setup()
	}
	l.settings = s
	return s, nil
}

var defaultLoader = NewLoader()

// Get returns the process-wide settings, loading them from the environment
// and the default dotenv file on first call.
func Get() (*Settings, error) {
	return defaultLoader.Get()
}
