// Package envmgr decides, before any analysis runs, whether a pod could be
// launched: which driver and interpreter it uses, and which of its input
// data files are present.
package envmgr

import (
	"log/slog"

	"github.com/agentic-research/mdtf/internal/probe"
)

// Manager resolves pod drivers and varlist files. It holds no mutable
// state, so one Manager may serve many pods concurrently provided its
// probes are safe for concurrent use.
type Manager struct {
	paths probe.PathProber
	execs probe.ExecutableFinder
	log   *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithPathProber replaces the host filesystem probe.
func WithPathProber(p probe.PathProber) Option {
	return func(m *Manager) { m.paths = p }
}

// WithExecutableFinder replaces the host PATH search.
func WithExecutableFinder(f probe.ExecutableFinder) Option {
	return func(m *Manager) { m.execs = f }
}

// WithLogger sets the logger used for debug tracing.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// New returns a Manager probing the host filesystem and PATH unless
// overridden by opts.
func New(opts ...Option) *Manager {
	m := &Manager{
		paths: probe.NewOSProber(),
		execs: probe.SystemFinder{},
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}
