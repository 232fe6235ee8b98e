package config

import (
	"sync/atomic"

	"github.com/1broseidon/taskbg/internal/style"
)

// Snapshot is one immutable generation of the configuration.
type Snapshot struct {
	Version  uint64
	Config   *Config
	Settings style.Settings
}

// Store holds the current snapshot. Readers keep the snapshot they got for
// the whole evaluation; Replace swaps in a new generation atomically.
type Store struct {
	current atomic.Pointer[Snapshot]
	version atomic.Uint64
}

// NewStore creates a store holding cfg as version 1. A nil cfg means the
// defaults.
func NewStore(cfg *Config) *Store {
	s := &Store{}
	s.Replace(cfg)
	return s
}

// Current returns the latest snapshot.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Replace publishes cfg as a new snapshot and returns it. The caller must
// not modify cfg afterwards.
func (s *Store) Replace(cfg *Config) *Snapshot {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	snap := &Snapshot{
		Version:  s.version.Add(1),
		Config:   cfg,
		Settings: cfg.Settings(),
	}
	s.current.Store(snap)
	return snap
}
