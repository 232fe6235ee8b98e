// Package compose applies accent policies to taskbar surfaces and sits on the
// shell's composition calls.
package compose

import (
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"github.com/1broseidon/taskbg/internal/platform"
	"github.com/1broseidon/taskbg/internal/style"
)

// Styler writes policies through the raw compositor only. It never goes
// through the intercepted entry point, so it is safe to call from inside it.
type Styler struct {
	comp     platform.Compositor
	resolver *style.Resolver
	logger   *slog.Logger

	mu   sync.Mutex
	last map[platform.WindowID]style.AccentPolicy
}

// NewStyler creates a styler.
func NewStyler(comp platform.Compositor, resolver *style.Resolver, logger *slog.Logger) *Styler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Styler{
		comp:     comp,
		resolver: resolver,
		logger:   logger,
		last:     make(map[platform.WindowID]style.AccentPolicy),
	}
}

// Apply resolves settings and writes the result to w.
func (s *Styler) Apply(w platform.WindowID, settings style.Settings) (style.AccentPolicy, error) {
	policy := s.resolver.Resolve(settings)
	if err := s.set(w, policy); err != nil {
		return policy, err
	}
	return policy, nil
}

// Reset writes the shell's own default policy to w.
func (s *Styler) Reset(w platform.WindowID) error {
	return s.set(w, style.DefaultPolicy())
}

func (s *Styler) set(w platform.WindowID, policy style.AccentPolicy) error {
	if err := s.comp.SetAccentPolicy(w, policy); err != nil {
		return fmt.Errorf("failed to set accent policy on %#x: %w", w, err)
	}
	s.mu.Lock()
	s.last[w] = policy
	s.mu.Unlock()
	s.logger.Debug("accent policy set", "window", fmt.Sprintf("%#x", w), "policy", policy.String())
	return nil
}

// Applied returns the last policy written to each window.
func (s *Styler) Applied() map[platform.WindowID]style.AccentPolicy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.last)
}

// Prune drops bookkeeping for windows not in keep.
func (s *Styler) Prune(keep []platform.WindowID) {
	live := make(map[platform.WindowID]struct{}, len(keep))
	for _, w := range keep {
		live[w] = struct{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for w := range s.last {
		if _, ok := live[w]; !ok {
			delete(s.last, w)
		}
	}
}
