//go:build !linux && !windows

package platform

import "fmt"

// NewDefault reports that no window system backend exists for this OS.
func NewDefault(opts Options) (Backend, error) {
	return nil, fmt.Errorf("no window system backend for this platform: %w", ErrUnavailable)
}
