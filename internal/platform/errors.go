package platform

import "errors"

var (
	// ErrUnavailable means a required window-system capability could not
	// be obtained. Initialization aborts and nothing is applied.
	ErrUnavailable = errors.New("capability unavailable")

	// ErrNotReady means the host's surfaces do not exist yet. Callers skip
	// silently.
	ErrNotReady = errors.New("host not ready")
)
