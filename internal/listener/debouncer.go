package listener

import "github.com/1broseidon/taskbg/internal/platform"

// debouncer collects displays touched by window events until the armed
// timer fires. It is owned by the listener goroutine and is not safe for
// concurrent use.
type debouncer struct {
	pending map[platform.DisplayID]struct{}
	order   []platform.DisplayID
	armed   bool
}

func newDebouncer() *debouncer {
	return &debouncer{pending: make(map[platform.DisplayID]struct{})}
}

// Add records d as pending. It returns true when the caller must arm the
// timer, i.e. on the idle to debouncing transition. Later events only join
// the pending set.
func (d *debouncer) Add(id platform.DisplayID) bool {
	if _, ok := d.pending[id]; !ok {
		d.pending[id] = struct{}{}
		d.order = append(d.order, id)
	}
	if d.armed {
		return false
	}
	d.armed = true
	return true
}

// Flush returns the pending displays in first-seen order, clears them and
// goes back to idle.
func (d *debouncer) Flush() []platform.DisplayID {
	out := d.order
	d.order = nil
	clear(d.pending)
	d.armed = false
	return out
}

// Debouncing reports whether a timer is armed.
func (d *debouncer) Debouncing() bool {
	return d.armed
}

// Len returns the number of pending displays.
func (d *debouncer) Len() int {
	return len(d.order)
}
