// Package hook provides the one-shot latch behind the bootstrap hook: a
// monotonic NotArmed -> Armed -> Fired state machine. The fire-once guarantee
// rests on a single atomic check-and-set, independent of how many times the
// host raises the underlying lifecycle event.
package hook

import (
	"sync"
	"sync/atomic"

	"github.com/modkit-go/unison/pkg/errors"
	"github.com/modkit-go/unison/pkg/logging"
)

// State is a latch lifecycle phase.
type State int32

const (
	NotArmed State = iota
	Armed
	Fired
)

// String returns the state name for diagnostics.
func (s State) String() string {
	switch s {
	case NotArmed:
		return "not-armed"
	case Armed:
		return "armed"
	case Fired:
		return "fired"
	default:
		return "invalid"
	}
}

// Latch is a one-shot trigger. Transitions are one-way: once Fired it can
// never run again, and it cannot be re-armed.
type Latch struct {
	mu    sync.Mutex
	state atomic.Int32
	fn    func()
}

// NewLatch creates a latch in the NotArmed state.
func NewLatch() *Latch {
	return &Latch{}
}

// Arm installs fn and moves the latch to Armed. Arming an already armed or
// fired latch is rejected.
func (l *Latch) Arm(fn func()) error {
	if fn == nil {
		return errors.New(errors.ErrInvalidInput, "latch function cannot be nil")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if State(l.state.Load()) != NotArmed {
		return errors.Newf(errors.ErrAlreadyExists, "latch is already %s", State(l.state.Load()))
	}

	l.fn = fn
	l.state.Store(int32(Armed))
	return nil
}

// Fire runs the armed function exactly once and reports whether it ran this
// call. Firing before arming, or after a previous fire, is a no-op.
func (l *Latch) Fire() bool {
	if !l.state.CompareAndSwap(int32(Armed), int32(Fired)) {
		logger := logging.GetLogger("hook")
		logger.Debug().Stringer("state", State(l.state.Load())).Msg("Latch fire skipped")
		return false
	}

	l.fn()
	return true
}

// State returns the current latch state.
func (l *Latch) State() State {
	return State(l.state.Load())
}
