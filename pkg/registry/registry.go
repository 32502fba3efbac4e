// Package registry implements the process-wide candidate registry and the
// election/apply engine. Exactly one Registry exists per process (attached to
// the host root via pkg/handle); every statically embedded copy of the support
// library registers a versioned candidate here, and when the bootstrap hook
// fires the highest-versioned candidate's initialization runs exactly once.
package registry

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/modkit-go/unison/pkg/blackboard"
	"github.com/modkit-go/unison/pkg/errors"
	"github.com/modkit-go/unison/pkg/logging"
	"github.com/modkit-go/unison/pkg/version"
)

// Phase is the registry's candidate-set lifecycle phase.
type Phase int32

const (
	// Collecting accepts candidate registrations.
	Collecting Phase = iota
	// Elected means a winner has been chosen but its initializer is still running.
	Elected
	// Applied means election ran and the candidate set was cleared.
	Applied
)

// String returns the phase name for diagnostics.
func (p Phase) String() string {
	switch p {
	case Collecting:
		return "collecting"
	case Elected:
		return "elected"
	case Applied:
		return "applied"
	default:
		return "invalid"
	}
}

// InitFunc is the run-once initialization bundle a module copy contributes.
// It receives the shared board so it can publish process-wide tables.
type InitFunc func(*blackboard.Board) error

// Candidate is one module copy's bid to be the canonical library copy.
type Candidate struct {
	// Version is the copy's dotted-numeric library version, e.g. "2.7.0.0".
	Version string
	// Source identifies the contributing module, for diagnostics only.
	Source string
	// Init runs if and only if this candidate wins the election.
	Init InitFunc
}

// Registry collects candidates keyed by version string and owns the shared
// board. It is created once per process and never destroyed.
type Registry struct {
	mu         sync.Mutex
	candidates map[string]Candidate
	board      *blackboard.Board
	phase      atomic.Int32
}

// New creates a Registry in the Collecting phase with an empty board.
func New() *Registry {
	return &Registry{
		candidates: make(map[string]Candidate),
		board:      blackboard.New(),
	}
}

// Board returns the shared blackboard owned by this registry.
func (r *Registry) Board() *blackboard.Board {
	return r.board
}

// Phase returns the current lifecycle phase.
func (r *Registry) Phase() Phase {
	return Phase(r.phase.Load())
}

// Count returns the number of retained candidates.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.candidates)
}

// AddCandidate registers a candidate. Unparseable versions are rejected with a
// MALFORMED_VERSION error; a duplicate version string is discarded silently
// (first registration wins). Registration never triggers election.
func (r *Registry) AddCandidate(c Candidate) error {
	logger := logging.GetLogger("registry")

	if c.Init == nil {
		return errors.Newf(errors.ErrInvalidInput, "candidate %q has no initializer", c.Source)
	}

	if _, err := version.Parse(c.Version); err != nil {
		logger.Warn().
			Str("source", c.Source).
			Str("version", c.Version).
			Msg("Discarding candidate with malformed version")
		return errors.Wrapf(err, errors.ErrMalformedVersion, "candidate %q rejected", c.Source).
			WithDetail("source", c.Source).
			WithDetail("version", c.Version)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Phase() != Collecting {
		return errors.Newf(errors.ErrInvalidInput, "registration is closed, registry is %s", r.Phase())
	}

	if existing, exists := r.candidates[c.Version]; exists {
		logger.Debug().
			Str("version", c.Version).
			Str("source", c.Source).
			Str("kept", existing.Source).
			Msg("Duplicate candidate version, first registration wins")
		return nil
	}

	r.candidates[c.Version] = c
	logger.Debug().
		Str("version", c.Version).
		Str("source", c.Source).
		Msg("Candidate registered")
	return nil
}

// ApplyLatest elects the highest-versioned candidate, publishes the winning
// version on the board under blackboard.KeyVersion, runs the winner's
// initializer, and clears the candidate set.
//
// Nothing propagates to the caller: a failing or panicking initializer is
// logged and swallowed, because one module's broken bootstrap must not take
// down the host or the other modules.
func (r *Registry) ApplyLatest() {
	logger := logging.GetLogger("registry")

	r.mu.Lock()

	if r.Phase() == Applied {
		r.mu.Unlock()
		logger.Warn().Msg("Election already applied, ignoring repeat invocation")
		return
	}

	if len(r.candidates) == 0 {
		r.mu.Unlock()
		logger.Warn().Msg("Election fired with no candidates, nothing to apply")
		return
	}

	winner, ok := r.elect()
	if !ok {
		// Every retained candidate failed to re-parse. AddCandidate validates
		// versions up front, so this is the NO_CANDIDATES condition too.
		r.candidates = make(map[string]Candidate)
		r.phase.Store(int32(Applied))
		r.mu.Unlock()
		logger.Warn().Msg("No electable candidates, nothing to apply")
		return
	}

	r.phase.Store(int32(Elected))
	r.mu.Unlock()

	logger.Info().
		Str("version", winner.Version).
		Str("source", winner.Source).
		Msg("Elected canonical library copy")

	r.board.Put(blackboard.KeyVersion, winner.Version)
	r.runInit(winner)

	r.mu.Lock()
	r.candidates = make(map[string]Candidate)
	r.phase.Store(int32(Applied))
	r.mu.Unlock()
}

// elect picks the maximum-version candidate, excluding any whose version no
// longer parses. Caller holds r.mu.
func (r *Registry) elect() (Candidate, bool) {
	logger := logging.GetLogger("registry")

	var best Candidate
	var bestVersion *version.Version

	for _, c := range r.candidates {
		v, err := version.Parse(c.Version)
		if err != nil {
			logger.Warn().
				Str("source", c.Source).
				Str("version", c.Version).
				Msg("Excluding malformed candidate from election")
			continue
		}
		if bestVersion == nil || bestVersion.LessThan(v) {
			best = c
			bestVersion = v
		}
	}

	return best, bestVersion != nil
}

// runInit invokes the winner's initializer, containing both error returns and
// panics.
func (r *Registry) runInit(winner Candidate) {
	logger := logging.GetLogger("registry")

	defer func() {
		if recovered := recover(); recovered != nil {
			err := errors.Newf(errors.ErrInitFailure, "initializer panicked: %v", recovered).
				WithDetail("source", winner.Source).
				WithDetail("version", winner.Version)
			logger.Error().
				Err(err).
				Str("source", winner.Source).
				Str("version", winner.Version).
				Str("panic", fmt.Sprintf("%v", recovered)).
				Msg("Winning candidate's initializer panicked")
		}
	}()

	if err := winner.Init(r.board); err != nil {
		wrapped := errors.Wrap(err, errors.ErrInitFailure, "winning candidate's initializer failed").
			WithDetail("source", winner.Source).
			WithDetail("version", winner.Version)
		logger.Error().
			Err(wrapped).
			Str("source", winner.Source).
			Str("version", winner.Version).
			Msg("Winning candidate's initializer failed")
		return
	}

	logger.Info().
		Str("version", winner.Version).
		Str("source", winner.Source).
		Msg("Initialization applied")
}
