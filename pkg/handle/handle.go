// Package handle is the structural-access boundary between module copies and
// the process-wide registry. Each extension module statically embeds its own
// copy of the support library, so no compiled type is shared across module
// boundaries; a copy reaches the registry by looking up a well-known
// attachment name on the host root and invoking methods by NAME through
// reflection, never by static cast.
//
// The conventional surface every registry version must expose:
//
//	AddCandidate(candidate) error   // candidate has Version/Source/Init fields
//	ApplyLatest()
//	Board() *blackboard.Board
//
// New registry versions may add methods but must keep these stable, the same
// way a C ABI or an exported plugin symbol stays stable across builds.
package handle

import (
	"reflect"

	"github.com/modkit-go/unison/pkg/blackboard"
	"github.com/modkit-go/unison/pkg/errors"
	"github.com/modkit-go/unison/pkg/hook"
	"github.com/modkit-go/unison/pkg/host"
	"github.com/modkit-go/unison/pkg/logging"
	"github.com/modkit-go/unison/pkg/registry"
)

// AttachmentName is the well-known name the registry lives under on the host
// root. Every library version must agree on it forever.
const AttachmentName = "unison.registry"

// requiredMethods is the conventional surface checked at Obtain time.
var requiredMethods = []string{"AddCandidate", "ApplyLatest", "Board"}

// RegistryHandle wraps whichever copy's registry instance won the attachment
// race, exposing it through by-name dispatch.
type RegistryHandle struct {
	target  reflect.Value
	created bool
}

// Obtain finds the process-wide registry on the host root, creating and
// attaching one (and installing the bootstrap hook) if this is the first
// module copy to load.
//
// A nil root means the host has not initialized yet; the caller should log
// the HOST_NOT_READY error and skip registration for this load attempt.
func Obtain(root *host.Root) (*RegistryHandle, error) {
	logger := logging.GetLogger("handle")

	if root == nil {
		return nil, errors.New(errors.ErrHostNotReady, "host root is not reachable")
	}

	if attached, ok := root.Attachment(AttachmentName); ok {
		h, err := wrap(attached, false)
		if err != nil {
			return nil, err
		}
		logger.Debug().Msg("Joined existing registry")
		return h, nil
	}

	reg := registry.New()
	if err := root.Attach(AttachmentName, reg); err != nil {
		// Another copy attached between lookup and attach. Host load is
		// single-threaded in practice, but losing this race is still benign:
		// join whatever won.
		if attached, ok := root.Attachment(AttachmentName); ok {
			return wrap(attached, false)
		}
		return nil, errors.Wrap(err, errors.ErrInternal, "registry attachment failed")
	}

	h, err := wrap(reg, true)
	if err != nil {
		return nil, err
	}

	// Exactly one copy ever reaches this point, so exactly one hook exists.
	latch := hook.NewLatch()
	if err := latch.Arm(h.applyLatest); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "bootstrap hook arming failed")
	}
	root.OnPostLoad(func() { latch.Fire() })

	logger.Info().Msg("Created registry and installed bootstrap hook")
	return h, nil
}

// wrap validates that target exposes the conventional registry surface and
// builds a handle around it.
func wrap(target interface{}, created bool) (*RegistryHandle, error) {
	value := reflect.ValueOf(target)
	if !value.IsValid() {
		return nil, errors.New(errors.ErrAdapterType, "attachment is nil")
	}

	for _, name := range requiredMethods {
		if !value.MethodByName(name).IsValid() {
			return nil, errors.Newf(errors.ErrAdapterType,
				"attachment %T does not expose required method %s", target, name)
		}
	}

	return &RegistryHandle{target: value, created: created}, nil
}

// Created reports whether this handle's Obtain call constructed the registry
// (and therefore installed the bootstrap hook).
func (h *RegistryHandle) Created() bool {
	return h.created
}

// AddCandidate registers this module copy's versioned initialization bundle.
// Failures (malformed version, closed registration) are logged and swallowed:
// registration problems are local to the contributing module and must never
// disturb the host's load sequence.
func (h *RegistryHandle) AddCandidate(version, source string, init func(*blackboard.Board) error) {
	logger := logging.GetLogger("handle")

	method := h.target.MethodByName("AddCandidate")
	candidateType := method.Type().In(0)

	candidate := reflect.New(candidateType).Elem()
	candidate.FieldByName("Version").SetString(version)
	candidate.FieldByName("Source").SetString(source)
	candidate.FieldByName("Init").Set(reflect.ValueOf(init))

	results := method.Call([]reflect.Value{candidate})
	if len(results) == 1 && !results[0].IsNil() {
		err := results[0].Interface().(error)
		logger.Warn().
			Err(err).
			Str("source", source).
			Str("version", version).
			Msg("Candidate registration discarded")
	}
}

// Board returns the shared blackboard owned by the registry.
func (h *RegistryHandle) Board() *blackboard.Board {
	results := h.target.MethodByName("Board").Call(nil)
	return results[0].Interface().(*blackboard.Board)
}

// Put publishes a value on the shared board.
func (h *RegistryHandle) Put(key string, value interface{}) {
	h.Board().Put(key, value)
}

// Get reads a value from the shared board.
func (h *RegistryHandle) Get(key string) (interface{}, bool) {
	return h.Board().Get(key)
}

// AuthoritativeVersion reports which library version won the election, if it
// has run.
func (h *RegistryHandle) AuthoritativeVersion() (string, bool) {
	return blackboard.GetAs[string](h.Board(), blackboard.KeyVersion)
}

// applyLatest is the latch target: it runs the election through the same
// by-name boundary the rest of the handle uses.
func (h *RegistryHandle) applyLatest() {
	h.target.MethodByName("ApplyLatest").Call(nil)
}
