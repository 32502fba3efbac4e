// Package host models the long-lived host-managed object that every module
// copy can independently reach: a table of named attachments plus the single
// late lifecycle event (post-load) the bootstrap hook latches onto.
//
// In production the host is the process that loads the extension modules; this
// package is the surface unison needs from it, and doubles as the simulated
// host in tests and the simulator CLI.
package host

import (
	"sync"

	"github.com/modkit-go/unison/pkg/errors"
	"github.com/modkit-go/unison/pkg/logging"
)

// Root is the shared host object. Attachments are looked up by well-known
// name, never by static type, because module copies do not share compiled
// types.
type Root struct {
	mu          sync.RWMutex
	attachments map[string]interface{}
	postLoad    []func()
	raises      int
}

// NewRoot creates an empty host root.
func NewRoot() *Root {
	return &Root{
		attachments: make(map[string]interface{}),
	}
}

// Attach stores value under name. A name can only be attached once for the
// life of the root.
func (r *Root) Attach(name string, value interface{}) error {
	if name == "" {
		return errors.New(errors.ErrInvalidInput, "attachment name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.attachments[name]; exists {
		return errors.Newf(errors.ErrAlreadyExists, "attachment %q already present", name)
	}

	r.attachments[name] = value
	return nil
}

// Attachment retrieves the value attached under name.
func (r *Root) Attachment(name string) (interface{}, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.attachments[name]
	return value, ok
}

// OnPostLoad subscribes fn to the post-load lifecycle event.
func (r *Root) OnPostLoad(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.postLoad = append(r.postLoad, fn)
}

// RaisePostLoad fires the post-load event, invoking every subscriber in
// registration order. Hosts are allowed to raise the event more than once;
// subscribers that must run only once have to guard themselves.
func (r *Root) RaisePostLoad() {
	r.mu.Lock()
	r.raises++
	raise := r.raises
	subscribers := make([]func(), len(r.postLoad))
	copy(subscribers, r.postLoad)
	r.mu.Unlock()

	logger := logging.GetLogger("host")
	logger.Debug().Int("raise", raise).Int("subscribers", len(subscribers)).Msg("Raising post-load event")

	for _, fn := range subscribers {
		fn()
	}
}
