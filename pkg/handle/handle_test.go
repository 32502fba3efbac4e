package handle

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modkit-go/unison/pkg/blackboard"
	"github.com/modkit-go/unison/pkg/errors"
	"github.com/modkit-go/unison/pkg/host"
)

func noop(*blackboard.Board) error { return nil }

func TestObtainHostNotReady(t *testing.T) {
	_, err := Obtain(nil)

	assert.True(t, errors.IsErrorCode(err, errors.ErrHostNotReady))
}

func TestObtainCreatesOnce(t *testing.T) {
	for _, n := range []int{1, 2, 5, 20} {
		t.Run(fmt.Sprintf("%d module copies", n), func(t *testing.T) {
			root := host.NewRoot()

			creators := 0
			for i := 0; i < n; i++ {
				h, err := Obtain(root)
				require.NoError(t, err)
				if h.Created() {
					creators++
				}
			}

			assert.Equal(t, 1, creators, "exactly one Obtain call should create the registry")

			_, attached := root.Attachment(AttachmentName)
			assert.True(t, attached)
		})
	}
}

func TestBoardIsProcessShared(t *testing.T) {
	root := host.NewRoot()

	writer, err := Obtain(root)
	require.NoError(t, err)
	reader, err := Obtain(root)
	require.NoError(t, err)

	writer.Put("deferred-callbacks", []string{"reload-codex"})

	value, ok := reader.Get("deferred-callbacks")
	require.True(t, ok, "a value written through one handle must be visible through another")
	assert.Equal(t, []string{"reload-codex"}, value)
}

func TestElectionScenario(t *testing.T) {
	root := host.NewRoot()
	var ran []string

	track := func(name string) func(*blackboard.Board) error {
		return func(*blackboard.Board) error {
			ran = append(ran, name)
			return nil
		}
	}

	for _, m := range []struct{ version, source string }{
		{"2.1.0.0", "mod-old"},
		{"2.7.0.0", "mod-new"},
		{"2.3.0.0", "mod-mid"},
	} {
		h, err := Obtain(root)
		require.NoError(t, err)
		h.AddCandidate(m.version, m.source, track(m.source))
	}

	root.RaisePostLoad()

	assert.Equal(t, []string{"mod-new"}, ran, "only the highest-versioned candidate's initializer runs")

	h, err := Obtain(root)
	require.NoError(t, err)
	winner, ok := h.AuthoritativeVersion()
	require.True(t, ok)
	assert.Equal(t, "2.7.0.0", winner)
}

func TestPostLoadRaisedTwiceAppliesOnce(t *testing.T) {
	root := host.NewRoot()

	h, err := Obtain(root)
	require.NoError(t, err)

	runs := 0
	h.AddCandidate("1.0.0.0", "mod", func(*blackboard.Board) error {
		runs++
		return nil
	})

	root.RaisePostLoad()
	root.RaisePostLoad()

	assert.Equal(t, 1, runs, "the hook must apply election exactly once")
}

func TestAddCandidateMalformedVersionDoesNotEscape(t *testing.T) {
	root := host.NewRoot()

	h, err := Obtain(root)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		h.AddCandidate("not-a-version", "mod-bad", noop)
	})

	root.RaisePostLoad()

	_, ok := h.AuthoritativeVersion()
	assert.False(t, ok, "no version should be published when the only candidate was malformed")
}

func TestInitFailureLeavesBoardUsable(t *testing.T) {
	root := host.NewRoot()

	h, err := Obtain(root)
	require.NoError(t, err)
	h.AddCandidate("2.0.0.0", "mod-broken", func(*blackboard.Board) error {
		return fmt.Errorf("bundled definitions missing")
	})

	root.RaisePostLoad()

	// an unrelated module keeps using the board afterwards
	other, err := Obtain(root)
	require.NoError(t, err)
	other.Put("unrelated", 7)
	value, ok := other.Get("unrelated")
	require.True(t, ok)
	assert.Equal(t, 7, value)
}

func TestWrapRejectsForeignAttachment(t *testing.T) {
	root := host.NewRoot()
	require.NoError(t, root.Attach(AttachmentName, "not a registry"))

	_, err := Obtain(root)
	assert.True(t, errors.IsErrorCode(err, errors.ErrAdapterType))
}

func TestHandleUsesByNameDispatch(t *testing.T) {
	// A structurally compatible but distinct registry type must be callable
	// through the handle, since module copies never share compiled types.
	root := host.NewRoot()
	shadow := &shadowRegistry{board: blackboard.New()}
	require.NoError(t, root.Attach(AttachmentName, shadow))

	h, err := Obtain(root)
	require.NoError(t, err)

	h.AddCandidate("1.0.0.0", "mod", noop)
	assert.Equal(t, 1, shadow.added)

	h.Put("key", "value")
	got, ok := h.Get("key")
	require.True(t, ok)
	assert.Equal(t, "value", got)
}

// shadowRegistry stands in for a different library version's registry type:
// same conventional surface, different Go type.
type shadowRegistry struct {
	board *blackboard.Board
	added int
}

type shadowCandidate struct {
	Version string
	Source  string
	Init    func(*blackboard.Board) error
}

func (s *shadowRegistry) AddCandidate(c shadowCandidate) error {
	s.added++
	return nil
}

func (s *shadowRegistry) ApplyLatest() {}

func (s *shadowRegistry) Board() *blackboard.Board {
	return s.board
}
