package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modkit-go/unison/pkg/errors"
)

func TestAttach(t *testing.T) {
	root := NewRoot()

	require.NoError(t, root.Attach("unison.registry", "payload"))

	value, ok := root.Attachment("unison.registry")
	require.True(t, ok)
	assert.Equal(t, "payload", value)
}

func TestAttachDuplicate(t *testing.T) {
	root := NewRoot()

	require.NoError(t, root.Attach("slot", 1))
	err := root.Attach("slot", 2)
	assert.True(t, errors.IsErrorCode(err, errors.ErrAlreadyExists))

	// first attachment survives
	value, _ := root.Attachment("slot")
	assert.Equal(t, 1, value)
}

func TestAttachEmptyName(t *testing.T) {
	root := NewRoot()

	err := root.Attach("", 1)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestAttachmentAbsent(t *testing.T) {
	root := NewRoot()

	_, ok := root.Attachment("missing")
	assert.False(t, ok)
}

func TestRaisePostLoad(t *testing.T) {
	root := NewRoot()

	var order []string
	root.OnPostLoad(func() { order = append(order, "first") })
	root.OnPostLoad(func() { order = append(order, "second") })

	root.RaisePostLoad()
	assert.Equal(t, []string{"first", "second"}, order)

	// hosts may raise more than once; subscribers run again
	root.RaisePostLoad()
	assert.Len(t, order, 4)
}

func TestRaisePostLoadNoSubscribers(t *testing.T) {
	root := NewRoot()

	assert.NotPanics(t, func() { root.RaisePostLoad() })
}
