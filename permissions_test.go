package collabkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllCapabilities(t *testing.T) {
	caps := AllCapabilities()
	assert.Len(t, caps, 8)
	assert.IsIncreasing(t, caps)
	for _, c := range caps {
		assert.True(t, c.Valid(), c)
	}
}

func TestParseCapability(t *testing.T) {
	c, err := ParseCapability("canEdit")
	require.NoError(t, err)
	assert.Equal(t, CanEdit, c)

	_, err = ParseCapability("")
	assert.ErrorIs(t, err, ErrInvalidCapability)

	_, err = ParseCapability("canFly")
	assert.ErrorIs(t, err, ErrInvalidCapability)
}

func TestCapabilitySet(t *testing.T) {
	var zero CapabilitySet
	assert.False(t, zero.Has(CanView))
	assert.Zero(t, zero.Len())
	assert.Empty(t, zero.List())

	set := NewCapabilitySet(CanView, CanEdit, CanView)
	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Has(CanEdit))
	assert.False(t, set.Has(CanDelete))
	assert.False(t, set.Has("canFly"))
	assert.Equal(t, []Capability{CanEdit, CanView}, set.List())
}
