package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSortsByCreation(t *testing.T) {
	a := New()
	b := New()

	assert.Equal(t, 7, int(a.Version()))
	assert.Less(t, a.String(), b.String())
}

func TestParse(t *testing.T) {
	v := New()

	got, err := Parse(v.String())
	require.NoError(t, err)
	assert.Equal(t, v, got)

	_, err = Parse("not-an-id")
	assert.ErrorContains(t, err, "not-an-id")
	assert.True(t, IsNil(ID{}))
	assert.Panics(t, func() { MustParse("x") })
}
