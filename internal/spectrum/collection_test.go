package spectrum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollection(t *testing.T) {
	c := NewCollection()

	unnamed := newTestSpectrum(t)
	named := newTestSpectrum(t, WithName("original"))

	c.Add("first", unnamed)
	c.Add("second", named)

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []string{"first", "second"}, c.Names())
	assert.Equal(t, "first", unnamed.Name())
	assert.Equal(t, "original", named.Name())

	got, ok := c.Get("second")
	require.True(t, ok)
	assert.Same(t, named, got)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCollection_OverwriteKeepsPosition(t *testing.T) {
	c := NewCollection()
	a := newTestSpectrum(t)
	b := newTestSpectrum(t)
	replacement := newTestSpectrum(t)

	c.Add("a", a)
	c.Add("b", b)
	c.Add("a", replacement)

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []string{"a", "b"}, c.Names())
	got, _ := c.Get("a")
	assert.Same(t, replacement, got)
}

func TestCollection_Remove(t *testing.T) {
	c := NewCollection()
	c.Add("a", newTestSpectrum(t))
	c.Add("b", newTestSpectrum(t))

	c.Remove("missing")
	assert.Equal(t, 2, c.Len())

	c.Remove("a")
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, []string{"b"}, c.Names())

	names := c.Names()
	names[0] = "mutated"
	assert.Equal(t, []string{"b"}, c.Names())
}

func TestCollection_AddNilIsIgnored(t *testing.T) {
	c := NewCollection()
	c.Add("kept", newTestSpectrum(t))

	require.NotPanics(t, func() { c.Add("nil", nil) })
	require.NotPanics(t, func() { c.Add("kept", nil) })

	assert.Equal(t, []string{"kept"}, c.Names())
	got, ok := c.Get("kept")
	require.True(t, ok)
	assert.NotNil(t, got)

	_, ok = c.Get("nil")
	assert.False(t, ok)
}
