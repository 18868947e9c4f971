package paper

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	s, err := Lookup(" a3 ")
	require.NoError(t, err)
	assert.Equal(t, A3, s)

	s, err = Lookup("Letter")
	require.NoError(t, err)
	assert.Equal(t, Letter, s)

	_, err = Lookup("B5")
	assert.ErrorContains(t, err, "unknown paper format")
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"A3", "A4", "A5", "Legal", "Letter", "Tabloid"}, Names())
}

func TestLandscape(t *testing.T) {
	l := A4.Landscape()
	assert.Equal(t, "A4L", l.Name)
	assert.Equal(t, A4.Height, l.Width)
	assert.Equal(t, l, l.Landscape())
}

func TestTwoUpScale(t *testing.T) {
	assert.InDelta(t, 1/math.Sqrt2, TwoUpScale(A4, A4), 1e-3)
	assert.InDelta(t, 1.0, TwoUpScale(A4, A3), 1e-3)
	assert.InDelta(t, 1/math.Sqrt2, TwoUpScale(A5, A5), 1e-3)
	assert.InDelta(t, TwoUpScale(A4, A4), TwoUpScale(A4, A4.Landscape()), 1e-9)
}
