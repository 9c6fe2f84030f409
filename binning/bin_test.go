package binning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBin(t *testing.T) {
	now := time.Now()
	b := NewBin(30, 40, 1, now)

	assert.True(t, b.Contains(30))
	assert.True(t, b.Contains(39.99))
	assert.False(t, b.Contains(40))
	assert.False(t, b.Contains(29.5))
	assert.Equal(t, 10, b.Width())
	assert.Equal(t, 39, b.PrintedUpper())
	assert.Equal(t, "30-40", b.RangeLabel())
	assert.Equal(t, "30-40:1", b.String())

	later := now.Add(time.Minute)
	b.Increment(4, later)
	b.ExtendLeft(later)
	b.ExtendRight(later)
	assert.Equal(t, NewBin(29, 41, 5, later), b)
}

func TestMerge(t *testing.T) {
	early := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)

	a := NewBin(0, 3, 2, late)
	b := NewBin(5, 6, 7, early)

	assert.Equal(t, NewBin(0, 6, 9, late), merge(a, b))
	assert.Equal(t, NewBin(0, 6, 9, late), merge(b, a))
}
