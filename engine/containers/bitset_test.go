package containers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBitsetSetHasUnset(t *testing.T) {
	b := NewBitset(8)

	b.Set(0)
	b.Set(3)
	b.Set(200)

	assert.True(t, b.Has(0))
	assert.True(t, b.Has(3))
	assert.True(t, b.Has(200))
	assert.False(t, b.Has(1))
	assert.False(t, b.Has(199))

	b.Unset(3)
	assert.False(t, b.Has(3))
	assert.Equal(t, 2, b.Count())
}

func TestBitsetUnsetBeyondStorage(t *testing.T) {
	b := NewBitset(0)
	// must not grow or panic
	b.Unset(1024)
	assert.True(t, b.IsEmpty())
}

func TestBitsetRangeAscending(t *testing.T) {
	b := NewBitset(4)
	for _, id := range []uint32{65, 2, 300, 0, 64} {
		b.Set(id)
	}

	got := b.ToSlice()
	assert.Equal(t, []uint32{0, 2, 64, 65, 300}, got)
}

func TestBitsetRangeEarlyStop(t *testing.T) {
	b := NewBitset(4)
	b.Set(1)
	b.Set(2)
	b.Set(3)

	visited := 0
	b.Range(func(id uint32) bool {
		visited++
		return visited < 2
	})
	assert.Equal(t, 2, visited)
}

func TestBitsetClearKeepsStorage(t *testing.T) {
	b := NewBitset(16)
	b.Set(5)
	b.Set(500)
	b.Clear()

	assert.True(t, b.IsEmpty())
	assert.Equal(t, 0, b.Count())
	assert.False(t, b.Has(5))

	b.Set(500)
	assert.True(t, b.Has(500))
}
