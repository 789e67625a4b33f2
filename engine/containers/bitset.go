package containers

import "math/bits"

const wordBits = 64

// Bitset is a growable set of uint32 ids backed by uint64 words.
// The zero value is an empty set ready to use.
type Bitset struct {
	words []uint64
}

// Create a new Bitset with capacity for at least `hint` ids.
func NewBitset(hint uint32) *Bitset {
	return &Bitset{
		words: make([]uint64, (hint+wordBits-1)/wordBits),
	}
}

// Set adds an id to the set, growing the backing storage if needed.
func (b *Bitset) Set(id uint32) {
	word := id / wordBits
	for uint32(len(b.words)) <= word {
		b.words = append(b.words, 0)
	}
	b.words[word] |= 1 << (id % wordBits)
}

// Unset removes an id from the set.
func (b *Bitset) Unset(id uint32) {
	word := id / wordBits
	if word < uint32(len(b.words)) {
		b.words[word] &^= 1 << (id % wordBits)
	}
}

// Has reports whether the id is in the set.
func (b *Bitset) Has(id uint32) bool {
	word := id / wordBits
	return word < uint32(len(b.words)) && b.words[word]&(1<<(id%wordBits)) != 0
}

// Clear removes every id but keeps the backing storage.
func (b *Bitset) Clear() {
	for i := range b.words {
		b.words[i] = 0
	}
}

// Count returns the number of ids in the set.
func (b *Bitset) Count() int {
	total := 0
	for _, w := range b.words {
		total += bits.OnesCount64(w)
	}
	return total
}

// IsEmpty checks if the set holds no ids.
func (b *Bitset) IsEmpty() bool {
	for _, w := range b.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// Range calls fn for every id in the set in ascending order.
// Iteration stops early when fn returns false.
func (b *Bitset) Range(fn func(id uint32) bool) {
	for i, w := range b.words {
		for w != 0 {
			bit := uint32(bits.TrailingZeros64(w))
			if !fn(uint32(i)*wordBits + bit) {
				return
			}
			w &^= 1 << bit
		}
	}
}

// ToSlice returns the ids in ascending order.
func (b *Bitset) ToSlice() []uint32 {
	out := make([]uint32, 0, b.Count())
	b.Range(func(id uint32) bool {
		out = append(out, id)
		return true
	})
	return out
}
