package quadrature

import "iter"

// Span is a non-owning view of consecutive values stored as float64 words.
// It aliases the buffer it was taken from and must not outlive it.
type Span[T any] struct {
	words []float64
	codec Codec[T]
	width int
}

func newSpan[T any](words []float64, c Codec[T]) Span[T] {
	return Span[T]{words: words, codec: c, width: c.Width()}
}

// Len returns the number of values in the span
func (s Span[T]) Len() int {
	if s.width == 0 {
		return 0
	}
	return len(s.words) / s.width
}

// At decodes value i
func (s Span[T]) At(i int) T {
	return s.codec.Decode(s.words[i*s.width:])
}

// Ref returns an aliasing reference to value i
func (s Span[T]) Ref(i int) Ref[T] {
	return Ref[T]{slot: s.words[i*s.width : (i+1)*s.width : (i+1)*s.width], codec: s.codec}
}

// All iterates the values in storage order
func (s Span[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < s.Len(); i++ {
			if !yield(i, s.At(i)) {
				return
			}
		}
	}
}

// Raw returns the underlying float64 words, Len()*width of them
func (s Span[T]) Raw() []float64 {
	return s.words
}

// Ref aliases the words of a single stored value. Writes through Set are
// visible to every later read of the same slot.
type Ref[T any] struct {
	slot  []float64
	codec Codec[T]
}

// Get decodes the current value
func (r Ref[T]) Get() T {
	return r.codec.Decode(r.slot)
}

// Set encodes v into the slot
func (r Ref[T]) Set(v T) {
	r.codec.Encode(r.slot, v)
}

// Update applies fn to the current value and stores the result
func (r Ref[T]) Update(fn func(v *T)) {
	v := r.codec.Decode(r.slot)
	fn(&v)
	r.codec.Encode(r.slot, v)
}

// Raw returns the words backing the slot
func (r Ref[T]) Raw() []float64 {
	return r.slot
}
