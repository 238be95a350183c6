// Package quadrature stores a value of an arbitrary fixed-size type at every
// quadrature point of every element of a mesh partition, backed by a single
// flat []float64 buffer.
//
// Values are laid out element-major, point-minor. That ordering is the
// contract with checkpoint readers and must not change.
package quadrature

import (
	"fmt"

	"github.com/notargets/qdata/mesh"
)

type options[T any] struct {
	codec      Codec[T]
	layoutOpts []LayoutOption
}

// Option configures a Data store
type Option[T any] func(*options[T])

// WithCodec supplies an explicit codec for T instead of the reflective one
func WithCodec[T any](c Codec[T]) Option[T] {
	return func(o *options[T]) {
		o.codec = c
	}
}

// WithLayoutOptions passes options through to NewLayout in NewFromMesh
func WithLayoutOptions[T any](opts ...LayoutOption) Option[T] {
	return func(o *options[T]) {
		o.layoutOpts = append(o.layoutOpts, opts...)
	}
}

// Data holds one T per quadrature point. It is not safe for concurrent
// mutation; callers splitting work across goroutines must give each one a
// disjoint range of elements.
type Data[T any] struct {
	layout *Layout
	codec  Codec[T]
	width  int
	buf    []float64
}

// New allocates a zeroed store over layout. It panics with ErrSizeMismatch if
// T cannot be mapped onto whole float64 words.
func New[T any](layout *Layout, opts ...Option[T]) *Data[T] {
	o := &options[T]{}
	for _, opt := range opts {
		opt(o)
	}
	if layout == nil {
		panic(fmt.Errorf("%w: nil layout", ErrInvalidMesh))
	}
	c := o.codec
	if c == nil {
		var err error
		if c, err = Reflect[T](); err != nil {
			panic(err)
		}
	}
	width := c.Width()
	if width <= 0 {
		panic(fmt.Errorf("%w: codec width %d", ErrSizeMismatch, width))
	}
	return &Data[T]{
		layout: layout,
		codec:  c,
		width:  width,
		buf:    make([]float64, layout.TotalPoints()*width),
	}
}

// NewFromMesh builds the layout of m at order p and allocates a store over it
func NewFromMesh[T any](m mesh.Partition, p int, opts ...Option[T]) (*Data[T], error) {
	o := &options[T]{}
	for _, opt := range opts {
		opt(o)
	}
	layout, err := NewLayout(m, p, o.layoutOpts...)
	if err != nil {
		return nil, err
	}
	return New(layout, opts...), nil
}

// Layout returns the layout the store was sized from
func (d *Data[T]) Layout() *Layout {
	if d == nil {
		return nil
	}
	return d.layout
}

// Width returns the number of float64 words per value
func (d *Data[T]) Width() int {
	if d == nil {
		return 0
	}
	return d.width
}

// Len returns the number of stored values, the layout's total point count
func (d *Data[T]) Len() int {
	if d == nil {
		return 0
	}
	return d.layout.TotalPoints()
}

// Raw returns the backing buffer, Len()*Width() words
func (d *Data[T]) Raw() []float64 {
	if d == nil {
		return nil
	}
	return d.buf
}

// Empty is false for every allocated store. A nil *Data reports true and
// behaves like Empty.
func (d *Data[T]) Empty() bool {
	return d == nil
}

// At returns a reference to the value at point q of element e. It panics
// with ErrIndexOutOfRange for indices outside the layout.
func (d *Data[T]) At(e, q int) Ref[T] {
	off := d.layout.Index(e, q) * d.width
	return Ref[T]{slot: d.buf[off : off+d.width : off+d.width], codec: d.codec}
}

// Get decodes the value at point q of element e
func (d *Data[T]) Get(e, q int) T {
	off := d.layout.Index(e, q) * d.width
	return d.codec.Decode(d.buf[off : off+d.width])
}

// Set stores v at point q of element e
func (d *Data[T]) Set(e, q int, v T) {
	off := d.layout.Index(e, q) * d.width
	d.codec.Encode(d.buf[off:off+d.width], v)
}

// Assign stores v at every quadrature point
func (d *Data[T]) Assign(v T) {
	if len(d.buf) == 0 {
		return
	}
	d.codec.Encode(d.buf[:d.width], v)
	// doubling copy: each pass copies everything written so far
	for n := d.width; n < len(d.buf); n *= 2 {
		copy(d.buf[n:], d.buf[:n])
	}
}

// View returns the whole store as Len() values in element-major,
// point-minor order
func (d *Data[T]) View() Span[T] {
	return newSpan(d.buf, d.codec)
}

// Elem returns the values of element e
func (d *Data[T]) Elem(e int) Span[T] {
	start := d.layout.Offset(e) * d.width
	end := start + d.layout.PointsPerElement(e)*d.width
	return newSpan(d.buf[start:end:end], d.codec)
}

// CopyFrom overwrites the store with raw words, as written by Raw()
func (d *Data[T]) CopyFrom(src []float64) error {
	if len(src) != len(d.buf) {
		return fmt.Errorf("%w: %d words for a store of %d", ErrSizeMismatch, len(src), len(d.buf))
	}
	copy(d.buf, src)
	return nil
}
