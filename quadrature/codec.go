package quadrature

import (
	"fmt"
	"reflect"
	"unsafe"
)

// Codec maps a value type onto a fixed number of float64 words. Encode and
// Decode must be inverse over the Width() words they touch.
type Codec[T any] interface {
	// Width is the number of float64 words per value
	Width() int
	Encode(dst []float64, v T)
	Decode(src []float64) T
}

// Float64 is the identity codec for scalar data
type Float64 struct{}

// Width is one word
func (Float64) Width() int { return 1 }

// Encode stores v in dst[0]
func (Float64) Encode(dst []float64, v float64) { dst[0] = v }

// Decode returns src[0]
func (Float64) Decode(src []float64) float64 { return src[0] }

// Reflect returns a codec for T built from its type structure. T must be a
// float64, or an array or struct whose leaves are all exported float64
// fields; the word count is then exactly unsafe.Sizeof(T)/8. Any other type
// fails with ErrSizeMismatch.
func Reflect[T any]() (Codec[T], error) {
	var zero T
	typ := reflect.TypeOf(zero)
	if typ == nil {
		return nil, fmt.Errorf("%w: interface value type", ErrSizeMismatch)
	}
	size := int(unsafe.Sizeof(zero))
	if size == 0 || size%8 != 0 {
		return nil, fmt.Errorf("%w: %s is %d bytes, not a whole number of float64 words",
			ErrSizeMismatch, typ, size)
	}
	width, err := countWords(typ)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSizeMismatch, typ, err)
	}
	if width*8 != size {
		return nil, fmt.Errorf("%w: %s holds %d float64 words in %d bytes", ErrSizeMismatch, typ, width, size)
	}
	return reflectCodec[T]{typ: typ, width: width}, nil
}

func countWords(t reflect.Type) (int, error) {
	switch t.Kind() {
	case reflect.Float64:
		return 1, nil
	case reflect.Array:
		n, err := countWords(t.Elem())
		if err != nil {
			return 0, err
		}
		return n * t.Len(), nil
	case reflect.Struct:
		total := 0
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				return 0, fmt.Errorf("field %s is unexported", f.Name)
			}
			n, err := countWords(f.Type)
			if err != nil {
				return 0, fmt.Errorf("field %s: %v", f.Name, err)
			}
			total += n
		}
		return total, nil
	}
	return 0, fmt.Errorf("%s is not a float64", t)
}

type reflectCodec[T any] struct {
	typ   reflect.Type
	width int
}

func (c reflectCodec[T]) Width() int {
	return c.width
}

func (c reflectCodec[T]) Encode(dst []float64, v T) {
	encodeWords(dst[:c.width], reflect.ValueOf(v))
}

func (c reflectCodec[T]) Decode(src []float64) T {
	var v T
	decodeWords(src[:c.width], reflect.ValueOf(&v).Elem())
	return v
}

func encodeWords(dst []float64, v reflect.Value) int {
	switch v.Kind() {
	case reflect.Float64:
		dst[0] = v.Float()
		return 1
	case reflect.Array:
		n := 0
		for i := 0; i < v.Len(); i++ {
			n += encodeWords(dst[n:], v.Index(i))
		}
		return n
	default:
		n := 0
		for i := 0; i < v.NumField(); i++ {
			n += encodeWords(dst[n:], v.Field(i))
		}
		return n
	}
}

func decodeWords(src []float64, v reflect.Value) int {
	switch v.Kind() {
	case reflect.Float64:
		v.SetFloat(src[0])
		return 1
	case reflect.Array:
		n := 0
		for i := 0; i < v.Len(); i++ {
			n += decodeWords(src[n:], v.Index(i))
		}
		return n
	default:
		n := 0
		for i := 0; i < v.NumField(); i++ {
			n += decodeWords(src[n:], v.Field(i))
		}
		return n
	}
}
