package quadrature

import "errors"

// Construction and indexing errors. Index and footprint violations are
// programming errors and are raised as panics whose value wraps one of
// these; match them with errors.Is on the recovered error.
var (
	// ErrInvalidMesh is returned for an empty partition, an unknown element
	// shape or a negative polynomial order.
	ErrInvalidMesh = errors.New("quadrature: invalid mesh")

	// ErrIndexOutOfRange indicates an element or quadrature point index
	// outside the layout.
	ErrIndexOutOfRange = errors.New("quadrature: index out of range")

	// ErrSizeMismatch indicates a value type that does not map exactly onto
	// a whole number of float64 words, or a raw buffer of the wrong length.
	ErrSizeMismatch = errors.New("quadrature: size mismatch")
)
