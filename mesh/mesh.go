// Package mesh describes the slice of a mesh partition that quadrature data
// needs: how many elements a process owns and the shape of each one.
package mesh

import (
	"errors"
	"fmt"

	"github.com/notargets/qdata/element"
)

// ErrEmpty is returned when a mesh has no elements
var ErrEmpty = errors.New("mesh: no elements")

// Partition is one process's local share of a mesh. It is read-only.
type Partition interface {
	// NumElements is the number of elements owned by this partition
	NumElements() int

	// Geometry returns the shape of local element k, 0 <= k < NumElements()
	Geometry(k int) element.GeometryType
}

// Simple is an in-memory Partition holding one geometry per element
type Simple struct {
	Geometries []element.GeometryType
	GlobalIDs  []int // Global element index of each local element, nil if local == global
}

// Uniform returns a partition of K elements of the same shape
func Uniform(g element.GeometryType, K int) *Simple {
	geoms := make([]element.GeometryType, K)
	for i := range geoms {
		geoms[i] = g
	}
	return &Simple{Geometries: geoms}
}

// FromGeometries wraps a list of element shapes
func FromGeometries(geoms ...element.GeometryType) *Simple {
	return &Simple{Geometries: append([]element.GeometryType(nil), geoms...)}
}

func (s *Simple) NumElements() int {
	return len(s.Geometries)
}

func (s *Simple) Geometry(k int) element.GeometryType {
	return s.Geometries[k]
}

// GlobalID maps a local element index to the global mesh index
func (s *Simple) GlobalID(k int) int {
	if s.GlobalIDs == nil {
		return k
	}
	return s.GlobalIDs[k]
}

// Validate checks that the partition is non-empty and every shape is known
func Validate(p Partition) error {
	if p == nil || p.NumElements() == 0 {
		return ErrEmpty
	}
	for k := 0; k < p.NumElements(); k++ {
		if g := p.Geometry(k); !g.Valid() {
			return fmt.Errorf("mesh: element %d has unknown geometry %d", k, uint8(g))
		}
	}
	return nil
}
