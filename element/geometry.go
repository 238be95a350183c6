package element

import (
	"fmt"
	"strings"
)

// Dimensionality represents the spatial dimension of an element
type Dimensionality uint8

const (
	D0 Dimensionality = iota // 0D elements (points)
	D1                       // 1D elements (lines, edges)
	D2                       // 2D elements (triangles, quadrilaterals)
	D3                       // 3D elements (tetrahedra, hexahedra, etc.)
)

// GeometryType identifies the shape of an element
type GeometryType uint8

const (
	// 3D element types
	Tet     GeometryType = iota // Tetrahedron
	Hex                         // Hexahedron
	Prism                       // Triangular prism
	Pyramid                     // Square-based pyramid

	// 2D element types
	Tri       // Triangle
	Rectangle // Rectangle/Quadrilateral

	// 1D element type
	Line // Line segment

	// 0D element type
	Point
)

var geometryNames = [...]string{
	Tet:       "tet",
	Hex:       "hex",
	Prism:     "prism",
	Pyramid:   "pyramid",
	Tri:       "tri",
	Rectangle: "rectangle",
	Line:      "line",
	Point:     "point",
}

func (g GeometryType) String() string {
	if int(g) < len(geometryNames) {
		return geometryNames[g]
	}
	return fmt.Sprintf("geometry(%d)", uint8(g))
}

// Valid reports whether g names one of the supported shapes
func (g GeometryType) Valid() bool {
	return int(g) < len(geometryNames)
}

// Dimensions returns the topological dimension of the shape
func (g GeometryType) Dimensions() Dimensionality {
	switch g {
	case Tet, Hex, Prism, Pyramid:
		return D3
	case Tri, Rectangle:
		return D2
	case Line:
		return D1
	default:
		return D0
	}
}

// NumVertices returns the number of corner vertices of the shape
func (g GeometryType) NumVertices() int {
	switch g {
	case Tet:
		return 4
	case Hex:
		return 8
	case Prism:
		return 6
	case Pyramid:
		return 5
	case Tri:
		return 3
	case Rectangle:
		return 4
	case Line:
		return 2
	default:
		return 1
	}
}

// ParseGeometry maps a shape name ("tet", "hex", "quad", ...) to its GeometryType
func ParseGeometry(name string) (GeometryType, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "quad", "quadrilateral":
		return Rectangle, nil
	case "triangle":
		return Tri, nil
	case "tetrahedron":
		return Tet, nil
	case "hexahedron":
		return Hex, nil
	case "segment":
		return Line, nil
	}
	for i, s := range geometryNames {
		if s == n {
			return GeometryType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown element geometry %q", name)
}
