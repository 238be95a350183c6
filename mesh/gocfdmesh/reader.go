// Package gocfdmesh reads mesh files through the gocfd readers into
// mesh.Simple partitions. Packages mesh and quadrature must not import it.
package gocfdmesh

import (
	"fmt"

	gmesh "github.com/notargets/gocfd/DG3D/mesh"
	"github.com/notargets/gocfd/DG3D/mesh/readers"
	"github.com/notargets/gocfd/utils"

	"github.com/notargets/qdata/element"
	"github.com/notargets/qdata/mesh"
)

// ReadFile loads a Gambit neutral (.neu), Gmsh (.msh) or SU2 (.su2) mesh and
// returns its highest-dimension elements as a single partition. Lower
// dimension entities the reader kept (boundary lines of a 2D mesh listed
// before the cells, say) are dropped.
func ReadFile(path string) (*mesh.Simple, error) {
	msh, err := readers.ReadMeshFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mesh %s: %w", path, err)
	}
	s, err := FromMesh(msh)
	if err != nil {
		return nil, fmt.Errorf("mesh file %s: %w", path, err)
	}
	return s, nil
}

// FromMesh converts a gocfd mesh into a partition of its cells
func FromMesh(msh *gmesh.Mesh) (*mesh.Simple, error) {
	if msh == nil || len(msh.EtoV) == 0 {
		return nil, mesh.ErrEmpty
	}
	dim := 0
	for _, t := range msh.ElementTypes {
		dim = max(dim, t.GetDimension())
	}

	s := &mesh.Simple{}
	for k, verts := range msh.EtoV {
		t := utils.Unknown
		if k < len(msh.ElementTypes) {
			t = msh.ElementTypes[k]
		}
		if t != utils.Unknown && t.GetDimension() < dim {
			continue
		}
		g, err := Geometry(t)
		if err != nil {
			// fall back to the corner count for untyped elements
			if t != utils.Unknown {
				return nil, fmt.Errorf("element %d: %w", k, err)
			}
			if g, err = GeometryFromVertexCount(len(verts), dimensionality(dim)); err != nil {
				return nil, fmt.Errorf("element %d: %w", k, err)
			}
		}
		s.Geometries = append(s.Geometries, g)
	}
	if len(s.Geometries) == 0 {
		return nil, mesh.ErrEmpty
	}
	return s, nil
}

// Geometry maps a gocfd element type onto its reference shape. Higher-order
// variants (Triangle6, Tet10, Hex27, ...) share the shape of their linear
// element since only the corner vertices fix the geometry.
func Geometry(t utils.ElementType) (element.GeometryType, error) {
	switch t {
	case utils.Point:
		return element.Point, nil
	case utils.Line, utils.Line3:
		return element.Line, nil
	case utils.Triangle, utils.Triangle6, utils.Triangle9, utils.Triangle10:
		return element.Tri, nil
	case utils.Quad, utils.Quad8, utils.Quad9:
		return element.Rectangle, nil
	case utils.Tet, utils.Tet10:
		return element.Tet, nil
	case utils.Hex, utils.Hex20, utils.Hex27:
		return element.Hex, nil
	case utils.Prism, utils.Prism15, utils.Prism18:
		return element.Prism, nil
	case utils.Pyramid, utils.Pyramid13, utils.Pyramid14:
		return element.Pyramid, nil
	}
	return 0, fmt.Errorf("no element shape for gocfd type %s", t)
}

// GeometryFromVertexCount infers a linear shape from the number of vertices
// an element references
func GeometryFromVertexCount(nv int, dim element.Dimensionality) (element.GeometryType, error) {
	switch {
	case nv == 2:
		return element.Line, nil
	case nv == 3:
		return element.Tri, nil
	case nv == 4 && dim == element.D2:
		return element.Rectangle, nil
	case nv == 4:
		return element.Tet, nil
	case nv == 5:
		return element.Pyramid, nil
	case nv == 6:
		return element.Prism, nil
	case nv == 8:
		return element.Hex, nil
	}
	return 0, fmt.Errorf("no element shape with %d vertices", nv)
}

func dimensionality(dim int) element.Dimensionality {
	if dim == 1 || dim == 2 {
		return element.Dimensionality(dim)
	}
	return element.D3
}
