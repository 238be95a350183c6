package quadrature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/qdata/element"
	"github.com/notargets/qdata/mesh"
)

func TestLayoutFixedRules(t *testing.T) {
	l := twoByThree(t)
	assert.Equal(t, 1, l.Order())
	assert.Equal(t, 2, l.ElementCount())
	assert.Equal(t, 3, l.PointsPerElement(0))
	assert.Equal(t, 3, l.PointsPerElement(1))
	assert.Equal(t, 6, l.TotalPoints())
	assert.Equal(t, 3, l.Offset(1))
	assert.Equal(t, 5, l.Index(1, 2))
	assert.Equal(t, []int{3, 3}, l.Counts())
}

func TestLayoutMixedGeometry(t *testing.T) {
	m := mesh.FromGeometries(element.Tet, element.Hex, element.Tet, element.Prism)
	l, err := NewLayout(m, 0, WithRules(fixedRules{element.Tet: 4, element.Hex: 8, element.Prism: 6}))
	require.NoError(t, err)

	assert.Equal(t, []int{4, 8, 4, 6}, l.Counts())
	assert.Equal(t, 22, l.TotalPoints())
	for k, want := range []int{0, 4, 12, 16} {
		assert.Equalf(t, want, l.Offset(k), "offset of element %d", k)
	}
	assert.Equal(t, element.Hex, l.Geometry(1))

	// total is the sum of the per-element counts
	sum := 0
	for k := 0; k < l.ElementCount(); k++ {
		sum += l.PointsPerElement(k)
	}
	assert.Equal(t, l.TotalPoints(), sum)
}

func TestLayoutDefaultRules(t *testing.T) {
	// order p integrates degree p+1: hex p=1 -> 2 points per direction
	l, err := NewLayout(mesh.Uniform(element.Hex, 5), 1)
	require.NoError(t, err)
	assert.Equal(t, 8, l.PointsPerElement(0))
	assert.Equal(t, 40, l.TotalPoints())

	// p=0 -> degree 1 -> a single point
	l, err = NewLayout(mesh.Uniform(element.Tet, 3), 0)
	require.NoError(t, err)
	assert.Equal(t, 3, l.TotalPoints())

	l, err = NewLayout(mesh.Uniform(element.Tet, 3), 0, WithIntegrationOrder(func(p int) int { return 2*p + 2 }))
	require.NoError(t, err)
	assert.Equal(t, 8, l.PointsPerElement(2))
}

func TestLayoutRule(t *testing.T) {
	m := mesh.FromGeometries(element.Tri, element.Hex)
	l, err := NewLayout(m, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, l.IntegrationOrder())

	for k := 0; k < l.ElementCount(); k++ {
		r, err := l.Rule(k)
		require.NoError(t, err)
		assert.Equal(t, l.Geometry(k), r.Geometry)
		assert.Equal(t, l.PointsPerElement(k), r.NumPoints())
		assert.InDelta(t, element.ReferenceMeasure(r.Geometry), r.Measure(), 1e-12)
	}
	requirePanicIs(t, ErrIndexOutOfRange, func() { l.Rule(2) })

	l, err = NewLayout(m, 2, WithIntegrationOrder(func(p int) int { return 2 * p }))
	require.NoError(t, err)
	assert.Equal(t, 4, l.IntegrationOrder())
}

func TestLayoutInvalidMesh(t *testing.T) {
	rules := WithRules(fixedRules{element.Tri: 3})
	for name, build := range map[string]func() (*Layout, error){
		"empty partition": func() (*Layout, error) { return NewLayout(mesh.Uniform(element.Tri, 0), 1, rules) },
		"nil partition":   func() (*Layout, error) { return NewLayout(nil, 1, rules) },
		"negative order":  func() (*Layout, error) { return NewLayout(mesh.Uniform(element.Tri, 2), -1, rules) },
		"no rule":         func() (*Layout, error) { return NewLayout(mesh.Uniform(element.Hex, 2), 1, rules) },
		"unknown shape": func() (*Layout, error) {
			return NewLayout(mesh.FromGeometries(element.GeometryType(42)), 1, rules)
		},
	} {
		l, err := build()
		assert.Nilf(t, l, name)
		assert.ErrorIsf(t, err, ErrInvalidMesh, name)
	}
}

func TestLayoutIndexOutOfRange(t *testing.T) {
	l := twoByThree(t)
	requirePanicIs(t, ErrIndexOutOfRange, func() { l.PointsPerElement(2) })
	requirePanicIs(t, ErrIndexOutOfRange, func() { l.PointsPerElement(-1) })
	requirePanicIs(t, ErrIndexOutOfRange, func() { l.Offset(2) })
	requirePanicIs(t, ErrIndexOutOfRange, func() { l.Index(0, 3) })
	requirePanicIs(t, ErrIndexOutOfRange, func() { l.Index(1, -1) })
}

func TestLayoutString(t *testing.T) {
	m := mesh.FromGeometries(element.Tet, element.Hex, element.Tet)
	l, err := NewLayout(m, 2, WithRules(fixedRules{element.Tet: 4, element.Hex: 8}))
	require.NoError(t, err)
	want := "Layout order 2: 3 elements, 16 points\n" +
		"  tet            2 elements        8 points\n" +
		"  hex            1 elements        8 points\n"
	assert.Equal(t, want, l.String())
}
