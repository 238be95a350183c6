package quadrature

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/qdata/element"
	"github.com/notargets/qdata/mesh"
)

// fixedRules is a synthetic rule set with a fixed point count per shape
type fixedRules map[element.GeometryType]int

func (f fixedRules) NumPoints(g element.GeometryType, order int) (int, error) {
	n, ok := f[g]
	if !ok {
		return 0, fmt.Errorf("%w: %s", element.ErrNoRule, g)
	}
	return n, nil
}

func (f fixedRules) Rule(g element.GeometryType, order int) (element.Rule, error) {
	n, err := f.NumPoints(g, order)
	if err != nil {
		return element.Rule{}, err
	}
	return element.Rule{
		Geometry: g,
		Order:    order,
		Points:   make([][3]float64, n),
		Weights:  make([]float64, n),
	}, nil
}

// pair is the two-field value used throughout the store tests
type pair struct {
	A, B float64
}

// twoByThree is a 2 element partition with 3 points per element
func twoByThree(t *testing.T) *Layout {
	t.Helper()
	l, err := NewLayout(mesh.Uniform(element.Tri, 2), 1, WithRules(fixedRules{element.Tri: 3}))
	require.NoError(t, err)
	return l
}

func requirePanicIs(t *testing.T, target error, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		err, ok := r.(error)
		require.Truef(t, ok, "panic value %v is not an error", r)
		assert.ErrorIs(t, err, target)
	}()
	fn()
}
