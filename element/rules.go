package element

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

// ErrNoRule is returned when no integration rule exists for a geometry/order pair
var ErrNoRule = errors.New("element: no integration rule")

// Rule is an integration rule on a reference element. Points are given in
// reference coordinates (r,s,t); unused coordinates are zero.
type Rule struct {
	Geometry GeometryType
	Order    int // Polynomial degree integrated exactly
	Points   [][3]float64
	Weights  []float64
}

// NumPoints returns the number of quadrature points in the rule
func (r Rule) NumPoints() int {
	return len(r.Weights)
}

// Measure returns the sum of the weights, the size of the reference element
func (r Rule) Measure() float64 {
	return floats.Sum(r.Weights)
}

// RuleSet is the integration rule lookup keyed by geometry and order
type RuleSet interface {
	Rule(g GeometryType, order int) (Rule, error)
	NumPoints(g GeometryType, order int) (int, error)
}

// ReferenceMeasure returns the length/area/volume of the reference element.
// Reference elements span [-1,1] in each direction, simplices use the
// (-1,-1,-1) corner with unit legs of length 2.
func ReferenceMeasure(g GeometryType) float64 {
	switch g {
	case Line:
		return 2
	case Tri:
		return 2
	case Rectangle:
		return 4
	case Tet:
		return 4. / 3.
	case Hex:
		return 8
	case Prism:
		return 4
	case Pyramid:
		return 8. / 3.
	default:
		return 1
	}
}

type ruleKey struct {
	g     GeometryType
	order int
}

// GaussRules builds tensor and collapsed Gauss-Jacobi rules on demand and
// caches them. Each direction uses order/2+1 points, exact for polynomials of
// degree order. The zero value is ready to use and safe for concurrent use.
type GaussRules struct {
	mu    sync.Mutex
	cache map[ruleKey]Rule
}

// DefaultRules is the rule set used when no other is configured
var DefaultRules = &GaussRules{}

// Rule returns the rule for geometry g that integrates degree order exactly
func (gr *GaussRules) Rule(g GeometryType, order int) (Rule, error) {
	if order < 0 {
		return Rule{}, fmt.Errorf("%w: %s order %d", ErrNoRule, g, order)
	}
	if !g.Valid() {
		return Rule{}, fmt.Errorf("%w: %s", ErrNoRule, g)
	}
	key := ruleKey{g, order}

	gr.mu.Lock()
	defer gr.mu.Unlock()
	if r, ok := gr.cache[key]; ok {
		return r, nil
	}
	if gr.cache == nil {
		gr.cache = make(map[ruleKey]Rule)
	}
	r := buildRule(g, order)
	gr.cache[key] = r
	return r, nil
}

// NumPoints returns the number of points of Rule(g, order)
func (gr *GaussRules) NumPoints(g GeometryType, order int) (int, error) {
	r, err := gr.Rule(g, order)
	if err != nil {
		return 0, err
	}
	return r.NumPoints(), nil
}

func buildRule(g GeometryType, order int) Rule {
	n := order/2 + 1
	r := Rule{Geometry: g, Order: order}
	add := func(x, y, z, w float64) {
		r.Points = append(r.Points, [3]float64{x, y, z})
		r.Weights = append(r.Weights, w)
	}

	xg, wg := GaussLegendre(n)
	switch g {
	case Point:
		add(0, 0, 0, 1)

	case Line:
		for i := range xg {
			add(xg[i], 0, 0, wg[i])
		}

	case Rectangle:
		for j := range xg {
			for i := range xg {
				add(xg[i], xg[j], 0, wg[i]*wg[j])
			}
		}

	case Hex:
		for k := range xg {
			for j := range xg {
				for i := range xg {
					add(xg[i], xg[j], xg[k], wg[i]*wg[j]*wg[k])
				}
			}
		}

	case Tri:
		// Collapsed coordinates (a,b) -> (r,s), Jacobian (1-b)/2
		xb, wb := JacobiGQ(1, 0, n-1)
		for j := range xb {
			for i := range xg {
				rr, ss := collapseTri(xg[i], xb[j])
				add(rr, ss, 0, wg[i]*wb[j]/2)
			}
		}

	case Prism:
		xb, wb := JacobiGQ(1, 0, n-1)
		for k := range xg {
			for j := range xb {
				for i := range xg {
					rr, ss := collapseTri(xg[i], xb[j])
					add(rr, ss, xg[k], wg[i]*wb[j]/2*wg[k])
				}
			}
		}

	case Tet:
		// Jacobian (1-b)/2 * ((1-c)/2)^2
		xb, wb := JacobiGQ(1, 0, n-1)
		xc, wc := JacobiGQ(2, 0, n-1)
		for k := range xc {
			for j := range xb {
				for i := range xg {
					a, b, c := xg[i], xb[j], xc[k]
					rr := (1+a)*(1-b)*(1-c)/4 - 1
					ss := (1+b)*(1-c)/2 - 1
					add(rr, ss, c, wg[i]*wb[j]*wc[k]/8)
				}
			}
		}

	case Pyramid:
		// Jacobian ((1-c)/2)^2, apex at (0,0,1)
		xc, wc := JacobiGQ(2, 0, n-1)
		for k := range xc {
			for j := range xg {
				for i := range xg {
					c := xc[k]
					add(xg[i]*(1-c)/2, xg[j]*(1-c)/2, c, wg[i]*wg[j]*wc[k]/4)
				}
			}
		}
	}
	return r
}

func collapseTri(a, b float64) (r, s float64) {
	return (1+a)*(1-b)/2 - 1, b
}

// Validate checks that the weights are positive and integrate the constant
// function to the reference measure
func (r Rule) Validate() error {
	for i, w := range r.Weights {
		if w <= 0 || math.IsNaN(w) {
			return fmt.Errorf("%s rule order %d: weight %d is %g", r.Geometry, r.Order, i, w)
		}
	}
	want := ReferenceMeasure(r.Geometry)
	if !scalar.EqualWithinAbsOrRel(r.Measure(), want, 1e-12, 1e-12) {
		return fmt.Errorf("%s rule order %d: measure %g, want %g", r.Geometry, r.Order, r.Measure(), want)
	}
	return nil
}
