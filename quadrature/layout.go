package quadrature

import (
	"fmt"
	"sort"
	"strings"

	"github.com/notargets/qdata/element"
	"github.com/notargets/qdata/mesh"
)

// Layout records how many quadrature points each element of a mesh
// partition owns at a given polynomial order. It is immutable and may be
// shared by any number of stores.
type Layout struct {
	order   int
	degree  int
	rules   element.RuleSet
	geoms   []element.GeometryType
	counts  []int // Points per element
	offsets []int // Length K+1, offsets[k] = Σ_{i<k} counts[i]
}

type layoutOptions struct {
	rules     element.RuleSet
	ruleOrder func(p int) int
}

// LayoutOption configures NewLayout
type LayoutOption func(*layoutOptions)

// WithRules replaces the integration rule lookup
func WithRules(rs element.RuleSet) LayoutOption {
	return func(o *layoutOptions) {
		o.rules = rs
	}
}

// WithIntegrationOrder overrides the mapping from polynomial order p to the
// degree the integration rule must integrate exactly. The default is p+1.
func WithIntegrationOrder(f func(p int) int) LayoutOption {
	return func(o *layoutOptions) {
		o.ruleOrder = f
	}
}

// NewLayout derives the quadrature layout of m at polynomial order p
func NewLayout(m mesh.Partition, p int, opts ...LayoutOption) (*Layout, error) {
	o := &layoutOptions{
		rules:     element.DefaultRules,
		ruleOrder: func(p int) int { return p + 1 },
	}
	for _, opt := range opts {
		opt(o)
	}

	if p < 0 {
		return nil, fmt.Errorf("%w: negative polynomial order %d", ErrInvalidMesh, p)
	}
	if err := mesh.Validate(m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMesh, err)
	}

	K := m.NumElements()
	q := o.ruleOrder(p)
	l := &Layout{
		order:   p,
		degree:  q,
		rules:   o.rules,
		geoms:   make([]element.GeometryType, K),
		counts:  make([]int, K),
		offsets: make([]int, K+1),
	}
	for k := 0; k < K; k++ {
		g := m.Geometry(k)
		n, err := o.rules.NumPoints(g, q)
		if err != nil {
			return nil, fmt.Errorf("%w: element %d: %v", ErrInvalidMesh, k, err)
		}
		if n < 0 {
			return nil, fmt.Errorf("%w: element %d: %d quadrature points", ErrInvalidMesh, k, n)
		}
		l.geoms[k] = g
		l.counts[k] = n
		l.offsets[k+1] = l.offsets[k] + n
	}
	return l, nil
}

// Order returns the polynomial order the layout was built for
func (l *Layout) Order() int {
	return l.order
}

// IntegrationOrder returns the polynomial degree the layout's rules
// integrate exactly
func (l *Layout) IntegrationOrder() int {
	return l.degree
}

// Rule returns the integration rule whose points element k stores, in the
// order they are indexed
func (l *Layout) Rule(k int) (element.Rule, error) {
	l.checkElement(k)
	return l.rules.Rule(l.geoms[k], l.degree)
}

// ElementCount returns the number of elements in the partition
func (l *Layout) ElementCount() int {
	return len(l.counts)
}

// PointsPerElement returns the number of quadrature points of element k
func (l *Layout) PointsPerElement(k int) int {
	l.checkElement(k)
	return l.counts[k]
}

// TotalPoints returns the number of quadrature points in the partition
func (l *Layout) TotalPoints() int {
	return l.offsets[len(l.counts)]
}

// Offset returns the index of the first point of element k in
// element-major, point-minor order
func (l *Layout) Offset(k int) int {
	l.checkElement(k)
	return l.offsets[k]
}

// Geometry returns the shape of element k
func (l *Layout) Geometry(k int) element.GeometryType {
	l.checkElement(k)
	return l.geoms[k]
}

// Counts returns a copy of the per-element point counts
func (l *Layout) Counts() []int {
	return append([]int(nil), l.counts...)
}

// Index returns the flat point index of (element e, point q)
func (l *Layout) Index(e, q int) int {
	l.checkElement(e)
	if q < 0 || q >= l.counts[e] {
		panic(fmt.Errorf("%w: point %d of element %d, which has %d points",
			ErrIndexOutOfRange, q, e, l.counts[e]))
	}
	return l.offsets[e] + q
}

func (l *Layout) checkElement(k int) {
	if k < 0 || k >= len(l.counts) {
		panic(fmt.Errorf("%w: element %d outside [0,%d)", ErrIndexOutOfRange, k, len(l.counts)))
	}
}

// String summarises the layout, one line per element shape
func (l *Layout) String() string {
	type group struct {
		elements, points int
	}
	groups := make(map[element.GeometryType]*group)
	for k, g := range l.geoms {
		gr, ok := groups[g]
		if !ok {
			gr = &group{}
			groups[g] = gr
		}
		gr.elements++
		gr.points += l.counts[k]
	}
	keys := make([]element.GeometryType, 0, len(groups))
	for g := range groups {
		keys = append(keys, g)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Layout order %d: %d elements, %d points\n",
		l.order, l.ElementCount(), l.TotalPoints()))
	for _, g := range keys {
		gr := groups[g]
		sb.WriteString(fmt.Sprintf("  %-9s %6d elements %8d points\n", g, gr.elements, gr.points))
	}
	return sb.String()
}
