package quadrature

// Store is the type-erased face of quadrature data. It is either a bound
// *Data[T] or Empty, the variant for modules that keep no per-point state.
type Store interface {
	// Layout is nil for Empty
	Layout() *Layout
	Len() int
	Width() int
	// Raw returns the flat float64 contents, nil for Empty
	Raw() []float64
	Empty() bool
}

// Empty holds no data and allocates nothing. It has no access or assignment
// methods, so code can only size-query or skip it.
type Empty struct{}

// None is shorthand for Empty{}. Empty has no state, so every Empty value is
// interchangeable with it.
var None Empty

// Layout is always nil
func (Empty) Layout() *Layout { return nil }

// Len is always zero
func (Empty) Len() int { return 0 }

// Width is always zero
func (Empty) Width() int { return 0 }

// Raw is always nil
func (Empty) Raw() []float64 { return nil }

// Empty is always true
func (Empty) Empty() bool { return true }

// OrNone returns s, or Empty{} when s is a nil interface or wraps a nil
// *Data
func OrNone(s Store) Store {
	if s == nil || s.Empty() {
		return Empty{}
	}
	return s
}

// Bind recovers the typed store behind s. It reports false for Empty and for
// stores of a different value type.
func Bind[T any](s Store) (*Data[T], bool) {
	d, ok := s.(*Data[T])
	if !ok || d == nil {
		return nil, false
	}
	return d, true
}

var (
	_ Store = Empty{}
	_ Store = (*Data[float64])(nil)
)
