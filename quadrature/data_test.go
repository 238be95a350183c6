package quadrature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/qdata/element"
	"github.com/notargets/qdata/mesh"
)

func TestDataTwoByThreeScenario(t *testing.T) {
	d := New[pair](twoByThree(t))
	require.Equal(t, 2, d.Width())
	require.Len(t, d.Raw(), 2*3*2)

	d.Assign(pair{0, 0})
	for e := 0; e < 2; e++ {
		for q := 0; q < 3; q++ {
			assert.Equal(t, pair{0, 0}, d.Get(e, q))
		}
	}

	d.At(1, 2).Set(pair{5.0, 7.0})
	view := d.View()
	require.Equal(t, 6, view.Len())
	for i, v := range view.All() {
		if i == 1*3+2 {
			assert.Equal(t, pair{5.0, 7.0}, v)
		} else {
			assert.Equalf(t, pair{0, 0}, v, "value %d", i)
		}
	}
	assert.Equal(t, []float64{5, 7}, d.Raw()[10:12])
}

func TestDataOutOfRange(t *testing.T) {
	d := New[pair](twoByThree(t))
	requirePanicIs(t, ErrIndexOutOfRange, func() { d.At(2, 0) })
	requirePanicIs(t, ErrIndexOutOfRange, func() { d.At(0, 3) })
	requirePanicIs(t, ErrIndexOutOfRange, func() { d.Get(-1, 0) })
	requirePanicIs(t, ErrIndexOutOfRange, func() { d.Set(1, 5, pair{}) })
	requirePanicIs(t, ErrIndexOutOfRange, func() { d.Elem(2) })
}

func TestDataRoundTrip(t *testing.T) {
	m := mesh.FromGeometries(element.Tet, element.Hex, element.Tri)
	d, err := NewFromMesh[[3]float64](m, 1)
	require.NoError(t, err)
	require.Equal(t, 3, d.Width())

	l := d.Layout()
	for e := 0; e < l.ElementCount(); e++ {
		for q := 0; q < l.PointsPerElement(e); q++ {
			d.Set(e, q, [3]float64{float64(e), float64(q), float64(e*100 + q)})
		}
	}
	for e := 0; e < l.ElementCount(); e++ {
		for q := 0; q < l.PointsPerElement(e); q++ {
			assert.Equal(t, [3]float64{float64(e), float64(q), float64(e*100 + q)}, d.Get(e, q))
			assert.Equal(t, d.Get(e, q), d.At(e, q).Get())
		}
	}
}

func TestDataAssign(t *testing.T) {
	m := mesh.FromGeometries(element.Hex, element.Tet, element.Hex, element.Pyramid, element.Line)
	d, err := NewFromMesh[pair](m, 2)
	require.NoError(t, err)

	d.Assign(pair{1.5, -2})
	for _, v := range d.View().All() {
		assert.Equal(t, pair{1.5, -2}, v)
	}
	for i := 0; i < len(d.Raw()); i += 2 {
		assert.Equal(t, 1.5, d.Raw()[i])
		assert.Equal(t, -2.0, d.Raw()[i+1])
	}

	d.Assign(pair{})
	for _, w := range d.Raw() {
		assert.Zero(t, w)
	}
}

func TestDataOrderingLaw(t *testing.T) {
	m := mesh.FromGeometries(element.Tet, element.Prism, element.Hex)
	d, err := NewFromMesh[float64](m, 1)
	require.NoError(t, err)

	l := d.Layout()
	n := 0.
	for e := 0; e < l.ElementCount(); e++ {
		for q := 0; q < l.PointsPerElement(e); q++ {
			d.Set(e, q, n)
			n++
		}
	}

	var sequential []float64
	for e := 0; e < l.ElementCount(); e++ {
		for q := 0; q < l.PointsPerElement(e); q++ {
			sequential = append(sequential, d.Get(e, q))
		}
	}
	var viewed []float64
	for _, v := range d.View().All() {
		viewed = append(viewed, v)
	}
	assert.Equal(t, sequential, viewed)
	assert.Equal(t, l.TotalPoints(), d.View().Len())
	assert.Equal(t, d.View().Raw(), d.Raw())
}

func TestDataViewLength(t *testing.T) {
	for _, g := range []element.GeometryType{element.Line, element.Tri, element.Rectangle, element.Tet, element.Hex} {
		for p := 0; p < 4; p++ {
			d, err := NewFromMesh[pair](mesh.Uniform(g, 3), p)
			require.NoError(t, err)
			assert.Equal(t, d.Layout().TotalPoints(), d.View().Len())
			assert.Equal(t, d.Layout().TotalPoints()*2, len(d.View().Raw()))
		}
	}
}

func TestDataRefAliases(t *testing.T) {
	d := New[pair](twoByThree(t))
	r := d.At(0, 1)
	r.Set(pair{3, 4})
	assert.Equal(t, pair{3, 4}, d.Get(0, 1))
	assert.Equal(t, pair{3, 4}, d.View().At(1))

	r.Update(func(v *pair) { v.B *= 10 })
	assert.Equal(t, pair{3, 40}, d.At(0, 1).Get())

	// writing the raw words is visible through the typed accessors
	r.Raw()[0] = -1
	assert.Equal(t, pair{-1, 40}, d.Get(0, 1))

	// a reference cannot grow into the neighbouring slot
	assert.Equal(t, 2, cap(r.Raw()))

	d.View().Ref(5).Set(pair{8, 9})
	assert.Equal(t, pair{8, 9}, d.Get(1, 2))
}

func TestDataElem(t *testing.T) {
	m := mesh.FromGeometries(element.Tet, element.Hex)
	l, err := NewLayout(m, 0, WithRules(fixedRules{element.Tet: 4, element.Hex: 8}))
	require.NoError(t, err)
	d := New[float64](l)

	e1 := d.Elem(1)
	require.Equal(t, 8, e1.Len())
	for i := 0; i < e1.Len(); i++ {
		e1.Ref(i).Set(float64(i + 1))
	}
	assert.Equal(t, 0., d.Get(0, 3))
	assert.Equal(t, 1., d.Get(1, 0))
	assert.Equal(t, 8., d.Get(1, 7))
	assert.Equal(t, 4, d.Elem(0).Len())
}

func TestDataCopyFrom(t *testing.T) {
	d := New[pair](twoByThree(t))
	src := make([]float64, 12)
	for i := range src {
		src[i] = float64(i)
	}
	require.NoError(t, d.CopyFrom(src))
	assert.Equal(t, pair{10, 11}, d.Get(1, 2))

	err := d.CopyFrom(src[:11])
	assert.ErrorIs(t, err, ErrSizeMismatch)
}

// state keeps its fields unexported, so it needs an explicit codec
type state struct {
	strain, hardening float64
	yielded           bool
}

type stateCodec struct{}

func (stateCodec) Width() int { return 3 }

func (stateCodec) Encode(dst []float64, v state) {
	dst[0], dst[1] = v.strain, v.hardening
	dst[2] = 0
	if v.yielded {
		dst[2] = 1
	}
}

func (stateCodec) Decode(src []float64) state {
	return state{strain: src[0], hardening: src[1], yielded: src[2] != 0}
}

func TestDataExplicitCodec(t *testing.T) {
	d := New(twoByThree(t), WithCodec[state](stateCodec{}))
	require.Equal(t, 3, d.Width())
	require.Len(t, d.Raw(), 18)

	d.Assign(state{hardening: 1})
	d.Set(0, 2, state{strain: 0.01, hardening: 2, yielded: true})
	assert.Equal(t, state{strain: 0.01, hardening: 2, yielded: true}, d.Get(0, 2))
	assert.Equal(t, state{hardening: 1}, d.Get(1, 0))
}

func TestDataSizeMismatch(t *testing.T) {
	l := twoByThree(t)

	type narrow struct{ A float32 }
	type mixed struct {
		A float64
		N int32
	}
	type hidden struct{ a, b float64 }

	requirePanicIs(t, ErrSizeMismatch, func() { New[narrow](l) })
	requirePanicIs(t, ErrSizeMismatch, func() { New[[3]float32](l) })
	requirePanicIs(t, ErrSizeMismatch, func() { New[mixed](l) })
	requirePanicIs(t, ErrSizeMismatch, func() { New[hidden](l) })
	requirePanicIs(t, ErrSizeMismatch, func() { New[int64](l) })
	requirePanicIs(t, ErrSizeMismatch, func() { New[struct{}](l) })
	requirePanicIs(t, ErrSizeMismatch, func() { New(l, WithCodec[pair](zeroWidth{})) })

	_, err := Reflect[[2]pair]()
	assert.NoError(t, err)
	_, err = Reflect[*pair]()
	assert.ErrorIs(t, err, ErrSizeMismatch)
}

type zeroWidth struct{}

func (zeroWidth) Width() int                   { return 0 }
func (zeroWidth) Encode(dst []float64, v pair) {}
func (zeroWidth) Decode(src []float64) pair    { return pair{} }

func TestReflectCodecNested(t *testing.T) {
	type tensor struct {
		Sigma [2][2]float64
		Eps   pair
	}
	c, err := Reflect[tensor]()
	require.NoError(t, err)
	require.Equal(t, 6, c.Width())

	v := tensor{Sigma: [2][2]float64{{1, 2}, {3, 4}}, Eps: pair{5, 6}}
	words := make([]float64, 6)
	c.Encode(words, v)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, words)
	assert.Equal(t, v, c.Decode(words))
}

func TestFloat64Codec(t *testing.T) {
	d := New(twoByThree(t), WithCodec[float64](Float64{}))
	require.Equal(t, 1, d.Width())
	d.Set(1, 1, 2.5)
	assert.Equal(t, 2.5, d.Raw()[4])
	assert.Equal(t, 2.5, d.Get(1, 1))
}
