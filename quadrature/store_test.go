package quadrature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoneStore(t *testing.T) {
	var s Store = None
	assert.True(t, s.Empty())
	assert.Nil(t, s.Layout())
	assert.Zero(t, s.Len())
	assert.Zero(t, s.Width())
	assert.Nil(t, s.Raw())

	d, ok := Bind[pair](s)
	assert.False(t, ok)
	assert.Nil(t, d)
}

func TestBindRecoversType(t *testing.T) {
	data := New[pair](twoByThree(t))
	var s Store = data
	assert.False(t, s.Empty())
	assert.Equal(t, 6, s.Len())
	assert.Equal(t, 2, s.Width())
	assert.Len(t, s.Raw(), 12)

	got, ok := Bind[pair](s)
	require.True(t, ok)
	assert.Same(t, data, got)

	_, ok = Bind[float64](s)
	assert.False(t, ok)

	var nilData *Data[pair]
	_, ok = Bind[pair](nilData)
	assert.False(t, ok)
}

func TestOrNone(t *testing.T) {
	assert.Equal(t, Store(None), OrNone(nil))

	data := New[float64](twoByThree(t))
	assert.Same(t, data, OrNone(data).(*Data[float64]))
}

func TestNilDataIsEmpty(t *testing.T) {
	var nilData *Data[pair]
	var s Store = nilData
	assert.True(t, s.Empty())
	assert.Nil(t, s.Layout())
	assert.Zero(t, s.Len())
	assert.Zero(t, s.Width())
	assert.Nil(t, s.Raw())

	s = OrNone(nilData)
	assert.Equal(t, Store(Empty{}), s)
	assert.True(t, s.Empty())

	_, ok := Bind[pair](s)
	assert.False(t, ok)
}

func TestStoreBranching(t *testing.T) {
	// a consumer treats both variants uniformly until it needs the values
	stores := []Store{None, New[pair](twoByThree(t)), New[float64](twoByThree(t))}
	words := 0
	for _, s := range stores {
		if s.Empty() {
			continue
		}
		words += s.Len() * s.Width()
	}
	assert.Equal(t, 12+6, words)
}
