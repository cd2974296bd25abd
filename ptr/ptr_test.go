package ptr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chenx-dust/refptr/ptr"
)

func TestNullHandle(t *testing.T) {
	var h ptr.Ptr[*object]
	assert.Nil(t, h.Get())
	assert.False(t, h.Valid())
	assert.NotPanics(t, h.Release)

	c := h.Clone()
	assert.False(t, c.Valid())
	assert.Nil(t, h.Detach())
}

func TestTypedNilIsNull(t *testing.T) {
	var sq *square
	var null ptr.Ptr[shape]

	assert.NotPanics(t, func() {
		h := ptr.New[shape](sq)
		assert.False(t, h.Valid())
		assert.True(t, ptr.Equal(&h, &null))

		v := ptr.As[areaView](&h)
		assert.False(t, v.Valid())
		assert.Nil(t, v.Get())
		v.Release()
		h.Release()

		m := ptr.Make[shape](sq, true)
		assert.False(t, m.Valid())
		m.Release()
	})

	live := &square{side: 2}
	r := ptr.New[shape](live)
	assert.NotPanics(t, func() { r.ResetTo(sq) })
	assert.False(t, r.Valid())
	assert.Equal(t, uint32(0), live.UseCount())
	assert.Equal(t, int32(1), live.destroyed.Load())
	assert.NotPanics(t, r.Release)
}

func TestNewAcquiresAndReleaseDrops(t *testing.T) {
	o := newObject()
	outer := ptr.New(o)
	require.Equal(t, uint32(1), o.UseCount())

	inner := ptr.New(o)
	assert.Same(t, o, inner.Get())
	assert.Equal(t, uint32(2), inner.Get().UseCount())
	inner.Release()
	assert.Equal(t, uint32(1), o.UseCount())
	assert.False(t, inner.Valid())

	detached := ptr.New(o)
	assert.Same(t, o, detached.Detach())
	assert.False(t, detached.Valid())
	detached.Release()
	assert.Equal(t, uint32(2), o.UseCount(), "detach keeps the reference")

	adopted := ptr.Adopt(o)
	assert.Equal(t, uint32(2), o.UseCount())
	adopted.Release()
	assert.Equal(t, uint32(1), o.UseCount())

	outer.Release()
	assert.Equal(t, int32(1), o.destroyed.Load())
}

func TestMake(t *testing.T) {
	o := newObject()
	a := ptr.Make(o, true)
	assert.Equal(t, uint32(1), o.UseCount())
	b := ptr.Make(o, false)
	assert.Equal(t, uint32(1), o.UseCount())
	b.Detach()
	a.Release()
	assert.Equal(t, int32(1), o.destroyed.Load())
}

func TestDetachAdoptRoundTrip(t *testing.T) {
	o := newObject()
	h := ptr.New(o)
	g := h.Clone()
	before := o.UseCount()

	raw := g.Detach()
	g = ptr.Adopt(raw)
	assert.Equal(t, before, o.UseCount())

	raw = g.Detach()
	ptr.Release(raw)
	assert.Equal(t, before-1, o.UseCount())

	h.Release()
	assert.Equal(t, int32(1), o.destroyed.Load())
}

func TestLifecycleScenario(t *testing.T) {
	o := newObject()

	a := ptr.New(o)
	assert.Equal(t, uint32(1), o.UseCount())

	b := a.Clone()
	assert.Equal(t, uint32(2), o.UseCount())

	c := b.Move()
	assert.Equal(t, uint32(2), o.UseCount())
	assert.False(t, b.Valid())
	assert.Same(t, o, c.Get())

	a.Release()
	assert.Equal(t, uint32(1), o.UseCount())
	assert.Equal(t, int32(0), o.destroyed.Load())

	c.Release()
	assert.Equal(t, int32(1), o.destroyed.Load())

	b.Release()
	a.Release()
	assert.Equal(t, int32(1), o.destroyed.Load())
}

func TestAssignSameObject(t *testing.T) {
	o := newObject()
	a := ptr.New(o)
	b := a.Clone()
	require.Equal(t, uint32(2), o.UseCount())

	a.Assign(&a)
	assert.Equal(t, uint32(2), o.UseCount())
	a.Assign(&b)
	assert.Equal(t, uint32(2), o.UseCount())
	a.MoveFrom(&a)
	assert.Equal(t, uint32(2), o.UseCount())
	assert.True(t, a.Valid())

	a.Release()
	b.Release()
	assert.Equal(t, int32(1), o.destroyed.Load())
}

func TestAssignSoleOwnerToItself(t *testing.T) {
	o := newObject()
	a := ptr.New(o)
	a.Assign(&a)
	a.ResetTo(o)
	assert.Equal(t, uint32(1), o.UseCount())
	assert.Equal(t, int32(0), o.destroyed.Load())
	a.Release()
	assert.Equal(t, int32(1), o.destroyed.Load())
}

func TestAssignReplacesObject(t *testing.T) {
	x, y := newObject(), newObject()
	a := ptr.New(x)
	b := ptr.New(y)

	a.Assign(&b)
	assert.Equal(t, int32(1), x.destroyed.Load())
	assert.Equal(t, uint32(2), y.UseCount())
	assert.True(t, b.Valid())

	var c ptr.Ptr[*object]
	c.MoveFrom(&b)
	assert.Equal(t, uint32(2), y.UseCount())
	assert.False(t, b.Valid())

	a.Release()
	c.Release()
	assert.Equal(t, int32(1), y.destroyed.Load())
}

func TestReset(t *testing.T) {
	x, y := newObject(), newObject()
	h := ptr.New(x)

	h.ResetTo(y)
	assert.Equal(t, int32(1), x.destroyed.Load())
	assert.Equal(t, uint32(1), y.UseCount())

	extra := ptr.New(y)
	h.ResetWith(extra.Detach(), false)
	assert.Equal(t, uint32(1), y.UseCount(), "adopting releases the old reference")
	assert.Equal(t, int32(0), y.destroyed.Load())

	h.Reset()
	assert.False(t, h.Valid())
	assert.Equal(t, int32(1), y.destroyed.Load())

	h.Reset()
	assert.False(t, h.Valid())
}

func TestSwap(t *testing.T) {
	x, y := newObject(), newObject()
	a := ptr.New(x)
	b := ptr.New(y)

	a.Swap(&b)
	assert.Same(t, y, a.Get())
	assert.Same(t, x, b.Get())
	assert.Equal(t, uint32(1), x.UseCount())
	assert.Equal(t, uint32(1), y.UseCount())

	ptr.Swap(&a, &b)
	assert.Same(t, x, a.Get())

	var null ptr.Ptr[*object]
	a.Swap(&null)
	assert.False(t, a.Valid())
	assert.Same(t, x, null.Get())

	null.Release()
	b.Release()
	assert.Equal(t, int32(1), x.destroyed.Load())
	assert.Equal(t, int32(1), y.destroyed.Load())
}

func TestArgHandOff(t *testing.T) {
	o := newObject()
	h := ptr.New(o)

	ch := make(chan ptr.Arg[*object], 2)
	ch <- h.ShareArg()
	assert.Equal(t, uint32(2), o.UseCount())
	ch <- h.MoveArg()
	assert.False(t, h.Valid())
	assert.Equal(t, uint32(2), o.UseCount())
	close(ch)

	for arg := range ch {
		owned := arg.ToOwned()
		owned.Release()
	}
	assert.Equal(t, int32(1), o.destroyed.Load())
}
