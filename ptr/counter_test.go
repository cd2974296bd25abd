package ptr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chenx-dust/refptr/ptr"
)

func TestCounterZeroValue(t *testing.T) {
	var o object
	assert.Equal(t, uint32(0), o.UseCount())
}

func TestCounterCopyStartsAtZero(t *testing.T) {
	a := newObject()
	h := ptr.New(a)
	require.Equal(t, uint32(1), a.UseCount())

	b := *a
	assert.Equal(t, uint32(0), b.UseCount())

	hb := ptr.New(&b)
	assert.Equal(t, uint32(1), b.UseCount())
	assert.Equal(t, uint32(1), a.UseCount())

	hb.Release()
	assert.Equal(t, uint32(0), b.UseCount())
	assert.Equal(t, uint32(1), a.UseCount())
	assert.Equal(t, int32(1), a.destroyed.Load(), "b shares a's destroy counter")

	h.Release()
	assert.Equal(t, int32(2), a.destroyed.Load())
}

func TestCounterCopyOfCopy(t *testing.T) {
	a := newObject()
	h := ptr.New(a)
	defer h.Release()

	b := *a
	hb := ptr.New(&b)
	defer hb.Release()

	c := b
	assert.Equal(t, uint32(0), c.UseCount())
	hc := ptr.New(&c)
	assert.Equal(t, uint32(1), c.UseCount())
	hc.Release()
	assert.Equal(t, uint32(1), b.UseCount())
}

func TestAssignValueKeepsCounter(t *testing.T) {
	a := newObject()
	h1 := ptr.New(a)
	h2 := ptr.New(a)
	require.Equal(t, uint32(2), a.UseCount())

	b := object{payload: 7, destroyed: a.destroyed}
	ptr.AssignValue(a, &b)
	assert.Equal(t, uint32(2), a.UseCount())
	assert.Equal(t, 7, a.payload)
	assert.Equal(t, uint32(0), b.UseCount())

	ptr.AssignValue(a, a)
	assert.Equal(t, uint32(2), a.UseCount())

	h1.Release()
	h2.Release()
	assert.Equal(t, int32(1), a.destroyed.Load())
}

func TestAssignValueFromSharedSource(t *testing.T) {
	src := newObject()
	src.payload = 3
	hs := ptr.New(src)
	defer hs.Release()

	dst := newObject()
	ptr.AssignValue(dst, src)
	assert.Equal(t, 3, dst.payload)
	assert.Equal(t, uint32(0), dst.UseCount())
	assert.Equal(t, uint32(1), src.UseCount())

	hd := ptr.New(dst)
	assert.Equal(t, uint32(1), dst.UseCount())
	assert.Equal(t, uint32(1), src.UseCount())
	hd.Release()
}

type base struct {
	ptr.Counter
	id int
}

type derived struct {
	base
	name string
}

func TestAssignValueNestedCounter(t *testing.T) {
	a := &derived{base: base{id: 1}, name: "a"}
	h1 := ptr.New(a)
	h2 := h1.Clone()
	defer h1.Release()
	defer h2.Release()

	b := derived{base: base{id: 2}, name: "b"}
	ptr.AssignValue(a, &b)
	assert.Equal(t, 2, a.id)
	assert.Equal(t, "b", a.name)
	assert.Equal(t, uint32(2), a.UseCount())
	assert.Equal(t, uint32(0), b.UseCount())
}

func TestCounterReleaseRefReportsLast(t *testing.T) {
	var c ptr.Counter
	c.AcquireRef()
	c.AcquireRef()
	assert.False(t, c.ReleaseRef())
	assert.True(t, c.ReleaseRef())
	assert.Equal(t, uint32(0), c.UseCount())
}

func TestHooksIgnoreZero(t *testing.T) {
	assert.NotPanics(t, func() {
		ptr.Acquire[*object](nil)
		ptr.Release[*object](nil)
	})
}

func TestCellReleaseCallback(t *testing.T) {
	var released []string
	c := ptr.NewCell("conn-1", func(v string) { released = append(released, v) })

	h := ptr.New(c)
	g := h.Clone()
	assert.Equal(t, "conn-1", h.Get().Value)
	assert.Equal(t, uint32(2), c.UseCount())

	h.Release()
	assert.Empty(t, released)
	g.Release()
	assert.Equal(t, []string{"conn-1"}, released)
}

func TestCellWithoutCallback(t *testing.T) {
	h := ptr.New(ptr.NewCell(42, nil))
	assert.Equal(t, 42, h.Get().Value)
	assert.NotPanics(t, h.Release)
}

func TestCustomHooks(t *testing.T) {
	refs := &foreignRefs{counts: make(map[*foreign]int)}
	f := &foreign{name: "legacy"}
	r := &foreignRef{obj: f, refs: refs}

	h := ptr.New(r)
	g := h.Clone()
	assert.Equal(t, 2, refs.counts[f])

	h.Release()
	assert.Equal(t, 1, refs.counts[f])
	assert.Empty(t, refs.destroyed)

	g.Release()
	assert.Equal(t, []string{"legacy"}, refs.destroyed)
	assert.NotContains(t, refs.counts, f)
}
