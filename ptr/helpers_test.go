package ptr_test

import (
	"sync/atomic"

	"github.com/chenx-dust/refptr/ptr"
)

type object struct {
	ptr.Counter
	payload   int
	destroyed *atomic.Int32
}

func newObject() *object {
	return &object{destroyed: new(atomic.Int32)}
}

func (o *object) Destroy() {
	o.destroyed.Add(1)
}

// shape is the "base" of square; areaView is a read-only view of both.
type shape interface {
	ptr.RefCounted
	Area() int
	Resize(side int)
}

type areaView interface {
	ptr.RefCounted
	Area() int
}

type square struct {
	ptr.Counter
	side      int
	destroyed atomic.Int32
}

func (s *square) Area() int       { return s.side * s.side }
func (s *square) Resize(side int) { s.side = side }
func (s *square) Destroy()        { s.destroyed.Add(1) }

// foreign keeps its count outside the object, under its own hooks.
type foreign struct {
	name string
}

type foreignRefs struct {
	counts    map[*foreign]int
	destroyed []string
}

type foreignRef struct {
	obj  *foreign
	refs *foreignRefs
}

func (r *foreignRef) AcquireRef() {
	r.refs.counts[r.obj]++
}

func (r *foreignRef) ReleaseRef() bool {
	r.refs.counts[r.obj]--
	return r.refs.counts[r.obj] == 0
}

func (r *foreignRef) Destroy() {
	delete(r.refs.counts, r.obj)
	r.refs.destroyed = append(r.refs.destroyed, r.obj.name)
}
