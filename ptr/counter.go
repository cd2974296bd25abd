package ptr

import (
	"reflect"
	"runtime"
	"sync/atomic"
	"unsafe"
)

// Counter is an embeddable intrusive reference count. The zero value is ready
// to use and holds no references.
//
// A Counter remembers the address it was first acquired at. A bitwise copy of
// the owning object therefore starts with a count of zero instead of
// inheriting the source's referrers; use AssignValue to overwrite an object
// that is already shared.
//
// Until its first AcquireRef, a copy still points at the source's Counter and
// so keeps the source object reachable for the garbage collector.
//
// Counter has no Destroy method, so an object can never be torn down through
// the bare capability.
type Counter struct {
	home unsafe.Pointer
	refs uint32
}

// claimMark is stored in home while c restarts the count of a copy. It points
// inside c itself, so a copy taken mid-claim sees a foreign value and claims
// for itself instead of waiting on the source.
func (c *Counter) claimMark() unsafe.Pointer {
	return unsafe.Add(unsafe.Pointer(c), 1)
}

// UseCount returns a snapshot of the number of references. It is not
// linearizable with concurrent AcquireRef/ReleaseRef calls and must not be
// used to make synchronization decisions.
func (c *Counter) UseCount() uint32 {
	if atomic.LoadPointer(&c.home) != unsafe.Pointer(c) {
		return 0
	}
	return atomic.LoadUint32(&c.refs)
}

// AcquireRef adds a reference. The caller must already hold a reference to
// the object, or otherwise know that it is alive and visible.
func (c *Counter) AcquireRef() {
	self := unsafe.Pointer(c)
	mark := c.claimMark()
	for {
		switch home := atomic.LoadPointer(&c.home); home {
		case self:
			atomic.AddUint32(&c.refs, 1)
			return
		case nil:
			atomic.CompareAndSwapPointer(&c.home, nil, self)
		case mark:
			runtime.Gosched()
		default:
			// copied from a counter at another address
			if atomic.CompareAndSwapPointer(&c.home, home, mark) {
				atomic.StoreUint32(&c.refs, 0)
				atomic.StorePointer(&c.home, self)
			}
		}
	}
}

// ReleaseRef drops a reference and reports whether it was the last one.
//
// sync/atomic operations are sequentially consistent, so the goroutine that
// sees the count reach zero also sees every write made by goroutines that
// released before it.
func (c *Counter) ReleaseRef() bool {
	return atomic.AddUint32(&c.refs, ^uint32(0)) == 0
}

func (c *Counter) refCounter() *Counter {
	return c
}

type counterHolder interface {
	refCounter() *Counter
}

// AssignValue copies every field of *src into *dst except the embedded
// Counter, the way an assignment of a shared object has to behave: dst keeps
// its own referrers and src's count is never read, so other goroutines may
// keep counting src meanwhile. Assigning an object to itself is a no-op.
// Fields other than the Counter must not be written concurrently.
func AssignValue[V any, PV interface {
	*V
	counterHolder
}](dst, src PV) {
	if dst == src {
		return
	}
	skip := uintptr(unsafe.Pointer(dst.refCounter())) - uintptr(unsafe.Pointer(dst))
	copyExcept(reflect.ValueOf(dst).Elem(), reflect.ValueOf(src).Elem(), skip)
}

var counterType = reflect.TypeOf((*Counter)(nil)).Elem()

// copyExcept copies src into dst field by field, leaving out the Counter at
// byte offset skip. Structs that contain it are descended into.
func copyExcept(dst, src reflect.Value, skip uintptr) {
	t := dst.Type()
	if t == counterType && skip == 0 {
		return
	}
	if t.Kind() != reflect.Struct {
		set(dst, src)
		return
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if skip >= f.Offset && skip < f.Offset+f.Type.Size() {
			copyExcept(dst.Field(i), src.Field(i), skip-f.Offset)
		} else {
			set(dst.Field(i), src.Field(i))
		}
	}
}

// set assigns src to dst even when the field is unexported.
func set(dst, src reflect.Value) {
	d := reflect.NewAt(dst.Type(), unsafe.Pointer(dst.UnsafeAddr())).Elem()
	d.Set(reflect.NewAt(src.Type(), unsafe.Pointer(src.UnsafeAddr())).Elem())
}
