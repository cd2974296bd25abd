package ptr

import "reflect"

// RefCounted is the pair of counting methods a managed type provides.
// Embedding Counter provides both. Interfaces that describe managed objects
// embed RefCounted so that handles of those interfaces can be formed.
type RefCounted interface {
	// AcquireRef adds a reference. It is only called by a context that
	// already holds a reference; implementations may rely on that and use
	// the weakest ordering that keeps the increment atomic.
	AcquireRef()
	// ReleaseRef drops a reference and reports whether it was the last.
	ReleaseRef() bool
}

// Object is the constraint for types managed by a Ptr.
type Object interface {
	comparable
	RefCounted
}

// Destroyer is implemented by managed types that need teardown when their
// last reference is released.
type Destroyer interface {
	Destroy()
}

// Acquire is the hook a Ptr calls to account for a new reference to p.
// It does nothing for a nil p, including a nil pointer held in an interface.
func Acquire[T Object](p T) {
	if !isNil(p) {
		p.AcquireRef()
	}
}

// Release is the hook a Ptr calls to give up its reference to p. When that
// was the last reference, p's Destroy runs, exactly once, on the concrete
// type behind p. It does nothing for a nil p.
//
// Release is also how code that received a reference from Detach gives it
// up without re-wrapping it.
func Release[T Object](p T) {
	if isNil(p) {
		return
	}
	if p.ReleaseRef() {
		if d, ok := any(p).(Destroyer); ok {
			d.Destroy()
		}
	}
}

// isNil reports whether p refers to no object. An interface T can hold a
// typed nil pointer, which is not equal to the zero T but is still null.
func isNil[T comparable](p T) bool {
	var zero T
	if p == zero {
		return true
	}
	v := reflect.ValueOf(p)
	switch v.Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Chan:
		return v.IsNil()
	}
	return false
}
