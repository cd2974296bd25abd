package ptr

import (
	"cmp"
	"fmt"
	"reflect"
)

// As returns a handle of type T sharing src's object. Y must be assignable to
// T: a concrete type to an interface it implements, or an interface to a
// narrower one such as a read-only view. Any other pair panics before a hook
// runs.
func As[T, Y Object](src *Ptr[Y]) Ptr[T] {
	return New(convert[T](src.p))
}

// MoveAs is As, but transfers src's reference and nulls src.
func MoveAs[T, Y Object](src *Ptr[Y]) Ptr[T] {
	p := convert[T](src.p)
	src.Detach()
	return Ptr[T]{p: p}
}

// AssignAs makes dst share src's object, with the ordering of Assign.
func AssignAs[T, Y Object](dst *Ptr[T], src *Ptr[Y]) {
	tmp := As[T](src)
	dst.Swap(&tmp)
	tmp.Release()
}

// MoveAssignAs transfers src's reference into dst and releases dst's old one.
func MoveAssignAs[T, Y Object](dst *Ptr[T], src *Ptr[Y]) {
	tmp := MoveAs[T](src)
	dst.Swap(&tmp)
	tmp.Release()
}

func convert[T, Y Object](p Y) T {
	to, from := reflect.TypeOf((*T)(nil)).Elem(), reflect.TypeOf((*Y)(nil)).Elem()
	if !from.AssignableTo(to) {
		panic(fmt.Sprintf("ptr: cannot convert Ptr[%s] to Ptr[%s]", from, to))
	}
	if isNil(p) {
		var zero T
		return zero
	}
	return any(p).(T)
}

// address is the identity used for comparisons. Managed objects are
// pointers; the zero value and nil pointers map to 0.
func address[T comparable](p T) uintptr {
	v := reflect.ValueOf(p)
	switch v.Kind() {
	case reflect.Invalid:
		return 0
	case reflect.Pointer, reflect.UnsafePointer, reflect.Chan:
		return v.Pointer()
	}
	panic(fmt.Sprintf("ptr: %s is not a pointer", v.Type()))
}

// Equal reports whether a and b refer to the same object. The handles may
// have different, related types. Null handles are equal.
func Equal[T, U Object](a *Ptr[T], b *Ptr[U]) bool {
	return address(a.p) == address(b.p)
}

// EqualRaw reports whether h refers to p. It is symmetric; there is no
// separate raw-first form.
func EqualRaw[T Object, U comparable](h *Ptr[T], p U) bool {
	return address(h.p) == address(p)
}

// Compare orders handles by object identity. Null handles sort first.
// The order is total, consistent with Equal, and stable for the lifetime of
// the objects, so it is suitable for keys of sorted containers.
func Compare[T Object](a, b *Ptr[T]) int {
	return cmp.Compare(address(a.p), address(b.p))
}

// Less reports whether a sorts before b under Compare.
func Less[T Object](a, b *Ptr[T]) bool {
	return Compare(a, b) < 0
}
