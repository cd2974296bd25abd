// Package ptr provides intrusive reference counting.
//
// The count lives inside the managed object. A type gets the capability by
// embedding Counter, or by implementing AcquireRef and ReleaseRef itself when
// the count has to live somewhere else. Ptr is the owning handle: every
// non-null Ptr accounts for exactly one unit of the count, and the handle
// touches the count only through the Acquire and Release hooks.
//
//	type Conn struct {
//		ptr.Counter
//		fd int
//	}
//
//	func (c *Conn) Destroy() { unix.Close(c.fd) }
//
//	h := ptr.New(&Conn{fd: fd}) // count 1
//	g := h.Clone()              // count 2
//	h.Release()                 // count 1
//	g.Release()                 // count 0, Destroy runs
//
// Memory is still reclaimed by the garbage collector. Destroy is the place
// for teardown that must happen exactly once when the last owner is gone:
// returning a buffer to a pool, closing a descriptor, unmapping memory.
//
// Caller obligations, none of which are checked at runtime:
//
//   - Get on a null handle returns the zero T; using it is a bug.
//   - A reference taken with Detach must eventually reach Release, usually by
//     re-adopting it with Adopt.
//   - A single Ptr value must not be mutated from two goroutines without
//     external synchronization. Distinct handles to the same object may be
//     used from any number of goroutines.
//   - A plain copy of a shared object, b := *a, reads a's Counter without
//     atomics and races with goroutines counting a. Copy into an existing
//     object with AssignValue, which never reads the source's Counter:
//
//	var b Conn
//	ptr.AssignValue(&b, a)
package ptr
