package ptr

type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Ptr is an owning handle to an intrusively counted object. The zero value is
// a null handle. A non-null Ptr always accounts for one reference.
//
// Ptr must not be copied with plain assignment: go vet reports such copies.
// Use Clone to share and Move to transfer. Release must be called when the
// handle is no longer needed.
type Ptr[T Object] struct {
	p T
	_ noCopy
}

// New returns a handle that acquires a new reference to p.
// A nil p yields a null handle and runs no hook.
func New[T Object](p T) Ptr[T] {
	Acquire(p)
	return Ptr[T]{p: p}
}

// Adopt returns a handle that takes over a reference already accounted for
// elsewhere, typically one obtained from Detach.
func Adopt[T Object](p T) Ptr[T] {
	return Ptr[T]{p: p}
}

// Make is New when addRef is true and Adopt otherwise.
func Make[T Object](p T, addRef bool) Ptr[T] {
	if addRef {
		Acquire(p)
	}
	return Ptr[T]{p: p}
}

// Get returns the managed object, or a nil T for a null handle.
func (h *Ptr[T]) Get() T {
	return h.p
}

// Valid reports whether h is non-null.
func (h *Ptr[T]) Valid() bool {
	return !isNil(h.p)
}

// Is reports whether h refers to p.
func (h *Ptr[T]) Is(p T) bool {
	return h.p == p
}

// Clone returns a new handle sharing h's object.
func (h *Ptr[T]) Clone() Ptr[T] {
	return New(h.p)
}

// Move transfers h's reference to the returned handle and nulls h.
func (h *Ptr[T]) Move() Ptr[T] {
	return Ptr[T]{p: h.Detach()}
}

// Detach nulls h and returns its object without releasing it. The caller
// owns the returned reference.
func (h *Ptr[T]) Detach() T {
	var zero T
	p := h.p
	h.p = zero
	return p
}

// Swap exchanges the objects of h and o. No hook runs.
func (h *Ptr[T]) Swap(o *Ptr[T]) {
	h.p, o.p = o.p, h.p
}

// Release gives up h's reference, if any, and nulls h. Calling it again on
// the nulled handle does nothing.
func (h *Ptr[T]) Release() {
	Release(h.Detach())
}

// Assign makes h share src's object. The new reference is acquired before
// the old one is released, so assigning a handle to itself or to another
// handle of the same object never drops the count to zero.
func (h *Ptr[T]) Assign(src *Ptr[T]) {
	tmp := src.Clone()
	h.Swap(&tmp)
	tmp.Release()
}

// MoveFrom transfers src's reference into h and releases h's old one.
func (h *Ptr[T]) MoveFrom(src *Ptr[T]) {
	tmp := src.Move()
	h.Swap(&tmp)
	tmp.Release()
}

// Reset releases h's reference and nulls h.
func (h *Ptr[T]) Reset() {
	var zero T
	h.ResetWith(zero, true)
}

// ResetTo makes h acquire p, then releases the old reference.
func (h *Ptr[T]) ResetTo(p T) {
	h.ResetWith(p, true)
}

// ResetWith is ResetTo when addRef is true; otherwise h adopts p.
func (h *Ptr[T]) ResetWith(p T, addRef bool) {
	tmp := Make(p, addRef)
	h.Swap(&tmp)
	tmp.Release()
}

// ShareArg acquires a reference for passing through a channel or argument.
func (h *Ptr[T]) ShareArg() Arg[T] {
	Acquire(h.p)
	return Arg[T]{p: h.p}
}

// MoveArg transfers h's reference into an Arg and nulls h.
func (h *Ptr[T]) MoveArg() Arg[T] {
	return Arg[T]{p: h.Detach()}
}

// Swap exchanges the objects of a and b.
func Swap[T Object](a, b *Ptr[T]) {
	a.Swap(b)
}

// Arg carries one reference in flight, for sending over a channel or
// passing to a function. It may be copied until it is claimed; the receiver
// must call ToOwned exactly once.
type Arg[T Object] struct {
	p T
}

// ToOwned claims the in-flight reference.
func (a *Arg[T]) ToOwned() Ptr[T] {
	return Ptr[T]{p: a.p}
}
