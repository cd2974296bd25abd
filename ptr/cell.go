package ptr

// Cell gives a value that cannot embed Counter itself (a foreign type, a
// scalar) the counting capability. Value must not be reassigned while the
// cell is shared.
type Cell[V any] struct {
	Counter
	Value V

	release func(V)
}

// NewCell wraps v. release, if not nil, runs once with the value when the
// last reference is released.
func NewCell[V any](v V, release func(V)) *Cell[V] {
	return &Cell[V]{Value: v, release: release}
}

func (c *Cell[V]) Destroy() {
	if c.release != nil {
		c.release(c.Value)
	}
}
