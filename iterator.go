package hpfem

// Iterator walks the active elements of a mesh from left to right.  It
// holds only a traversal stack; the mesh must not be refined while an
// iterator is in use.
type Iterator struct {
	m     *Mesh
	stack []int
}

// Iter returns an iterator positioned before the leftmost active element.
func (m *Mesh) Iter() *Iterator {
	it := &Iterator{m: m, stack: make([]int, 0, len(m.Base))}
	for i := len(m.Base) - 1; i >= 0; i-- {
		it.stack = append(it.stack, m.Base[i])
	}
	return it
}

// Next returns the next active element or nil when the traversal is done.
func (it *Iterator) Next() *Element {
	for len(it.stack) > 0 {
		id := it.stack[len(it.stack)-1]
		it.stack = it.stack[:len(it.stack)-1]
		e := it.m.Elems[id]
		if e.Active {
			return e
		}
		// right son first so the left one is popped next
		it.stack = append(it.stack, e.Sons[1], e.Sons[0])
	}
	return nil
}

// Active returns the active elements of the mesh from left to right.
func (m *Mesh) Active() []*Element {
	elems := make([]*Element, 0, m.NActive)
	it := m.Iter()
	for e := it.Next(); e != nil; e = it.Next() {
		elems = append(elems, e)
	}
	return elems
}
