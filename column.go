package silo

// Column is the type-erased view of a single component's storage within
// one chunk: a contiguous array of length capacity, one element per row.
type Column interface {
	// MoveElement moves the value at src into dst (used by swap-back and
	// stable-remove) and resets src to its default value.
	MoveElement(src, dst int)
	// CopyElementTo copies the value at srcRow into dst at dstRow. dst
	// must be the same concrete column type; returns false otherwise.
	CopyElementTo(srcRow int, dst Column, dstRow int) bool
	// SetDefault resets row to the zero value of the column's type.
	SetDefault(row int)
	// Capacity returns the fixed row capacity of the column.
	Capacity() int
}

// typedColumn is a contiguous typed array of length capacity, with
// MoveElement/CopyElementTo/SetDefault operating on concrete T.
type typedColumn[T any] struct {
	data []T
}

func newTypedColumn[T any](capacity int) *typedColumn[T] {
	return &typedColumn[T]{data: make([]T, capacity)}
}

func (c *typedColumn[T]) Capacity() int { return len(c.data) }

func (c *typedColumn[T]) MoveElement(src, dst int) {
	if src == dst {
		return
	}
	c.data[dst] = c.data[src]
	var zero T
	c.data[src] = zero
}

func (c *typedColumn[T]) CopyElementTo(srcRow int, dst Column, dstRow int) bool {
	other, ok := dst.(*typedColumn[T])
	if !ok {
		return false
	}
	other.data[dstRow] = c.data[srcRow]
	return true
}

func (c *typedColumn[T]) SetDefault(row int) {
	var zero T
	c.data[row] = zero
}

// Get returns a pointer into row's storage, live until the next
// structural change that relocates the row.
func (c *typedColumn[T]) Get(row int) *T {
	return &c.data[row]
}

// Set overwrites row's value.
func (c *typedColumn[T]) Set(row int, value T) {
	c.data[row] = value
}

// columnOf down-casts a type-erased Column to its concrete typedColumn[T],
// the same "recover the concrete type through a generic parameter on the
// caller side" pattern described in the design notes.
func columnOf[T any](col Column) (*typedColumn[T], bool) {
	tc, ok := col.(*typedColumn[T])
	return tc, ok
}
