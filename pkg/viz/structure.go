package viz

// Structure is the contract every engine satisfies for the session and layout layers.
type Structure interface {
	// Kind names the structure family ("avl", "btree", ...).
	Kind() string

	// Shape snapshots the current linkage.
	Shape() Shape
}

// Restorer is implemented by engines that support history. Checkpoint returns
// an independent deep copy of the logical state; Restore replaces the state
// with a value previously returned by Checkpoint.
type Restorer interface {
	Checkpoint() any
	Restore(cp any) error
}

// Dragger is implemented by engines whose elements can be removed by dragging
// them off the diagram (stack top, queue front, deque ends).
type Dragger interface {
	DragRemove(id string) (Trace, error)
}

// Validator is implemented by engines that can check their own invariants.
type Validator interface {
	Valid() error
}
