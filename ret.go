package weft

// Return cells: the destinations a child task may write its result to. A
// cell is bound at the spawn site and consumed by the task's Return.

// A Ret is a return address for an R: a raw pointer (Out), a value-or-empty
// cell (Eventually), a value-or-empty-or-panic cell (TryEventually), or nil
// for a discard sink.
type Ret[R any] interface {
	set(v R)
}

type outCell[R any] struct{ p *R }

func (c outCell[R]) set(v R) { *c.p = v }

// Out adapts a raw pointer into a return address.
func Out[R any](p *R) Ret[R] { return outCell[R]{p: p} }

// Discard returns the sink that drops the child's result. Used for void
// tasks and fire-and-forget children.
func Discard[R any]() Ret[R] { return nil }

// An Eventually holds a value or is empty. Written at most once, by the
// task it was bound to; read after the corresponding Join.
type Eventually[R any] struct {
	v  R
	ok bool
}

func (e *Eventually[R]) set(v R) {
	e.v = v
	e.ok = true
}

// Get returns the value and whether one was delivered.
func (e *Eventually[R]) Get() (R, bool) { return e.v, e.ok }

// Must returns the value, panicking if the cell is empty.
func (e *Eventually[R]) Must() R {
	if !e.ok {
		panic("weft: empty eventually cell")
	}
	return e.v
}

// A TryEventually additionally captures a panic of its task instead of
// letting it propagate to the parent frame.
type TryEventually[R any] struct {
	Eventually[R]

	pan    any
	hasPan bool
}

// CapturePanic absorbs the task's panic into the cell. Called by the
// runtime at the task's terminal suspension.
func (e *TryEventually[R]) CapturePanic(v any) bool {
	e.pan = v
	e.hasPan = true
	return true
}

// Err returns the captured panic value, if any.
func (e *TryEventually[R]) Err() (any, bool) { return e.pan, e.hasPan }

// Must returns the value, re-raising a captured panic.
func (e *TryEventually[R]) Must() R {
	if e.hasPan {
		panic(e.pan)
	}
	return e.Eventually.Must()
}
