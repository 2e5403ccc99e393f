package core

import "errors"

// Error kinds surfaced by the runtime core.
var (
	// ErrOutOfMemory is returned by Stack.Allocate (and raised as a panic
	// value by the public span allocator) when a stacklet allocation would
	// exceed the stack's configured byte limit.
	ErrOutOfMemory = errors.New("weft: stack allocation failed")

	// ErrBeforeJoin is the substitute panic raised by the eager/sync dispatch
	// variants when a sibling has panicked but the current task does not have
	// exclusive ownership of its frame. The real value is delivered by the
	// following Join.
	ErrBeforeJoin = errors.New("weft: sibling panicked before join")

	// ErrScheduleInWorker is returned by Schedule when called from a worker
	// goroutine. Blocking a worker on its own pool can deadlock it.
	ErrScheduleInWorker = errors.New("weft: schedule called on a worker")
)
