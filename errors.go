package queuefile

import "github.com/radarbase/queuefile/internal/engine"

// Sentinel errors returned by QueueFile operations. Callers should use
// errors.Is against these rather than matching on message text.
var (
	// ErrClosed is returned by any operation performed after Close.
	ErrClosed = engine.ErrClosed

	// ErrArgument indicates an invalid argument was supplied, such as
	// a MaxSize below MinimumSize or a negative count to Remove.
	ErrArgument = engine.ErrArgument

	// ErrNotFound indicates Remove was asked to discard more elements
	// than are currently present.
	ErrNotFound = engine.ErrNotFound

	// ErrConcurrentModification indicates a read stream or iterator
	// observed a structural change made after it was created.
	ErrConcurrentModification = engine.ErrConcurrentModification

	// ErrCapacityExceeded indicates an append would need to grow the
	// file past its configured MaxSize.
	ErrCapacityExceeded = engine.ErrCapacityExceeded

	// ErrCorrupted indicates the file failed a structural integrity
	// check. The queue closes itself when this is raised; no repair
	// is attempted.
	ErrCorrupted = engine.ErrCorrupted
)

// MinimumSize is the file length a freshly created queue file is
// initialized to, and the floor the shrink policy never crosses.
const MinimumSize = engine.MinimumSize
