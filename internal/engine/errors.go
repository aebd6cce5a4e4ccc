package engine

import "errors"

// Sentinel errors returned by the engine. Callers should use
// errors.Is against these rather than matching on message text.
var (
	// ErrClosed is returned by any operation performed after Close.
	ErrClosed = errors.New("queuefile: closed")

	// ErrArgument indicates an invalid argument was supplied, such as
	// a maxSize below MinimumSize or a negative count to Remove.
	ErrArgument = errors.New("queuefile: invalid argument")

	// ErrNotFound indicates Remove was asked to discard more elements
	// than are currently present.
	ErrNotFound = errors.New("queuefile: not found")

	// ErrConcurrentModification indicates a read stream or iterator
	// observed a structural change made after it was created.
	ErrConcurrentModification = errors.New("queuefile: concurrent modification")

	// ErrCapacityExceeded indicates an append would need to grow the
	// file past its configured maxSize.
	ErrCapacityExceeded = errors.New("queuefile: capacity exceeded")

	// ErrCorrupted indicates the file failed a structural integrity
	// check (version, header checksum, element checksum, or an offset
	// outside the data region). The engine closes itself when this is
	// raised; no repair is attempted.
	ErrCorrupted = errors.New("queuefile: corrupted")
)
