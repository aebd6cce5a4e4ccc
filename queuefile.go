// Package queuefile provides a crash-safe, file-backed FIFO byte-record
// queue for Go.
//
// A QueueFile is a persistent container of variable-length opaque byte
// records: producers append records at the tail, consumers drain them
// from the head in arrival order. The whole queue lives in one regular
// file, addressed as a ring buffer, with a single 36-byte header as its
// atomicity boundary — no record becomes visible, and no record
// disappears, except by a header commit. A crash at any point leaves
// the file exactly as of its last committed header on reopen.
//
// The engine is not internally synchronized: a single QueueFile is
// meant for single-threaded use, with external mutual exclusion if
// shared across goroutines.
//
// Example usage:
//
//	q, err := queuefile.Open("./events.queue", queuefile.WithMaxSize(64<<20))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer q.Close()
//
//	if err := q.Add([]byte("hello")); err != nil {
//		log.Fatal(err)
//	}
//
//	r, err := q.Peek()
//	if err != nil {
//		log.Fatal(err)
//	}
//	payload, _ := io.ReadAll(r)
//
//	if err := q.Remove(1); err != nil {
//		log.Fatal(err)
//	}
package queuefile

import "github.com/radarbase/queuefile/internal/engine"

// ReadStream exposes one element's payload as an io.Reader of exactly
// its length, with a Skip method for discarding bytes without copying
// them. A ReadStream becomes unusable (returning ErrConcurrentModification)
// once the QueueFile it was drawn from is structurally modified.
type ReadStream = engine.ReadStream

// WriteStream buffers one or more new elements beyond the current
// tail and commits them as a single batch on Close. Use NextElement
// to delimit more than one element within a batch.
type WriteStream = engine.WriteStream

// Iterator yields a ReadStream per element from head to tail.
type Iterator = engine.Iterator

// Stats is a point-in-time snapshot of a QueueFile's structural state.
type Stats struct {
	// Size is the number of elements currently stored.
	Size int

	// FileSize is the current length of the backing file, in bytes.
	FileSize int64

	// MaxSize is the configured hard cap on FileSize.
	MaxSize int64

	// UsedBytes is the portion of FileSize actually occupied by the
	// header and stored elements.
	UsedBytes int64
}

// QueueFile is a single-file, ring-buffer-backed FIFO byte-record
// queue. The zero value is not usable; construct one with Open.
type QueueFile struct {
	eng *engine.QueueFile
}

// Open opens the queue file at path, creating it (initialized empty)
// if it does not already exist, and recovering it from its last
// committed header otherwise.
func Open(path string, opts ...Option) (*QueueFile, error) {
	var cfg engine.Config
	for _, opt := range opts {
		opt(&cfg)
	}
	eng, err := engine.Open(path, cfg)
	if err != nil {
		return nil, err
	}
	return &QueueFile{eng: eng}, nil
}

// Close marks the queue closed and releases its file handle. Every
// operation after Close returns ErrClosed. Close is idempotent.
func (q *QueueFile) Close() error {
	return q.eng.Close()
}

// IsEmpty reports whether the queue currently holds no elements.
func (q *QueueFile) IsEmpty() bool {
	return q.eng.IsEmpty()
}

// Size returns the number of elements currently stored.
func (q *QueueFile) Size() int {
	return q.eng.Size()
}

// FileSize returns the current length of the backing file in bytes.
func (q *QueueFile) FileSize() int64 {
	return q.eng.FileSize()
}

// MaxSize returns the configured hard cap on the backing file's
// length.
func (q *QueueFile) MaxSize() int64 {
	return q.eng.MaxSize()
}

// UsedBytes returns the number of bytes of the backing file that are
// in use: the header plus every byte belonging to a stored element.
func (q *QueueFile) UsedBytes() int64 {
	return q.eng.UsedBytes()
}

// Stats returns a snapshot of the queue's current structural state.
func (q *QueueFile) Stats() Stats {
	return Stats{
		Size:      q.eng.Size(),
		FileSize:  q.eng.FileSize(),
		MaxSize:   q.eng.MaxSize(),
		UsedBytes: q.eng.UsedBytes(),
	}
}

// Peek returns a ReadStream over the head element's payload, or nil
// if the queue is empty.
func (q *QueueFile) Peek() (*ReadStream, error) {
	return q.eng.Peek()
}

// NewIterator returns an Iterator over every element from head to
// tail. Structural modification of the queue made after the iterator
// is created surfaces as ErrConcurrentModification on its next step.
func (q *QueueFile) NewIterator() (*Iterator, error) {
	return q.eng.Iterator()
}

// ElementOutputStream returns a new WriteStream positioned just past
// the current tail. The stream must be closed to commit its elements.
func (q *QueueFile) ElementOutputStream() (*WriteStream, error) {
	return q.eng.ElementOutputStream()
}

// Add appends data as a single element and commits it immediately.
// It is a convenience wrapper around ElementOutputStream for the
// common case of one element per batch. An empty payload is silently
// ignored, per the engine's zero-length-element rule.
func (q *QueueFile) Add(data []byte) error {
	w, err := q.eng.ElementOutputStream()
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	return w.Close()
}

// Remove discards the eldest n elements. n == 0 is a no-op; n ==
// Size() clears the queue; n > Size() returns ErrNotFound.
func (q *QueueFile) Remove(n int) error {
	return q.eng.Remove(n)
}

// Clear discards every element and truncates the file back to its
// minimum size.
func (q *QueueFile) Clear() error {
	return q.eng.Clear()
}
