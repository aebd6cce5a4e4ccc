// Package engine implements the on-disk ring-buffer queue file: header
// commit, growth/shrink, crash recovery, and the read/write stream
// contracts. It is the only place that understands the file format;
// the public queuefile package is a thin wrapper around it.
package engine

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/radarbase/queuefile/internal/logging"
	"github.com/radarbase/queuefile/internal/metrics"
)

// Config configures a QueueFile at Open time.
type Config struct {
	// MaxSize is the hard cap, in bytes, on the backing file's length.
	// Must be zero (meaning "no cap beyond the platform's") or at
	// least MinimumSize.
	MaxSize int64

	// Logger receives structured diagnostics (growth, shrink,
	// corruption). Defaults to logging.NoopLogger.
	Logger logging.Logger

	// Metrics receives operation counters and gauges. Defaults to
	// metrics.NoopCollector.
	Metrics metrics.Recorder

	// Name identifies this queue file in log lines and metrics,
	// typically the base name of its path. Defaults to the path
	// passed to Open.
	Name string
}

// QueueFile is a single-file, ring-buffer-backed FIFO byte-record
// queue. It is not internally synchronized; callers needing
// multi-goroutine access must provide their own mutual exclusion.
type QueueFile struct {
	file *os.File
	name string
	path string

	maxSize      int64
	fileLength   int64
	elementCount uint32
	first        element
	last         element

	// modCount counts committed structural changes (append batch
	// commit, remove, clear, and in-place compaction during growth).
	// Read streams and iterators snapshot it at creation and compare
	// on every step to detect concurrent modification.
	modCount uint64

	closed bool

	logger  logging.Logger
	metrics metrics.Recorder

	// elementHeaderBuf is an element-header-sized scratch buffer. It is
	// not used: readElementAt and WriteStream.NextElement each allocate
	// their own local header buffer.
	elementHeaderBuf [elementHeaderLength]byte
}

// Open opens the queue file at path, creating it (initialized empty,
// at MinimumSize) if it does not already exist.
func Open(path string, cfg Config) (*QueueFile, error) {
	if cfg.MaxSize != 0 && cfg.MaxSize < MinimumSize {
		return nil, fmt.Errorf("%w: maxSize must be at least %d", ErrArgument, MinimumSize)
	}
	maxSize := cfg.MaxSize
	if maxSize == 0 {
		maxSize = math.MaxInt64
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NoopLogger{}
	}
	rec := cfg.Metrics
	if rec == nil {
		rec = metrics.NoopCollector{}
	}
	name := cfg.Name
	if name == "" {
		name = path
	}

	_, statErr := os.Stat(path)
	exists := statErr == nil

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644) //nolint:gosec // G304: caller-supplied path is the whole point of this API
	if err != nil {
		return nil, fmt.Errorf("queuefile: open %s: %w", path, err)
	}

	q := &QueueFile{
		file:    f,
		name:    name,
		path:    path,
		maxSize: maxSize,
		logger:  logger,
		metrics: rec,
	}

	if exists {
		if err := q.recover(); err != nil {
			_ = f.Close()
			return nil, err
		}
	} else {
		q.fileLength = MinimumSize
		q.elementCount = 0
		if err := q.file.Truncate(MinimumSize); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("queuefile: initialize %s: %w", path, err)
		}
		if err := q.writeHeader(); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	q.metrics.UpdateState(q.elementCount, q.fileLength, q.UsedBytes())
	return q, nil
}

// recover loads and validates an existing file's header and its
// first/last element descriptors.
func (q *QueueFile) recover() error {
	info, err := q.file.Stat()
	if err != nil {
		return fmt.Errorf("queuefile: stat %s: %w", q.path, err)
	}
	actualLength := info.Size()
	if actualLength < HeaderLength {
		return q.corrupt(fmt.Errorf("%w: %s has no queue file header", ErrCorrupted, q.path))
	}

	var buf [HeaderLength]byte
	if _, err := q.file.ReadAt(buf[:], 0); err != nil {
		return fmt.Errorf("queuefile: read header of %s: %w", q.path, err)
	}
	h, storedChecksum := decodeHeader(buf[:])

	if h.version != versionedHeader {
		return q.corrupt(fmt.Errorf("%w: %s is not recognized as a queue file", ErrCorrupted, q.path))
	}
	if h.fileLength > q.maxSize {
		return q.corrupt(fmt.Errorf("%w: %s header file length %d exceeds maxSize %d", ErrCorrupted, q.path, h.fileLength, q.maxSize))
	}
	if h.fileLength > actualLength {
		return q.corrupt(fmt.Errorf("%w: %s is truncated: header says %d bytes, actual is %d", ErrCorrupted, q.path, h.fileLength, actualLength))
	}
	if h.firstPosition > h.fileLength || h.lastPosition > h.fileLength {
		return q.corrupt(fmt.Errorf("%w: %s element offsets point outside the file", ErrCorrupted, q.path))
	}
	if headerChecksum(h) != storedChecksum {
		return q.corrupt(fmt.Errorf("%w: %s header checksum mismatch", ErrCorrupted, q.path))
	}

	q.fileLength = h.fileLength
	q.elementCount = h.elementCount

	first, err := q.readElementAt(h.firstPosition)
	if err != nil {
		return err
	}
	last, err := q.readElementAt(h.lastPosition)
	if err != nil {
		return err
	}
	q.first = first
	q.last = last
	return nil
}

// corrupt records and logs a corruption error. It does not close the
// file itself; callers close after unwinding Open.
func (q *QueueFile) corrupt(err error) error {
	q.metrics.RecordCorruption()
	q.logger.Error("queue file corrupted", logging.F("name", q.name), logging.F("error", err.Error()))
	return err
}

// readElementAt reads and validates the element header at pos. A
// position of zero denotes "no element" (used for an empty queue's
// first/last) and always yields the zero element.
func (q *QueueFile) readElementAt(pos int64) (element, error) {
	if pos == 0 {
		return element{}, nil
	}
	var buf [elementHeaderLength]byte
	if err := ringRead(q.file, q.fileLength, pos, buf[:]); err != nil {
		return element{}, fmt.Errorf("queuefile: read element at %d: %w", pos, err)
	}
	length := binary.BigEndian.Uint32(buf[0:4])
	if buf[4] != elementChecksum(length) {
		q.closed = true
		_ = q.file.Close()
		return element{}, q.corrupt(fmt.Errorf("%w: %s element at %d failed checksum", ErrCorrupted, q.name, pos))
	}
	return element{position: pos, length: length}, nil
}

// writeHeader serializes and commits the current header. This is the
// sole point at which a structural change becomes visible on reopen.
func (q *QueueFile) writeHeader() error {
	h := header{
		version:       versionedHeader,
		fileLength:    q.fileLength,
		elementCount:  q.elementCount,
		firstPosition: q.first.position,
		lastPosition:  q.last.position,
	}
	buf := h.encode()
	if _, err := q.file.WriteAt(buf[:], 0); err != nil {
		return fmt.Errorf("queuefile: write header of %s: %w", q.name, err)
	}
	if err := q.file.Sync(); err != nil {
		return fmt.Errorf("queuefile: sync header of %s: %w", q.name, err)
	}
	return nil
}

// setLength truncates or extends the backing file and syncs the
// length change (considered metadata) to durable storage.
func (q *QueueFile) setLength(newLength int64) error {
	if newLength < q.UsedBytes() {
		return fmt.Errorf("%w: cannot shrink below used bytes", ErrArgument)
	}
	if err := q.file.Truncate(newLength); err != nil {
		return fmt.Errorf("queuefile: resize %s to %d: %w", q.name, newLength, err)
	}
	if err := q.file.Sync(); err != nil {
		return fmt.Errorf("queuefile: sync resize of %s: %w", q.name, err)
	}
	q.fileLength = newLength
	return nil
}

func (q *QueueFile) requireOpen() error {
	if q.closed {
		return ErrClosed
	}
	return nil
}

// IsEmpty reports whether the queue currently holds no elements.
func (q *QueueFile) IsEmpty() bool {
	return q.elementCount == 0
}

// Size returns the number of elements currently stored.
func (q *QueueFile) Size() int {
	return int(q.elementCount)
}

// FileSize returns the current length of the backing file in bytes.
func (q *QueueFile) FileSize() int64 {
	return q.fileLength
}

// MaxSize returns the configured hard cap on the backing file's
// length.
func (q *QueueFile) MaxSize() int64 {
	return q.maxSize
}

// UsedBytes returns the number of bytes of the backing file that are
// in use: the header plus every byte belonging to a stored element.
func (q *QueueFile) UsedBytes() int64 {
	if q.elementCount == 0 {
		return HeaderLength
	}
	if q.last.position >= q.first.position {
		return q.last.nextPosition() - q.first.position + HeaderLength
	}
	return q.last.nextPosition() - q.first.position + q.fileLength
}

// Peek returns a ReadStream over the head element's payload, or nil
// if the queue is empty.
func (q *QueueFile) Peek() (*ReadStream, error) {
	if err := q.requireOpen(); err != nil {
		return nil, err
	}
	if q.IsEmpty() {
		return nil, nil
	}
	return newReadStream(q, q.first), nil
}

// Iterator returns an Iterator over every element from head to tail.
// Structural modification of the QueueFile made after the iterator is
// created surfaces as ErrConcurrentModification on the next Next call.
func (q *QueueFile) Iterator() (*Iterator, error) {
	if err := q.requireOpen(); err != nil {
		return nil, err
	}
	return &Iterator{
		q:                q,
		nextPosition:     q.first.position,
		expectedModCount: q.modCount,
	}, nil
}

// ElementOutputStream returns a new WriteStream positioned just past
// the current tail. The stream must be closed to commit its elements.
func (q *QueueFile) ElementOutputStream() (*WriteStream, error) {
	if err := q.requireOpen(); err != nil {
		return nil, err
	}
	return newWriteStream(q, wrap(q.last.nextPosition(), q.fileLength)), nil
}

// Remove discards the eldest n elements. n == 0 is a no-op; n ==
// Size() delegates to Clear; n > Size() returns ErrNotFound.
func (q *QueueFile) Remove(n int) error {
	start := time.Now()
	if err := q.requireOpen(); err != nil {
		return err
	}
	if n < 0 {
		return fmt.Errorf("%w: cannot remove a negative number of elements (%d)", ErrArgument, n)
	}
	if n == 0 {
		return nil
	}
	if n == int(q.elementCount) {
		return q.Clear()
	}
	if n > int(q.elementCount) {
		return fmt.Errorf("%w: cannot remove %d elements, only %d present", ErrNotFound, n, q.elementCount)
	}

	newFirst := q.first
	for i := 0; i < n; i++ {
		next, err := q.readElementAt(wrap(newFirst.nextPosition(), q.fileLength))
		if err != nil {
			return err
		}
		newFirst = next
	}

	q.elementCount -= uint32(n)
	q.modCount++
	q.first = newFirst
	if err := q.writeHeader(); err != nil {
		return err
	}

	q.metrics.RecordRemove(n, time.Since(start))
	q.metrics.UpdateState(q.elementCount, q.fileLength, q.UsedBytes())

	q.maybeShrink()
	return nil
}

// Clear discards every element and truncates the file back to
// MinimumSize.
func (q *QueueFile) Clear() error {
	if err := q.requireOpen(); err != nil {
		return err
	}

	q.elementCount = 0
	q.first = element{}
	q.last = element{}

	if q.fileLength != MinimumSize {
		old := q.fileLength
		if err := q.setLength(MinimumSize); err != nil {
			return err
		}
		q.metrics.RecordShrink(old, MinimumSize)
	}

	if err := q.writeHeader(); err != nil {
		return err
	}
	q.modCount++
	q.metrics.UpdateState(q.elementCount, q.fileLength, q.UsedBytes())
	return nil
}

// Close marks the queue closed and releases its file handle. Every
// operation after Close returns ErrClosed. Close is idempotent.
func (q *QueueFile) Close() error {
	if q.closed {
		return nil
	}
	q.closed = true
	return q.file.Close()
}

// maybeShrink evaluates the shrink policy after a Remove. It only
// fires when the ring is contiguous; a queue left wrapped after a
// large drain will not shrink until a subsequent append reorders it
// (see DESIGN.md). Shrink failures are logged and otherwise ignored:
// shrink is always best-effort.
func (q *QueueFile) maybeShrink() {
	if q.last.position < q.first.position {
		return
	}
	if q.last.nextPosition() > q.maxSize {
		return
	}

	newLength := q.fileLength
	goalLength := newLength / 2
	usedBytes := q.UsedBytes()
	maxExtent := q.last.nextPosition()

	for goalLength >= MinimumSize && maxExtent <= goalLength && usedBytes <= goalLength/2 {
		newLength = goalLength
		goalLength /= 2
	}
	if newLength >= q.fileLength {
		return
	}

	old := q.fileLength
	if err := q.setLength(newLength); err != nil {
		q.logger.Debug("shrink failed, leaving file at current size",
			logging.F("name", q.name), logging.F("error", err.Error()))
		return
	}
	if err := q.writeHeader(); err != nil {
		q.logger.Debug("shrink truncated file but header commit failed",
			logging.F("name", q.name), logging.F("error", err.Error()))
		return
	}
	q.metrics.RecordShrink(old, newLength)
	q.metrics.UpdateState(q.elementCount, q.fileLength, q.UsedBytes())
	q.logger.Debug("shrunk queue file", logging.F("name", q.name),
		logging.F("from", old), logging.F("to", newLength))
}

// Iterator yields a ReadStream per element from head to tail.
type Iterator struct {
	q                *QueueFile
	nextIndex        uint32
	nextPosition     int64
	expectedModCount uint64
	current          *ReadStream
	err              error
}

// Next advances the iterator and reports whether a stream is
// available via Stream. It returns false at the end of the queue or
// on error; call Err to distinguish the two.
func (it *Iterator) Next() bool {
	if it.err != nil {
		return false
	}
	if it.q.closed {
		it.err = ErrClosed
		return false
	}
	if it.q.modCount != it.expectedModCount {
		it.err = ErrConcurrentModification
		return false
	}
	if it.nextIndex >= it.q.elementCount {
		return false
	}

	el, err := it.q.readElementAt(it.nextPosition)
	if err != nil {
		it.err = err
		return false
	}
	it.current = newReadStream(it.q, el)
	it.nextPosition = wrap(el.nextPosition(), it.q.fileLength)
	it.nextIndex++
	return true
}

// Stream returns the ReadStream produced by the most recent Next.
func (it *Iterator) Stream() *ReadStream {
	return it.current
}

// Err returns the error, if any, that stopped iteration early.
func (it *Iterator) Err() error {
	return it.err
}
