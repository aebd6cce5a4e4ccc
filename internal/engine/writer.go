package engine

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/radarbase/queuefile/internal/logging"
)

// WriteStream buffers one or more new elements beyond the current
// tail and commits them as a single batch on Close. Close is the only
// point at which the batch becomes visible; a stream that is dropped
// without being closed leaves the queue exactly as it was, with the
// unfinished payload bytes orphaned to be overwritten by a future
// append.
type WriteStream struct {
	q *QueueFile

	cursor  int64
	current element

	newFirst    element
	hasNewFirst bool
	newLast     element
	hasNewLast  bool

	elementsWritten      int
	streamBytesUsed      int64
	payloadBytesWritten  int64

	closed bool
	start  time.Time
}

func newWriteStream(q *QueueFile, position int64) *WriteStream {
	return &WriteStream{
		q:       q,
		cursor:  position,
		current: element{position: position, length: 0},
		start:   time.Now(),
	}
}

func (s *WriteStream) checkOpen() error {
	if s.closed || s.q.closed {
		return ErrClosed
	}
	return nil
}

// Write implements io.Writer, appending to the element currently being
// built. Call NextElement to delimit it and begin the next one.
func (s *WriteStream) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	if err := s.writeNullElementIfNeeded(); err != nil {
		return 0, err
	}
	if err := s.expandAndUpdate(int64(len(p))); err != nil {
		return 0, err
	}
	if err := ringWrite(s.q.file, s.q.fileLength, s.cursor, p); err != nil {
		return 0, err
	}
	s.cursor = wrap(s.cursor+int64(len(p)), s.q.fileLength)
	s.current.length += uint32(len(p))
	s.payloadBytesWritten += int64(len(p))
	return len(p), nil
}

// WriteByte implements io.ByteWriter.
func (s *WriteStream) WriteByte(b byte) error {
	_, err := s.Write([]byte{b})
	return err
}

// writeNullElementIfNeeded reserves the current element's 5-byte
// header as zeros before its first payload byte is written, so a
// crash mid-payload leaves the element's header absent rather than
// pointing at half-written data.
func (s *WriteStream) writeNullElementIfNeeded() error {
	if s.current.length != 0 {
		return nil
	}
	if err := s.expandAndUpdate(elementHeaderLength); err != nil {
		return err
	}
	var zero [elementHeaderLength]byte
	if err := ringWrite(s.q.file, s.q.fileLength, s.cursor, zero[:]); err != nil {
		return err
	}
	s.cursor = wrap(s.cursor+elementHeaderLength, s.q.fileLength)
	return nil
}

// NextElement finalizes the element written so far and prepares the
// stream for the next one. A zero-length element (NextElement called
// twice with no intervening writes) is silently ignored.
func (s *WriteStream) NextElement() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if s.current.length == 0 {
		return nil
	}

	s.newLast = s.current
	s.hasNewLast = true
	if !s.hasNewFirst && s.q.IsEmpty() {
		s.newFirst = s.current
		s.hasNewFirst = true
	}

	var hdr [elementHeaderLength]byte
	binary.BigEndian.PutUint32(hdr[0:4], s.current.length)
	hdr[4] = elementChecksum(s.current.length)
	if err := ringWrite(s.q.file, s.q.fileLength, s.current.position, hdr[:]); err != nil {
		return err
	}

	s.current = element{position: s.cursor, length: 0}
	s.elementsWritten++
	return nil
}

func (s *WriteStream) bytesNeeded() int64 {
	return s.q.UsedBytes() + s.streamBytesUsed
}

func (s *WriteStream) increaseBytesUsed(length int64) (int64, error) {
	s.streamBytesUsed += length
	needed := s.bytesNeeded()
	if needed > s.q.maxSize {
		return 0, fmt.Errorf("%w: need %d bytes, maxSize is %d", ErrCapacityExceeded, needed, s.q.maxSize)
	}
	return needed, nil
}

// expandAndUpdate grows the backing file if the pending write would
// exceed it, compacting the ring in place when growth leaves it
// discontinuous, and commits the new length via a header write.
func (s *WriteStream) expandAndUpdate(length int64) error {
	bytesNeeded, err := s.increaseBytesUsed(length)
	if err != nil {
		return err
	}
	if bytesNeeded <= s.q.fileLength {
		return nil
	}

	oldLength := s.q.fileLength
	newLength := oldLength * 2
	for newLength < bytesNeeded {
		newLength *= 2
	}
	if newLength > s.q.maxSize {
		newLength = s.q.maxSize
	}

	beginningOfFirst := s.q.first.position
	if s.hasNewFirst {
		beginningOfFirst = s.newFirst.position
	}
	position := s.cursor

	if err := s.q.file.Sync(); err != nil {
		return err
	}
	if err := s.q.setLength(newLength); err != nil {
		return err
	}

	if position <= beginningOfFirst {
		count := position - HeaderLength
		if count > 0 {
			if err := copyFileRange(s.q.file, HeaderLength, oldLength, count); err != nil {
				return fmt.Errorf("queuefile: compact %s during growth: %w", s.q.name, err)
			}
		}
		s.q.modCount++

		positionUpdate := oldLength - HeaderLength
		if s.q.last.position < beginningOfFirst {
			s.q.last.position += positionUpdate
		}
		if s.current.position <= beginningOfFirst {
			s.current.position += positionUpdate
		}
		position += positionUpdate
	}

	s.cursor = position
	if err := s.q.writeHeader(); err != nil {
		return err
	}
	s.q.metrics.RecordGrowth(oldLength, newLength)
	s.q.logger.Debug("grew queue file", logging.F("name", s.q.name),
		logging.F("from", oldLength), logging.F("to", newLength))
	return nil
}

// copyFileRange copies count bytes from srcOffset to dstOffset within
// f. The source and destination ranges used by expandAndUpdate never
// overlap (the destination always starts at the pre-growth end of
// file, past every byte in the source range), so a plain read-then-
// write is sufficient.
func copyFileRange(f interface {
	ReadAt([]byte, int64) (int, error)
	WriteAt([]byte, int64) (int, error)
}, srcOffset, dstOffset, count int64) error {
	buf := make([]byte, count)
	if _, err := f.ReadAt(buf, srcOffset); err != nil {
		return err
	}
	_, err := f.WriteAt(buf, dstOffset)
	return err
}

// Close finalizes any in-progress element and, if at least one
// element was written, commits the batch: updates the engine's first
// and last descriptors, advances the element count, and writes the
// new header. Close is idempotent.
func (s *WriteStream) Close() error {
	if s.closed {
		return nil
	}
	if err := s.NextElement(); err != nil {
		s.closed = true
		return err
	}
	s.closed = true
	if s.elementsWritten == 0 {
		return nil
	}

	if s.hasNewLast {
		s.q.last = s.newLast
	}
	if s.hasNewFirst {
		s.q.first = s.newFirst
	}
	s.q.elementCount += uint32(s.elementsWritten)

	if err := s.q.file.Sync(); err != nil {
		return err
	}
	s.q.modCount++
	if err := s.q.writeHeader(); err != nil {
		return err
	}

	s.q.metrics.RecordAppend(s.elementsWritten, int(s.payloadBytesWritten), time.Since(s.start))
	s.q.metrics.UpdateState(s.q.elementCount, s.q.fileLength, s.q.UsedBytes())
	return nil
}
