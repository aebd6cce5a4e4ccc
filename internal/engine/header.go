package engine

import "encoding/binary"

// HeaderLength is the fixed size, in bytes, of the queue file header.
const HeaderLength = 36

// MinimumSize is the file length a freshly created queue file is
// initialized to, and the floor that maybeShrink will never cross.
const MinimumSize = 4096

// versionedHeader is the only value the 4-byte version field may hold.
// Any other value on open means the file is not a queue file.
const versionedHeader uint32 = 0x00000001

// header is the decoded form of the 36-byte file header.
type header struct {
	version       uint32
	fileLength    int64
	elementCount  uint32
	firstPosition int64
	lastPosition  int64
}

// headerChecksum hashes the first five header fields, truncating
// fileLength/firstPosition/lastPosition to 32 bits the same way the
// original source does, with wrapping 32-bit arithmetic throughout.
func headerChecksum(h header) uint32 {
	result := h.version
	result = 31*result + uint32(h.fileLength)
	result = 31*result + h.elementCount
	result = 31*result + uint32(h.firstPosition)
	result = 31*result + uint32(h.lastPosition)
	return result
}

// encode serializes h into the 36-byte on-disk representation,
// including the trailing checksum.
func (h header) encode() [HeaderLength]byte {
	var buf [HeaderLength]byte
	binary.BigEndian.PutUint32(buf[0:4], h.version)
	binary.BigEndian.PutUint64(buf[4:12], uint64(h.fileLength))
	binary.BigEndian.PutUint32(buf[12:16], h.elementCount)
	binary.BigEndian.PutUint64(buf[16:24], uint64(h.firstPosition))
	binary.BigEndian.PutUint64(buf[24:32], uint64(h.lastPosition))
	binary.BigEndian.PutUint32(buf[32:36], headerChecksum(h))
	return buf
}

// decodeHeader parses a 36-byte buffer into a header, returning the
// stored checksum alongside it so the caller can verify it against
// headerChecksum.
func decodeHeader(buf []byte) (h header, storedChecksum uint32) {
	h.version = binary.BigEndian.Uint32(buf[0:4])
	h.fileLength = int64(binary.BigEndian.Uint64(buf[4:12]))
	h.elementCount = binary.BigEndian.Uint32(buf[12:16])
	h.firstPosition = int64(binary.BigEndian.Uint64(buf[16:24]))
	h.lastPosition = int64(binary.BigEndian.Uint64(buf[24:32]))
	storedChecksum = binary.BigEndian.Uint32(buf[32:36])
	return h, storedChecksum
}
