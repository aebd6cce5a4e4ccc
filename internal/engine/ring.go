package engine

import "os"

// wrap normalizes a logical position that may have advanced past the
// end of the file back into the data region [HeaderLength, fileLength).
func wrap(pos, fileLength int64) int64 {
	if pos < fileLength {
		return pos
	}
	return HeaderLength + pos - fileLength
}

// ringRead reads len(buf) bytes starting at the wrapped position of
// pos, splitting the read at fileLength if it would cross the end of
// the data region.
func ringRead(f *os.File, fileLength, pos int64, buf []byte) error {
	pos = wrap(pos, fileLength)
	count := int64(len(buf))
	if pos+count <= fileLength {
		_, err := f.ReadAt(buf, pos)
		return err
	}
	firstPart := fileLength - pos
	if firstPart > 0 {
		if _, err := f.ReadAt(buf[:firstPart], pos); err != nil {
			return err
		}
	}
	_, err := f.ReadAt(buf[firstPart:], HeaderLength)
	return err
}

// ringWrite writes buf starting at the wrapped position of pos,
// splitting the write at fileLength if it would cross the end of the
// data region.
func ringWrite(f *os.File, fileLength, pos int64, buf []byte) error {
	pos = wrap(pos, fileLength)
	count := int64(len(buf))
	if pos+count <= fileLength {
		_, err := f.WriteAt(buf, pos)
		return err
	}
	firstPart := fileLength - pos
	if firstPart > 0 {
		if _, err := f.WriteAt(buf[:firstPart], pos); err != nil {
			return err
		}
	}
	_, err := f.WriteAt(buf[firstPart:], HeaderLength)
	return err
}
