package engine

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func tempFile(t *testing.T, size int64) *os.File {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "ring-*.bin")
	require.NoError(t, err)
	require.NoError(t, f.Truncate(size))
	t.Cleanup(func() { f.Close() })
	return f
}

func TestWrap(t *testing.T) {
	const fileLength = 4096
	require.Equal(t, int64(100), wrap(100, fileLength))
	require.Equal(t, int64(HeaderLength), wrap(fileLength, fileLength))
	require.Equal(t, int64(HeaderLength+10), wrap(fileLength+10, fileLength))
}

func TestRingWriteReadNoWrap(t *testing.T) {
	f := tempFile(t, 4096)
	payload := []byte("hello, ring buffer")

	require.NoError(t, ringWrite(f, 4096, 100, payload))

	out := make([]byte, len(payload))
	require.NoError(t, ringRead(f, 4096, 100, out))
	require.Equal(t, payload, out)
}

func TestRingWriteReadAcrossWrapBoundary(t *testing.T) {
	const fileLength = 4096
	f := tempFile(t, fileLength)

	payload := make([]byte, 20)
	for i := range payload {
		payload[i] = byte(i)
	}

	// Position the write so it must cross fileLength and continue at
	// HeaderLength.
	pos := int64(fileLength - 10)
	require.NoError(t, ringWrite(f, fileLength, pos, payload))

	out := make([]byte, len(payload))
	require.NoError(t, ringRead(f, fileLength, pos, out))
	require.Equal(t, payload, out)

	// The tail 10 bytes should have landed at the start of the data
	// region.
	tail := make([]byte, 10)
	_, err := f.ReadAt(tail, HeaderLength)
	require.NoError(t, err)
	require.Equal(t, payload[10:], tail)
}

func TestRingWriteReadAtExactBoundary(t *testing.T) {
	const fileLength = 4096
	f := tempFile(t, fileLength)
	payload := []byte("boundary")

	require.NoError(t, ringWrite(f, fileLength, fileLength, payload))

	out := make([]byte, len(payload))
	require.NoError(t, ringRead(f, fileLength, fileLength, out))
	require.Equal(t, payload, out)
}
