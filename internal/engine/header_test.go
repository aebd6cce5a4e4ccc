package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderEncodeDecodeRoundTrip(t *testing.T) {
	h := header{
		version:       versionedHeader,
		fileLength:    8192,
		elementCount:  3,
		firstPosition: 36,
		lastPosition:  100,
	}

	buf := h.encode()
	require.Len(t, buf, HeaderLength)

	decoded, checksum := decodeHeader(buf[:])
	assert.Equal(t, h, decoded)
	assert.Equal(t, headerChecksum(h), checksum)
}

func TestHeaderChecksumDetectsFieldTampering(t *testing.T) {
	h := header{version: versionedHeader, fileLength: 4096, elementCount: 0, firstPosition: 0, lastPosition: 0}
	buf := h.encode()

	buf[16] ^= 0xFF // flip a byte of firstPosition

	decoded, storedChecksum := decodeHeader(buf[:])
	assert.NotEqual(t, headerChecksum(decoded), storedChecksum)
}

func TestHeaderChecksumIsDeterministic(t *testing.T) {
	h := header{version: versionedHeader, fileLength: 65536, elementCount: 42, firstPosition: 1000, lastPosition: 2000}
	assert.Equal(t, headerChecksum(h), headerChecksum(h))
}
