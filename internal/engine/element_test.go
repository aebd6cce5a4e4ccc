package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestElementChecksumIsDeterministic(t *testing.T) {
	for _, length := range []uint32{0, 1, 255, 256, 65535, 1 << 20, 1<<32 - 1} {
		assert.Equal(t, elementChecksum(length), elementChecksum(length))
	}
}

func TestElementChecksumDiffersAcrossMostLengths(t *testing.T) {
	seen := map[byte]int{}
	for length := uint32(0); length < 2000; length++ {
		seen[elementChecksum(length)]++
	}
	// A single byte can't be collision-free over 2000 inputs, but it
	// should not collapse to a handful of values either.
	assert.Greater(t, len(seen), 100)
}

func TestElementDataPositionAndNextPosition(t *testing.T) {
	e := element{position: 100, length: 20}
	assert.Equal(t, int64(105), e.dataPosition())
	assert.Equal(t, int64(125), e.nextPosition())
}

func TestZeroElementNextPositionIsStartOfDataRegion(t *testing.T) {
	var e element
	assert.Equal(t, int64(HeaderLength), e.nextPosition())
}
