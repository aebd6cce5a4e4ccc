package queuefile

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenAddPeekRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.bin")
	q, err := Open(path)
	require.NoError(t, err)
	defer q.Close()

	require.NoError(t, q.Add([]byte("hello")))
	require.NoError(t, q.Add([]byte("world")))
	require.Equal(t, 2, q.Size())

	r, err := q.Peek()
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), data)

	require.NoError(t, q.Remove(1))
	require.Equal(t, 1, q.Size())
}

func TestOptionsConfigureMaxSizeAndName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.bin")
	q, err := Open(path, WithMaxSize(MinimumSize*4), WithName("orders"))
	require.NoError(t, err)
	defer q.Close()

	require.Equal(t, int64(MinimumSize*4), q.MaxSize())
}

func TestOptionsRejectMaxSizeBelowMinimum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.bin")
	_, err := Open(path, WithMaxSize(1024))
	require.ErrorIs(t, err, ErrArgument)
}

func TestStatsReflectsQueueState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.bin")
	q, err := Open(path)
	require.NoError(t, err)
	defer q.Close()

	require.NoError(t, q.Add([]byte("payload")))
	stats := q.Stats()
	require.Equal(t, 1, stats.Size)
	require.Equal(t, int64(MinimumSize), stats.FileSize)
	require.Greater(t, stats.UsedBytes, int64(0))
}

func TestWithLoggerAndMetricsAreWired(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.bin")
	collector := NewMetricsCollector("test-queue")
	q, err := Open(path, WithLogger(NoopLogger{}), WithMetrics(collector))
	require.NoError(t, err)
	defer q.Close()

	require.NoError(t, q.Add([]byte("x")))

	snap := collector.GetSnapshot()
	require.Equal(t, uint64(1), snap.AppendsTotal)
	require.Equal(t, uint32(1), snap.ElementCount)
}

func TestEmptyQueueReopenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.bin")
	q, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, q.Close())

	q2, err := Open(path)
	require.NoError(t, err)
	defer q2.Close()
	require.True(t, q2.IsEmpty())
	require.Equal(t, int64(MinimumSize), q2.FileSize())
}
