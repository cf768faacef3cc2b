package store

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefanpenner/analog/pkg/board"
)

func TestWatchFiresOnSnapshotWrite(t *testing.T) {
	s := setupTestStore(t, "board.json")

	var calls atomic.Int32
	stop, err := Watch(s.Path, func() { calls.Add(1) })
	require.NoError(t, err)
	t.Cleanup(stop)

	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(s.Path), "notes.txt"), []byte("hi"), 0644))
	time.Sleep(3 * watchDebounce)
	assert.Zero(t, calls.Load())

	require.NoError(t, s.Write(board.EmptyState(testNow)))
	require.Eventually(t, func() bool { return calls.Load() > 0 }, 2*time.Second, 20*time.Millisecond)
}

func TestWatchDebouncesBursts(t *testing.T) {
	s := setupTestStore(t, "board.json")

	var calls atomic.Int32
	stop, err := Watch(s.Path, func() { calls.Add(1) })
	require.NoError(t, err)
	t.Cleanup(stop)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Write(board.EmptyState(testNow)))
	}
	require.Eventually(t, func() bool { return calls.Load() > 0 }, 2*time.Second, 20*time.Millisecond)
	time.Sleep(3 * watchDebounce)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWatchMissingDirectory(t *testing.T) {
	_, err := Watch(filepath.Join(t.TempDir(), "nope", "board.json"), func() {})
	assert.Error(t, err)
}
