package cli

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/speriment/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exp.yaml")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	var runs atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, logging.NewNop(), func() error {
			runs.Add(1)
			return nil
		})
	}()

	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 10*time.Millisecond)

	// Unrelated files do not trigger a rebuild.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(path, []byte("v2"), 0644))
	require.Eventually(t, func() bool { return runs.Load() == 2 }, 2*time.Second, 10*time.Millisecond)

	// Touching without changing content is ignored.
	require.NoError(t, os.WriteFile(path, []byte("v2"), 0644))
	time.Sleep(3 * settle)
	assert.Equal(t, int32(2), runs.Load())

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatch_KeepsGoingAfterFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exp.yaml")
	require.NoError(t, os.WriteFile(path, []byte("broken"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var runs atomic.Int32
	go func() {
		_ = Watch(ctx, path, logging.NewNop(), func() error {
			runs.Add(1)
			return assert.AnError
		})
	}()

	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("fixed"), 0644))
	require.Eventually(t, func() bool { return runs.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestHandleExecutionError(t *testing.T) {
	assert.NoError(t, HandleExecutionError(nil))
	assert.NoError(t, HandleExecutionError(context.Canceled))
	assert.ErrorIs(t, HandleExecutionError(assert.AnError), assert.AnError)
}
