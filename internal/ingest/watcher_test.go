package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func next(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(5 * time.Second):
		t.Fatal("no watch event")
		return ""
	}
}

func TestWatcherEmitsRecords(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "fse00000001.json")
	require.NoError(t, os.WriteFile(existing, []byte(`{}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{Dir: dir, InitialScan: true, Debounce: 20 * time.Millisecond}, nil)
	require.NoError(t, err)

	assert.Equal(t, existing, next(t, events))

	created := filepath.Join(dir, "fse00000002.json")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".exam-tmp"), []byte(`{}`), 0o644))
	require.NoError(t, os.WriteFile(created, []byte(`{}`), 0o644))
	assert.Equal(t, created, next(t, events))

	cancel()
	for range events {
	}
}

func TestWatcherMissingDir(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{Dir: filepath.Join(t.TempDir(), "nope")}, nil)
	require.Error(t, err)
}

func TestIsRecord(t *testing.T) {
	assert.True(t, isRecord("/x/fse00000001.json"))
	assert.True(t, isRecord("A.JSON"))
	assert.False(t, isRecord("/x/.exam-123"))
	assert.False(t, isRecord("/x/.hidden.json"))
	assert.False(t, isRecord("a.pdf"))
}
