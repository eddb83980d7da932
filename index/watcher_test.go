package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"filedeck/events"
	"filedeck/vfs"
)

func TestTranslateMapsRealPathsBack(t *testing.T) {
	base := filepath.Join(string(filepath.Separator), "base", "desktop")
	root := Root{Service: vfs.SchemeLocal, VirtualBase: "local://Desktop/", RealPath: base}
	w := NewWatcher(NewScanner(nil, []Root{root}, zap.NewNop().Sugar()), nil, zap.NewNop().Sugar())

	matched, virtual, ok := w.translate(filepath.Join(base, "docs", "a.txt"))
	require.True(t, ok)
	assert.Equal(t, "local://Desktop/docs/a.txt", virtual)
	assert.Equal(t, base, matched.RealPath)

	_, virtual, ok = w.translate(base)
	require.True(t, ok)
	assert.Equal(t, "local://Desktop/", virtual)

	_, _, ok = w.translate(filepath.Join(string(filepath.Separator), "elsewhere", "b.txt"))
	assert.False(t, ok)
}

func TestWatcher(t *testing.T) {
	desktop, store, scanner := newTestScanner(t)
	assert.NoError(t, scanner.ScanAll(context.Background()))

	broadcaster := events.NewBroadcaster()
	ch := broadcaster.Subscribe()
	defer broadcaster.Unsubscribe(ch)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- NewWatcher(scanner, broadcaster, zap.NewNop().Sugar()).Run(ctx) }()

	// Give the watcher a moment to register its watches.
	time.Sleep(200 * time.Millisecond)
	assert.NoError(t, os.WriteFile(filepath.Join(desktop, "fresh.txt"), []byte("new"), 0644))

	select {
	case ev := <-ch:
		assert.Equal(t, events.EventCreated, ev.Type)
		assert.Equal(t, "local://Desktop/fresh.txt", ev.Path)
		assert.Equal(t, "local", ev.Service)
	case <-time.After(5 * time.Second):
		t.Fatal("expected a change event")
	}

	// The debounced rescan indexes the new file.
	assert.Eventually(t, func() bool {
		results, err := store.Search(context.Background(), "fresh", 10)
		return err == nil && len(results) == 1
	}, 5*time.Second, 100*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
