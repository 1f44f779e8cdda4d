package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func start(t *testing.T, w *Watcher, handle Handler) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, handle) }()

	// fsnotify has no ready signal; give the initial Add calls time to land.
	time.Sleep(100 * time.Millisecond)

	return func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("watcher did not stop")
		}
	}
}

func TestRunBatchesSpecChanges(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	root := t.TempDir()
	sub := filepath.Join(root, "internal")
	require.NoError(t, os.MkdirAll(sub, 0755))

	batches := make(chan []string, 4)
	w := New(root, Options{Debounce: 200 * time.Millisecond})
	stop := start(t, w, func(_ context.Context, changed []string) error {
		batches <- changed
		return nil
	})
	defer stop()

	a := filepath.Join(root, "app.roost.yml")
	b := filepath.Join(sub, "cache.roost.yml")
	require.NoError(t, os.WriteFile(a, []byte("one"), 0644))
	require.NoError(t, os.WriteFile(b, []byte("one"), 0644))
	require.NoError(t, os.WriteFile(a, []byte("two"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0644))

	select {
	case changed := <-batches:
		assert.Equal(t, []string{a, b}, changed)
	case <-time.After(5 * time.Second):
		t.Fatal("no batch received")
	}

	select {
	case changed := <-batches:
		t.Fatalf("unexpected second batch: %v", changed)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestRunKeepsGoingAfterHandlerError(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	root := t.TempDir()
	calls := make(chan struct{}, 4)
	w := New(root, Options{Debounce: 50 * time.Millisecond, Also: []string{"roost.yml"}})
	stop := start(t, w, func(context.Context, []string) error {
		calls <- struct{}{}
		return errors.New("bad spec")
	})
	defer stop()

	for i := range 2 {
		require.NoError(t, os.WriteFile(filepath.Join(root, "roost.yml"), []byte{byte('0' + i)}, 0644))
		select {
		case <-calls:
		case <-time.After(5 * time.Second):
			t.Fatalf("batch %d not handled", i)
		}
	}
}

func TestRunMissingRoot(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	w := New(filepath.Join(t.TempDir(), "missing"), Options{})
	err := w.Run(context.Background(), func(context.Context, []string) error { return nil })
	assert.Error(t, err)
}

func TestMatches(t *testing.T) {
	w := New("/src", Options{Also: []string{"roost.yml"}})
	assert.True(t, w.matches("/src/app.roost.yml"))
	assert.True(t, w.matches("/src/roost.yml"))
	assert.False(t, w.matches("/src/app_config_gen.go"))
	assert.Equal(t, 250*time.Millisecond, w.opts.Debounce)
}
