package watchmode

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchRunsImmediatelyAndAgainOnChange(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a"), 0o644))

	runs := make(chan struct{}, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, Options{Root: dir, Debounce: 20 * time.Millisecond}, func(ctx context.Context) error {
			runs <- struct{}{}
			return nil
		})
	}()

	select {
	case <-runs:
	case <-time.After(2 * time.Second):
		t.Fatal("expected an immediate initial run")
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.go"), []byte("package b"), 0o644))

	select {
	case <-runs:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a re-run after the debounce window following a file change")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancellation")
	}
}

func TestWatchCoalescesBurstsIntoOneRun(t *testing.T) {
	dir := t.TempDir()

	runs := make(chan struct{}, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, Options{Root: dir, Debounce: 100 * time.Millisecond}, func(ctx context.Context) error {
			runs <- struct{}{}
			return nil
		})
	}()

	<-runs // initial run

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "burst.go"), []byte("package burst"), 0o644))
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case <-runs:
	case <-time.After(2 * time.Second):
		t.Fatal("expected one coalesced re-run after the burst")
	}

	select {
	case <-runs:
		t.Fatal("expected only one re-run for the coalesced burst")
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	<-done
}
