package tree

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatch(t *testing.T) {
	WatchDelay = 20 * time.Millisecond
	store := setup(t)
	dir := mktree(t, "src", map[string]string{"a.txt": "a", "sub/b.txt": "b", "skip/x": "x"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	trees := make(chan *Directory, 10)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, dir, Scanner{Store: store, Ignore: []string{"skip"}}, func(root *Directory) error {
			select {
			case trees <- root:
			case <-ctx.Done():
			}
			return nil
		})
	}()

	next := func() *Directory {
		t.Helper()
		select {
		case root := <-trees:
			return root
		case err := <-done:
			t.Fatalf("watch returned early: %v", err)
		case <-time.After(10 * time.Second):
			t.Fatalf("timed out waiting for a scan")
		}
		return nil
	}

	root := next()
	tassert(t, root.Len() == 2, "first scan has %d entries", root.Len())

	// a new file in a subdirectory shows up in a rescan
	err := os.WriteFile(filepath.Join(dir, "sub", "c.txt"), []byte("c"), 0644)
	tassert(t, err == nil, "%v", err)
	for {
		root = next()
		if _, err := root.Lookup("sub/c.txt"); err == nil {
			break
		}
	}

	cancel()
	select {
	case err := <-done:
		tassert(t, err == nil, "%v", err)
	case <-time.After(10 * time.Second):
		t.Fatalf("watch did not stop")
	}
}

func TestWatchStops(t *testing.T) {
	store := setup(t)
	dir := mktree(t, "src", map[string]string{"a.txt": "a"})
	err := Watch(context.Background(), dir, Scanner{Store: store}, func(root *Directory) error {
		return fmt.Errorf("enough")
	})
	tassert(t, err != nil && err.Error() == "enough", "got %v", err)

	err = Watch(context.Background(), filepath.Join(dir, "nope"), Scanner{Store: store}, func(root *Directory) error {
		return nil
	})
	tassert(t, is(err, ErrInvalidArgument), "expected invalid argument, got %v", err)
}
