package tree

import (
	"context"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	. "github.com/stevegt/goadapt"
)

// WatchDelay is how long Watch waits after the last change before it
// rescans.
var WatchDelay = 200 * time.Millisecond

// Watch scans dir with sc, passes the tree to fn, and then rescans and
// calls fn again each time something under dir changes, until ctx is
// done or fn returns an error.  Bursts of changes closer together than
// WatchDelay produce one rescan.  A failed rescan (say, a file removed
// mid-scan) is logged and retried on the next change.
func Watch(ctx context.Context, dir string, sc Scanner, fn func(*Directory) error) (err error) {
	defer Return(&err)

	// watch first so that changes made during the first scan
	// trigger a rescan
	watcher, err := fsnotify.NewWatcher()
	Ck(err)
	defer watcher.Close()

	ignore := make(map[string]bool)
	for _, name := range sc.Ignore {
		ignore[name] = true
	}
	err = watchDirs(watcher, dir, ignore)
	if err != nil {
		return errors.Wrapf(ErrInvalidArgument, "watch %s: %v", dir, err)
	}

	root, err := sc.Scan(ctx, dir)
	if err != nil {
		return
	}
	err = fn(root)
	if err != nil {
		return
	}

	timer := time.NewTimer(WatchDelay)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ignore[filepath.Base(event.Name)] {
				continue
			}
			log.Debugf("watch: %v", event)
			timer.Reset(WatchDelay)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return errors.Wrap(err, "watch")
		case <-timer.C:
			root, err := sc.Scan(ctx, dir)
			if err != nil {
				log.Warnf("rescan %s: %v", dir, err)
				continue
			}
			// pick up new subdirectories
			err = watchDirs(watcher, dir, ignore)
			if err != nil {
				log.Warnf("watch %s: %v", dir, err)
			}
			err = fn(root)
			if err != nil {
				return err
			}
		}
	}
}

// watchDirs adds every directory under dir, except ignored ones, to
// watcher.
func watchDirs(watcher *fsnotify.Watcher, dir string, ignore map[string]bool) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && ignore[d.Name()] {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
