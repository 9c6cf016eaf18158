package tree

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/t7a/syncfs/db"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Scan stores every regular file under dir in store and returns the
// tree.  dir must be an absolute path to a directory.  Entries whose
// name is in ignore are skipped at every level.  Symlinks, devices,
// sockets and pipes abort the scan with ErrUnsupportedEntry.
func Scan(dir string, store *db.Store, ignore ...string) (*Directory, error) {
	return Scanner{Store: store, Ignore: ignore}.Scan(context.Background(), dir)
}

// Scanner holds scan settings.  With Jobs > 1, up to Jobs files are
// hashed at once and sibling subdirectories are scanned concurrently.
type Scanner struct {
	Store  *db.Store
	Ignore []string
	Jobs   int
}

type scanState struct {
	store  *db.Store
	ignore map[string]bool
	sem    *semaphore.Weighted
}

// Scan is the package-level Scan with the scanner's settings.  On error
// no tree is returned; chunks stored before the failure stay in the
// store.
func (sc Scanner) Scan(ctx context.Context, dir string) (root *Directory, err error) {
	if !filepath.IsAbs(dir) {
		return nil, errors.Wrapf(ErrInvalidArgument, "scan: not an absolute path: %s", dir)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, errors.Wrapf(ErrInvalidArgument, "scan: not a directory: %s", dir)
	}
	if sc.Store == nil {
		return nil, errors.Wrapf(ErrInvalidArgument, "scan: no store")
	}

	s := &scanState{store: sc.Store, ignore: make(map[string]bool)}
	for _, name := range sc.Ignore {
		s.ignore[name] = true
	}
	if sc.Jobs > 1 {
		s.sem = semaphore.NewWeighted(int64(sc.Jobs))
	}
	return s.scanDir(ctx, filepath.Clean(dir))
}

func (s *scanState) scanDir(ctx context.Context, dirpath string) (dir *Directory, err error) {
	entries, err := os.ReadDir(dirpath)
	if err != nil {
		return nil, errors.Wrapf(err, "scan %s", dirpath)
	}

	// refuse the whole directory before storing anything from it
	for _, entry := range entries {
		if s.ignore[entry.Name()] {
			continue
		}
		if !entry.Type().IsRegular() && !entry.IsDir() {
			return nil, errors.Wrapf(ErrUnsupportedEntry, "%s (%v)", filepath.Join(dirpath, entry.Name()), entry.Type())
		}
	}

	var g *errgroup.Group
	if s.sem != nil {
		g, ctx = errgroup.WithContext(ctx)
	}
	run := func(fn func(context.Context) error) error {
		if g == nil {
			return fn(ctx)
		}
		g.Go(func() error { return fn(ctx) })
		return nil
	}

	// each goroutine owns its own slot and its own subtree
	nodes := make([]Node, len(entries))
	for i, entry := range entries {
		i, name := i, entry.Name()
		if s.ignore[name] {
			continue
		}
		full := filepath.Join(dirpath, name)
		if entry.IsDir() {
			err = run(func(ctx context.Context) error {
				sub, err := s.scanDir(ctx, full)
				if err != nil {
					return err
				}
				nodes[i] = sub
				return nil
			})
		} else {
			err = run(func(ctx context.Context) error {
				f, err := s.scanFile(ctx, full)
				if err != nil {
					return err
				}
				nodes[i] = f
				return nil
			})
		}
		if err != nil {
			return nil, err
		}
	}
	if g != nil {
		err = g.Wait()
		if err != nil {
			return nil, err
		}
	}

	dir = NewDirectory(filepath.Base(dirpath))
	for _, node := range nodes {
		if node == nil {
			continue
		}
		err = dir.Create(node)
		if err != nil {
			return nil, err
		}
	}
	log.Debugf("scanned %s: %d entries", dirpath, dir.Len())
	return dir, nil
}

func (s *scanState) scanFile(ctx context.Context, path string) (f *File, err error) {
	if s.sem != nil {
		err = s.sem.Acquire(ctx, 1)
		if err != nil {
			return
		}
		defer s.sem.Release(1)
	}

	meta, err := lstat(path)
	if err != nil {
		return
	}
	if !meta.Mode.IsRegular() {
		return nil, errors.Wrapf(ErrUnsupportedEntry, "%s (%v)", path, meta.Mode.Type())
	}
	bm, err := s.store.PutFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "store %s", path)
	}
	meta.ChunkSize = bm.ChunkSize
	return NewFile(meta, bm), nil
}
