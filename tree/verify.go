package tree

import (
	"io"
	"os"
	"path/filepath"

	"github.com/hlubek/readercomp"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/t7a/syncfs/db"
)

// Mismatch is a file whose content on disk differs from the store.
type Mismatch struct {
	Path   string // slash path from the walk root, e.g. "src/a.txt"
	Reason string
}

// Verify compares each file in the tree rooted at dir with the file of
// the same path under base, where base is the directory that contains
// the scanned root.  I/O errors, including a missing file or chunk,
// abort the check; differences are returned as mismatches.
func Verify(dir *Directory, base string, store *db.Store) (mismatches []Mismatch, err error) {
	err = dir.WalkAll(func(entry WalkEntry) error {
		for _, f := range entry.Files {
			rel := entry.Prefix + "/" + f.Name()
			reason, err := verifyFile(f, filepath.Join(base, filepath.FromSlash(rel)), store)
			if err != nil {
				return err
			}
			if reason != "" {
				log.Debugf("verify %s: %s", rel, reason)
				mismatches = append(mismatches, Mismatch{Path: rel, Reason: reason})
			}
		}
		return nil
	})
	return
}

func verifyFile(f *File, path string, store *db.Store) (reason string, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", errors.Wrapf(err, "verify")
	}
	if info.Size() != f.Meta.Size {
		return "size changed", nil
	}
	fh, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "verify")
	}
	defer fh.Close()
	stored := &stickyReader{r: store.Reader(f.bitmap())}
	ok, err := readercomp.Equal(fh, stored, 4096)
	if stored.err != nil {
		// a missing or corrupt chunk is an error, not a mismatch
		return "", errors.Wrapf(stored.err, "verify %s", path)
	}
	if err != nil {
		return "", errors.Wrapf(err, "verify %s", path)
	}
	if !ok {
		return "content changed", nil
	}
	return "", nil
}

// stickyReader remembers the first error other than io.EOF.
type stickyReader struct {
	r   io.Reader
	err error
}

func (r *stickyReader) Read(p []byte) (n int, err error) {
	if r.err != nil {
		return 0, r.err
	}
	n, err = r.r.Read(p)
	if err != nil && err != io.EOF {
		r.err = err
	}
	return
}
