package tree

import (
	"path"
)

// WalkEntry describes one directory visited by a Walker.  Prefix is
// the slash-joined path from the walk's root to Dir, starting with the
// root's own name.
type WalkEntry struct {
	Prefix string
	Dir    *Directory
	Dirs   []*Directory
	Files  []*File
}

type walkItem struct {
	prefix string
	dir    *Directory
}

// Walker visits a tree breadth-first, one directory per call to Next.
// It is single-pass; call Walk again to start over.
type Walker struct {
	queue []walkItem
	entry WalkEntry
}

// Walk returns a Walker rooted at dir.
func (dir *Directory) Walk() *Walker {
	return &Walker{queue: []walkItem{{prefix: dir.name, dir: dir}}}
}

// Next advances to the next directory and reports whether there was
// one.
func (w *Walker) Next() bool {
	if len(w.queue) == 0 {
		w.entry = WalkEntry{}
		return false
	}
	item := w.queue[0]
	w.queue = w.queue[1:]
	dirs, files := item.dir.Entries()
	for _, sub := range dirs {
		w.queue = append(w.queue, walkItem{prefix: path.Join(item.prefix, sub.name), dir: sub})
	}
	w.entry = WalkEntry{Prefix: item.prefix, Dir: item.dir, Dirs: dirs, Files: files}
	return true
}

// Entry returns the directory loaded by the last call to Next.
func (w *Walker) Entry() WalkEntry {
	return w.entry
}

// WalkFunc is called by WalkAll for each directory.
type WalkFunc func(entry WalkEntry) error

// WalkAll walks dir and calls fn for each directory, stopping at the
// first error.
func (dir *Directory) WalkAll(fn WalkFunc) error {
	w := dir.Walk()
	for w.Next() {
		err := fn(w.Entry())
		if err != nil {
			return err
		}
	}
	return nil
}
