package tree

import (
	"path"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Node is a tree entry, either a *File or a *Directory.
type Node interface {
	Name() string
	Parent() *Directory
	setParent(*Directory)
}

var (
	_ Node = (*File)(nil)
	_ Node = (*Directory)(nil)
)

// Directory holds uniquely named entries.  The parent link is only
// used to answer "is this node already placed somewhere"; ownership
// runs from a directory to its entries.
type Directory struct {
	name    string
	entries map[string]Node
	parent  *Directory
}

func NewDirectory(name string) *Directory {
	return &Directory{name: name, entries: make(map[string]Node)}
}

func (dir *Directory) Name() string {
	return dir.name
}

// Parent returns the directory holding dir, or nil.
func (dir *Directory) Parent() *Directory {
	return dir.parent
}

func (dir *Directory) setParent(parent *Directory) {
	dir.parent = parent
}

// Len returns the number of entries.
func (dir *Directory) Len() int {
	return len(dir.entries)
}

// Create attaches node under its name.  The directory is unchanged on
// error.
func (dir *Directory) Create(node Node) error {
	if isNil(node) {
		return errors.Wrapf(ErrTypeMismatch, "create in %s: nil node", dir.name)
	}
	name := node.Name()
	if _, ok := dir.entries[name]; ok {
		return errors.Wrapf(ErrNameCollision, "%s/%s", dir.name, name)
	}
	if node.Parent() != nil {
		return errors.Wrapf(ErrAlreadyAttached, "%s is in %s", name, node.Parent().name)
	}
	if sub, ok := node.(*Directory); ok {
		for p := dir; p != nil; p = p.parent {
			if p == sub {
				return errors.Wrapf(ErrInvalidArgument, "%s cannot contain itself", name)
			}
		}
	}
	dir.entries[name] = node
	node.setParent(dir)
	return nil
}

// Remove detaches the entry called name.  A directory must be empty
// before it can be removed.
func (dir *Directory) Remove(name string) error {
	node, ok := dir.entries[name]
	if !ok {
		return errors.Wrapf(ErrNotFound, "%s/%s", dir.name, name)
	}
	if sub, ok := node.(*Directory); ok && sub.Len() > 0 {
		return errors.Wrapf(ErrNonEmpty, "%s/%s has %d entries", dir.name, name, sub.Len())
	}
	delete(dir.entries, name)
	node.setParent(nil)
	return nil
}

// RemoveNode is Remove for a node held by dir.
func (dir *Directory) RemoveNode(node Node) error {
	if isNil(node) {
		return errors.Wrapf(ErrTypeMismatch, "remove from %s: nil node", dir.name)
	}
	if got, ok := dir.entries[node.Name()]; !ok || got != node {
		return errors.Wrapf(ErrNotFound, "%s/%s", dir.name, node.Name())
	}
	return dir.Remove(node.Name())
}

// Entries partitions the entries into directories and files, each
// sorted by name.
func (dir *Directory) Entries() (dirs []*Directory, files []*File) {
	for _, name := range dir.names() {
		switch node := dir.entries[name].(type) {
		case *Directory:
			dirs = append(dirs, node)
		case *File:
			files = append(files, node)
		}
	}
	return
}

func (dir *Directory) names() []string {
	names := make([]string, 0, len(dir.entries))
	for name := range dir.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entry returns the entry called name.
func (dir *Directory) Entry(name string) (Node, error) {
	node, ok := dir.entries[name]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "%s/%s", dir.name, name)
	}
	return node, nil
}

// Dir returns the subdirectory called name.
func (dir *Directory) Dir(name string) (*Directory, error) {
	node, err := dir.Entry(name)
	if err != nil {
		return nil, err
	}
	sub, ok := node.(*Directory)
	if !ok {
		return nil, errors.Wrapf(ErrTypeMismatch, "%s/%s is not a directory", dir.name, name)
	}
	return sub, nil
}

// File returns the file called name.
func (dir *Directory) File(name string) (*File, error) {
	node, err := dir.Entry(name)
	if err != nil {
		return nil, err
	}
	f, ok := node.(*File)
	if !ok {
		return nil, errors.Wrapf(ErrTypeMismatch, "%s/%s is not a file", dir.name, name)
	}
	return f, nil
}

// Lookup resolves a slash-separated path relative to dir.  An empty
// path or "." returns dir itself.
func (dir *Directory) Lookup(p string) (node Node, err error) {
	p = path.Clean(strings.Trim(p, "/"))
	node = dir
	if p == "." {
		return
	}
	for _, name := range strings.Split(p, "/") {
		cur, ok := node.(*Directory)
		if !ok {
			return nil, errors.Wrapf(ErrTypeMismatch, "%s is not a directory", node.Name())
		}
		node, err = cur.Entry(name)
		if err != nil {
			return nil, err
		}
	}
	return
}

// isNil catches both a nil interface and a typed nil pointer.
func isNil(node Node) bool {
	switch n := node.(type) {
	case nil:
		return true
	case *File:
		return n == nil
	case *Directory:
		return n == nil
	}
	return false
}
