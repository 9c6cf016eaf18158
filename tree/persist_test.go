package tree

import (
	"bytes"
	"path/filepath"
	"testing"
)

// sameTree reports whether a and b have the same shape and equal files.
func sameTree(t *testing.T, a, b *Directory) {
	t.Helper()
	tassert(t, a.Name() == b.Name(), "names %s %s", a.Name(), b.Name())
	adirs, afiles := a.Entries()
	bdirs, bfiles := b.Entries()
	tassert(t, len(adirs) == len(bdirs) && len(afiles) == len(bfiles), "%s: entries %v vs %v", a.Name(), names(adirs, afiles), names(bdirs, bfiles))
	for i := range afiles {
		tassert(t, afiles[i].Equal(bfiles[i]), "%s: file %s differs", a.Name(), afiles[i].Name())
		tassert(t, bfiles[i].Parent() == b, "%s: parent not set", bfiles[i].Name())
	}
	for i := range adirs {
		tassert(t, bdirs[i].Parent() == b, "%s: parent not set", bdirs[i].Name())
		sameTree(t, adirs[i], bdirs[i])
	}
}

func TestSaveLoad(t *testing.T) {
	store := setup(t)
	dir := mktree(t, "src", map[string]string{
		"a.txt":         "aaa",
		"empty":         "",
		"sub/b.txt":     "bbb",
		"sub/sub2/c.md": "ccc",
	})
	root, err := Scan(dir, store)
	tassert(t, err == nil, "%v", err)

	var buf bytes.Buffer
	err = Save(&buf, root)
	tassert(t, err == nil, "%v", err)
	got, err := Load(&buf)
	tassert(t, err == nil, "%v", err)
	tassert(t, got.Parent() == nil, "loaded root has a parent")
	sameTree(t, root, got)

	_, err = Load(bytes.NewReader([]byte{0xc0}))
	tassert(t, err != nil, "expected error, got none")
}

func TestWriteReadFile(t *testing.T) {
	store := setup(t)
	dir := mktree(t, "src", map[string]string{"a.txt": "aaa", "sub/b.txt": "bbb"})
	root, err := Scan(dir, store)
	tassert(t, err == nil, "%v", err)

	fn := filepath.Join(store.Dir, "tree")
	_, err = ReadFile(fn)
	tassert(t, is(err, ErrNotFound), "expected not found, got %v", err)

	// twice, the second replaces the first
	for i := 0; i < 2; i++ {
		err = WriteFile(fn, root)
		tassert(t, err == nil, "%v", err)
	}
	got, err := ReadFile(fn)
	tassert(t, err == nil, "%v", err)
	sameTree(t, root, got)

	// the saved tree is not mistaken for a chunk
	digests, err := store.Digests()
	tassert(t, err == nil, "%v", err)
	tassert(t, len(digests) == 2, "expected 2 chunks, got %d", len(digests))
}
