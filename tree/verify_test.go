package tree

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestVerify(t *testing.T) {
	store := setup(t)
	dir := mktree(t, "src", map[string]string{
		"a.txt":     "apple",
		"b.txt":     "banana",
		"sub/c.txt": "cherry",
	})
	root, err := Scan(dir, store)
	tassert(t, err == nil, "%v", err)
	base := filepath.Dir(dir)

	mismatches, err := Verify(root, base, store)
	tassert(t, err == nil, "%v", err)
	tassert(t, len(mismatches) == 0, "mismatches %v", mismatches)

	// same size, different content
	err = os.WriteFile(filepath.Join(dir, "a.txt"), []byte("APPLE"), 0644)
	tassert(t, err == nil, "%v", err)
	// different size
	err = os.WriteFile(filepath.Join(dir, "sub", "c.txt"), []byte("cherries"), 0644)
	tassert(t, err == nil, "%v", err)

	mismatches, err = Verify(root, base, store)
	tassert(t, err == nil, "%v", err)
	sort.Slice(mismatches, func(i, j int) bool { return mismatches[i].Path < mismatches[j].Path })
	tassert(t, len(mismatches) == 2, "mismatches %v", mismatches)
	tassert(t, mismatches[0].Path == "src/a.txt" && mismatches[0].Reason == "content changed", "got %v", mismatches[0])
	tassert(t, mismatches[1].Path == "src/sub/c.txt" && mismatches[1].Reason == "size changed", "got %v", mismatches[1])

	// a missing file is an error, not a mismatch
	err = os.Remove(filepath.Join(dir, "b.txt"))
	tassert(t, err == nil, "%v", err)
	_, err = Verify(root, base, store)
	tassert(t, err != nil, "expected error, got none")
}

func TestVerifyMissingChunk(t *testing.T) {
	store := setup(t)
	dir := mktree(t, "src", map[string]string{"a.txt": "apple"})
	root, err := Scan(dir, store)
	tassert(t, err == nil, "%v", err)

	f, err := root.File("a.txt")
	tassert(t, err == nil, "%v", err)
	path, err := store.ChunkPath(f.Bitmap.At(0), false)
	tassert(t, err == nil, "%v", err)
	err = os.Remove(path.Abs)
	tassert(t, err == nil, "%v", err)

	_, err = Verify(root, filepath.Dir(dir), store)
	tassert(t, is(err, ErrNotFound), "expected not found, got %v", err)
}
