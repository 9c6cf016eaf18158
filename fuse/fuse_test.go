package fuse

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/hanwen/go-fuse/v2/fuse"
	. "github.com/stevegt/goadapt"
	"github.com/t7a/syncfs/db"
	"github.com/t7a/syncfs/tree"
)

const testStoreDirPrefix = "syncfs_store"

// test boolean condition
func tassert(t *testing.T, cond bool, txt string, args ...interface{}) {
	t.Helper() // cause file:line info to show caller
	if !cond {
		t.Fatalf(txt, args...)
	}
}

// setup scans a small tree into a fresh store and returns both along
// with the source directory.
func setup(t *testing.T) (store *db.Store, root *tree.Directory, src string) {
	var err error
	var dir string

	debug := os.Getenv("DEBUG")
	if debug == "1" {
		dir, err = ioutil.TempDir("", testStoreDirPrefix)
		Ck(err)
		fmt.Println(dir)
		// no cleanup
	} else {
		dir = t.TempDir()
		// automatically cleaned up
	}

	store, err = db.Store{Dir: filepath.Join(dir, "store")}.Create()
	Ck(err)

	src = filepath.Join(dir, "src")
	files := map[string]string{
		"hello.txt":   "hello",
		"sub/big.txt": strings.Repeat("0123456789", 2000),
	}
	for rel, content := range files {
		fn := filepath.Join(src, rel)
		err = os.MkdirAll(filepath.Dir(fn), 0755)
		Ck(err)
		err = os.WriteFile(fn, []byte(content), 0644)
		Ck(err)
		err = os.Chmod(fn, 0644)
		Ck(err)
	}
	root, err = tree.Scan(src, store)
	Ck(err)
	return
}

func TestFileNode(t *testing.T) {
	store, root, _ := setup(t)
	node, err := root.Lookup("sub/big.txt")
	tassert(t, err == nil, "%v", err)
	n := &fileNode{store: store, file: node.(*tree.File)}
	ctx := context.Background()

	buf := make([]byte, 15)
	res, errno := n.Read(ctx, nil, buf, 4095)
	tassert(t, errno == 0, "errno %v", errno)
	got, status := res.Bytes(nil)
	tassert(t, status.Ok(), "status %v", status)
	tassert(t, string(got) == "567890123456789", "got %q", got)

	// short read at the end
	res, errno = n.Read(ctx, nil, buf, 19995)
	tassert(t, errno == 0, "errno %v", errno)
	got, _ = res.Bytes(nil)
	tassert(t, string(got) == "56789", "got %q", got)

	out := &fuse.AttrOut{}
	errno = n.Getattr(ctx, nil, out)
	tassert(t, errno == 0, "errno %v", errno)
	tassert(t, out.Size == 20000, "size %d", out.Size)
	tassert(t, out.Mode == syscall.S_IFREG|0444, "mode %o", out.Mode)
	tassert(t, out.Mtime == uint64(n.file.Meta.Mtime.Unix()), "mtime %d", out.Mtime)

	_, _, errno = n.Open(ctx, syscall.O_RDONLY)
	tassert(t, errno == 0, "errno %v", errno)
	_, _, errno = n.Open(ctx, syscall.O_WRONLY)
	tassert(t, errno == syscall.EROFS, "errno %v", errno)
}

func TestFileNodeMissingChunk(t *testing.T) {
	store, root, _ := setup(t)
	f, err := root.File("hello.txt")
	tassert(t, err == nil, "%v", err)
	path, err := store.ChunkPath(f.Bitmap.At(0), false)
	tassert(t, err == nil, "%v", err)
	err = os.Remove(path.Abs)
	tassert(t, err == nil, "%v", err)

	n := &fileNode{store: store, file: f}
	_, errno := n.Read(context.Background(), nil, make([]byte, 5), 0)
	tassert(t, errno == syscall.EIO, "errno %v", errno)
}

func TestMount(t *testing.T) {
	if _, err := os.Stat("/dev/fuse"); err != nil {
		t.Skip("no /dev/fuse")
	}
	store, root, src := setup(t)
	mnt := t.TempDir()

	server, err := Mount(store, root, mnt)
	if err != nil {
		t.Skipf("cannot mount: %v", err)
	}
	defer server.Unmount()

	for _, rel := range []string{"hello.txt", "sub/big.txt"} {
		expect, err := os.ReadFile(filepath.Join(src, rel))
		tassert(t, err == nil, "%v", err)
		got, err := os.ReadFile(filepath.Join(mnt, rel))
		tassert(t, err == nil, "%s: %v", rel, err)
		tassert(t, bytes.Equal(expect, got), "%s: content mismatch", rel)
	}

	entries, err := os.ReadDir(mnt)
	tassert(t, err == nil, "%v", err)
	tassert(t, len(entries) == 2 && entries[0].Name() == "hello.txt" && entries[1].IsDir(), "entries %v", entries)

	err = os.WriteFile(filepath.Join(mnt, "hello.txt"), []byte("x"), 0644)
	tassert(t, err != nil, "write succeeded")

	err = server.Unmount()
	tassert(t, err == nil, "%v", err)
}
