package tree

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	. "github.com/stevegt/goadapt"
	"github.com/t7a/syncfs/db"
)

const testDirPrefix = "syncfs-tree"

// tempdir returns a directory that is removed after the test, unless
// DEBUG=1, in which case it is kept and printed.
func tempdir(t *testing.T) (dir string) {
	if os.Getenv("DEBUG") == "1" {
		dir, err := ioutil.TempDir("", testDirPrefix)
		Ck(err)
		fmt.Println(dir)
		return dir
	}
	return t.TempDir()
}

func setup(t *testing.T) *db.Store {
	store, err := db.Store{Dir: filepath.Join(tempdir(t), "store")}.Create()
	Ck(err)
	return store
}

// mktree creates a directory called root under a fresh temp dir and
// fills it with files, keyed by slash path.  It returns the absolute
// path of root.
func mktree(t *testing.T, root string, files map[string]string) string {
	t.Helper()
	top := filepath.Join(tempdir(t), root)
	err := os.MkdirAll(top, 0755)
	tassert(t, err == nil, "%v", err)
	for rel, content := range files {
		fn := filepath.Join(top, filepath.FromSlash(rel))
		err = os.MkdirAll(filepath.Dir(fn), 0755)
		tassert(t, err == nil, "%v", err)
		err = os.WriteFile(fn, []byte(content), 0644)
		tassert(t, err == nil, "%v", err)
		err = os.Chmod(fn, 0644)
		tassert(t, err == nil, "%v", err)
	}
	return top
}

func is(err, kind error) bool {
	return errors.Cause(err) == kind
}

// test boolean condition
func tassert(t *testing.T, cond bool, txt string, args ...interface{}) {
	t.Helper() // cause file:line info to show caller
	if !cond {
		t.Fatalf(txt, args...)
	}
}

func names(dirs []*Directory, files []*File) (out []string) {
	for _, d := range dirs {
		out = append(out, d.Name()+"/")
	}
	for _, f := range files {
		out = append(out, f.Name())
	}
	return
}
