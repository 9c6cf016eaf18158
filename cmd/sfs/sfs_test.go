package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmdtest"
	"github.com/pkg/fileutils"
)

var update = flag.Bool("update", false, "update test files with results")

// fixtures are copied from testdata into each test's root dir.
var fixtures = []string{
	"hello.txt",
	"data/a.txt",
	"data/b.txt",
	"data/sub/c.txt",
}

func TestCLI(t *testing.T) {
	ts, err := cmdtest.Read("testdata")
	if err != nil {
		t.Fatal(err)
	}
	ts.KeepRootDirs = true
	srcdir, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	ts.Setup = func(dir string) (err error) {
		for _, fn := range fixtures {
			err = os.MkdirAll(filepath.Dir(filepath.Join(dir, fn)), 0755)
			if err != nil {
				return
			}
			err = fileutils.CopyFile(filepath.Join(dir, fn), filepath.Join(srcdir, "testdata", "fixtures", fn))
			if err != nil {
				return
			}
		}
		return
	}
	ts.Commands["sfs"] = cmdtest.InProcessProgram("sfs", run)
	ts.Run(t, *update)
}
