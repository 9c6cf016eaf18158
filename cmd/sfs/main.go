package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"github.com/docopt/docopt-go"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/t7a/syncfs/db"
	"github.com/t7a/syncfs/fuse"
	"github.com/t7a/syncfs/tree"
)

func init() {
	var debug string
	debug = os.Getenv("DEBUG")
	if debug == "1" {
		log.SetLevel(log.DebugLevel)
	}
	log.SetReportCaller(true)
	formatter := &log.TextFormatter{
		CallerPrettyfier: caller(),
		FieldMap: log.FieldMap{
			log.FieldKeyFile: "caller",
		},
	}
	formatter.TimestampFormat = "15:04:05.999999999"
	log.SetFormatter(formatter)
}

// caller returns string presentation of log caller which is formatted as
// `/path/to/file.go:line_number`. e.g. `/internal/app/api.go:25`
// https://stackoverflow.com/questions/63658002/is-it-possible-to-wrap-logrus-logger-functions-without-losing-the-line-number-pr
func caller() func(*runtime.Frame) (function string, file string) {
	return func(f *runtime.Frame) (function string, file string) {
		p, _ := os.Getwd()
		return "", fmt.Sprintf("%s:%d gid %d", strings.TrimPrefix(f.File, p), f.Line, db.GetGID())
	}
}

type Opts struct {
	Init       bool
	Chunksize  bool
	Putfile    bool
	Getchunk   bool
	Scan       bool
	Ls         bool
	Cat        bool
	Verify     bool `docopt:"verify"`
	Stats      bool
	Algos      bool
	Mount      bool
	Watch      bool
	Algo       string   `docopt:"--algo"`
	Check      bool     `docopt:"--verify"`
	Jobs       string   `docopt:"--jobs"`
	Ignore     []string `docopt:"--ignore"`
	Size       string
	Filename   string
	Digest     string
	Dir        string
	Path       string
	Basedir    string
	Mountpoint string
}

const treeName = "tree"

func main() {
	// see https://github.com/google/go-cmdtest
	os.Exit(run())
}

func run() (rc int) {

	usage := `syncfs

Usage:
  sfs init [-a <algo>] [--verify]
  sfs chunksize <size>
  sfs putfile <filename>
  sfs getchunk <digest>
  sfs scan [-j <jobs>] [-i <name>]... <dir>
  sfs ls
  sfs cat <path>
  sfs verify <basedir>
  sfs stats
  sfs algos
  sfs mount <mountpoint>
  sfs watch [-i <name>]... <dir>

Options:
  -h --help           Show this screen.
  --version           Show version.
  -a --algo <algo>    Digest algorithm [default: sha1].
  --verify            Check chunk digests on every read.
  -j --jobs <jobs>    Number of files to hash at once [default: 1].
  -i --ignore <name>  Skip files and directories with this name.

The store lives in $SFSDIR, or .sfs in the current directory.
`
	parser := &docopt.Parser{OptionsFirst: false, HelpHandler: docopt.PrintHelpOnly}
	o, err := parser.ParseArgs(usage, os.Args[1:], "0.0")
	if err != nil {
		log.Error(err)
		return 22
	}
	var opts Opts
	err = o.Bind(&opts)
	if err != nil {
		log.Error(err)
		return 22
	}
	log.Debug(opts)

	switch true {
	case opts.Init:
		msg, err := create(opts.Algo, opts.Check)
		if err != nil {
			log.Error(err)
			return 42
		}
		fmt.Println(msg)
	case opts.Chunksize:
		size, err := strconv.ParseInt(opts.Size, 10, 64)
		if err != nil {
			log.Error(err)
			return 22
		}
		fmt.Println(db.ChunkSize(size))
	case opts.Putfile:
		bm, err := putFile(opts.Filename)
		if err != nil {
			log.Error(err)
			return 42
		}
		fmt.Printf("%s %d\n", bm.Tag(), bm.ChunkSize)
		for _, d := range bm.Digests() {
			fmt.Println(d.Hex())
		}
	case opts.Getchunk:
		buf, err := getChunk(opts.Digest)
		if err != nil {
			log.Error(err)
			return 42
		}
		_, err = os.Stdout.Write(buf)
		if err != nil {
			log.Error(err)
			return 25
		}
	case opts.Scan:
		jobs, err := strconv.Atoi(opts.Jobs)
		if err != nil {
			log.Error(err)
			return 22
		}
		root, err := scan(opts.Dir, jobs, opts.Ignore)
		if err != nil {
			log.Error(err)
			return 42
		}
		fmt.Println(summary(root))
	case opts.Ls:
		lines, err := ls()
		if err != nil {
			log.Error(err)
			return 42
		}
		fmt.Println(strings.Join(lines, "\n"))
	case opts.Cat:
		err := cat(opts.Path, os.Stdout)
		if err != nil {
			log.Error(err)
			return 42
		}
	case opts.Verify:
		mismatches, err := verify(opts.Basedir)
		if err != nil {
			log.Error(err)
			return 42
		}
		for _, m := range mismatches {
			fmt.Printf("%s: %s\n", m.Path, m.Reason)
		}
		if len(mismatches) > 0 {
			fmt.Println("Consistency is CORRUPT")
			return 1
		}
		fmt.Println("Consistency is OK")
	case opts.Stats:
		stats, err := stats()
		if err != nil {
			log.Error(err)
			return 42
		}
		fmt.Printf("%d chunks, %s\n", stats.Chunks, humanize.IBytes(uint64(stats.Bytes)))
	case opts.Algos:
		fmt.Println(strings.Join(db.Algos(), "\n"))
	case opts.Mount:
		err := mount(opts.Mountpoint)
		if err != nil {
			log.Error(err)
			return 42
		}
	case opts.Watch:
		err := watch(opts.Dir, opts.Ignore)
		if err != nil {
			log.Error(err)
			return 42
		}
	}
	return 0
}

func storeDir() (dir string) {
	dir = os.Getenv("SFSDIR")
	if dir == "" {
		dir = ".sfs"
	}
	return
}

func create(tag string, verify bool) (msg string, err error) {
	algo, err := db.LookupAlgo(tag)
	if err != nil {
		return
	}
	store, err := db.Store{Dir: storeDir(), Algo: algo, Verify: verify}.Create()
	if err != nil {
		return
	}
	return fmt.Sprintf("Initialized empty store in %s", store.Dir), nil
}

func openStore() (store *db.Store, err error) {
	return db.Open(storeDir())
}

func putFile(fn string) (bm *db.Bitmap, err error) {
	store, err := openStore()
	if err != nil {
		return
	}
	return store.PutFile(fn)
}

func getChunk(hex string) (buf []byte, err error) {
	store, err := openStore()
	if err != nil {
		return
	}
	digest, err := db.ParseDigest(hex)
	if err != nil {
		return
	}
	return store.GetChunk(digest)
}

// scanner returns a Scanner for dir that also skips the store, if the
// store lives inside dir.
func scanner(store *db.Store, dir string, jobs int, ignore []string) (sc tree.Scanner, absdir string, err error) {
	absdir, err = filepath.Abs(dir)
	if err != nil {
		return
	}
	absstore, err := filepath.Abs(store.Dir)
	if err != nil {
		return
	}
	rel, err := filepath.Rel(absdir, absstore)
	if err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
		top := strings.Split(filepath.ToSlash(rel), "/")[0]
		ignore = append(ignore, top)
	}
	return tree.Scanner{Store: store, Ignore: ignore, Jobs: jobs}, absdir, nil
}

func scan(dir string, jobs int, ignore []string) (root *tree.Directory, err error) {
	store, err := openStore()
	if err != nil {
		return
	}
	sc, absdir, err := scanner(store, dir, jobs, ignore)
	if err != nil {
		return
	}
	root, err = sc.Scan(context.Background(), absdir)
	if err != nil {
		return
	}
	err = tree.WriteFile(filepath.Join(store.Dir, treeName), root)
	return
}

func summary(root *tree.Directory) string {
	var ndirs, nfiles int
	w := root.Walk()
	for w.Next() {
		ndirs++
		nfiles += len(w.Entry().Files)
	}
	return fmt.Sprintf("%s: %d files in %d directories", root.Name(), nfiles, ndirs)
}

func loadTree() (store *db.Store, root *tree.Directory, err error) {
	store, err = openStore()
	if err != nil {
		return
	}
	root, err = tree.ReadFile(filepath.Join(store.Dir, treeName))
	if errors.Cause(err) == db.ErrNotFound {
		err = fmt.Errorf("no tree in %s, run 'sfs scan' first", store.Dir)
	}
	return
}

func ls() (lines []string, err error) {
	_, root, err := loadTree()
	if err != nil {
		return
	}
	err = root.WalkAll(func(e tree.WalkEntry) error {
		for _, f := range e.Files {
			lines = append(lines, fmt.Sprintf("%s/%s %d", e.Prefix, f.Name(), f.Meta.Size))
		}
		return nil
	})
	return
}

// cat copies the file at path, which starts with the name of the
// scanned directory, to w.
func cat(path string, w io.Writer) (err error) {
	store, root, err := loadTree()
	if err != nil {
		return
	}
	parts := strings.SplitN(strings.Trim(path, "/"), "/", 2)
	if parts[0] != root.Name() || len(parts) < 2 {
		return errors.Wrapf(db.ErrNotFound, "%s", path)
	}
	node, err := root.Lookup(parts[1])
	if err != nil {
		return
	}
	f, ok := node.(*tree.File)
	if !ok {
		return errors.Wrapf(tree.ErrTypeMismatch, "%s is a directory", path)
	}
	_, err = io.Copy(w, store.Reader(f.Bitmap))
	return
}

func verify(basedir string) (mismatches []tree.Mismatch, err error) {
	store, root, err := loadTree()
	if err != nil {
		return
	}
	return tree.Verify(root, basedir, store)
}

func stats() (stats db.Stats, err error) {
	store, err := openStore()
	if err != nil {
		return
	}
	return store.Stats()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func mount(mnt string) (err error) {
	store, root, err := loadTree()
	if err != nil {
		return
	}
	server, err := fuse.Mount(store, root, mnt)
	if err != nil {
		return
	}
	ctx, cancel := signalContext()
	defer cancel()
	go func() {
		<-ctx.Done()
		err := server.Unmount()
		if err != nil {
			log.Error(err)
		}
	}()
	fmt.Printf("%s mounted at %s\n", root.Name(), mnt)
	server.Wait()
	return
}

func watch(dir string, ignore []string) (err error) {
	store, err := openStore()
	if err != nil {
		return
	}
	sc, absdir, err := scanner(store, dir, 1, ignore)
	if err != nil {
		return
	}
	ctx, cancel := signalContext()
	defer cancel()
	return tree.Watch(ctx, absdir, sc, func(root *tree.Directory) error {
		err := tree.WriteFile(filepath.Join(store.Dir, treeName), root)
		if err != nil {
			return err
		}
		fmt.Println(summary(root))
		return nil
	})
}
