// Package fuse serves a scanned tree as a read-only filesystem.  File
// content is read from the chunk store on demand.
package fuse

import (
	"context"
	"io"
	"sort"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	log "github.com/sirupsen/logrus"
	. "github.com/stevegt/goadapt"
	"github.com/t7a/syncfs/db"
	"github.com/t7a/syncfs/tree"
)

type DirNode struct {
	fs.Inode
}

var _ = (fs.NodeReaddirer)((*DirNode)(nil))

func (r *DirNode) Readdir(ctx context.Context) (stream fs.DirStream, errno syscall.Errno) {
	entries := []fuse.DirEntry{
		{Mode: syscall.S_IFDIR, Name: "."},
		{Mode: syscall.S_IFDIR, Name: ".."},
	}
	children := r.Children()
	names := make([]string, 0, len(children))
	for name := range children {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		entry := fuse.DirEntry{Mode: children[name].Mode(), Name: name}
		entries = append(entries, entry)
	}
	return fs.NewListDirStream(entries), 0
}

// root

type fsRoot struct {
	dirNode
}

var _ = (fs.NodeOnAdder)((*fsRoot)(nil))

// OnAdd builds the whole inode tree up front; the tree is immutable
// while mounted.
func (root *fsRoot) OnAdd(ctx context.Context) {
	root.addEntries(ctx, &root.Inode, root.dir)
}

func (root *fsRoot) addEntries(ctx context.Context, parent *fs.Inode, dir *tree.Directory) {
	dirs, files := dir.Entries()
	for _, sub := range dirs {
		node := parent.NewPersistentInode(ctx,
			&dirNode{store: root.store, dir: sub},
			fs.StableAttr{Mode: syscall.S_IFDIR},
		)
		parent.AddChild(sub.Name(), node, false)
		root.addEntries(ctx, node, sub)
	}
	for _, f := range files {
		node := parent.NewPersistentInode(ctx,
			&fileNode{store: root.store, file: f},
			fs.StableAttr{Mode: syscall.S_IFREG},
		)
		parent.AddChild(f.Name(), node, false)
	}
}

// directory

type dirNode struct {
	DirNode
	store *db.Store
	dir   *tree.Directory
}

var _ = (fs.NodeGetattrer)((*dirNode)(nil))

func (n *dirNode) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = syscall.S_IFDIR | 0555
	return 0
}

// file

type fileNode struct {
	fs.Inode
	store *db.Store
	file  *tree.File
}

var _ = (fs.NodeOpener)((*fileNode)(nil))

func (n *fileNode) Open(ctx context.Context, flags uint32) (fh fs.FileHandle, outflags uint32, errno syscall.Errno) {
	defer Unpanic(&errno, msglog)

	// disallow writes
	ErrnoIf(flags&(syscall.O_RDWR|syscall.O_WRONLY) != 0, syscall.EROFS, n.file.Name())

	// The file content is immutable, so ask the kernel to cache the data.
	return nil, fuse.FOPEN_KEEP_CACHE, fs.OK
}

var _ = (fs.NodeGetattrer)((*fileNode)(nil))

func (n *fileNode) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) (errno syscall.Errno) {
	meta := n.file.Meta
	out.Mode = syscall.S_IFREG | uint32(meta.Mode.Perm()&^0222)
	out.Size = uint64(meta.Size)
	out.Uid = meta.Owner
	out.Gid = meta.Group
	out.SetTimes(&meta.Atime, &meta.Mtime, &meta.Ctime)
	return 0
}

var _ = (fs.NodeReader)((*fileNode)(nil))

func (n *fileNode) Read(ctx context.Context, fh fs.FileHandle, buf []byte, offset int64) (res fuse.ReadResult, errno syscall.Errno) {
	defer Unpanic(&errno, msglog)

	nread, err := n.store.ReadAt(n.file.Bitmap, buf, offset)
	if err != nil && err != io.EOF {
		log.Errorf("read %s at %d: %v", n.file.Name(), offset, err)
		return nil, syscall.EIO
	}
	return fuse.ReadResultData(buf[:nread]), 0
}

var _ = (fs.NodeSetattrer)((*fileNode)(nil))

func (n *fileNode) Setattr(ctx context.Context, fh fs.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	return syscall.EROFS
}

// server

// Mount serves dir, read-only, at mnt.  Call Unmount on the returned
// server when done.
func Mount(store *db.Store, dir *tree.Directory, mnt string) (server *fuse.Server, err error) {
	defer Return(&err)
	opts := &fs.Options{}
	opts.Debug = log.IsLevelEnabled(log.TraceLevel)
	// start inode numbers at 2^16
	opts.FirstAutomaticIno = 1 << 16
	opts.MountOptions.FsName = "syncfs"
	opts.MountOptions.Options = append(opts.MountOptions.Options, "ro")
	root := &fsRoot{dirNode{store: store, dir: dir}}
	server, err = fs.Mount(mnt, root, opts)
	Ck(err)
	server.WaitMount()
	log.Debugf("mounted %s at %s", dir.Name(), mnt)
	return
}

func msglog(msg string) {
	log.Errorf("unpanic: %v", msg)
}
