package tree

import (
	"github.com/pkg/errors"
	"github.com/t7a/syncfs/db"
	"github.com/vmihailenco/msgpack"
)

// File is a regular file: its metadata plus the bitmap of its content.
type File struct {
	Meta   FileMeta
	Bitmap *db.Bitmap
	parent *Directory
}

// NewFile returns an unattached file.  A nil bitmap is replaced with an
// empty one of the default algorithm; otherwise meta.ChunkSize is set
// from the bitmap.
func NewFile(meta FileMeta, bm *db.Bitmap) *File {
	if bm == nil {
		bm = db.NewBitmap(db.DefaultAlgo, meta.ChunkSize)
	}
	meta.ChunkSize = bm.ChunkSize
	return &File{Meta: meta, Bitmap: bm}
}

func (f *File) Name() string {
	return f.Meta.Name
}

// Parent returns the directory holding f, or nil.
func (f *File) Parent() *Directory {
	return f.parent
}

func (f *File) setParent(dir *Directory) {
	f.parent = dir
}

// bitmap returns f.Bitmap, or an empty bitmap of the default algorithm
// for a File built without one.
func (f *File) bitmap() *db.Bitmap {
	if f.Bitmap == nil {
		return db.NewBitmap(db.DefaultAlgo, 0)
	}
	return f.Bitmap
}

// Equal compares metadata and bitmaps; parents are ignored.  The chunk
// size is taken from the bitmaps.
func (f *File) Equal(other *File) bool {
	if f == nil || other == nil {
		return f == other
	}
	a, b := f.bitmap(), other.bitmap()
	ma, mb := f.Meta, other.Meta
	ma.ChunkSize, mb.ChunkSize = a.ChunkSize, b.ChunkSize
	return ma.Equal(mb) && a.Equal(b)
}

// FileRecord is the serialized form of a File.
type FileRecord struct {
	Meta       FileMeta `msgpack:"meta"`
	Bitmap     [][]byte `msgpack:"bitmap"`
	BitmapType string   `msgpack:"bitmap_type"`
}

// Dump converts f to its record.  The record's chunk size is the
// bitmap's.
func (f *File) Dump() *FileRecord {
	bm := f.bitmap()
	rec := &FileRecord{
		Meta:       f.Meta,
		Bitmap:     make([][]byte, bm.Len()),
		BitmapType: bm.Tag(),
	}
	rec.Meta.ChunkSize = bm.ChunkSize
	for i := range rec.Bitmap {
		rec.Bitmap[i] = append([]byte(nil), bm.At(i)...)
	}
	return rec
}

// LoadFile rebuilds an unattached File from rec.  The bitmap's chunk
// size comes from rec.Meta.ChunkSize.
func LoadFile(rec *FileRecord) (f *File, err error) {
	algo, err := db.LookupAlgo(rec.BitmapType)
	if err != nil {
		return
	}
	if rec.Meta.ChunkSize < 0 || (rec.Meta.ChunkSize == 0 && len(rec.Bitmap) > 0) {
		return nil, errors.Wrapf(ErrInvalidArgument, "%s: chunk size %d with %d chunks", rec.Meta.Name, rec.Meta.ChunkSize, len(rec.Bitmap))
	}
	bm := db.NewBitmap(algo, rec.Meta.ChunkSize)
	for i, d := range rec.Bitmap {
		if len(d) != algo.Size() {
			return nil, errors.Wrapf(ErrInvalidArgument, "%s: digest %d is %d bytes, want %d", rec.Meta.Name, i, len(d), algo.Size())
		}
		bm.Append(d)
	}
	return &File{Meta: rec.Meta, Bitmap: bm}, nil
}

// MarshalFile encodes f with msgpack.
func MarshalFile(f *File) ([]byte, error) {
	return msgpack.Marshal(f.Dump())
}

// UnmarshalFile decodes a File encoded by MarshalFile.
func UnmarshalFile(buf []byte) (f *File, err error) {
	rec := &FileRecord{}
	err = msgpack.Unmarshal(buf, rec)
	if err != nil {
		return nil, errors.Wrap(err, "decoding file")
	}
	return LoadFile(rec)
}
