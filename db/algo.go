package db

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"

	"github.com/pkg/errors"
	"github.com/zeebo/blake3"
)

// Algo identifies a digest algorithm.  The set of algorithms is
// closed: every valid Algo has an entry in algoTable.
type Algo uint8

const (
	SHA1 Algo = iota + 1
	SHA256
	SHA512
	BLAKE3
)

// DefaultAlgo is used by stores and bitmaps that don't name one.
const DefaultAlgo = SHA1

type algoInfo struct {
	tag  string
	size int
	new  func() hash.Hash
}

var algoTable = [...]algoInfo{
	SHA1:   {tag: "sha1", size: sha1.Size, new: sha1.New},
	SHA256: {tag: "sha256", size: sha256.Size, new: sha256.New},
	SHA512: {tag: "sha512", size: sha512.Size, new: sha512.New},
	BLAKE3: {tag: "blake3", size: 32, new: func() hash.Hash { return blake3.New() }},
}

// Algos returns the tags of all supported algorithms.
func Algos() (tags []string) {
	for _, info := range algoTable {
		if info.tag != "" {
			tags = append(tags, info.tag)
		}
	}
	return
}

// LookupAlgo returns the algorithm registered under tag.
func LookupAlgo(tag string) (Algo, error) {
	for i, info := range algoTable {
		if info.tag != "" && info.tag == tag {
			return Algo(i), nil
		}
	}
	return 0, errors.Wrapf(ErrNotFound, "unknown digest algorithm %q", tag)
}

func (a Algo) Valid() bool {
	return int(a) < len(algoTable) && algoTable[a].tag != ""
}

func (a Algo) info() algoInfo {
	if !a.Valid() {
		panic(errors.Errorf("invalid digest algorithm %d", a))
	}
	return algoTable[a]
}

// Tag returns the short name stored alongside bitmaps.
func (a Algo) Tag() string {
	return a.info().tag
}

// Size returns the digest length in bytes.
func (a Algo) Size() int {
	return a.info().size
}

// New returns a fresh hash.Hash for the algorithm.
func (a Algo) New() hash.Hash {
	return a.info().new()
}

// Sum hashes buf.
func (a Algo) Sum(buf []byte) Digest {
	h := a.New()
	h.Write(buf)
	return h.Sum(nil)
}

func (a Algo) String() string {
	if !a.Valid() {
		return "invalid"
	}
	return a.Tag()
}

// MarshalText lets an Algo appear by tag in config.json.
func (a Algo) MarshalText() ([]byte, error) {
	if a == 0 {
		return []byte{}, nil
	}
	if !a.Valid() {
		return nil, errors.Wrapf(ErrInvalidArgument, "digest algorithm %d", a)
	}
	return []byte(a.Tag()), nil
}

func (a *Algo) UnmarshalText(txt []byte) (err error) {
	if len(txt) == 0 {
		*a = 0
		return
	}
	*a, err = LookupAlgo(string(txt))
	return
}

// Digest is the binary content address of a chunk.
type Digest []byte

// Hex returns the lowercase hexadecimal form used for chunk file names.
func (d Digest) Hex() string {
	return hex.EncodeToString(d)
}

func (d Digest) String() string {
	return d.Hex()
}

// ParseDigest decodes a hexadecimal digest.
func ParseDigest(s string) (Digest, error) {
	buf, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidArgument, "digest %q: %v", s, err)
	}
	if len(buf) == 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "empty digest")
	}
	return Digest(buf), nil
}
