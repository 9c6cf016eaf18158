package tree

import (
	"github.com/pkg/errors"
	"github.com/t7a/syncfs/db"
)

// Error kinds.  As in package db, classify with errors.Cause(err) == ErrX.
var (
	ErrNameCollision    = errors.New("name already exists")
	ErrAlreadyAttached  = errors.New("node already has a parent")
	ErrNonEmpty         = errors.New("directory not empty")
	ErrUnsupportedEntry = errors.New("unsupported directory entry")
	ErrTypeMismatch     = errors.New("wrong node type")

	ErrNotFound        = db.ErrNotFound
	ErrInvalidArgument = db.ErrInvalidArgument
)
