// Package blobstore abstracts artifact storage for generated datasets.
// Exporters write binary relation files, text mirrors and report sidecars
// through a BlobStore so the same pipeline can target a local directory or
// an S3-compatible object store.
package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a named artifact does not exist.
//
// Implementations return errors satisfying errors.Is(err, ErrNotFound).
// The default maps to os.ErrNotExist.
var ErrNotFound = os.ErrNotExist

// BlobStore stores immutable dataset artifacts under slash-separated names.
type BlobStore interface {
	// Put writes data under name, replacing any existing artifact.
	Put(ctx context.Context, name string, data io.Reader, size int64) error
	// Open opens an artifact for sequential reading.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// List returns the names under prefix in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)
	// Delete removes an artifact. Deleting a missing artifact is not an
	// error.
	Delete(ctx context.Context, name string) error
}
