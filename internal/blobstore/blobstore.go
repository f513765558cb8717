// Package blobstore hands the recognition pipeline a local filesystem path
// for an opaque audio blob, and a cleanup func the caller must always
// invoke (spec.md §4.H step 6: "always delete path on exit").
package blobstore

import (
	"context"
	"fmt"
	"os"
)

// Store resolves an opaque blob id to a local path. The returned cleanup
// removes whatever temporary resources Open created; it is safe to call
// multiple times.
type Store interface {
	Open(ctx context.Context, id string) (path string, cleanup func(), err error)
}

// LocalDisk is the reference Store: blob ids are file names under Dir.
// No upload handling, no multipart parsing, no validation of the encoded
// container format — that is the audio decode boundary's job.
type LocalDisk struct {
	Dir string
}

func NewLocalDisk(dir string) *LocalDisk {
	return &LocalDisk{Dir: dir}
}

func (l *LocalDisk) Open(ctx context.Context, id string) (string, func(), error) {
	path := l.Dir + string(os.PathSeparator) + id
	if _, err := os.Stat(path); err != nil {
		return "", func() {}, fmt.Errorf("blobstore: %s: %w", id, err)
	}
	cleanup := func() { _ = os.Remove(path) }
	return path, cleanup, nil
}
