// Annotato - Collaborative Project Annotation Backend
// Copyright 2026 Annotato Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/annotato/annotato

// Package storage persists uploaded file blobs on disk. Blobs are stored
// flat under the data directory with server-generated UUID names; the
// client-supplied filename only survives in the database record.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// BlobStore reads and writes uploaded file blobs under a single directory.
type BlobStore struct {
	dir string
}

// NewBlobStore creates the data directory if needed and returns a store.
func NewBlobStore(dir string) (*BlobStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
	}
	return &BlobStore{dir: dir}, nil
}

// Save writes the blob to a new UUID-named file, keeping the original
// extension, and returns the stored name.
func (s *BlobStore) Save(r io.Reader, originalFilename string) (string, error) {
	name := uuid.New().String() + filepath.Ext(originalFilename)

	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("failed to create blob %s: %w", name, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to write blob %s: %w", name, err)
	}
	return name, nil
}

// Open opens a stored blob for reading. The name is sanitized so a crafted
// path cannot escape the data directory.
func (s *BlobStore) Open(name string) (*os.File, error) {
	f, err := os.Open(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil {
		return nil, fmt.Errorf("failed to open blob %s: %w", name, err)
	}
	return f, nil
}

// Remove deletes a stored blob. Removing a missing blob is an error.
func (s *BlobStore) Remove(name string) error {
	if err := os.Remove(filepath.Join(s.dir, filepath.Base(name))); err != nil {
		return fmt.Errorf("failed to remove blob %s: %w", name, err)
	}
	return nil
}
