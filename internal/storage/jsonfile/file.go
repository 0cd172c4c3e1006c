// Package jsonfile persists a single JSON document per file. Writers to the
// same path are serialized within the process and every write goes through a
// temp file plus rename so readers never observe a partial document.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	secureFilePermissions      = 0600
	secureDirectoryPermissions = 0700
)

// locks holds one mutex per absolute path, shared by every File opened on it.
var locks sync.Map

func lockFor(path string) *sync.Mutex {
	mu, _ := locks.LoadOrStore(path, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// File is a JSON document of type T stored at a fixed path.
type File[T any] struct {
	path  string
	mu    *sync.Mutex
	empty func() T
}

// New opens the document name inside dir. empty builds the value returned
// when the file does not exist yet.
func New[T any](dir, name string, empty func() T) *File[T] {
	path := filepath.Join(dir, name)
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return &File[T]{
		path:  path,
		mu:    lockFor(path),
		empty: empty,
	}
}

func (f *File[T]) Path() string {
	return f.path
}

// Read returns the current document.
func (f *File[T]) Read(ctx context.Context) (T, error) {
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	return f.load()
}

// Update runs fn on the current document under the file lock and persists the
// result. Nothing is written when fn returns an error.
func (f *File[T]) Update(ctx context.Context, fn func(doc *T) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return err
	}

	if err := fn(&doc); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return f.save(doc)
}

// Write replaces the document.
func (f *File[T]) Write(ctx context.Context, doc T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	return f.save(doc)
}

// Exists reports whether the document has been written at least once.
func (f *File[T]) Exists() bool {
	_, err := os.Stat(f.path)
	return err == nil
}

func (f *File[T]) load() (T, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return f.empty(), nil
	}
	if err != nil {
		var zero T
		return zero, fmt.Errorf("failed to read %s: %w", filepath.Base(f.path), err)
	}

	doc := f.empty()
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		var zero T
		return zero, fmt.Errorf("failed to parse %s: %w", filepath.Base(f.path), err)
	}
	return doc, nil
}

func (f *File[T]) save(doc T) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(f.path), err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), secureDirectoryPermissions); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	return atomicWriteFile(f.path, data, secureFilePermissions)
}

// atomicWriteFile writes data to a sibling temp file, syncs it and renames it over path.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	committed := false
	defer func() {
		if !committed {
			tmpFile.Close()
			os.Remove(tmpPath)
		}
	}()

	if err := tmpFile.Chmod(perm); err != nil {
		return fmt.Errorf("failed to set temp file permissions: %w", err)
	}
	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	committed = true
	return nil
}
