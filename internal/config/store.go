// Package config persists the per-challenge configuration document.
//
// A Store is bound to one document path. The document is read lazily on first
// access and rewritten in full on every mutation; the on-disk copy and the cached
// copy never diverge once Set returns.
//
// There is no cross-process locking: one writer per challenge directory is the
// caller's responsibility.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	// ErrNotFound is returned when the document does not exist on disk.
	ErrNotFound = errors.New("config document not found")
	// ErrKeyNotFound is returned by Get for a key the document does not hold.
	ErrKeyNotFound = errors.New("config key not found")
	// ErrInvalid wraps parse failures of an existing document and documents
	// that cannot be encoded.
	ErrInvalid = errors.New("invalid config document")
	// ErrIO matches every *WriteError.
	ErrIO = errors.New("config write failed")
)

// WriteError reports a failed persistence step. The previous document is left intact.
type WriteError struct {
	Path string
	Op   string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("config %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrIO) true for any WriteError.
func (e *WriteError) Is(target error) bool { return target == ErrIO }

// Store is the lazily loaded configuration document of one challenge.
type Store struct {
	path string

	mu     sync.Mutex
	doc    Document
	loaded bool
}

// New returns a Store for the document at path. Nothing is read until first use.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the document location.
func (s *Store) Path() string { return s.path }

// Exists reports whether the document file is present on disk.
func (s *Store) Exists() bool {
	info, err := os.Stat(s.path)
	return err == nil && info.Mode().IsRegular()
}

// Load reads the document, caching the first successful result.
func (s *Store) Load() (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return Document{}, err
	}
	return s.doc.Clone(), nil
}

// Document is an alias of Load for callers reading the whole mapping.
func (s *Store) Document() (Document, error) {
	return s.Load()
}

// Get returns the value stored under key.
func (s *Store) Get(key string) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return nil, err
	}
	v, ok := s.doc.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q in %s", ErrKeyNotFound, key, s.path)
	}
	return v, nil
}

// Set replaces the whole document and persists it atomically.
// The cache is only updated once the new document is durable on disk.
func (s *Store) Set(doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLocked(doc)
}

// Update loads the document, applies fn to a copy and writes the full result back.
func (s *Store) Update(fn func(*Document)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return err
	}
	doc := s.doc.Clone()
	fn(&doc)
	return s.setLocked(doc)
}

func (s *Store) loadLocked() error {
	if s.loaded {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		return fmt.Errorf("read config: %w", err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, s.path, err)
	}
	if len(doc.Extra) == 0 {
		doc.Extra = nil
	}
	s.doc = doc
	s.loaded = true
	return nil
}

func (s *Store) setLocked(doc Document) error {
	doc = doc.Clone()
	if err := normalize(&doc); err != nil {
		return err
	}
	data, err := yaml.Marshal(encodable(doc))
	if err != nil {
		return &WriteError{Path: s.path, Op: "marshal", Err: err}
	}
	if err := writeFileAtomic(s.path, data, 0o644); err != nil {
		return err
	}
	s.doc = doc
	s.loaded = true
	return nil
}

// writeFileAtomic writes data to a temp file next to path, syncs it and renames it
// into place, so readers see either the old or the new document.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return &WriteError{Path: path, Op: "create temp", Err: err}
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return &WriteError{Path: path, Op: "write", Err: err}
	}
	if err := tmp.Chmod(perm); err != nil {
		return &WriteError{Path: path, Op: "chmod", Err: err}
	}
	if err := tmp.Sync(); err != nil {
		return &WriteError{Path: path, Op: "sync", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &WriteError{Path: path, Op: "close", Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return &WriteError{Path: path, Op: "rename", Err: err}
	}
	committed = true
	return nil
}
