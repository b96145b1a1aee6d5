/*
Copyright 2026 The Flux authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fluxcd/assembly-publisher/artifact/storage"
)

// Store persists a Ledger between runs.
type Store interface {
	// Load returns the Ledger of the previous run. A missing ledger is an
	// empty Ledger. A ledger that cannot be read is returned as an empty
	// Ledger together with a *CorruptError.
	Load() (Ledger, error)
	// Save replaces the stored Ledger with the given one.
	Save(Ledger) error
}

// CorruptError is returned by Load when the stored ledger cannot be read
// or decoded.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("ledger '%s' is unreadable: %v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error {
	return e.Err
}

// FileStore stores the Ledger as a flat JSON object in a file.
type FileStore struct {
	Path string
}

var _ Store = &FileStore{}

// NewFileStore returns a FileStore for the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load reads the ledger file.
func (s *FileStore) Load() (Ledger, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Ledger{}, nil
		}
		return Ledger{}, &CorruptError{Path: s.Path, Err: err}
	}
	var l Ledger
	if err := json.Unmarshal(data, &l); err != nil {
		return Ledger{}, &CorruptError{Path: s.Path, Err: err}
	}
	if l == nil {
		// The file holds 'null'.
		return Ledger{}, nil
	}
	return l, nil
}

// Save atomically overwrites the ledger file. The keys are written in
// sorted order, so the file content only depends on the Ledger.
func (s *FileStore) Save(l Ledger) error {
	if l == nil {
		l = Ledger{}
	}
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return err
	}
	return storage.AtomicWrite(s.Path, bytes.NewReader(data), 0o644)
}

// MemoryStore keeps the Ledger in memory.
type MemoryStore struct {
	mu     sync.Mutex
	ledger Ledger
	saves  int
}

var _ Store = &MemoryStore{}

// NewMemoryStore returns a MemoryStore holding a copy of the given Ledger.
func NewMemoryStore(initial Ledger) *MemoryStore {
	var l Ledger
	if initial != nil {
		l = initial.Clone()
	}
	return &MemoryStore{ledger: l}
}

// Load returns a copy of the stored Ledger.
func (s *MemoryStore) Load() (Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Clone(), nil
}

// Save stores a copy of the given Ledger.
func (s *MemoryStore) Save(l Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger = l.Clone()
	s.saves++
	return nil
}

// Saves returns the number of times Save was called.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
