/*
Copyright 2025 The Flux authors

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

package storage

import (
	"context"
	"errors"
	"fmt"
	"os"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/fluxcd/pkg/lockedfile"
)

// ErrLocked is returned by Lock when the lock could not be acquired
// before the context was done.
var ErrLocked = errors.New("lock is held by another run")

// Storage manages the published assemblies on the local filesystem.
type Storage struct {
	// BasePath is the local directory path where the assemblies are published.
	BasePath string
}

// New creates the storage helper for the given output directory,
// creating the directory if needed.
func New(basePath string) (*Storage, error) {
	if basePath == "" {
		return nil, fmt.Errorf("output dir cannot be empty")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	if f, err := os.Stat(basePath); err != nil || !f.IsDir() {
		return nil, fmt.Errorf("invalid dir path: %s", basePath)
	}
	return &Storage{BasePath: basePath}, nil
}

// LocalPath returns the secure local path of the named artifact
// (that is: relative to the Storage.BasePath).
func (s Storage) LocalPath(name string) string {
	if name == "" {
		return ""
	}
	p, err := securejoin.SecureJoin(s.BasePath, name)
	if err != nil {
		return ""
	}
	return p
}

// ArtifactExist returns a boolean indicating whether the named artifact
// exists in storage and is a regular file.
func (s Storage) ArtifactExist(name string) bool {
	fi, err := os.Lstat(s.LocalPath(name))
	if err != nil {
		return false
	}
	return fi.Mode().IsRegular()
}

// Lock acquires the file lock at path. It blocks until the lock is free or
// the context is done, in which case ErrLocked is returned.
func Lock(ctx context.Context, path string) (unlock func(), err error) {
	type result struct {
		unlock func()
		err    error
	}
	ch := make(chan result, 1)
	mutex := lockedfile.MutexAt(path)
	go func() {
		u, err := mutex.Lock()
		ch <- result{unlock: u, err: err}
	}()

	select {
	case r := <-ch:
		return r.unlock, r.err
	case <-ctx.Done():
		// Release the lock as soon as the pending acquisition completes.
		go func() {
			if r := <-ch; r.err == nil {
				r.unlock()
			}
		}()
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
}
