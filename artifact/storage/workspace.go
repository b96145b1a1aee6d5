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

package storage

import (
	"fmt"
	"os"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"
)

// Workspace is a temporary directory owned by a single run. It must be
// closed on every exit path.
type Workspace struct {
	dir string
}

// NewWorkspace creates a Workspace under parent, or under the system temp
// directory when parent is empty.
func NewWorkspace(parent string) (*Workspace, error) {
	if parent != "" {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create work dir parent: %w", err)
		}
	}
	dir, err := os.MkdirTemp(parent, "assemblies-")
	if err != nil {
		return nil, fmt.Errorf("failed to create work dir: %w", err)
	}
	return &Workspace{dir: dir}, nil
}

// Dir returns the root of the Workspace.
func (w *Workspace) Dir() string {
	return w.dir
}

// Path returns the path of the named file in the given stage directory.
func (w *Workspace) Path(stage, name string) (string, error) {
	return securejoin.SecureJoin(w.dir, filepath.Join(stage, name))
}

// CopyIn copies the file at src into the stage directory under the given
// name and returns its path.
func (w *Workspace) CopyIn(stage, name, src string) (string, error) {
	dst, err := w.Path(stage, name)
	if err != nil {
		return "", err
	}
	if err := CopyFile(src, dst); err != nil {
		return "", fmt.Errorf("failed to copy %s to the work dir: %w", src, err)
	}
	return dst, nil
}

// Close removes the Workspace and everything in it.
func (w *Workspace) Close() error {
	if w.dir == "" {
		return nil
	}
	err := os.RemoveAll(w.dir)
	w.dir = ""
	return err
}
