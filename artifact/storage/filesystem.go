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
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// AtomicWriteFile atomically writes the io.Reader contents to the path of
// the named artifact, replacing any previous version.
func (s Storage) AtomicWriteFile(name string, reader io.Reader, mode os.FileMode) (err error) {
	localPath := s.LocalPath(name)
	if localPath == "" {
		return fmt.Errorf("invalid artifact name %q", name)
	}
	return AtomicWrite(localPath, reader, mode)
}

// CopyFromPath atomically copies the contents of the given path to the path of
// the named artifact.
func (s Storage) CopyFromPath(name string, path string) (err error) {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return s.AtomicWriteFile(name, f, 0o644)
}

// CopyFile copies the file at src to dst, creating the parent directory of
// dst. The copy is written to a temporary file first and renamed into place.
func CopyFile(src, dst string) (err error) {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return err
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", src)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return AtomicWrite(dst, f, fi.Mode().Perm())
}

// AtomicWrite writes the io.Reader contents to a temporary file next to
// localPath and renames it into place with the given mode.
func AtomicWrite(localPath string, reader io.Reader, mode os.FileMode) (err error) {
	dir, name := filepath.Split(localPath)
	if dir == "" {
		dir = "."
	}
	tf, err := os.CreateTemp(dir, name)
	if err != nil {
		return err
	}
	tfName := tf.Name()
	defer func() {
		if err != nil {
			os.Remove(tfName)
		}
	}()

	if _, err := io.Copy(tf, reader); err != nil {
		tf.Close()
		return err
	}
	if err := tf.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tfName, mode); err != nil {
		return err
	}

	return os.Rename(tfName, localPath)
}
