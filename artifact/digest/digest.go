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

// Package digest computes the content fingerprint of published assemblies.
package digest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/opencontainers/go-digest"
)

// Canonical is the algorithm used when none is configured.
const Canonical = digest.SHA256

// AlgorithmFor returns the digest.Algorithm for the given name. An empty
// name resolves to Canonical.
func AlgorithmFor(name string) (digest.Algorithm, error) {
	if name == "" {
		return Canonical, nil
	}
	algo := digest.Algorithm(name)
	switch algo {
	case digest.SHA256, digest.SHA384, digest.SHA512:
	default:
		return "", fmt.Errorf("unsupported digest algorithm %q", name)
	}
	if !algo.Available() {
		return "", fmt.Errorf("digest algorithm %q is not available", name)
	}
	return algo, nil
}

// Fingerprinter computes the digest of files.
type Fingerprinter struct {
	algo digest.Algorithm
}

// New returns a Fingerprinter for the named algorithm.
func New(algoName string) (*Fingerprinter, error) {
	algo, err := AlgorithmFor(algoName)
	if err != nil {
		return nil, err
	}
	return &Fingerprinter{algo: algo}, nil
}

// Algorithm returns the algorithm of the Fingerprinter.
func (f *Fingerprinter) Algorithm() digest.Algorithm {
	return f.algo
}

// Fingerprint returns the digest of the file at path. Only the file content
// is hashed. It returns an empty digest and no error if the file does not
// exist.
func (f *Fingerprinter) Fingerprint(path string) (digest.Digest, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	defer file.Close()

	d, err := f.algo.FromReader(file)
	if err != nil {
		return "", fmt.Errorf("failed to compute %s digest of %s: %w", f.algo, path, err)
	}
	return d, nil
}
