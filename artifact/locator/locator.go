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

// Package locator resolves the directory holding the source assemblies of
// a game install.
package locator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"

	"github.com/fluxcd/assembly-publisher/artifact/config"
	"github.com/fluxcd/assembly-publisher/runtime/logger"
)

// NotFoundError is returned when no install root could be resolved.
type NotFoundError struct {
	// Probed lists every path that was tried.
	Probed []string
}

func (e *NotFoundError) Error() string {
	if len(e.Probed) == 0 {
		return "source root not found: no source dir or candidate roots configured"
	}
	return fmt.Sprintf("source root not found, probed: %s", strings.Join(e.Probed, ", "))
}

// MissingSubdirError is returned when the resolved root does not contain
// the required subdirectory.
type MissingSubdirError struct {
	Root   string
	Subdir string
}

func (e *MissingSubdirError) Error() string {
	return fmt.Sprintf("required directory '%s' not found under '%s'", e.Subdir, e.Root)
}

// Locator resolves the source directory of the assemblies.
type Locator struct {
	// CandidateRoots are probed in order when no explicit path is given.
	CandidateRoots []string
	// RequiredSubdir must exist under the resolved root.
	RequiredSubdir string

	log logr.Logger
}

// New returns a Locator for the given options.
func New(opts *config.Options, log logr.Logger) *Locator {
	return &Locator{
		CandidateRoots: opts.GetCandidateRoots(),
		RequiredSubdir: opts.GetRequiredSubdir(),
		log:            log,
	}
}

// Locate returns the directory holding the assemblies. An explicit path is
// used as is when it exists. It may point either at the install root or
// directly at the required subdirectory. A missing explicit path falls back
// to probing the candidate roots.
func (l *Locator) Locate(explicitPath string) (string, error) {
	root, explicit, err := l.resolveRoot(explicitPath)
	if err != nil {
		return "", err
	}

	if l.RequiredSubdir == "" {
		return root, nil
	}
	sub := filepath.Join(root, l.RequiredSubdir)
	if isDir(sub) {
		return sub, nil
	}
	// The explicit path may already be the managed directory.
	if explicit && strings.EqualFold(filepath.Base(root), filepath.Base(l.RequiredSubdir)) {
		return root, nil
	}
	return "", &MissingSubdirError{Root: root, Subdir: l.RequiredSubdir}
}

// resolveRoot returns the install root and whether it is the explicit path.
func (l *Locator) resolveRoot(explicitPath string) (string, bool, error) {
	probed := make([]string, 0, len(l.CandidateRoots)+1)
	if explicitPath != "" {
		p := config.ExpandPath(explicitPath)
		if isDir(p) {
			l.log.V(logger.DebugLevel).Info("using explicit source dir", "path", p)
			return p, true, nil
		}
		probed = append(probed, p)
		l.log.Info("source dir not found, probing the candidate roots", "path", p)
	}

	for _, c := range l.CandidateRoots {
		p := config.ExpandPath(c)
		probed = append(probed, p)
		if isDir(p) {
			l.log.V(logger.DebugLevel).Info("found source root", "path", p)
			return p, false, nil
		}
	}
	return "", false, &NotFoundError{Probed: probed}
}

func isDir(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.IsDir()
}
