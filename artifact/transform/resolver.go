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

package transform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/fluxcd/assembly-publisher/artifact/config"
)

// ErrToolNotFound is returned by Resolve when the tool cannot be found,
// even after installing it.
var ErrToolNotFound = errors.New("publicizer not found")

const installTimeout = 5 * time.Minute

// Resolver finds the publicizer executable, installing it once when missing.
type Resolver struct {
	// Tool is the name or path of the executable.
	Tool string
	// InstallCommand is run when the tool is missing, empty to disable.
	InstallCommand string
	// SearchDirs are checked after PATH.
	SearchDirs []string

	log logr.Logger

	once       sync.Once
	installErr error
}

// NewResolver returns a Resolver for the given options. The dotnet global
// tools directory is searched after PATH.
func NewResolver(opts *config.Options, log logr.Logger) *Resolver {
	r := &Resolver{
		Tool:           opts.Tool,
		InstallCommand: opts.ToolInstallCommand,
		log:            log,
	}
	if home, err := os.UserHomeDir(); err == nil {
		r.SearchDirs = append(r.SearchDirs, filepath.Join(home, ".dotnet", "tools"))
	}
	return r
}

// Resolve returns the path of the tool.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	if p, ok := r.find(); ok {
		return p, nil
	}
	if strings.TrimSpace(r.InstallCommand) == "" {
		return "", fmt.Errorf("%w: %s", ErrToolNotFound, r.Tool)
	}

	r.once.Do(func() {
		r.installErr = r.install(ctx)
	})
	if r.installErr != nil {
		return "", fmt.Errorf("%w: %s: install failed: %w", ErrToolNotFound, r.Tool, r.installErr)
	}
	if p, ok := r.find(); ok {
		return p, nil
	}
	return "", fmt.Errorf("%w: %s: not found after install", ErrToolNotFound, r.Tool)
}

// Transformer returns a Tool for the resolved executable, or PassThrough
// when it cannot be resolved.
func (r *Resolver) Transformer(ctx context.Context, args []string, timeout time.Duration) Transformer {
	p, err := r.Resolve(ctx)
	if err != nil {
		r.log.Info("publicizer unavailable, assemblies are published verbatim", "error", err.Error())
		return PassThrough{}
	}
	r.log.Info("using publicizer", "path", p)
	return &Tool{Path: p, Args: args, Timeout: timeout}
}

func (r *Resolver) find() (string, bool) {
	if r.Tool == "" {
		return "", false
	}
	if strings.ContainsAny(r.Tool, `/\`) {
		return r.Tool, isExecutable(r.Tool)
	}
	if p, err := exec.LookPath(r.Tool); err == nil {
		return p, true
	}
	for _, dir := range r.SearchDirs {
		for _, name := range executableNames(r.Tool) {
			p := filepath.Join(dir, name)
			if isExecutable(p) {
				return p, true
			}
		}
	}
	return "", false
}

func (r *Resolver) install(ctx context.Context) error {
	args := strings.Fields(r.InstallCommand)
	r.log.Info("installing publicizer", "command", r.InstallCommand)

	ctx, cancel := context.WithTimeout(ctx, installTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, args[0], args[1:]...).CombinedOutput()
	if err != nil {
		for _, line := range headLines(string(out), DefaultOutputLines) {
			r.log.Info("install output", "line", line)
		}
		return err
	}
	return nil
}

func executableNames(name string) []string {
	if runtime.GOOS == "windows" && filepath.Ext(name) == "" {
		return []string{name + ".exe", name}
	}
	return []string{name}
}

func isExecutable(p string) bool {
	fi, err := os.Stat(p)
	if err != nil || !fi.Mode().IsRegular() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return fi.Mode().Perm()&0o111 != 0
}
