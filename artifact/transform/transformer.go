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
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Transformer turns an assembly into its publicized and stripped form.
type Transformer interface {
	// Name identifies the Transformer in logs.
	Name() string
	// Transform processes the file at path, which it may modify, and
	// returns the path of the result.
	Transform(ctx context.Context, path string) (string, error)
}

// PassThrough is the Transformer used when the tool is unavailable or
// disabled, the input is the output.
type PassThrough struct{}

var _ Transformer = PassThrough{}

func (PassThrough) Name() string { return "pass-through" }

func (PassThrough) Transform(_ context.Context, path string) (string, error) {
	return path, nil
}

// PublicizedSuffix is appended to the base name of the input when the tool
// writes its result next to it.
const PublicizedSuffix = "-publicized"

// ToolError is returned by Tool.Transform when the tool fails.
type ToolError struct {
	// ExitCode of the tool, -1 if it did not exit.
	ExitCode int
	// Output is the combined stdout and stderr of the tool.
	Output string
	Err    error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("publicizer exited with code %d: %v", e.ExitCode, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// Head returns at most n lines of the tool output.
func (e *ToolError) Head(n int) []string {
	return headLines(e.Output, n)
}

// ErrNoOutput is returned when the tool succeeded but its result cannot be found.
var ErrNoOutput = errors.New("publicizer produced no output")

// Tool runs an external publicizer executable as `<path> <input> <args...>`.
type Tool struct {
	// Path of the executable.
	Path string
	// Args follow the input path on the command line.
	Args []string
	// Timeout bounds a single invocation, no limit when zero.
	Timeout time.Duration
}

var _ Transformer = &Tool{}

func (t *Tool) Name() string {
	return filepath.Base(t.Path)
}

// Transform runs the tool against the file at path. The tool may write the
// result in place, or next to the input as '<name>-publicized<ext>', which
// takes precedence.
func (t *Tool) Transform(ctx context.Context, path string) (string, error) {
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	args := append([]string{path}, t.Args...)
	cmd := exec.CommandContext(ctx, t.Path, args...)
	cmd.Dir = filepath.Dir(path)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	// Do not wait on pipes held open by children of a killed tool.
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		return "", &ToolError{ExitCode: code, Output: out.String(), Err: err}
	}

	for _, candidate := range []string{PublicizedPath(path), path} {
		if fi, err := os.Stat(candidate); err == nil && fi.Mode().IsRegular() {
			return candidate, nil
		}
	}
	return "", &ToolError{ExitCode: 0, Output: out.String(), Err: ErrNoOutput}
}

// PublicizedPath returns the path of the sibling file the tool may write
// its result to.
func PublicizedPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + PublicizedSuffix + ext
}

func headLines(s string, n int) []string {
	s = strings.TrimRight(s, "\r\n")
	if s == "" || n <= 0 {
		return nil
	}
	lines := strings.SplitN(s, "\n", n+1)
	if len(lines) > n {
		lines = lines[:n]
	}
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], "\r")
	}
	return lines
}
