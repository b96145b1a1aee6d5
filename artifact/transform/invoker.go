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
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"

	"github.com/fluxcd/assembly-publisher/artifact/config"
	"github.com/fluxcd/assembly-publisher/artifact/storage"
)

// DefaultOutputLines is the number of tool output lines logged on failure.
const DefaultOutputLines = 20

const (
	stageBaseline = "baseline"
	stageWork     = "work"
)

// Mode tells how an artifact was produced.
type Mode string

const (
	// ModeTransformed means the tool output was published.
	ModeTransformed Mode = "transformed"
	// ModePassThrough means the source was published verbatim by choice.
	ModePassThrough Mode = "pass-through"
	// ModeFallback means the tool failed and the source was published verbatim.
	ModeFallback Mode = "fallback"
	// ModeSkipped means the source does not exist and nothing was published.
	ModeSkipped Mode = "skipped"
)

// Outcome is the result of processing one artifact.
type Outcome struct {
	Artifact config.Artifact
	Mode     Mode
	// SourcePath is the path of the source file.
	SourcePath string
	// PublishedPath is empty when the artifact was skipped.
	PublishedPath string
	// Warning is the recoverable error behind a fallback.
	Warning error
}

// Invoker copies an artifact into the workspace, transforms it and
// publishes the result to the storage.
type Invoker struct {
	Storage   *storage.Storage
	Workspace *storage.Workspace
	// Transformer is applied to artifacts requiring a transform, nil
	// means PassThrough.
	Transformer Transformer
	// SkipTransform publishes every artifact verbatim.
	SkipTransform bool
	// OutputLines is the number of tool output lines logged on failure.
	OutputLines int

	log logr.Logger
}

// NewInvoker returns an Invoker.
func NewInvoker(s *storage.Storage, ws *storage.Workspace, t Transformer, skipTransform bool, log logr.Logger) *Invoker {
	return &Invoker{
		Storage:       s,
		Workspace:     ws,
		Transformer:   t,
		SkipTransform: skipTransform,
		OutputLines:   DefaultOutputLines,
		log:           log,
	}
}

// Process publishes the given artifact found in sourceDir. A failing
// transform falls back to the untouched source and is reported through
// Outcome.Warning, errors are only returned for I/O failures of the
// workspace or the storage.
func (i *Invoker) Process(ctx context.Context, artifact config.Artifact, sourceDir string) (Outcome, error) {
	log := i.log.WithValues("artifact", artifact.Name)
	out := Outcome{
		Artifact:   artifact,
		SourcePath: filepath.Join(sourceDir, artifact.Name),
	}

	if _, err := os.Stat(out.SourcePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Info("source assembly not found, skipping", "path", out.SourcePath)
			if i.Storage.ArtifactExist(artifact.Name) {
				log.Info("keeping the previously published assembly", "path", i.Storage.LocalPath(artifact.Name))
			}
			out.Mode = ModeSkipped
			return out, nil
		}
		return out, fmt.Errorf("failed to stat source %s: %w", out.SourcePath, err)
	}

	baseline, err := i.Workspace.CopyIn(stageBaseline, artifact.Name, out.SourcePath)
	if err != nil {
		return out, err
	}

	t := i.transformerFor(artifact)
	chosen := baseline
	out.Mode = ModePassThrough
	if _, ok := t.(PassThrough); !ok {
		work, err := i.Workspace.CopyIn(stageWork, artifact.Name, out.SourcePath)
		if err != nil {
			return out, err
		}
		result, err := t.Transform(ctx, work)
		if err != nil {
			out.Mode = ModeFallback
			out.Warning = err
			i.logFailure(log, t, err)
		} else {
			chosen = result
			out.Mode = ModeTransformed
		}
	}

	if err := i.Storage.CopyFromPath(artifact.Name, chosen); err != nil {
		return out, fmt.Errorf("failed to publish %s: %w", artifact.Name, err)
	}
	out.PublishedPath = i.Storage.LocalPath(artifact.Name)
	log.Info("assembly published", "mode", string(out.Mode), "path", out.PublishedPath)
	return out, nil
}

func (i *Invoker) transformerFor(artifact config.Artifact) Transformer {
	if i.SkipTransform || !artifact.RequiresTransform || i.Transformer == nil {
		return PassThrough{}
	}
	return i.Transformer
}

func (i *Invoker) logFailure(log logr.Logger, t Transformer, err error) {
	log.Info("publicizer failed, publishing the original assembly", "tool", t.Name(), "error", err.Error())
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		for _, line := range toolErr.Head(i.OutputLines) {
			log.Info("publicizer output", "line", line)
		}
	}
}
