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

package pipeline

import (
	"fmt"
	"io"

	"github.com/opencontainers/go-digest"

	"github.com/fluxcd/assembly-publisher/artifact/ledger"
	"github.com/fluxcd/assembly-publisher/artifact/transform"
	"github.com/fluxcd/assembly-publisher/git"
)

// Status is the overall outcome of a run.
type Status string

const (
	// StatusAlreadyPublished means the publish tag exists on the remote and
	// nothing was processed.
	StatusAlreadyPublished Status = "already published"
	StatusUnchanged        Status = "unchanged"
	// StatusChanged means the assemblies changed but were not published.
	StatusChanged   Status = "changed"
	StatusPublished Status = "published"
)

// ArtifactResult is the outcome of one assembly.
type ArtifactResult struct {
	transform.Outcome
	// Digest is empty for skipped assemblies.
	Digest digest.Digest
	// Change is empty for skipped assemblies.
	Change ledger.Change
}

// Result describes a run.
type Result struct {
	Version   string
	Tag       string
	Decision  git.Decision
	SourceDir string
	// Algorithm is the digest algorithm of the fingerprints.
	Algorithm digest.Algorithm
	Artifacts []ArtifactResult
	Verdict   ledger.Verdict
	// Publish is nil unless the Driver ran.
	Publish *git.PublishReport
	Status  Status
}

// PrintSummary writes one line per assembly and an overall status line.
func (r *Result) PrintSummary(w io.Writer) {
	for _, a := range r.Artifacts {
		if a.Mode == transform.ModeSkipped {
			fmt.Fprintf(w, "%s: skipped (source not found)\n", a.Artifact.Name)
			continue
		}
		line := fmt.Sprintf("%s: processed (%s), %s", a.Artifact.Name, a.Mode, a.Change)
		if a.Digest != "" {
			line += fmt.Sprintf(" %s:%s", a.Digest.Algorithm(), shortHash(a.Digest.Encoded(), 8))
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w, r.statusLine())
}

func (r *Result) statusLine() string {
	switch r.Status {
	case StatusAlreadyPublished:
		return fmt.Sprintf("status: %s is already published, nothing to do", r.Tag)
	case StatusUnchanged:
		return "status: assemblies unchanged, nothing to publish"
	case StatusChanged:
		return fmt.Sprintf("status: %d assemblies changed, not published", len(r.Verdict.ChangedNames()))
	case StatusPublished:
		line := fmt.Sprintf("status: published %s", r.Tag)
		if r.Publish != nil {
			if r.Publish.Committed() {
				line += fmt.Sprintf(" (commit %s)", shortHash(r.Publish.Commit, 7))
			} else {
				line += " (no new commit)"
			}
		}
		return line
	default:
		return "status: failed"
	}
}

func shortHash(h string, n int) string {
	if len(h) > n {
		return h[:n]
	}
	return h
}
