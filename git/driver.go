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

package git

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	extgogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-logr/logr"

	"github.com/fluxcd/pkg/gitutil"

	aconfig "github.com/fluxcd/assembly-publisher/artifact/config"
	"github.com/fluxcd/assembly-publisher/runtime/logger"
)

// ChangedArtifact is listed in the commit message.
type ChangedArtifact struct {
	Name string
	// Digest is the hex encoded fingerprint of the published file.
	Digest string
}

// PublishRequest describes what the Driver commits and tags.
type PublishRequest struct {
	Version string
	Tag     string
	// Paths are the files to stage, they must be inside the working tree.
	Paths   []string
	Changes []ChangedArtifact
}

// PublishReport tells which steps of a publish had an effect.
type PublishReport struct {
	// Commit is the hash of the new commit, empty if nothing was staged.
	Commit string
	// TagExisted is true when the tag was already present locally.
	TagExisted bool
	Tagged     bool
	Pushed     bool
}

// Committed tells whether a commit was created.
func (r PublishReport) Committed() bool {
	return r.Commit != ""
}

// CommitError is returned when the changes cannot be staged or committed.
type CommitError struct {
	Err error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit failed: %v", e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// PushError is returned when the push to the remote fails.
type PushError struct {
	Remote string
	// Committed is true when a commit was created locally before the push.
	Committed bool
	Err       error
}

func (e *PushError) Error() string {
	msg := fmt.Sprintf("push to %s failed: %v", e.Remote, e.Err)
	if e.Committed {
		msg += " (a local commit was created)"
	}
	return msg
}

func (e *PushError) Unwrap() error {
	return e.Err
}

// Driver commits the published files, tags the result and pushes both the
// tag and the current branch.
type Driver struct {
	// RepoDir is a path inside the working tree.
	RepoDir string
	Remote  string

	log logr.Logger
}

// NewDriver returns a Driver for the given options.
func NewDriver(opts *aconfig.Options, log logr.Logger) *Driver {
	return &Driver{
		RepoDir: opts.RepoDir,
		Remote:  opts.Remote,
		log:     log,
	}
}

// Publish runs the publish steps in order, stopping at the first error.
// A commit is only created if staging the files changed the index, and an
// existing local tag is kept as is.
func (d *Driver) Publish(ctx context.Context, req PublishRequest) (PublishReport, error) {
	var report PublishReport
	log := d.log.WithValues("tag", req.Tag, "remote", d.Remote)

	repo, err := Open(d.RepoDir)
	if err != nil {
		return report, err
	}

	staged, err := d.stage(repo, req.Paths)
	if err != nil {
		return report, &CommitError{Err: err}
	}

	if staged {
		hash, err := d.commit(repo, CommitMessage(req.Version, req.Changes))
		if err != nil {
			return report, &CommitError{Err: err}
		}
		report.Commit = hash
		log.Info("changes committed", "commit", hash)
	} else {
		log.Info("nothing to commit, working tree matches the published files")
	}

	exists, err := repo.HasTag(req.Tag)
	if err != nil {
		return report, fmt.Errorf("failed to look up tag %s: %w", req.Tag, err)
	}
	if exists {
		report.TagExisted = true
		log.Info("tag already exists locally, skipping")
	} else {
		if err := d.tag(repo, req.Tag, req.Version); err != nil {
			return report, fmt.Errorf("failed to create tag %s: %w", req.Tag, err)
		}
		report.Tagged = true
		log.Info("tag created")
	}

	if err := d.push(ctx, repo, req.Tag); err != nil {
		return report, &PushError{Remote: d.Remote, Committed: report.Committed(), Err: err}
	}
	report.Pushed = true
	log.Info("tag pushed")
	return report, nil
}

// stage adds the files to the index and reports whether the index now
// differs from HEAD.
func (d *Driver) stage(repo *Repository, paths []string) (bool, error) {
	wt, err := repo.repo.Worktree()
	if err != nil {
		return false, err
	}
	root, err := filepath.EvalSymlinks(repo.Root())
	if err != nil {
		return false, err
	}
	for _, p := range paths {
		rel, err := relativeTo(root, p)
		if err != nil {
			return false, err
		}
		if _, err := wt.Add(rel); err != nil {
			return false, fmt.Errorf("cannot stage file %s: %w", rel, err)
		}
		d.log.V(logger.DebugLevel).Info("file staged", "path", rel)
	}

	status, err := wt.Status()
	if err != nil {
		return false, err
	}
	for _, s := range status {
		if s.Staging != extgogit.Unmodified && s.Staging != extgogit.Untracked {
			return true, nil
		}
	}
	return false, nil
}

func (d *Driver) commit(repo *Repository, msg string) (string, error) {
	wt, err := repo.repo.Worktree()
	if err != nil {
		return "", err
	}
	sig := repo.signature()
	hash, err := wt.Commit(msg, &extgogit.CommitOptions{Author: &sig})
	if err != nil {
		return "", err
	}
	return hash.String(), nil
}

func (d *Driver) tag(repo *Repository, tag, ver string) error {
	head, err := repo.Head()
	if err != nil {
		return err
	}
	sig := repo.signature()
	_, err = repo.repo.CreateTag(tag, head.Hash(), &extgogit.CreateTagOptions{
		Tagger:  &sig,
		Message: fmt.Sprintf("Assemblies %s", ver),
	})
	return err
}

func (d *Driver) push(ctx context.Context, repo *Repository, tag string) error {
	authOpts, err := repo.authOptions(d.Remote)
	if err != nil {
		return err
	}
	auth, err := transportAuth(authOpts)
	if err != nil {
		return err
	}
	refSpecs := []config.RefSpec{
		config.RefSpec(fmt.Sprintf("refs/tags/%[1]s:refs/tags/%[1]s", tag)),
	}
	if head, err := repo.Head(); err == nil && head.Name().IsBranch() {
		refSpecs = append(refSpecs, config.RefSpec(fmt.Sprintf("%[1]s:%[1]s", head.Name())))
	}
	err = repo.repo.PushContext(ctx, &extgogit.PushOptions{
		RemoteName: d.Remote,
		RefSpecs:   refSpecs,
		Auth:       auth,
	})
	if errors.Is(err, extgogit.NoErrAlreadyUpToDate) {
		return nil
	}
	return MaskSecrets(gitutil.GoGitError(err), authOpts.secrets()...)
}

// CommitMessage returns the message of a publish commit, the title names
// the version and each changed artifact is listed with a short digest.
func CommitMessage(ver string, changes []ChangedArtifact) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Update assemblies to %s", ver)
	if len(changes) > 0 {
		b.WriteString("\n")
	}
	for _, c := range changes {
		short := c.Digest
		if len(short) > 8 {
			short = short[:8]
		}
		fmt.Fprintf(&b, "\n%s: %s", c.Name, short)
	}
	return b.String()
}

func relativeTo(root, p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside of the working tree %s", p, root)
	}
	return filepath.ToSlash(rel), nil
}
