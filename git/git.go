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
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	extgogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

const (
	DefaultRemote      = "origin"
	DefaultAuthorName  = "assembly-publisher"
	DefaultAuthorEmail = "assembly-publisher@users.noreply.github.com"
)

var (
	// ErrNotRepository is returned when a path is not inside a Git
	// working tree.
	ErrNotRepository = errors.New("not a git repository")
	// ErrNoRemote is returned when the named remote is not configured.
	ErrNoRemote = errors.New("remote not configured")
)

// Repository is a Git working tree opened with go-git.
type Repository struct {
	repo *extgogit.Repository
	root string
	// Getenv looks up the credentials of the remotes.
	Getenv func(string) string
}

// Open opens the repository containing path, walking up to the parent
// directories until a .git is found.
func Open(path string) (*Repository, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	repo, err := extgogit.PlainOpenWithOptions(abs, &extgogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, extgogit.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", ErrNotRepository, abs)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrNotRepository, abs, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNotRepository, abs, err)
	}
	return &Repository{repo: repo, root: wt.Filesystem.Root(), Getenv: os.Getenv}, nil
}

// Root returns the root directory of the working tree.
func (r *Repository) Root() string {
	return r.root
}

// RemoteURL returns the first URL of the named remote.
func (r *Repository) RemoteURL(name string) (string, error) {
	rem, err := r.repo.Remote(name)
	if err != nil {
		if errors.Is(err, extgogit.ErrRemoteNotFound) {
			return "", fmt.Errorf("%w: %s", ErrNoRemote, name)
		}
		return "", err
	}
	urls := rem.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("%w: %s has no URL", ErrNoRemote, name)
	}
	return urls[0], nil
}

// ListRemoteTags returns the short names of the tags advertised by the
// named remote. An empty remote has no tags.
func (r *Repository) ListRemoteTags(ctx context.Context, remote string) ([]string, error) {
	rem, err := r.repo.Remote(remote)
	if err != nil {
		if errors.Is(err, extgogit.ErrRemoteNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNoRemote, remote)
		}
		return nil, err
	}
	authOpts, err := r.authOptions(remote)
	if err != nil {
		return nil, err
	}
	auth, err := transportAuth(authOpts)
	if err != nil {
		return nil, err
	}
	refs, err := rem.ListContext(ctx, &extgogit.ListOptions{Auth: auth})
	if err != nil {
		if errors.Is(err, transport.ErrEmptyRemoteRepository) {
			return nil, nil
		}
		return nil, MaskSecrets(err, authOpts.secrets()...)
	}
	var tags []string
	for _, ref := range refs {
		if !ref.Name().IsTag() {
			continue
		}
		name := strings.TrimSuffix(ref.Name().Short(), "^{}")
		if !slices.Contains(tags, name) {
			tags = append(tags, name)
		}
	}
	slices.Sort(tags)
	return tags, nil
}

// HasTag tells whether the tag exists in the local repository.
func (r *Repository) HasTag(name string) (bool, error) {
	_, err := r.repo.Tag(name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, extgogit.ErrTagNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Head returns the reference HEAD points to.
func (r *Repository) Head() (*plumbing.Reference, error) {
	return r.repo.Head()
}

// signature returns the identity used for commits and tags, taken from the
// GIT_AUTHOR_* variables, then the Git configuration.
func (r *Repository) signature() object.Signature {
	sig := object.Signature{Name: DefaultAuthorName, Email: DefaultAuthorEmail, When: time.Now()}
	if cfg, err := r.repo.ConfigScoped(config.GlobalScope); err == nil {
		if cfg.User.Name != "" {
			sig.Name = cfg.User.Name
		}
		if cfg.User.Email != "" {
			sig.Email = cfg.User.Email
		}
	}
	if v := r.getenv("GIT_AUTHOR_NAME"); v != "" {
		sig.Name = v
	}
	if v := r.getenv("GIT_AUTHOR_EMAIL"); v != "" {
		sig.Email = v
	}
	return sig
}

func (r *Repository) authOptions(remote string) (*AuthOptions, error) {
	u, err := r.RemoteURL(remote)
	if err != nil {
		return nil, err
	}
	opts, err := AuthOptionsFromEnv(u, r.getenv)
	if err != nil {
		return nil, fmt.Errorf("failed to construct auth options for remote %s: %w", remote, err)
	}
	return opts, nil
}

func (r *Repository) getenv(key string) string {
	if r.Getenv == nil {
		return ""
	}
	return r.Getenv(key)
}
