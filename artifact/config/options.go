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

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fluxcd/assembly-publisher/artifact/digest"
	"github.com/fluxcd/assembly-publisher/version"
)

// Artifact describes one assembly the pipeline processes.
type Artifact struct {
	// Name is the file name of the assembly, e.g. "Assembly-CSharp.dll".
	Name string `json:"name" toml:"name"`

	// RequiresTransform tells whether the assembly is run through the
	// publicizer tool, or published verbatim.
	RequiresTransform bool `json:"requiresTransform" toml:"requiresTransform"`
}

// Options contains configuration settings for a pipeline run.
type Options struct {
	// Version is the version being published, it names the publish tag.
	Version string `json:"version"`

	// SourceDir is an explicit location of the game install, it takes
	// precedence over CandidateRoots.
	SourceDir string `json:"sourceDir"`

	// Game is the install directory name of the game under a Steam library.
	Game string `json:"game"`

	// CandidateRoots are probed in order when SourceDir is not set.
	// When empty, DefaultCandidateRoots(Game) is used.
	CandidateRoots []string `json:"candidateRoots"`

	// RequiredSubdir is the directory under the install root holding the
	// assemblies. When empty, "<Game>_Data/Managed" is used.
	RequiredSubdir string `json:"requiredSubdir"`

	// Artifacts is the set of assemblies processed by a run.
	Artifacts []Artifact `json:"artifacts"`

	// OutputDir is the published location of the processed assemblies.
	OutputDir string `json:"outputDir"`

	// LedgerPath is the path of the JSON file recording the digest of each
	// published assembly.
	LedgerPath string `json:"ledgerPath"`

	// WorkDir is the parent of the temporary working directory, the system
	// temp dir when empty.
	WorkDir string `json:"workDir"`

	// RepoDir is a path inside the Git working tree the results are
	// committed to.
	RepoDir string `json:"repoDir"`

	// Remote is the name of the Git remote queried and pushed to.
	Remote string `json:"remote"`

	// TagPrefix is prepended to Version to form the publish tag.
	TagPrefix string `json:"tagPrefix"`

	// Tool is the name or path of the publicizer executable.
	Tool string `json:"tool"`

	// ToolArgs are passed to the tool after the input path.
	ToolArgs []string `json:"toolArgs"`

	// ToolTimeout bounds a single tool invocation.
	ToolTimeout time.Duration `json:"toolTimeout"`

	// ToolInstallCommand is run once when the tool cannot be found.
	// An empty value disables installation.
	ToolInstallCommand string `json:"toolInstallCommand"`

	// DigestAlgo is the hashing algorithm used to fingerprint assemblies.
	DigestAlgo string `json:"digestAlgo"`

	// SkipTransform publishes every assembly verbatim.
	SkipTransform bool `json:"skipTransform"`

	// Force skips the duplicate publish check.
	Force bool `json:"force"`

	// AutoPublish commits, tags and pushes the results when they changed.
	AutoPublish bool `json:"autoPublish"`

	// StrictRemoteCheck turns a failed remote tag query into an error
	// instead of proceeding.
	StrictRemoteCheck bool `json:"strictRemoteCheck"`

	// LockTimeout bounds the wait for another run to release the ledger lock.
	LockTimeout time.Duration `json:"lockTimeout"`
	// ConfigFile is the optional YAML or TOML file the options were read from.
	ConfigFile string `json:"-"`
}

// DefaultArtifacts are the assemblies processed when none are configured.
func DefaultArtifacts() []Artifact {
	return []Artifact{
		{Name: "Assembly-CSharp.dll", RequiresTransform: true},
		{Name: "Assembly-CSharp-firstpass.dll", RequiresTransform: true},
	}
}

// DefaultCandidateRoots returns the usual Steam library locations of the
// given game, for Windows, Linux and macOS.
func DefaultCandidateRoots(game string) []string {
	return []string{
		filepath.Join(`C:\Program Files (x86)\Steam\steamapps\common`, game),
		filepath.Join(`C:\Program Files\Steam\steamapps\common`, game),
		filepath.Join("~", ".steam", "steam", "steamapps", "common", game),
		filepath.Join("~", ".local", "share", "Steam", "steamapps", "common", game),
		filepath.Join("~", "Library", "Application Support", "Steam", "steamapps", "common", game),
	}
}

// GetCandidateRoots returns the configured candidate roots, or the defaults
// for the configured game.
func (o *Options) GetCandidateRoots() []string {
	if len(o.CandidateRoots) > 0 {
		return o.CandidateRoots
	}
	if o.Game == "" {
		return nil
	}
	return DefaultCandidateRoots(o.Game)
}

// GetRequiredSubdir returns the directory holding the assemblies relative
// to the install root.
func (o *Options) GetRequiredSubdir() string {
	if o.RequiredSubdir != "" {
		return o.RequiredSubdir
	}
	if o.Game == "" {
		return "Managed"
	}
	return filepath.Join(o.Game+"_Data", "Managed")
}

// GetArtifacts returns the configured artifacts, or DefaultArtifacts.
func (o *Options) GetArtifacts() []Artifact {
	if len(o.Artifacts) > 0 {
		return o.Artifacts
	}
	return DefaultArtifacts()
}

// GetTag returns the publish tag for the configured version, or an empty
// string if no version is set.
func (o *Options) GetTag() string {
	if o.Version == "" {
		return ""
	}
	return version.TagName(o.TagPrefix, o.Version)
}

// Validate checks the options for consistency.
func (o *Options) Validate() error {
	var errs []error

	if o.Version != "" {
		if _, err := version.ParseVersion(o.Version); err != nil {
			errs = append(errs, fmt.Errorf("invalid version %q: %w", o.Version, err))
		}
	}
	if o.AutoPublish && o.Version == "" {
		errs = append(errs, errors.New("a version is required to publish"))
	}
	if o.TagPrefix == "" {
		errs = append(errs, errors.New("tag prefix cannot be empty"))
	}
	if o.OutputDir == "" {
		errs = append(errs, errors.New("output dir cannot be empty"))
	}
	if o.LedgerPath == "" {
		errs = append(errs, errors.New("ledger path cannot be empty"))
	}
	if o.ToolTimeout < 0 {
		errs = append(errs, fmt.Errorf("tool timeout cannot be negative: %s", o.ToolTimeout))
	}
	if o.LockTimeout < 0 {
		errs = append(errs, fmt.Errorf("lock timeout cannot be negative: %s", o.LockTimeout))
	}
	if _, err := digest.AlgorithmFor(o.DigestAlgo); err != nil {
		errs = append(errs, err)
	}

	seen := make(map[string]struct{})
	for _, a := range o.GetArtifacts() {
		switch {
		case a.Name == "":
			errs = append(errs, errors.New("artifact name cannot be empty"))
			continue
		case strings.ContainsAny(a.Name, `/\`):
			errs = append(errs, fmt.Errorf("artifact name %q must be a file name", a.Name))
		}
		if _, ok := seen[a.Name]; ok {
			errs = append(errs, fmt.Errorf("duplicate artifact %q", a.Name))
		}
		seen[a.Name] = struct{}{}
	}

	if o.SourceDir == "" && len(o.GetCandidateRoots()) == 0 {
		errs = append(errs, errors.New("either a source dir, a game or candidate roots must be set"))
	}

	return errors.Join(errs...)
}

// ExpandPath expands a leading '~' to the home directory and environment
// variables in the given path.
func ExpandPath(p string) string {
	p = os.ExpandEnv(p)
	if p == "~" || strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, p[1:])
		}
	}
	return p
}
