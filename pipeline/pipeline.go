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
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"

	"github.com/fluxcd/assembly-publisher/artifact/config"
	"github.com/fluxcd/assembly-publisher/artifact/digest"
	"github.com/fluxcd/assembly-publisher/artifact/ledger"
	"github.com/fluxcd/assembly-publisher/artifact/locator"
	"github.com/fluxcd/assembly-publisher/artifact/storage"
	"github.com/fluxcd/assembly-publisher/artifact/transform"
	"github.com/fluxcd/assembly-publisher/git"
)

// LockSuffix is appended to the ledger path to form the run lock file.
const LockSuffix = ".lock"

// Pipeline processes the configured assemblies and publishes them when
// their content changed.
type Pipeline struct {
	Options *config.Options

	Gate      git.Checker
	Locator   *locator.Locator
	Store     ledger.Store
	Publisher git.Publisher
	// Transformer is resolved from the options when nil.
	Transformer transform.Transformer

	log logr.Logger
}

// New returns a Pipeline wired from the given validated options. The
// repository at Options.RepoDir is only required for publishing.
func New(opts *config.Options, log logr.Logger) *Pipeline {
	var lister git.TagLister
	if repo, err := git.Open(opts.RepoDir); err == nil {
		lister = repo
	} else {
		log.Info("no Git repository found, the publish tag cannot be checked", "path", opts.RepoDir)
	}
	return &Pipeline{
		Options:   opts,
		Gate:      git.NewGate(lister, opts, log.WithName("gate")),
		Locator:   locator.New(opts, log.WithName("locator")),
		Store:     ledger.NewFileStore(opts.LedgerPath),
		Publisher: git.NewDriver(opts, log.WithName("driver")),
		log:       log,
	}
}

// Run executes the pipeline under the run lock. It returns a Result
// describing what was done, also when an error occurred after the
// assemblies were processed.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	opts := p.Options
	res := &Result{Version: opts.Version, Tag: opts.GetTag()}

	unlock, err := p.lock(ctx)
	if err != nil {
		return res, err
	}
	defer unlock()

	decision, err := p.Gate.CheckDuplicate(ctx, opts.Version, opts.Force)
	res.Decision = decision
	if err != nil {
		return res, err
	}
	if !decision.Proceed {
		res.Status = StatusAlreadyPublished
		p.log.Info("version already published, nothing to do", "tag", decision.Tag)
		return res, nil
	}

	sourceDir, err := p.Locator.Locate(opts.SourceDir)
	if err != nil {
		return res, err
	}
	res.SourceDir = sourceDir
	p.log.Info("found assemblies", "path", sourceDir)

	current, err := p.process(ctx, res, sourceDir)
	if err != nil {
		return res, err
	}

	previous, err := p.Store.Load()
	if err != nil {
		p.log.Info("ignoring unreadable ledger, every assembly counts as changed", "error", err.Error())
		previous = ledger.Ledger{}
	}
	res.Verdict = ledger.Compare(current, previous)
	for i := range res.Artifacts {
		if c, ok := res.Verdict.Artifacts[res.Artifacts[i].Artifact.Name]; ok {
			res.Artifacts[i].Change = c
		}
	}
	if len(res.Verdict.Removed) > 0 {
		p.log.Info("assemblies recorded by the previous run were not processed", "artifacts", res.Verdict.Removed)
	}
	if err := p.Store.Save(current.Clone()); err != nil {
		return res, fmt.Errorf("failed to save ledger: %w", err)
	}

	if !res.Verdict.AnyChanged {
		res.Status = StatusUnchanged
		p.log.Info("assemblies unchanged since the previous run")
		return res, nil
	}
	res.Status = StatusChanged
	if !opts.AutoPublish {
		p.log.Info("assemblies changed, publishing is disabled", "changed", res.Verdict.ChangedNames())
		return res, nil
	}

	report, err := p.Publisher.Publish(ctx, p.publishRequest(res, current))
	res.Publish = &report
	if err != nil {
		// The next run must see the changes again to retry the publish.
		if restoreErr := p.Store.Save(previous); restoreErr != nil {
			p.log.Error(restoreErr, "failed to restore the previous ledger")
		}
		return res, err
	}
	res.Status = StatusPublished
	return res, nil
}

// process publishes every artifact and returns the digests of the
// published files.
func (p *Pipeline) process(ctx context.Context, res *Result, sourceDir string) (ledger.Ledger, error) {
	opts := p.Options

	fp, err := digest.New(opts.DigestAlgo)
	if err != nil {
		return nil, err
	}
	res.Algorithm = fp.Algorithm()
	st, err := storage.New(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	ws, err := storage.NewWorkspace(opts.WorkDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := ws.Close(); err != nil {
			p.log.Error(err, "failed to remove workspace", "path", ws.Dir())
		}
	}()

	artifacts := opts.GetArtifacts()
	inv := transform.NewInvoker(st, ws, p.transformer(ctx, artifacts), opts.SkipTransform, p.log.WithName("transform"))

	current := ledger.Ledger{}
	for _, a := range artifacts {
		out, err := inv.Process(ctx, a, sourceDir)
		if err != nil {
			return nil, err
		}
		ar := ArtifactResult{Outcome: out}
		if out.Mode != transform.ModeSkipped {
			d, err := fp.Fingerprint(out.PublishedPath)
			if err != nil {
				return nil, fmt.Errorf("failed to fingerprint %s: %w", a.Name, err)
			}
			ar.Digest = d
			current[a.Name] = d.Encoded()
		}
		res.Artifacts = append(res.Artifacts, ar)
	}
	return current, nil
}

// transformer returns the configured Transformer, resolving the tool only
// when an artifact needs it.
func (p *Pipeline) transformer(ctx context.Context, artifacts []config.Artifact) transform.Transformer {
	if p.Transformer != nil {
		return p.Transformer
	}
	needed := false
	for _, a := range artifacts {
		needed = needed || a.RequiresTransform
	}
	if !needed || p.Options.SkipTransform {
		return transform.PassThrough{}
	}
	r := transform.NewResolver(p.Options, p.log.WithName("resolver"))
	return r.Transformer(ctx, p.Options.ToolArgs, p.Options.ToolTimeout)
}

func (p *Pipeline) publishRequest(res *Result, current ledger.Ledger) git.PublishRequest {
	req := git.PublishRequest{Version: res.Version, Tag: res.Tag}
	for _, a := range res.Artifacts {
		if a.PublishedPath != "" {
			req.Paths = append(req.Paths, a.PublishedPath)
		}
	}
	req.Paths = append(req.Paths, p.Options.LedgerPath)
	for _, name := range res.Verdict.ChangedNames() {
		req.Changes = append(req.Changes, git.ChangedArtifact{Name: name, Digest: current[name]})
	}
	return req
}

// lock acquires the run lock next to the ledger, waiting at most
// Options.LockTimeout.
func (p *Pipeline) lock(ctx context.Context) (func(), error) {
	path := p.Options.LedgerPath + LockSuffix
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create ledger dir: %w", err)
	}
	if p.Options.LockTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Options.LockTimeout)
		defer cancel()
	}
	unlock, err := storage.Lock(ctx, path)
	if err != nil {
		if errors.Is(err, storage.ErrLocked) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	return unlock, nil
}
