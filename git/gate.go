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
	"slices"

	"github.com/go-logr/logr"

	"github.com/fluxcd/assembly-publisher/artifact/config"
	"github.com/fluxcd/assembly-publisher/runtime/logger"
	"github.com/fluxcd/assembly-publisher/version"
)

// Reasons given by the Gate.
const (
	ReasonForced            = "forced"
	ReasonNoVersion         = "no version requested"
	ReasonNoRemote          = "no remote, cannot verify"
	ReasonRemoteUnreachable = "remote unreachable, cannot verify"
	ReasonAlreadyPublished  = "already published"
	ReasonNotPublished      = "not published yet"
)

// Decision is the outcome of a duplicate publish check.
type Decision struct {
	// Proceed is false when the version must not be processed again.
	Proceed bool
	Reason  string
	// Tag is the publish tag of the version.
	Tag string
}

// RemoteCheckError is returned in strict mode when the remote could not be
// queried.
type RemoteCheckError struct {
	Remote string
	Err    error
}

func (e *RemoteCheckError) Error() string {
	return fmt.Sprintf("failed to list tags of remote %s: %v", e.Remote, e.Err)
}

func (e *RemoteCheckError) Unwrap() error {
	return e.Err
}

// Gate prevents a version from being published twice by looking for its
// tag on the remote.
type Gate struct {
	// Repo is nil when there is no repository to check.
	Repo      TagLister
	Remote    string
	TagPrefix string
	// Strict makes a failing remote query an error instead of proceeding.
	Strict bool

	log logr.Logger
}

// NewGate returns a Gate for the given options. repo may be nil.
func NewGate(repo TagLister, opts *config.Options, log logr.Logger) *Gate {
	return &Gate{
		Repo:      repo,
		Remote:    opts.Remote,
		TagPrefix: opts.TagPrefix,
		Strict:    opts.StrictRemoteCheck,
		log:       log,
	}
}

// CheckDuplicate tells whether the version may be processed. It proceeds
// when it cannot prove that the tag exists on the remote, unless Strict is
// set and the remote cannot be queried.
func (g *Gate) CheckDuplicate(ctx context.Context, ver string, force bool) (Decision, error) {
	d := Decision{Proceed: true}
	if ver != "" {
		d.Tag = version.TagName(g.TagPrefix, ver)
	}
	log := g.log.WithValues("tag", d.Tag, "remote", g.Remote)

	switch {
	case force:
		d.Reason = ReasonForced
		log.Info("duplicate publish check skipped")
		return d, nil
	case ver == "":
		d.Reason = ReasonNoVersion
		return d, nil
	case g.Repo == nil:
		d.Reason = ReasonNoRemote
		log.Info("no repository, proceeding without checking the remote")
		return d, nil
	}

	tags, err := g.Repo.ListRemoteTags(ctx, g.Remote)
	if err != nil {
		if errors.Is(err, ErrNoRemote) {
			d.Reason = ReasonNoRemote
			log.Info("remote not configured, proceeding without checking it")
			return d, nil
		}
		if g.Strict {
			return Decision{Tag: d.Tag, Reason: ReasonRemoteUnreachable}, &RemoteCheckError{Remote: g.Remote, Err: err}
		}
		d.Reason = ReasonRemoteUnreachable
		log.Info("failed to list remote tags, proceeding", "error", err.Error())
		return d, nil
	}

	if latest := version.Latest(g.TagPrefix, tags); latest != "" {
		log.V(logger.DebugLevel).Info("latest published version", "version", latest)
	}
	if slices.Contains(tags, d.Tag) {
		d.Proceed = false
		d.Reason = ReasonAlreadyPublished
		log.Info("version already published")
		return d, nil
	}
	d.Reason = ReasonNotPublished
	return d, nil
}
