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
	"testing"

	"github.com/go-logr/logr"
	. "github.com/onsi/gomega"

	"github.com/fluxcd/assembly-publisher/artifact/config"
)

type fakeTagLister struct {
	tags  []string
	err   error
	calls int
}

func (f *fakeTagLister) ListRemoteTags(_ context.Context, _ string) ([]string, error) {
	f.calls++
	return f.tags, f.err
}

func TestGate_CheckDuplicate(t *testing.T) {
	unreachable := errors.New("dial tcp: connection refused")

	tests := []struct {
		name        string
		lister      *fakeTagLister
		noRepo      bool
		version     string
		force       bool
		strict      bool
		wantProceed bool
		wantReason  string
		wantTag     string
		wantCalls   int
		wantErr     bool
	}{
		{
			name:        "tag present on the remote",
			lister:      &fakeTagLister{tags: []string{"assemblies-v1.0.0", "assemblies-v1.2.0"}},
			version:     "1.2.0",
			wantProceed: false,
			wantReason:  ReasonAlreadyPublished,
			wantTag:     "assemblies-v1.2.0",
			wantCalls:   1,
		},
		{
			name:        "leading v is ignored",
			lister:      &fakeTagLister{tags: []string{"assemblies-v1.2.0"}},
			version:     "v1.2.0",
			wantProceed: false,
			wantReason:  ReasonAlreadyPublished,
			wantTag:     "assemblies-v1.2.0",
			wantCalls:   1,
		},
		{
			name:        "tag absent",
			lister:      &fakeTagLister{tags: []string{"assemblies-v1.0.0", "assemblies-v1.2.0-rc.1"}},
			version:     "1.2.0",
			wantProceed: true,
			wantReason:  ReasonNotPublished,
			wantTag:     "assemblies-v1.2.0",
			wantCalls:   1,
		},
		{
			name:        "force skips the remote",
			lister:      &fakeTagLister{tags: []string{"assemblies-v1.2.0"}},
			version:     "1.2.0",
			force:       true,
			wantProceed: true,
			wantReason:  ReasonForced,
			wantTag:     "assemblies-v1.2.0",
		},
		{
			name:        "no version",
			lister:      &fakeTagLister{},
			wantProceed: true,
			wantReason:  ReasonNoVersion,
		},
		{
			name:        "no repository",
			noRepo:      true,
			version:     "1.2.0",
			wantProceed: true,
			wantReason:  ReasonNoRemote,
			wantTag:     "assemblies-v1.2.0",
		},
		{
			name:        "remote not configured",
			lister:      &fakeTagLister{err: ErrNoRemote},
			version:     "1.2.0",
			strict:      true,
			wantProceed: true,
			wantReason:  ReasonNoRemote,
			wantTag:     "assemblies-v1.2.0",
			wantCalls:   1,
		},
		{
			name:        "unreachable remote fails open",
			lister:      &fakeTagLister{err: unreachable},
			version:     "1.2.0",
			wantProceed: true,
			wantReason:  ReasonRemoteUnreachable,
			wantTag:     "assemblies-v1.2.0",
			wantCalls:   1,
		},
		{
			name:        "unreachable remote in strict mode",
			lister:      &fakeTagLister{err: unreachable},
			version:     "1.2.0",
			strict:      true,
			wantProceed: false,
			wantReason:  ReasonRemoteUnreachable,
			wantTag:     "assemblies-v1.2.0",
			wantCalls:   1,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			opts := &config.Options{Remote: "origin", TagPrefix: "assemblies-v", StrictRemoteCheck: tt.strict}
			var repo TagLister
			if !tt.noRepo {
				repo = tt.lister
			}
			gate := NewGate(repo, opts, logr.Discard())

			d, err := gate.CheckDuplicate(context.Background(), tt.version, tt.force)
			if tt.wantErr {
				var rcErr *RemoteCheckError
				g.Expect(errors.As(err, &rcErr)).To(BeTrue())
				g.Expect(rcErr.Remote).To(Equal("origin"))
				g.Expect(errors.Is(err, unreachable)).To(BeTrue())
			} else {
				g.Expect(err).ToNot(HaveOccurred())
			}
			g.Expect(d.Proceed).To(Equal(tt.wantProceed))
			g.Expect(d.Reason).To(Equal(tt.wantReason))
			g.Expect(d.Tag).To(Equal(tt.wantTag))
			if tt.lister != nil {
				g.Expect(tt.lister.calls).To(Equal(tt.wantCalls))
			}
		})
	}
}
