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
	"path/filepath"
	"testing"

	extgogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-logr/logr"
	. "github.com/onsi/gomega"

	"github.com/fluxcd/assembly-publisher/artifact/config"
)

func newTestDriver(root string) *Driver {
	return NewDriver(&config.Options{RepoDir: root, Remote: DefaultRemote}, logr.Discard())
}

func publishRequest(f *repoFixture, ver string) PublishRequest {
	return PublishRequest{
		Version: ver,
		Tag:     "assemblies-v" + ver,
		Paths: []string{
			filepath.Join(f.root, "lib", "Assembly-CSharp.dll"),
			filepath.Join(f.root, "assembly-hashes.json"),
		},
		Changes: []ChangedArtifact{
			{Name: "Assembly-CSharp.dll", Digest: "0123456789abcdef"},
		},
	}
}

func TestCommitMessage(t *testing.T) {
	g := NewWithT(t)

	g.Expect(CommitMessage("1.2.0", nil)).To(Equal("Update assemblies to 1.2.0"))
	g.Expect(CommitMessage("1.2.0", []ChangedArtifact{
		{Name: "Assembly-CSharp.dll", Digest: "0123456789abcdef"},
		{Name: "Assembly-CSharp-firstpass.dll", Digest: "abc"},
	})).To(Equal("Update assemblies to 1.2.0\n\nAssembly-CSharp.dll: 01234567\nAssembly-CSharp-firstpass.dll: abc"))
}

func TestDriver_Publish(t *testing.T) {
	requireGit(t)
	g := NewWithT(t)
	ctx := context.Background()

	f := newRepoFixture(t, true)
	f.writeFile(t, "lib/Assembly-CSharp.dll", "publicized")
	f.writeFile(t, "assembly-hashes.json", "{}\n")
	d := newTestDriver(filepath.Join(f.root, "lib"))

	report, err := d.Publish(ctx, publishRequest(f, "1.0.0"))
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(report.Committed()).To(BeTrue())
	g.Expect(report.Tagged).To(BeTrue())
	g.Expect(report.TagExisted).To(BeFalse())
	g.Expect(report.Pushed).To(BeTrue())

	head, err := f.repo.Head()
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(head.Hash().String()).To(Equal(report.Commit))
	commit, err := f.repo.CommitObject(head.Hash())
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(commit.Message).To(Equal("Update assemblies to 1.0.0\n\nAssembly-CSharp.dll: 01234567"))
	files, err := commit.Files()
	g.Expect(err).ToNot(HaveOccurred())
	var names []string
	g.Expect(files.ForEach(func(file *object.File) error {
		names = append(names, file.Name)
		return nil
	})).To(Succeed())
	g.Expect(names).To(ConsistOf("README.md", "lib/Assembly-CSharp.dll", "assembly-hashes.json"))

	// The annotated tag points at the publish commit.
	tagRef, err := f.repo.Tag("assemblies-v1.0.0")
	g.Expect(err).ToNot(HaveOccurred())
	tagObj, err := f.repo.TagObject(tagRef.Hash())
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(tagObj.Target).To(Equal(head.Hash()))

	// Both the tag and the branch reached the remote.
	remote, err := extgogit.PlainOpen(f.remoteDir)
	g.Expect(err).ToNot(HaveOccurred())
	remoteTag, err := remote.Tag("assemblies-v1.0.0")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(remoteTag.Hash()).To(Equal(tagRef.Hash()))
	remoteBranch, err := remote.Reference(head.Name(), true)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(remoteBranch.Hash()).To(Equal(head.Hash()))

	// The gate now sees the version as published.
	repo, err := Open(f.root)
	g.Expect(err).ToNot(HaveOccurred())
	gate := NewGate(repo, &config.Options{Remote: DefaultRemote, TagPrefix: "assemblies-v"}, logr.Discard())
	decision, err := gate.CheckDuplicate(ctx, "1.0.0", false)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(decision.Proceed).To(BeFalse())
	g.Expect(decision.Reason).To(Equal(ReasonAlreadyPublished))

	// Publishing again changes nothing.
	report, err = d.Publish(ctx, publishRequest(f, "1.0.0"))
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(report.Committed()).To(BeFalse())
	g.Expect(report.Tagged).To(BeFalse())
	g.Expect(report.TagExisted).To(BeTrue())
	g.Expect(report.Pushed).To(BeTrue())
	after, err := f.repo.Head()
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(after.Hash()).To(Equal(head.Hash()))
}

func TestDriver_PublishNewVersionWithoutChanges(t *testing.T) {
	requireGit(t)
	g := NewWithT(t)
	ctx := context.Background()

	f := newRepoFixture(t, true)
	f.writeFile(t, "lib/Assembly-CSharp.dll", "publicized")
	f.writeFile(t, "assembly-hashes.json", "{}\n")
	d := newTestDriver(f.root)

	first, err := d.Publish(ctx, publishRequest(f, "1.0.0"))
	g.Expect(err).ToNot(HaveOccurred())

	second, err := d.Publish(ctx, publishRequest(f, "1.0.1"))
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(second.Committed()).To(BeFalse())
	g.Expect(second.Tagged).To(BeTrue())
	g.Expect(second.Pushed).To(BeTrue())

	tagRef, err := f.repo.Tag("assemblies-v1.0.1")
	g.Expect(err).ToNot(HaveOccurred())
	tagObj, err := f.repo.TagObject(tagRef.Hash())
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(tagObj.Target).To(Equal(plumbing.NewHash(first.Commit)))
}

func TestDriver_PushError(t *testing.T) {
	requireGit(t)
	g := NewWithT(t)

	f := newRepoFixture(t, false)
	f.setRemote(t, filepath.Join(t.TempDir(), "missing.git"))
	f.writeFile(t, "lib/Assembly-CSharp.dll", "publicized")
	f.writeFile(t, "assembly-hashes.json", "{}\n")

	report, err := newTestDriver(f.root).Publish(context.Background(), publishRequest(f, "1.0.0"))
	var pushErr *PushError
	g.Expect(errors.As(err, &pushErr)).To(BeTrue(), "got %v", err)
	g.Expect(pushErr.Committed).To(BeTrue())
	g.Expect(pushErr.Remote).To(Equal(DefaultRemote))
	g.Expect(report.Committed()).To(BeTrue())
	g.Expect(report.Tagged).To(BeTrue())
	g.Expect(report.Pushed).To(BeFalse())
}

func TestDriver_NotRepository(t *testing.T) {
	g := NewWithT(t)

	_, err := newTestDriver(t.TempDir()).Publish(context.Background(), PublishRequest{Version: "1.0.0", Tag: "assemblies-v1.0.0"})
	g.Expect(errors.Is(err, ErrNotRepository)).To(BeTrue())
}

func TestDriver_PathOutsideWorktree(t *testing.T) {
	g := NewWithT(t)

	f := newRepoFixture(t, false)
	req := publishRequest(f, "1.0.0")
	req.Paths = []string{filepath.Join(t.TempDir(), "elsewhere.dll")}

	report, err := newTestDriver(f.root).Publish(context.Background(), req)
	var commitErr *CommitError
	g.Expect(errors.As(err, &commitErr)).To(BeTrue())
	g.Expect(err.Error()).To(ContainSubstring("outside of the working tree"))
	g.Expect(report).To(Equal(PublishReport{}))
}
