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

package locator

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
	. "github.com/onsi/gomega"

	"github.com/fluxcd/assembly-publisher/artifact/config"
)

func mkdirs(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		if err := os.MkdirAll(p, 0o755); err != nil {
			t.Fatal(err)
		}
	}
}

func TestLocate(t *testing.T) {
	root := t.TempDir()
	first := filepath.Join(root, "first")
	second := filepath.Join(root, "second")
	bare := filepath.Join(root, "bare")
	missing := filepath.Join(root, "missing")
	mkdirs(t,
		filepath.Join(first, "Game_Data", "Managed"),
		filepath.Join(second, "Game_Data", "Managed"),
		bare,
	)

	tests := []struct {
		name       string
		candidates []string
		explicit   string
		want       string
		wantErr    any
	}{
		{
			name:       "first existing candidate wins",
			candidates: []string{missing, second, first},
			want:       filepath.Join(second, "Game_Data", "Managed"),
		},
		{
			name:       "explicit path overrides candidates",
			candidates: []string{second},
			explicit:   first,
			want:       filepath.Join(first, "Game_Data", "Managed"),
		},
		{
			name:     "explicit path to the managed dir",
			explicit: filepath.Join(first, "Game_Data", "Managed"),
			want:     filepath.Join(first, "Game_Data", "Managed"),
		},
		{
			name:       "explicit path that does not exist falls back to candidates",
			candidates: []string{missing, first},
			explicit:   filepath.Join(root, "typo"),
			want:       filepath.Join(first, "Game_Data", "Managed"),
		},
		{
			name:     "explicit path that does not exist without candidates",
			explicit: missing,
			wantErr:  &NotFoundError{},
		},
		{
			name:       "no candidate exists",
			candidates: []string{missing, filepath.Join(root, "other")},
			wantErr:    &NotFoundError{},
		},
		{
			name:    "nothing configured",
			wantErr: &NotFoundError{},
		},
		{
			name:       "required subdir missing",
			candidates: []string{bare},
			wantErr:    &MissingSubdirError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			l := New(&config.Options{
				CandidateRoots: tt.candidates,
				RequiredSubdir: filepath.Join("Game_Data", "Managed"),
			}, logr.Discard())

			got, err := l.Locate(tt.explicit)
			switch want := tt.wantErr.(type) {
			case *NotFoundError:
				g.Expect(errors.As(err, &want)).To(BeTrue(), "got %v", err)
			case *MissingSubdirError:
				g.Expect(errors.As(err, &want)).To(BeTrue(), "got %v", err)
				g.Expect(want.Root).To(Equal(bare))
			default:
				g.Expect(err).ToNot(HaveOccurred())
				g.Expect(got).To(Equal(tt.want))
			}
		})
	}
}

func TestLocate_ProbedPaths(t *testing.T) {
	g := NewWithT(t)

	home := t.TempDir()
	t.Setenv("HOME", home)

	l := &Locator{CandidateRoots: []string{"~/steam/Game", "/nonexistent/Game"}, log: logr.Discard()}
	_, err := l.Locate("")

	var nf *NotFoundError
	g.Expect(errors.As(err, &nf)).To(BeTrue())
	g.Expect(nf.Probed).To(Equal([]string{filepath.Join(home, "steam", "Game"), "/nonexistent/Game"}))
	g.Expect(err.Error()).To(ContainSubstring("/nonexistent/Game"))
}

func TestLocate_ProbedPathsStartWithExplicit(t *testing.T) {
	g := NewWithT(t)

	root := t.TempDir()
	typo := filepath.Join(root, "typo")
	candidate := filepath.Join(root, "Game")

	l := &Locator{CandidateRoots: []string{candidate}, log: logr.Discard()}
	_, err := l.Locate(typo)

	var nf *NotFoundError
	g.Expect(errors.As(err, &nf)).To(BeTrue())
	g.Expect(nf.Probed).To(Equal([]string{typo, candidate}))
}

func TestLocate_NoRequiredSubdir(t *testing.T) {
	g := NewWithT(t)

	dir := t.TempDir()
	l := &Locator{CandidateRoots: []string{dir}, log: logr.Discard()}
	got, err := l.Locate("")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(got).To(Equal(dir))
}
