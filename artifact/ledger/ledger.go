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

// Package ledger records the digest of every published assembly as of the
// last run, and tells which assemblies changed since.
package ledger

import (
	"maps"
	"slices"
)

// Ledger maps an artifact name to the hex encoded digest of its published
// file.
type Ledger map[string]string

// Clone returns a copy of the Ledger, never nil.
func (l Ledger) Clone() Ledger {
	c := make(Ledger, len(l))
	maps.Copy(c, l)
	return c
}

// Names returns the artifact names of the Ledger in sorted order.
func (l Ledger) Names() []string {
	return slices.Sorted(maps.Keys(l))
}

// Change tells whether an artifact differs from the previous run.
type Change string

const (
	Changed Change = "changed"
	Same    Change = "same"
)

// Verdict is the result of comparing the current run against the ledger
// of the previous one.
type Verdict struct {
	// Artifacts holds the Change of every artifact of the current run.
	Artifacts map[string]Change

	// Removed lists the artifacts of the previous run absent from the current one.
	Removed []string

	// AnyChanged is true if at least one artifact of the current run changed.
	AnyChanged bool
}

// ChangedNames returns the sorted names of the changed artifacts.
func (v Verdict) ChangedNames() []string {
	var names []string
	for name, c := range v.Artifacts {
		if c == Changed {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// Compare compares the digests of the current run with the previous ones.
// An artifact without a previous digest counts as changed. Artifacts only
// present in previous are reported as removed, they do not count as a change
// as the published files are left untouched.
func Compare(current, previous Ledger) Verdict {
	v := Verdict{Artifacts: make(map[string]Change, len(current))}
	for name, d := range current {
		if prev, ok := previous[name]; ok && prev == d {
			v.Artifacts[name] = Same
			continue
		}
		v.Artifacts[name] = Changed
		v.AnyChanged = true
	}
	for _, name := range previous.Names() {
		if _, ok := current[name]; !ok {
			v.Removed = append(v.Removed, name)
		}
	}
	return v
}
