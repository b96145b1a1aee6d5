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

package version

import (
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// DefaultTagPrefix is prepended to a version to form the publish tag name.
const DefaultTagPrefix = "assemblies-v"

// ParseVersion parses a version string and returns a semver.Version object.
// The validation is looser than the official semver spec, allowing for
// a 'v' prefix and 0-prefixed numbers in the major, minor, and patch segments
// (e.g., v2025.02.03-rc.1 is considered valid).
func ParseVersion(v string) (*semver.Version, error) {
	parts := strings.SplitN(v, ".", 3)
	if len(parts) != 3 {
		return nil, semver.ErrInvalidSemVer
	}

	return semver.NewVersion(v)
}

// TagName returns the publish tag for the given version. A leading 'v' on
// the version is dropped so that "v1.2.3" and "1.2.3" map to the same tag,
// the rest of the version is kept as written.
func TagName(prefix, v string) string {
	return prefix + strings.TrimPrefix(strings.TrimSpace(v), "v")
}

// VersionFromTag is the inverse of TagName. It returns false if the tag does
// not carry the prefix.
func VersionFromTag(prefix, tag string) (string, bool) {
	if !strings.HasPrefix(tag, prefix) || len(tag) == len(prefix) {
		return "", false
	}
	return strings.TrimPrefix(tag, prefix), true
}

// Sort filters the given strings based on the provided semver range
// and sorts them in descending order.
func Sort(c *semver.Constraints, vs []string) []string {
	var versions []*semver.Version
	for _, v := range vs {
		if pv, err := ParseVersion(v); err == nil && (c == nil || c.Check(pv)) {
			versions = append(versions, pv)
		}
	}
	sort.Sort(sort.Reverse(semver.Collection(versions)))
	sorted := make([]string, 0, len(versions))
	for _, v := range versions {
		sorted = append(sorted, v.Original())
	}
	return sorted
}

// Latest returns the highest version published under the given tag prefix,
// or an empty string if none of the tags carry a valid version.
func Latest(prefix string, tags []string) string {
	var vs []string
	for _, t := range tags {
		if v, ok := VersionFromTag(prefix, t); ok {
			vs = append(vs, v)
		}
	}
	if sorted := Sort(nil, vs); len(sorted) > 0 {
		return sorted[0]
	}
	return ""
}
