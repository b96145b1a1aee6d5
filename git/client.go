/*
Copyright 2022 The Flux authors

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
)

// TagLister knows how to list the tags of a remote.
type TagLister interface {
	// ListRemoteTags returns the short tag names advertised by the remote.
	ListRemoteTags(ctx context.Context, remote string) ([]string, error)
}

// Publisher records published files in a repository and makes them
// available on the remote under a tag.
type Publisher interface {
	Publish(ctx context.Context, req PublishRequest) (PublishReport, error)
}

// Checker decides whether a version may be published.
type Checker interface {
	CheckDuplicate(ctx context.Context, version string, force bool) (Decision, error)
}

var (
	_ TagLister = &Repository{}
	_ Publisher = &Driver{}
	_ Checker   = &Gate{}
)
