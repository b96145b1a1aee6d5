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
	"errors"

	"github.com/fluxcd/assembly-publisher/artifact/locator"
	"github.com/fluxcd/assembly-publisher/artifact/storage"
	"github.com/fluxcd/assembly-publisher/git"
)

// Exit codes of the process-assemblies command.
const (
	ExitOK            = 0
	ExitError         = 1
	ExitConfig        = 2
	ExitSource        = 3
	ExitNotRepository = 4
	ExitCommit        = 5
	ExitPush          = 6
	ExitLocked        = 7
	ExitRemoteCheck   = 8
)

// ConfigError wraps an invalid configuration.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ExitCode maps an error returned by Run, or by the configuration of the
// run, to the exit code of the process.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var (
		configErr  *ConfigError
		notFound   *locator.NotFoundError
		missingSub *locator.MissingSubdirError
		commitErr  *git.CommitError
		pushErr    *git.PushError
		remoteErr  *git.RemoteCheckError
	)
	switch {
	case errors.As(err, &configErr):
		return ExitConfig
	case errors.As(err, &notFound), errors.As(err, &missingSub):
		return ExitSource
	case errors.Is(err, git.ErrNotRepository):
		return ExitNotRepository
	case errors.As(err, &commitErr):
		return ExitCommit
	case errors.As(err, &pushErr):
		return ExitPush
	case errors.Is(err, storage.ErrLocked):
		return ExitLocked
	case errors.As(err, &remoteErr):
		return ExitRemoteCheck
	default:
		return ExitError
	}
}
