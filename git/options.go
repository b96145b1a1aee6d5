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
	"fmt"
	"os"

	"github.com/go-git/go-git/v5/plumbing/transport"
)

const (
	DefaultPublicKeyAuthUser = "git"
	// GitHubTokenUser is the user name GitHub expects along with a token.
	GitHubTokenUser = "x-access-token"
)

// Environment variables holding the credentials of the remote.
const (
	EnvUsername      = "GIT_USERNAME"
	EnvPassword      = "GIT_PASSWORD"
	EnvGitHubToken   = "GITHUB_TOKEN"
	EnvSSHKey        = "GIT_SSH_KEY"
	EnvSSHPassphrase = "GIT_SSH_KEY_PASSPHRASE"
	EnvKnownHosts    = "GIT_KNOWN_HOSTS"
)

type TransportType string

const (
	SSH   TransportType = "ssh"
	HTTPS TransportType = "https"
	HTTP  TransportType = "http"
	File  TransportType = "file"
)

// AuthOptions are the authentication options for the Transport of
// communication with a remote.
type AuthOptions struct {
	Transport TransportType
	Host      string
	Username  string
	Password  string
	// Identity is the PEM encoded private key used over SSH.
	Identity []byte
	// KnownHostsFile is checked instead of the user's known_hosts.
	KnownHostsFile string
}

// Validate the AuthOptions against the defined Transport.
func (o AuthOptions) Validate() error {
	switch o.Transport {
	case HTTPS, HTTP:
		if o.Username == "" && o.Password != "" {
			return fmt.Errorf("invalid '%s' auth option: 'password' requires 'username' to be set", o.Transport)
		}
	case SSH:
		if o.Host == "" {
			return fmt.Errorf("invalid '%s' auth option: 'host' is required", o.Transport)
		}
	case File:
	case "":
		return fmt.Errorf("no transport type set")
	default:
		return fmt.Errorf("unknown transport '%s'", o.Transport)
	}
	return nil
}

// AuthOptionsFromEnv constructs an AuthOptions object for the remote URL,
// which may be in the scp-like form, from the credentials found with
// getenv. Credentials embedded in the URL are used as a fallback.
func AuthOptionsFromEnv(remoteURL string, getenv func(string) string) (*AuthOptions, error) {
	ep, err := transport.NewEndpoint(remoteURL)
	if err != nil {
		return nil, fmt.Errorf("invalid remote URL: %w", err)
	}
	opts := &AuthOptions{
		Transport: TransportType(ep.Protocol),
		Host:      ep.Host,
	}
	if opts.Transport == File {
		return opts, opts.Validate()
	}

	switch opts.Transport {
	case HTTPS, HTTP:
		opts.Username = getenv(EnvUsername)
		opts.Password = getenv(EnvPassword)
		if opts.Username == "" && opts.Password == "" {
			if token := getenv(EnvGitHubToken); token != "" {
				opts.Username = GitHubTokenUser
				opts.Password = token
			}
		}
	case SSH:
		if keyPath := getenv(EnvSSHKey); keyPath != "" {
			key, err := os.ReadFile(keyPath)
			if err != nil {
				return nil, fmt.Errorf("failed to read ssh identity: %w", err)
			}
			opts.Identity = key
			opts.Password = getenv(EnvSSHPassphrase)
		}
		opts.KnownHostsFile = getenv(EnvKnownHosts)
	}

	if opts.Username == "" {
		opts.Username = ep.User
	}
	// We fallback to using "git" as the username when pushing to Git
	// repositories through SSH since that's the conventional username used
	// by Git providers.
	if opts.Username == "" && opts.Transport == SSH {
		opts.Username = DefaultPublicKeyAuthUser
	}
	if opts.Password == "" {
		opts.Password = ep.Password
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}
