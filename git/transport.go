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

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
	gossh "golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// transportAuth constructs the transport.AuthMethod for the Transport of
// the given AuthOptions. It returns the result, or an error.
func transportAuth(opts *AuthOptions) (transport.AuthMethod, error) {
	if opts == nil {
		return nil, nil
	}
	switch opts.Transport {
	case HTTPS, HTTP:
		// Some providers (i.e. GitLab) will reject empty credentials for
		// public repositories.
		if opts.Username != "" || opts.Password != "" {
			return &http.BasicAuth{
				Username: opts.Username,
				Password: opts.Password,
			}, nil
		}
		return nil, nil
	case SSH:
		var callback gossh.HostKeyCallback
		if opts.KnownHostsFile != "" {
			var err error
			callback, err = knownhosts.New(opts.KnownHostsFile)
			if err != nil {
				return nil, fmt.Errorf("failed to load known hosts: %w", err)
			}
		}
		// Without an identity, the keys of the ssh-agent are offered.
		if len(opts.Identity) == 0 {
			authMethod, err := ssh.DefaultAuthBuilder(opts.Username)
			if err != nil {
				return nil, err
			}
			pkCallback, ok := authMethod.(*ssh.PublicKeysCallback)
			if ok {
				pkCallback.HostKeyCallback = callback
				return &DefaultAuth{
					pkCallack: pkCallback,
					callback:  callback,
				}, nil
			}
			return authMethod, nil
		}
		pk, err := ssh.NewPublicKeys(opts.Username, opts.Identity, opts.Password)
		if err != nil {
			return nil, err
		}
		pk.HostKeyCallback = callback
		return &CustomPublicKeys{
			pk:       pk,
			callback: callback,
		}, nil
	case File:
		return nil, nil
	case "":
		return nil, fmt.Errorf("no transport type set")
	default:
		return nil, fmt.Errorf("unknown transport '%s'", opts.Transport)
	}
}

// CustomPublicKeys is a wrapper around ssh.PublicKeys to help us
// customize the ssh config. It implements ssh.AuthMethod.
type CustomPublicKeys struct {
	pk       *ssh.PublicKeys
	callback gossh.HostKeyCallback
}

func (a *CustomPublicKeys) Name() string {
	return a.pk.Name()
}

func (a *CustomPublicKeys) String() string {
	return a.pk.String()
}

func (a *CustomPublicKeys) ClientConfig() (*gossh.ClientConfig, error) {
	config, err := a.pk.ClientConfig()
	if err != nil {
		return nil, err
	}
	if a.callback != nil {
		config.HostKeyCallback = a.callback
	}
	return config, nil
}

// DefaultAuth uses the ssh-agent, and the known_hosts of the user unless
// a host key callback is set.
type DefaultAuth struct {
	pkCallack *ssh.PublicKeysCallback
	callback  gossh.HostKeyCallback
}

func (a *DefaultAuth) Name() string {
	return a.pkCallack.Name()
}

func (a *DefaultAuth) String() string {
	return a.pkCallack.String()
}

func (a *DefaultAuth) ClientConfig() (*gossh.ClientConfig, error) {
	config, err := a.pkCallack.ClientConfig()
	if err != nil {
		return nil, err
	}
	if a.callback != nil {
		config.HostKeyCallback = a.callback
		return config, nil
	}
	config.HostKeyCallback, err = ssh.NewKnownHostsCallback()
	if err != nil {
		return nil, err
	}
	return config, nil
}
