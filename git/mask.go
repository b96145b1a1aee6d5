/*
Copyright 2023 The Flux authors

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
	"net/url"

	"github.com/fluxcd/pkg/masktoken"
)

// MaskedValue replaces secrets in error messages.
const MaskedValue = "*****"

// maskedError redacts secrets from the message of the wrapped error.
type maskedError struct {
	msg string
	err error
}

func (e *maskedError) Error() string {
	return e.msg
}

func (e *maskedError) Unwrap() error {
	return e.err
}

// MaskSecrets returns err with every occurrence of the given secrets
// redacted from its message, in plain and in URL-escaped form. The returned
// error unwraps to err.
func MaskSecrets(err error, secrets ...string) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	masked := msg
	for _, s := range secrets {
		if s == "" {
			continue
		}
		tokens := []string{s}
		if esc := url.QueryEscape(s); esc != s {
			tokens = append(tokens, esc)
		}
		for _, token := range tokens {
			redacted, maskErr := masktoken.MaskTokenFromString(masked, token)
			if maskErr != nil {
				// The secret cannot be matched, hide the whole message.
				return &maskedError{msg: MaskedValue, err: err}
			}
			masked = redacted
		}
	}
	if masked == msg {
		return err
	}
	return &maskedError{msg: masked, err: err}
}

// secrets returns the values of the AuthOptions to keep out of logs.
func (o *AuthOptions) secrets() []string {
	if o == nil {
		return nil
	}
	return []string{o.Password}
}
