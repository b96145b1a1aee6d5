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

package logger

import (
	"bytes"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/spf13/pflag"
)

func TestOptions_BindFlags(t *testing.T) {
	tests := []struct {
		name             string
		env              map[string]string
		commandLine      []string
		expectedEncoding string
		expectedLevel    string
	}{
		{
			name:             "defaults",
			commandLine:      []string{""},
			expectedEncoding: "console",
			expectedLevel:    "info",
		},
		{
			name:             "environment overrides defaults",
			env:              map[string]string{envLogEncoding: "json", envLogLevel: "debug"},
			commandLine:      []string{""},
			expectedEncoding: "json",
			expectedLevel:    "debug",
		},
		{
			name:             "flags override environment",
			env:              map[string]string{envLogLevel: "debug"},
			commandLine:      []string{"--log-level=trace", "--log-encoding=json"},
			expectedEncoding: "json",
			expectedLevel:    "trace",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
			var opts Options
			opts.BindFlags(fs)
			g.Expect(fs.Parse(tt.commandLine)).To(Succeed())

			g.Expect(opts.LogEncoding).To(Equal(tt.expectedEncoding))
			g.Expect(opts.LogLevel).To(Equal(tt.expectedLevel))
		})
	}
}

func TestNewLogger(t *testing.T) {
	g := NewWithT(t)

	var buf bytes.Buffer
	log := NewLogger(Options{LogEncoding: "json", LogLevel: "info", Output: &buf})

	log.Info("published", "artifact", "Assembly-CSharp.dll")
	log.V(DebugLevel).Info("hidden at info level")

	g.Expect(buf.String()).To(ContainSubstring(`"msg":"published"`))
	g.Expect(buf.String()).To(ContainSubstring(`"artifact":"Assembly-CSharp.dll"`))
	g.Expect(buf.String()).ToNot(ContainSubstring("hidden at info level"))
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr string
	}{
		{name: "console info", opts: Options{LogEncoding: "console", LogLevel: "info"}},
		{name: "json trace", opts: Options{LogEncoding: "json", LogLevel: "trace"}},
		{name: "unknown encoding", opts: Options{LogEncoding: "text", LogLevel: "info"}, wantErr: "invalid log encoding"},
		{name: "unknown level", opts: Options{LogEncoding: "json", LogLevel: "warn"}, wantErr: "invalid log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			err := tt.opts.Validate()
			if tt.wantErr == "" {
				g.Expect(err).ToNot(HaveOccurred())
				return
			}
			g.Expect(err).To(MatchError(ContainSubstring(tt.wantErr)))
		})
	}
}

func TestNewLogger_DebugLevel(t *testing.T) {
	g := NewWithT(t)

	var buf bytes.Buffer
	log := NewLogger(Options{LogEncoding: "json", LogLevel: "debug", Output: &buf})

	log.V(DebugLevel).Info("probing candidate root")
	log.V(TraceLevel).Info("hidden at debug level")

	g.Expect(buf.String()).To(ContainSubstring("probing candidate root"))
	g.Expect(buf.String()).ToNot(ContainSubstring("hidden at debug level"))
}
