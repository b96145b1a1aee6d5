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

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"
	"sigs.k8s.io/yaml"
)

// File is the YAML or TOML representation of the settings that can be kept in the
// repository next to the published assemblies.
//
//	game: Lethal Company
//	artifacts:
//	  - name: Assembly-CSharp.dll
//	    requiresTransform: true
//	  - name: Unity.Netcode.Runtime.dll
type File struct {
	Game           string     `json:"game,omitempty" toml:"game,omitempty"`
	SourceDir      string     `json:"sourceDir,omitempty" toml:"sourceDir,omitempty"`
	CandidateRoots []string   `json:"candidateRoots,omitempty" toml:"candidateRoots,omitempty"`
	RequiredSubdir string     `json:"requiredSubdir,omitempty" toml:"requiredSubdir,omitempty"`
	Artifacts      []Artifact `json:"artifacts,omitempty" toml:"artifacts,omitempty"`
	OutputDir      string     `json:"outputDir,omitempty" toml:"outputDir,omitempty"`
	LedgerPath     string     `json:"ledgerPath,omitempty" toml:"ledgerPath,omitempty"`
	TagPrefix      string     `json:"tagPrefix,omitempty" toml:"tagPrefix,omitempty"`
	Tool           string     `json:"tool,omitempty" toml:"tool,omitempty"`
	ToolArgs       []string   `json:"toolArgs,omitempty" toml:"toolArgs,omitempty"`
}

// LoadFile reads and strictly decodes the file at the given path. Files
// with a .toml extension are decoded as TOML, any other as YAML.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var f File
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		md, err := toml.Decode(string(data), &f)
		if err != nil {
			return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("failed to decode config file %s: unknown keys %v", path, undecoded)
		}
		return &f, nil
	}
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
	}
	return &f, nil
}

// ApplyFile loads Options.ConfigFile, if set, and copies its values into the
// options. Values given on the command line or through the environment take
// precedence over the file.
func (o *Options) ApplyFile(fs *pflag.FlagSet) error {
	if o.ConfigFile == "" {
		return nil
	}
	f, err := LoadFile(o.ConfigFile)
	if err != nil {
		return err
	}

	fromFile := func(flag, env string) bool {
		if fs != nil {
			if fl := fs.Lookup(flag); fl != nil && fl.Changed {
				return false
			}
		}
		return env == "" || os.Getenv(env) == ""
	}

	if f.Game != "" && fromFile(flagGame, envGame) {
		o.Game = f.Game
	}
	if f.SourceDir != "" && fromFile(flagSourceDir, envSourceDir) {
		o.SourceDir = f.SourceDir
	}
	if f.OutputDir != "" && fromFile(flagOutputDir, envOutputDir) {
		o.OutputDir = f.OutputDir
	}
	if f.LedgerPath != "" && fromFile(flagLedgerPath, envLedgerPath) {
		o.LedgerPath = f.LedgerPath
	}
	if f.TagPrefix != "" && fromFile(flagTagPrefix, envTagPrefix) {
		o.TagPrefix = f.TagPrefix
	}
	if f.Tool != "" && fromFile(flagTool, envTool) {
		o.Tool = f.Tool
	}
	if len(f.ToolArgs) > 0 && fromFile(flagToolArgs, envToolArgs) {
		o.ToolArgs = f.ToolArgs
	}
	if len(f.CandidateRoots) > 0 {
		o.CandidateRoots = f.CandidateRoots
	}
	if f.RequiredSubdir != "" {
		o.RequiredSubdir = f.RequiredSubdir
	}
	if len(f.Artifacts) > 0 {
		o.Artifacts = f.Artifacts
	}
	return nil
}
