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

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/spf13/pflag"

	"github.com/fluxcd/assembly-publisher/artifact/config"
)

const testConfigFile = `game: Lethal Company
outputDir: assemblies
tool: /opt/publicizer
toolArgs: ["--strip", "--overwrite"]
candidateRoots:
  - /mnt/steam/common/Lethal Company
artifacts:
  - name: Assembly-CSharp.dll
    requiresTransform: true
  - name: Unity.Netcode.Runtime.dll
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "assemblies.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func Test_LoadFile(t *testing.T) {
	g := NewWithT(t)

	f, err := config.LoadFile(writeConfig(t, testConfigFile))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(f.Game).To(Equal("Lethal Company"))
	g.Expect(f.Artifacts).To(Equal([]config.Artifact{
		{Name: "Assembly-CSharp.dll", RequiresTransform: true},
		{Name: "Unity.Netcode.Runtime.dll", RequiresTransform: false},
	}))

	_, err = config.LoadFile(writeConfig(t, "unknownField: true\n"))
	g.Expect(err).To(HaveOccurred())

	_, err = config.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	g.Expect(err).To(HaveOccurred())
}

func Test_LoadFile_TOML(t *testing.T) {
	g := NewWithT(t)

	path := filepath.Join(t.TempDir(), "assemblies.toml")
	content := `game = "Lethal Company"
toolArgs = ["--strip"]

[[artifacts]]
name = "Assembly-CSharp.dll"
requiresTransform = true

[[artifacts]]
name = "Unity.Netcode.Runtime.dll"
`
	g.Expect(os.WriteFile(path, []byte(content), 0o600)).To(Succeed())

	f, err := config.LoadFile(path)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(f.Game).To(Equal("Lethal Company"))
	g.Expect(f.ToolArgs).To(Equal([]string{"--strip"}))
	g.Expect(f.Artifacts).To(Equal([]config.Artifact{
		{Name: "Assembly-CSharp.dll", RequiresTransform: true},
		{Name: "Unity.Netcode.Runtime.dll", RequiresTransform: false},
	}))

	g.Expect(os.WriteFile(path, []byte("unknownField = true\n"), 0o600)).To(Succeed())
	_, err = config.LoadFile(path)
	g.Expect(err).To(MatchError(ContainSubstring("unknown keys")))
}

func Test_Options_ApplyFile(t *testing.T) {
	g := NewWithT(t)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	opts := config.Options{}
	opts.BindFlags(fs)
	g.Expect(fs.Parse([]string{
		"--config=" + writeConfig(t, testConfigFile),
		"--tool=/usr/local/bin/publicizer",
	})).To(Succeed())

	g.Expect(opts.ApplyFile(fs)).To(Succeed())

	// The command line wins over the file.
	g.Expect(opts.Tool).To(Equal("/usr/local/bin/publicizer"))
	// The file wins over the defaults.
	g.Expect(opts.OutputDir).To(Equal("assemblies"))
	g.Expect(opts.ToolArgs).To(Equal([]string{"--strip", "--overwrite"}))
	g.Expect(opts.Game).To(Equal("Lethal Company"))
	g.Expect(opts.GetCandidateRoots()).To(Equal([]string{"/mnt/steam/common/Lethal Company"}))
	g.Expect(opts.GetArtifacts()).To(HaveLen(2))
}

func Test_Options_ApplyFile_EnvironmentWins(t *testing.T) {
	g := NewWithT(t)

	t.Setenv("ASSEMBLIES_OUTPUT_DIR", "from-env")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	opts := config.Options{}
	opts.BindFlags(fs)
	g.Expect(fs.Parse([]string{"--config=" + writeConfig(t, testConfigFile)})).To(Succeed())

	g.Expect(opts.ApplyFile(fs)).To(Succeed())
	g.Expect(opts.OutputDir).To(Equal("from-env"))
}

func Test_Options_ApplyFile_NoFile(t *testing.T) {
	g := NewWithT(t)

	opts := config.Options{OutputDir: "lib"}
	g.Expect(opts.ApplyFile(nil)).To(Succeed())
	g.Expect(opts.OutputDir).To(Equal("lib"))
}
