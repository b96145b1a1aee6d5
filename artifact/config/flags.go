/*
Copyright 2025 The Flux authors

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
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/fluxcd/assembly-publisher/version"
)

const (
	flagVersion = "version"
	envVersion  = "ASSEMBLIES_VERSION"

	flagSourceDir = "source-dir"
	envSourceDir  = "ASSEMBLIES_SOURCE_DIR"

	flagGame = "game"
	envGame  = "ASSEMBLIES_GAME"

	flagOutputDir    = "output-dir"
	envOutputDir     = "ASSEMBLIES_OUTPUT_DIR"
	defaultOutputDir = "lib"

	flagLedgerPath    = "ledger-path"
	envLedgerPath     = "ASSEMBLIES_LEDGER_PATH"
	defaultLedgerPath = "assembly-hashes.json"

	flagWorkDir = "work-dir"
	envWorkDir  = "ASSEMBLIES_WORK_DIR"

	flagRepoDir    = "repo-dir"
	envRepoDir     = "ASSEMBLIES_REPO_DIR"
	defaultRepoDir = "."

	flagRemote    = "remote"
	envRemote     = "ASSEMBLIES_REMOTE"
	defaultRemote = "origin"

	flagTagPrefix = "tag-prefix"
	envTagPrefix  = "ASSEMBLIES_TAG_PREFIX"

	flagTool    = "tool"
	envTool     = "ASSEMBLIES_TOOL"
	defaultTool = "assembly-publicizer"

	flagToolArgs = "tool-args"
	envToolArgs  = "ASSEMBLIES_TOOL_ARGS"

	flagToolTimeout    = "tool-timeout"
	envToolTimeout     = "ASSEMBLIES_TOOL_TIMEOUT"
	defaultToolTimeout = 5 * time.Minute

	flagToolInstallCommand    = "tool-install-command"
	envToolInstallCommand     = "ASSEMBLIES_TOOL_INSTALL_COMMAND"
	defaultToolInstallCommand = "dotnet tool install --global BepInEx.AssemblyPublicizer.Cli"

	flagDigestAlgo    = "digest-algo"
	envDigestAlgo     = "ASSEMBLIES_DIGEST_ALGO"
	defaultDigestAlgo = "sha256"

	flagSkipTransform = "skip-transform"
	envSkipTransform  = "ASSEMBLIES_SKIP_TRANSFORM"

	flagForce = "force"
	envForce  = "ASSEMBLIES_FORCE"

	flagAutoPublish = "auto-publish"
	envAutoPublish  = "ASSEMBLIES_AUTO_PUBLISH"

	flagStrictRemoteCheck = "strict-remote-check"
	envStrictRemoteCheck  = "ASSEMBLIES_STRICT_REMOTE_CHECK"

	flagLockTimeout    = "lock-timeout"
	envLockTimeout     = "ASSEMBLIES_LOCK_TIMEOUT"
	defaultLockTimeout = 10 * time.Second

	flagConfigFile = "config"
	envConfigFile  = "ASSEMBLIES_CONFIG"
)

// DefaultToolArgs are the arguments given to the publicizer after the input path.
var DefaultToolArgs = []string{"--strip"}

// BindFlags will parse the given pflag.FlagSet for the pipeline and set the Options accordingly.
func (o *Options) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Version, flagVersion,
		envOrDefault(envVersion, ""),
		"The version being published, the publish tag is derived from it.")

	fs.StringVar(&o.SourceDir, flagSourceDir,
		envOrDefault(envSourceDir, ""),
		"Explicit path of the game install, the well-known locations are probed when it does not exist.")

	fs.StringVar(&o.Game, flagGame,
		envOrDefault(envGame, ""),
		"The game install directory name probed under the Steam libraries.")

	fs.StringVar(&o.OutputDir, flagOutputDir,
		envOrDefault(envOutputDir, defaultOutputDir),
		"The directory the processed assemblies are published to.")

	fs.StringVar(&o.LedgerPath, flagLedgerPath,
		envOrDefault(envLedgerPath, defaultLedgerPath),
		"The path to the JSON file recording the digest of each published assembly.")

	fs.StringVar(&o.WorkDir, flagWorkDir,
		envOrDefault(envWorkDir, ""),
		"The parent directory of the temporary working directory.")

	fs.StringVar(&o.RepoDir, flagRepoDir,
		envOrDefault(envRepoDir, defaultRepoDir),
		"A path inside the Git working tree the results are committed to.")

	fs.StringVar(&o.Remote, flagRemote,
		envOrDefault(envRemote, defaultRemote),
		"The Git remote checked for existing publish tags and pushed to.")

	fs.StringVar(&o.TagPrefix, flagTagPrefix,
		envOrDefault(envTagPrefix, version.DefaultTagPrefix),
		"The prefix of the publish tag.")

	fs.StringVar(&o.Tool, flagTool,
		envOrDefault(envTool, defaultTool),
		"The name or path of the assembly publicizer executable.")

	fs.StringSliceVar(&o.ToolArgs, flagToolArgs,
		sliceEnvOrDefault(envToolArgs, DefaultToolArgs),
		"The arguments passed to the publicizer after the input path.")

	fs.DurationVar(&o.ToolTimeout, flagToolTimeout,
		durationEnvOrDefault(envToolTimeout, defaultToolTimeout),
		"The maximum duration of a single publicizer invocation.")

	fs.StringVar(&o.ToolInstallCommand, flagToolInstallCommand,
		envOrDefault(envToolInstallCommand, defaultToolInstallCommand),
		"The command run once to install the publicizer when it cannot be found, empty to disable.")

	fs.StringVar(&o.DigestAlgo, flagDigestAlgo,
		envOrDefault(envDigestAlgo, defaultDigestAlgo),
		"The hashing algorithm used to fingerprint the published assemblies.")

	fs.BoolVar(&o.SkipTransform, flagSkipTransform,
		boolEnvOrDefault(envSkipTransform, false),
		"Publish every assembly verbatim without running the publicizer.")

	fs.BoolVar(&o.Force, flagForce,
		boolEnvOrDefault(envForce, false),
		"Process the version even if its publish tag already exists on the remote.")

	fs.BoolVar(&o.AutoPublish, flagAutoPublish,
		boolEnvOrDefault(envAutoPublish, false),
		"Commit, tag and push the published assemblies when they changed.")

	fs.BoolVar(&o.StrictRemoteCheck, flagStrictRemoteCheck,
		boolEnvOrDefault(envStrictRemoteCheck, false),
		"Fail instead of proceeding when the remote cannot be queried for the publish tag.")

	fs.DurationVar(&o.LockTimeout, flagLockTimeout,
		durationEnvOrDefault(envLockTimeout, defaultLockTimeout),
		"The maximum duration to wait for another run to release the ledger lock.")

	fs.StringVar(&o.ConfigFile, flagConfigFile,
		envOrDefault(envConfigFile, ""),
		"Optional YAML or TOML file with the artifact list and the search configuration.")
}

// envOrDefault returns the value of the environment variable named by the key.
// If the variable is empty or not present, it returns the defaultValue instead.
func envOrDefault(envName, defaultValue string) string {
	ret := os.Getenv(envName)
	if ret != "" {
		return ret
	}

	return defaultValue
}

func boolEnvOrDefault(envName string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(envName))); err == nil {
		return v
	}
	return defaultValue
}

// sliceEnvOrDefault splits the comma separated value of the environment
// variable, empty items are dropped.
func sliceEnvOrDefault(envName string, defaultValue []string) []string {
	var ret []string
	for _, v := range strings.Split(os.Getenv(envName), ",") {
		if v = strings.TrimSpace(v); v != "" {
			ret = append(ret, v)
		}
	}
	if len(ret) == 0 {
		return defaultValue
	}
	return ret
}

func durationEnvOrDefault(envName string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(envName))); err == nil {
		return v
	}
	return defaultValue
}
