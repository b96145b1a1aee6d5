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

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/fluxcd/assembly-publisher/artifact/config"
	"github.com/fluxcd/assembly-publisher/pipeline"
	"github.com/fluxcd/assembly-publisher/runtime/logger"
)

const controllerName = "process-assemblies"

func main() {
	err := newRootCmd().ExecuteContext(ctrl.SetupSignalHandler())
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(pipeline.ExitCode(err))
}

func newRootCmd() *cobra.Command {
	var (
		opts          config.Options
		loggerOptions logger.Options
	)

	cmd := &cobra.Command{
		Use:   controllerName,
		Short: "Publicize game assemblies and publish them when their content changes",
		Long: `Locate the game assemblies, run them through the publicizer, record their
digests in the ledger and, when they changed, commit, tag and push them.
A version whose tag already exists on the remote is not processed again.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, &opts, loggerOptions)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &pipeline.ConfigError{Err: err}
	})

	opts.BindFlags(cmd.Flags())
	loggerOptions.BindFlags(cmd.PersistentFlags())
	return cmd
}
