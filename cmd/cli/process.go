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
	"github.com/spf13/cobra"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/fluxcd/assembly-publisher/artifact/config"
	"github.com/fluxcd/assembly-publisher/pipeline"
	"github.com/fluxcd/assembly-publisher/runtime/logger"
)

func runProcess(cmd *cobra.Command, opts *config.Options, loggerOptions logger.Options) error {
	if err := loggerOptions.Validate(); err != nil {
		return &pipeline.ConfigError{Err: err}
	}
	if loggerOptions.Output == nil {
		loggerOptions.Output = cmd.ErrOrStderr()
	}
	logger.SetLogger(logger.NewLogger(loggerOptions))
	log := ctrl.Log.WithName(controllerName)

	if err := opts.ApplyFile(cmd.Flags()); err != nil {
		return &pipeline.ConfigError{Err: err}
	}
	if err := opts.Validate(); err != nil {
		return &pipeline.ConfigError{Err: err}
	}

	log.Info("processing assemblies",
		"version", opts.Version,
		"artifacts", len(opts.GetArtifacts()),
		"autoPublish", opts.AutoPublish,
		"force", opts.Force)

	res, err := pipeline.New(opts, log).Run(cmd.Context())
	if res != nil {
		res.PrintSummary(cmd.OutOrStdout())
	}
	return err
}
