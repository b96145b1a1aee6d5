/*
Copyright 2020 The Flux authors

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
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/go-logr/logr"
	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"
	"k8s.io/klog/v2"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

const (
	flagLogEncoding = "log-encoding"
	envLogEncoding  = "ASSEMBLIES_LOG_ENCODING"
	flagLogLevel    = "log-level"
	envLogLevel     = "ASSEMBLIES_LOG_LEVEL"
)

// These are for convenience when doing log.V(...) to log at a particular level. They correspond to the logr
// equivalents of the zap levels below.
const (
	TraceLevel = 2
	DebugLevel = 1
	InfoLevel  = 0
)

// level pairs the minimum zap level of a verbosity with the level from
// which stack traces are attached.
type level struct {
	enabled    zapcore.Level
	stacktrace zapcore.Level
}

// zap doesn't include trace level as a const, but it accepts any int8;
// logr will convert a log.V(n) to zap's scheme, so e.g., V(2) will be
// custom debug level -2 in zap (i.e., `trace` below).
var levels = map[string]level{
	"trace": {enabled: zapcore.DebugLevel - 1, stacktrace: zapcore.ErrorLevel},
	"debug": {enabled: zapcore.DebugLevel, stacktrace: zapcore.ErrorLevel},
	"info":  {enabled: zapcore.InfoLevel, stacktrace: zapcore.PanicLevel},
	"error": {enabled: zapcore.ErrorLevel, stacktrace: zapcore.PanicLevel},
}

var encodings = []string{"console", "json"}

// Options configures the logger of a pipeline run. It is bound to the
// persistent flags of the root command and used once they are parsed:
//
//	logger.SetLogger(logger.NewLogger(loggerOptions))
type Options struct {
	LogEncoding string
	LogLevel    string

	// Output is where log lines are written, os.Stderr when nil.
	Output io.Writer
}

// BindFlags will parse the given pflag.FlagSet for logger option flags and set the Options accordingly.
func (o *Options) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.LogEncoding, flagLogEncoding, envOrDefault(envLogEncoding, "console"),
		"Log encoding format. Can be 'json' or 'console'.")
	fs.StringVar(&o.LogLevel, flagLogLevel, envOrDefault(envLogLevel, "info"),
		"Log verbosity level. Can be one of 'trace', 'debug', 'info', 'error'.")
}

// Validate returns an error for an unknown encoding or level.
func (o Options) Validate() error {
	if !slices.Contains(encodings, o.LogEncoding) {
		return fmt.Errorf("invalid log encoding %q, must be one of %v", o.LogEncoding, encodings)
	}
	if _, ok := levels[o.LogLevel]; !ok {
		return fmt.Errorf("invalid log level %q, must be one of trace, debug, info, error", o.LogLevel)
	}
	return nil
}

// NewLogger returns a logger configured with the given Options, and
// timestamps set to the ISO8601 format. Unknown values fall back to the
// console encoding at info level.
func NewLogger(opts Options) logr.Logger {
	encoderOpts := []zap.EncoderConfigOption{
		func(config *zapcore.EncoderConfig) {
			config.EncodeTime = zapcore.ISO8601TimeEncoder
		},
	}
	zapOpts := zap.Options{
		EncoderConfigOptions: encoderOpts,
		DestWriter:           opts.Output,
	}
	if zapOpts.DestWriter == nil {
		zapOpts.DestWriter = os.Stderr
	}

	if opts.LogEncoding == "json" {
		zap.JSONEncoder(encoderOpts...)(&zapOpts)
	} else {
		zap.ConsoleEncoder(encoderOpts...)(&zapOpts)
	}

	l, ok := levels[opts.LogLevel]
	if !ok {
		l = levels["info"]
	}
	zapOpts.Level = l.enabled
	zapOpts.StacktraceLevel = l.stacktrace

	return zap.New(zap.UseFlagOptions(&zapOpts))
}

// SetLogger sets the logger for the controller-runtime and klog packages to the given logger.
// It is not thread-safe, and should be called as early as possible in the program's execution.
func SetLogger(logger logr.Logger) {
	ctrl.SetLogger(logger)
	klog.SetLoggerWithOptions(logger.WithName("runtime"), klog.ContextualLogger(true))
}

func envOrDefault(envName, defaultValue string) string {
	if v := os.Getenv(envName); v != "" {
		return v
	}
	return defaultValue
}
