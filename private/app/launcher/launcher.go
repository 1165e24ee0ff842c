// Copyright 2020 Anapaya Systems
// Copyright 2026 The tlsync Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package launcher provides the common harness of the tlsync server
// applications: the command line, configuration loading, logging setup and
// signal handling.
package launcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tlsync/tlsync/pkg/log"
	"github.com/tlsync/tlsync/pkg/private/processmetrics"
	"github.com/tlsync/tlsync/pkg/private/prom"
	"github.com/tlsync/tlsync/pkg/private/serrors"
	"github.com/tlsync/tlsync/private/app/command"
	libconfig "github.com/tlsync/tlsync/private/config"
	"github.com/tlsync/tlsync/private/env"
)

// Configuration keys used by the launcher. The keys are shared with the
// application configuration file.
const (
	cfgConfigFile                = "config"
	cfgLogConsoleLevel           = "log.console.level"
	cfgLogConsoleFormat          = "log.console.format"
	cfgLogConsoleStacktraceLevel = "log.console.stacktrace_level"
	cfgLogConsoleDisableCaller   = "log.console.disable_caller"
	cfgGeneralID                 = "general.id"
)

// EnvPrefix is the prefix of the environment variables that override the
// launcher configuration keys, for example TLSYNC_LOG_CONSOLE_LEVEL.
const EnvPrefix = "TLSYNC"

// Application models a tlsync server application.
type Application struct {
	// TOMLConfig holds the Go data structure for the application-specific
	// TOML configuration.
	TOMLConfig libconfig.Config

	// Samplers contains additional sample commands listed under the sample
	// subcommand.
	Samplers []func(command.Pather) *cobra.Command

	// ShortName is the short name of the application. If empty, the
	// executable name is used.
	ShortName string

	// Main is the custom logic of the application. If nil, no custom logic is
	// executed. If Main returns an error, Run exits with a non-zero code.
	Main func(ctx context.Context) error

	// ErrorWriter specifies where error output should be printed. If nil,
	// os.Stderr is used.
	ErrorWriter io.Writer

	cmd    *cobra.Command
	config *viper.Viper
}

// Run sets up the common harness and then passes control to the Main function
// (if one exists). Run exits the application if it encounters a fatal error.
func (a *Application) Run() {
	if err := a.run(os.Args[1:]); err != nil {
		fmt.Fprintf(a.getErrorWriter(), "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func (a *Application) run(args []string) error {
	executable := filepath.Base(os.Args[0])
	shortName := a.getShortName(executable)

	a.cmd = newCommandTemplate(executable, shortName, a.TOMLConfig, a.Samplers...)
	a.cmd.SetArgs(args)
	a.cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return a.executeCommand(cmd.Context(), shortName)
	}
	a.config = viper.New()
	a.config.SetDefault(cfgLogConsoleLevel, log.DefaultConsoleLevel)
	a.config.SetDefault(cfgLogConsoleFormat, "human")
	a.config.SetDefault(cfgLogConsoleStacktraceLevel, log.DefaultStacktraceLevel)
	a.config.SetDefault(cfgLogConsoleDisableCaller, false)
	a.config.SetDefault(cfgGeneralID, executable)
	a.config.SetEnvPrefix(EnvPrefix)
	a.config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.config.AutomaticEnv()
	// The configuration file location is specified through command-line
	// flags. Once the flags are parsed, the location is available through
	// the viper config.
	if err := a.config.BindPFlag(cfgConfigFile, a.cmd.Flags().Lookup(cfgConfigFile)); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.cmd.ExecuteContext(ctx)
}

func (a *Application) getShortName(executable string) string {
	if a.ShortName != "" {
		return a.ShortName
	}
	return executable
}

func (a *Application) executeCommand(ctx context.Context, shortName string) error {
	os.Setenv("TZ", "UTC")

	// Load launcher configurations from the same config file as the custom
	// application configuration.
	file := a.config.GetString(cfgConfigFile)
	a.config.SetConfigType("toml")
	a.config.SetConfigFile(file)
	if err := a.config.ReadInConfig(); err != nil {
		return serrors.Wrap("loading generic server config from file", err, "file", file)
	}
	if err := libconfig.LoadFile(file, a.TOMLConfig); err != nil {
		return serrors.Wrap("loading config from file", err, "file", file)
	}
	a.TOMLConfig.InitDefaults()

	logEntriesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: prom.Namespace,
			Name:      "log_emitted_entries_total",
			Help:      "Total number of log entries emitted.",
		},
		[]string{"level"},
	)
	logEntriesTotal = prom.SafeRegister(prometheus.DefaultRegisterer,
		logEntriesTotal).(*prometheus.CounterVec)
	opt := log.WithEntriesCounter(log.EntriesCounter{
		Debug: logEntriesTotal.With(prometheus.Labels{"level": "debug"}),
		Info:  logEntriesTotal.With(prometheus.Labels{"level": "info"}),
		Error: logEntriesTotal.With(prometheus.Labels{"level": "error"}),
	})
	if err := log.Setup(a.getLogging(), opt); err != nil {
		return serrors.Wrap("initialize logging", err)
	}
	defer log.Flush()

	id := a.config.GetString(cfgGeneralID)
	env.LogAppStarted(shortName, id)
	defer env.LogAppStopped(shortName, id)
	defer log.HandlePanic()

	exportBuildInfo()
	prom.ExportElementID(prometheus.DefaultRegisterer, id)
	if err := processmetrics.Init(prometheus.DefaultRegisterer); err != nil {
		log.Info("Process metrics not available", "err", err)
	}
	if err := a.TOMLConfig.Validate(); err != nil {
		return serrors.Wrap("validate config", err)
	}

	if a.Main == nil {
		return nil
	}
	go func() {
		defer log.HandlePanic()
		<-ctx.Done()
		log.Info("Received shutdown signal, stopping")
		// If Main shuts everything down in time, the process exits before
		// this fires.
		time.AfterFunc(env.ShutdownGraceInterval, func() {
			defer log.HandlePanic()
			log.Error("Main did not shut down in time, forcing exit",
				"grace", env.ShutdownGraceInterval)
			log.Flush()
			os.Exit(1)
		})
	}()
	return a.Main(ctx)
}

func (a *Application) getLogging() log.Config {
	return log.Config{
		Console: log.ConsoleConfig{
			Level:           a.config.GetString(cfgLogConsoleLevel),
			Format:          a.config.GetString(cfgLogConsoleFormat),
			StacktraceLevel: a.config.GetString(cfgLogConsoleStacktraceLevel),
			DisableCaller:   a.config.GetBool(cfgLogConsoleDisableCaller),
		},
	}
}

func (a *Application) getErrorWriter() io.Writer {
	if a.ErrorWriter != nil {
		return a.ErrorWriter
	}
	return os.Stderr
}

func newCommandTemplate(executable, shortName string, config libconfig.Sampler,
	samplers ...func(command.Pather) *cobra.Command) *cobra.Command {

	cmd := &cobra.Command{
		Use:           executable,
		Short:         shortName,
		Example:       fmt.Sprintf("  %s --config %s", executable, "tlsyncd.toml"),
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
	}
	cmd.AddCommand(
		command.NewCompletion(cmd),
		command.NewSample(cmd, append(samplers, command.NewSampleConfig(config))...),
		command.NewVersion(cmd),
		command.NewGendocs(cmd),
	)
	cmd.Flags().String(cfgConfigFile, "", "Configuration file (required)")
	cmd.MarkFlagRequired(cfgConfigFile)
	return cmd
}

func exportBuildInfo() {
	prom.SafeRegister(prometheus.DefaultRegisterer, collectors.NewBuildInfoCollector())
}
