package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/spyglass-dev/spyglass/actions"
	"github.com/spyglass-dev/spyglass/config"
	"github.com/spyglass-dev/spyglass/dispatch"
	"github.com/spyglass-dev/spyglass/fetch"
	"github.com/spyglass-dev/spyglass/profile"
	"github.com/spyglass-dev/spyglass/registry"
	"github.com/spyglass-dev/spyglass/transport"
)

var (
	version = "0.1.0"

	flagProfile  string
	flagRegion   string
	flagEndpoint string
	flagLogLevel string

	rootCmd = &cobra.Command{
		Use:   "spyglass",
		Short: "Browse and act on AWS resources",
		Long: `Spyglass - AWS resource browser

Spyglass lists AWS resources across profiles and regions, lets you
filter and inspect them, and runs actions like stopping an instance
or purging a queue. Every resource kind goes through the same
declarative engine; adding a new kind is a registry entry, not code.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate(`Spyglass {{.Version}} - AWS resource browser
`)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagProfile, "profile", "p", "", "AWS profile (default: AWS_PROFILE, then last used)")
	pf.StringVarP(&flagRegion, "region", "r", "", "AWS region (default: AWS_REGION, then last used)")
	pf.StringVar(&flagEndpoint, "endpoint-url", "", "Override the service endpoint (for localstack etc.)")
	pf.StringVar(&flagLogLevel, "log-level", "warn", "Log level: trace, debug, info, warn, error")

	_ = rootCmd.RegisterFlagCompletionFunc("profile", completeProfiles)
	_ = rootCmd.RegisterFlagCompletionFunc("region", completeRegions)
}

func completeProfiles(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return profile.List(), cobra.ShellCompDirectiveNoFileComp
}

func completeRegions(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return profile.Fallback(), cobra.ShellCompDirectiveNoFileComp
}

func completeKinds(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	kinds := registry.Builtin().Kinds()
	out := make([]string, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, k.ID)
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// app wires the engine together for one command invocation.
type app struct {
	logger   zerolog.Logger
	reg      *registry.Registry
	disp     *dispatch.Dispatcher
	fetcher  *fetch.Fetcher
	exec     *actions.Executor
	prefs    *config.Store
	profile  string
	region   string
	endpoint string
}

func newApp() (*app, error) {
	logger := newLogger(flagLogLevel)

	prefs, err := config.Open(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}

	reg := registry.Builtin()
	disp := dispatch.New(reg, transport.NewAWS(logger), logger)

	return &app{
		logger:   logger,
		reg:      reg,
		disp:     disp,
		fetcher:  fetch.New(reg, disp, logger),
		exec:     actions.New(reg, disp, logger),
		prefs:    prefs,
		profile:  prefs.EffectiveProfile(flagProfile),
		region:   prefs.EffectiveRegion(flagRegion),
		endpoint: flagEndpoint,
	}, nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.WarnLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().Timestamp().Logger()
}

func (a *app) target() dispatch.Target {
	return dispatch.Target{Profile: a.profile, Region: a.region, Endpoint: a.endpoint}
}

func (a *app) fetchRequest(kind string) fetch.Request {
	return fetch.Request{Kind: kind, Profile: a.profile, Region: a.region, Endpoint: a.endpoint}
}

// rememberSelection persists the working profile, region, and kind so the
// next run starts where this one left off. Persistence failures are logged,
// never fatal.
func (a *app) rememberSelection(kind string) {
	if err := a.prefs.SetProfile(a.profile); err != nil {
		a.logger.Warn().Err(err).Msg("failed to persist profile")
	}
	if err := a.prefs.SetRegion(a.region); err != nil {
		a.logger.Warn().Err(err).Msg("failed to persist region")
	}
	if kind == "" {
		return
	}
	if err := a.prefs.SetLastKind(kind); err != nil {
		a.logger.Warn().Err(err).Msg("failed to persist resource kind")
	}
}
