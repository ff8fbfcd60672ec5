package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/npratt/loanpoll/internal/config"
)

var version = "dev"

// app carries the process-wide state shared by every command.
type app struct {
	v        *viper.Viper
	logger   *slog.Logger
	logLevel *slog.LevelVar
}

// loadConfig loads layered configuration and applies the global path flags
// when they were given explicitly.
func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(a.v)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if cmd.Flags().Changed(FlagLogFile) {
		cfg.Paths.Log = a.v.GetString(FlagLogFile)
	}
	if cmd.Flags().Changed(FlagEventsFile) {
		cfg.Paths.Events = a.v.GetString(FlagEventsFile)
	}
	return cfg, nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
	})
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "loanpoll",
		Short: "Track a loan application through its status lifecycle",
		Long: `loanpoll fetches a loan application's status payload, resolves it to a
single lifecycle stage and keeps it fresh on the schedule that stage calls for:
fixed-interval polling while an audit is pending, a local countdown while the
risk check runs, and manual refresh everywhere else.

Poller activity is appended to a JSON lines event log that the events command
reads back.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if a.v.GetBool(FlagVerbose) {
				a.logLevel.Set(slog.LevelDebug)
				a.logger.Debug("verbose logging enabled")
			}
		},
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().Bool(FlagVerbose, false, "Enable verbose (debug) logging")
	rootCmd.PersistentFlags().String(FlagConfig, "", "Config file path (default: .loanpoll/config.yaml)")
	rootCmd.PersistentFlags().String(FlagLogFile, "", "Debug log path used in TUI mode")
	rootCmd.PersistentFlags().String(FlagEventsFile, "", "Poller event log path")
	bindFlags(a.v, rootCmd.PersistentFlags())

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "loanpoll %s\n", version)
		},
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(newResolveCmd(a))
	rootCmd.AddCommand(newWatchCmd(a))
	rootCmd.AddCommand(newEventsCmd(a))

	return rootCmd
}

func main() {
	logLevel := &slog.LevelVar{}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	v := viper.New()
	v.SetEnvPrefix("LOANPOLL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	rootCmd := newRootCmd(&app{v: v, logger: logger, logLevel: logLevel})

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
