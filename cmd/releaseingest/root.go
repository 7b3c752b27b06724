package main

import (
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"releaseingest/internal/config"
	"releaseingest/internal/logging"
)

type flagValues struct {
	configPath string
	logLevel   string
	logFormat  string
	store      string
	statusAddr string
}

func newRootCommand() *cobra.Command {
	flags := &flagValues{}

	rootCmd := &cobra.Command{
		Use:           "releaseingest",
		Short:         "Continuously harvest album releases from Spotify into the catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "TOML configuration file")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&flags.logFormat, "log-format", "", "Log format: text or json")
	pf.StringVar(&flags.store, "store", "", "Storage driver: postgres, sqlite or memory")
	pf.StringVar(&flags.statusAddr, "status-addr", "", "Address for the status HTTP listener (empty disables it)")

	rootCmd.AddCommand(newRunCommand(flags))
	rootCmd.AddCommand(newOnceCommand(flags))
	rootCmd.AddCommand(newConfigCommand(flags))

	return rootCmd
}

// loadConfig resolves the effective configuration: defaults, file, environment, then flags.
func loadConfig(cmd *cobra.Command, flags *flagValues) (*config.Config, error) {
	config.LoadEnvFiles()

	cfg, err := config.Load(strings.TrimSpace(flags.configPath))
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("log-level") {
		cfg.Log.Level = flags.logLevel
	}
	if changed("log-format") {
		cfg.Log.Format = flags.logFormat
	}
	if changed("store") {
		cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(flags.store))
	}
	if changed("status-addr") {
		cfg.Status.Addr = flags.statusAddr
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	return logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})
}
