// Package commands implements the CLI commands for the lead scoring pipeline utilities
package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"lead-scoring-pipeline/internal/config"
)

// Options carries state shared by all subcommands.
// Settings is resolved once in the root command's PersistentPreRunE.
type Options struct {
	Log      *logrus.Logger
	Settings config.Settings

	configFile string
	envFile    string
	logLevel   string
	logFormat  string
}

// NewRootCommand builds the lead-scoring command tree
func NewRootCommand() *cobra.Command {
	opts := &Options{
		Log:      logrus.New(),
		Settings: config.DefaultSettings(),
	}

	rootCmd := &cobra.Command{
		Use:   "lead-scoring",
		Short: "Utilities for the lead scoring data pipeline",
		Long: `Utilities for the lead scoring data pipeline.

The pipeline keeps its SQLite database under the DB path and its input files
under the data directory. Use 'paths' to see where those are, 'map' to load the
interaction mapping, 'load' to import raw lead data and 'query' to inspect the
results.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd.ErrOrStderr())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", config.ConfigFileDescription)
	flags.StringVar(&opts.envFile, "env-file", ".env", "Optional .env file with LEAD_SCORING_* overrides")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", "text", "Log format (text, json)")

	rootCmd.AddCommand(NewPathsCommand(opts))
	rootCmd.AddCommand(NewMapCommand(opts))
	rootCmd.AddCommand(NewLoadCommand(opts))
	rootCmd.AddCommand(NewQueryCommand(opts))

	return rootCmd
}

func (o *Options) setup(logOut io.Writer) error {
	level, err := logrus.ParseLevel(o.logLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	o.Log.SetLevel(level)
	o.Log.SetOutput(logOut)

	switch o.logFormat {
	case "text":
		o.Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		o.Log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("invalid --log-format %q: must be text or json", o.logFormat)
	}

	settings, err := config.LoadSettings(o.configFile, o.envFile)
	if err != nil {
		return err
	}
	o.Settings = settings

	o.Log.WithFields(logrus.Fields{
		"database": settings.DatabaseFile(),
		"mapping":  settings.InteractionMappingFile(),
	}).Debug("settings resolved")
	return nil
}

// fileExists reports whether path names an existing regular file
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
