package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"lead-scoring-pipeline/internal/config"
)

// NewPathsCommand creates the 'paths' subcommand which prints the pipeline locations
func NewPathsCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Show the pipeline paths and file names",
		Long: `Show the fixed pipeline constants, the full paths derived from them,
and the locations this run resolves to after --config, .env and
LEAD_SCORING_* environment overrides.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

			constants := config.Constants()
			for _, name := range config.ConstantNames() {
				fmt.Fprintf(w, "%s\t%s\n", name, constants[name])
			}
			fmt.Fprintln(w)
			fmt.Fprintf(w, "database\t%s\n", config.DatabaseFile())
			fmt.Fprintf(w, "unit test database\t%s\n", config.UnitTestDatabaseFile())
			fmt.Fprintf(w, "interaction mapping\t%s\n", config.InteractionMappingFile())

			s := opts.Settings
			if s != config.DefaultSettings() {
				fmt.Fprintln(w)
				fmt.Fprintf(w, "resolved database\t%s\n", s.DatabaseFile())
				fmt.Fprintf(w, "resolved unit test database\t%s\n", s.UnitTestDatabaseFile())
				fmt.Fprintf(w, "resolved interaction mapping\t%s\n", s.InteractionMappingFile())
			}

			return w.Flush()
		},
	}
}
