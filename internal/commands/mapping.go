package commands

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"lead-scoring-pipeline/internal/config"
	"lead-scoring-pipeline/internal/database"
	"lead-scoring-pipeline/internal/models"
	"lead-scoring-pipeline/internal/parser"
)

type mapOptions struct {
	csvFile    string
	dbFile     string
	unitTestDB bool
	appendMode bool
}

// NewMapCommand creates the 'map' subcommand for loading the interaction mapping
// Usage: lead-scoring map [--file interaction_mapping.csv] [--db utils_output.db] [--append]
func NewMapCommand(opts *Options) *cobra.Command {
	var mo mapOptions

	cmd := &cobra.Command{
		Use:   "map",
		Short: "Load the interaction mapping CSV into the pipeline database",
		Long: `Load the interaction mapping CSV into the interaction_mapping table.

The CSV has two columns: interaction_type, interaction_mapping. A header row
and a leading pandas index column are both optional.

Without flags the file is read from the data directory and written to the
pipeline database. --unit-test writes to the unit test database instead.

Example:
  lead-scoring map
  lead-scoring map --file ./interaction_mapping.csv --db ./utils_output.db
  lead-scoring map --unit-test --append`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			run := mo.resolve(opts.Settings)
			n, err := runMapCommand(opts.Log, run)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d interaction mappings into %s\n", n, run.dbFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&mo.csvFile, "file", "f", "", config.InteractionMappingDescription)
	cmd.Flags().StringVarP(&mo.dbFile, "db", "d", "", config.DatabaseFileDescription)
	cmd.Flags().BoolVar(&mo.unitTestDB, "unit-test", false, "Use the unit test database when --db is not given")
	cmd.Flags().BoolVar(&mo.appendMode, "append", false, "Merge into existing mappings (default: replace them)")

	return cmd
}

// resolve fills unset paths from settings, leaving the flag-bound values untouched
func (mo mapOptions) resolve(s config.Settings) mapOptions {
	if mo.csvFile == "" {
		mo.csvFile = s.InteractionMappingFile()
	}
	if mo.dbFile == "" {
		mo.dbFile = s.DatabaseFile()
		if mo.unitTestDB {
			mo.dbFile = s.UnitTestDatabaseFile()
		}
	}
	return mo
}

func runMapCommand(log logrus.FieldLogger, mo mapOptions) (int64, error) {
	if !fileExists(mo.csvFile) {
		return 0, fmt.Errorf("interaction mapping file does not exist: %s", mo.csvFile)
	}

	log = log.WithFields(logrus.Fields{"file": mo.csvFile, "database": mo.dbFile})

	mappings, err := parser.ParseInteractionMapping(mo.csvFile)
	if err != nil {
		return 0, fmt.Errorf("failed to parse interaction mapping: %w", err)
	}
	log.WithField("rows", len(mappings)).Info("parsed interaction mapping")

	for _, m := range mappings {
		if !models.IsKnownCategory(m.Category) {
			log.WithField("interaction_type", m.InteractionType).
				Warnf("unknown interaction group %q", m.Category)
		}
	}

	db, err := database.Initialize(mo.dbFile, log)
	if err != nil {
		return 0, fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	n, err := database.InsertInteractionMappings(db, mappings, mo.appendMode)
	if err != nil {
		return 0, fmt.Errorf("failed to store interaction mapping: %w", err)
	}

	log.WithFields(logrus.Fields{"rows": n, "append": mo.appendMode}).Info("interaction mapping stored")
	return n, nil
}
