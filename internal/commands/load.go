package commands

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"lead-scoring-pipeline/internal/config"
	"lead-scoring-pipeline/internal/database"
	"lead-scoring-pipeline/internal/parser"
)

// DefaultLoadTable is the table raw lead data is loaded into
const DefaultLoadTable = "loaded_data"

type loadOptions struct {
	csvFile string
	dbFile  string
	table   string
	replace bool
}

// NewLoadCommand creates the 'load' subcommand for importing raw lead data
// Usage: lead-scoring load --file leadscoring.csv [--table loaded_data] [--db utils_output.db] [--replace]
func NewLoadCommand(opts *Options) *cobra.Command {
	var lo loadOptions

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load a raw lead data CSV into the pipeline database",
		Long: `Parse a CSV file, detect column types from a sample of rows and store the
data in a table of the pipeline database.

Column names are lowercased and reduced to letters, digits and underscores.
Empty values are stored as NULL. Every table gets a row_id primary key.

By default rows are added to an existing table with the same name.
Use --replace to drop and recreate the table first.

Example:
  lead-scoring load --file data/leadscoring.csv
  lead-scoring load --file new_leads.csv --table leads_2021 --replace`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			run := lo
			if run.dbFile == "" {
				run.dbFile = opts.Settings.DatabaseFile()
			}
			n, err := runLoadCommand(opts.Log, run)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d rows into %s.%s\n", n, run.dbFile, run.table)
			return nil
		},
	}

	cmd.Flags().StringVarP(&lo.csvFile, "file", "f", "", "Path to CSV file (required)")
	cmd.Flags().StringVarP(&lo.dbFile, "db", "d", "", config.DatabaseFileDescription)
	cmd.Flags().StringVarP(&lo.table, "table", "t", DefaultLoadTable, "Table to load rows into")
	cmd.Flags().BoolVar(&lo.replace, "replace", false, "Drop and recreate the table before loading")
	cmd.MarkFlagRequired("file")

	return cmd
}

func runLoadCommand(log logrus.FieldLogger, lo loadOptions) (int64, error) {
	if !fileExists(lo.csvFile) {
		return 0, fmt.Errorf("CSV file does not exist: %s", lo.csvFile)
	}

	log = log.WithFields(logrus.Fields{"file": lo.csvFile, "table": lo.table})

	headers, records, err := parser.ParseCSVRaw(lo.csvFile)
	if err != nil {
		return 0, fmt.Errorf("failed to parse CSV file: %w", err)
	}

	schema, err := parser.DetectSchema(headers, records, lo.table)
	if err != nil {
		return 0, fmt.Errorf("failed to detect schema: %w", err)
	}
	for _, col := range schema.Columns {
		log.WithFields(logrus.Fields{
			"column":   col.Name,
			"type":     col.Type,
			"nullable": col.Nullable,
			"index":    col.Index,
		}).Debug("detected column")
	}

	db, err := database.Initialize(lo.dbFile, log)
	if err != nil {
		return 0, fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := database.CreateTable(db, schema, lo.replace); err != nil {
		return 0, err
	}

	n, err := database.InsertRecords(db, schema, records)
	if err != nil {
		return 0, fmt.Errorf("failed to insert records: %w", err)
	}

	log.WithFields(logrus.Fields{"rows": n, "columns": len(schema.Columns)}).Info("lead data loaded")
	return n, nil
}
