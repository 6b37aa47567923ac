package commands

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"lead-scoring-pipeline/internal/config"
	"lead-scoring-pipeline/internal/database"
)

// NewQueryCommand creates the 'query' subcommand for read-only SQL against the pipeline database
// Usage: lead-scoring query [--db utils_output.db] [--sql "SELECT ..."]
func NewQueryCommand(opts *Options) *cobra.Command {
	var dbFile string
	var sqlQuery string

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run read-only SQL against the pipeline database",
		Long: `Run SQL against the pipeline database. Only SELECT, WITH, EXPLAIN and
read-only PRAGMA statements are accepted.

Without --sql the command reads one query per line from stdin until
'exit', 'quit' or end of input.

Example queries:
  # Interaction types per group
  SELECT interaction_mapping, COUNT(*) AS n FROM interaction_mapping GROUP BY interaction_mapping;

  # Leads per city tier
  SELECT city_tier, COUNT(*) AS leads FROM loaded_data GROUP BY city_tier;

Example:
  lead-scoring query --sql "SELECT * FROM interaction_mapping"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := dbFile
			if path == "" {
				path = opts.Settings.DatabaseFile()
			}
			if !fileExists(path) {
				return fmt.Errorf("database file does not exist: %s\nRun 'map' or 'load' first", path)
			}

			db, err := database.OpenReadOnly(path, opts.Log)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			out := cmd.OutOrStdout()
			if sqlQuery != "" {
				res, err := database.ExecuteQuery(db, sqlQuery)
				if err != nil {
					return err
				}
				return writeResults(out, res)
			}
			return runInteractive(db, cmd.InOrStdin(), out)
		},
	}

	cmd.Flags().StringVarP(&dbFile, "db", "d", "", config.DatabaseFileDescription)
	cmd.Flags().StringVarP(&sqlQuery, "sql", "s", "", "SQL query to execute (reads from stdin when omitted)")

	return cmd
}

func runInteractive(db database.DB, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, "sql> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "exit" || input == "quit" {
			break
		}
		if input == "" {
			continue
		}

		res, err := database.ExecuteQuery(db, input)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n\n", err)
			continue
		}
		if err := writeResults(out, res); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out)
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}
	return nil
}

// writeResults prints rows as an aligned table in SELECT column order
func writeResults(out io.Writer, res *database.QueryResult) error {
	if len(res.Rows) == 0 {
		_, err := fmt.Fprintln(out, "No results found.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 1, ' ', tabwriter.Debug)
	fmt.Fprintln(w, strings.Join(res.Columns, "\t"))

	seps := make([]string, len(res.Columns))
	for i, c := range res.Columns {
		seps[i] = strings.Repeat("-", max(len(c), 3))
	}
	fmt.Fprintln(w, strings.Join(seps, "\t"))

	for _, row := range res.Rows {
		cells := make([]string, len(res.Columns))
		for i, c := range res.Columns {
			if row[c] == nil {
				cells[i] = "NULL"
			} else {
				cells[i] = fmt.Sprint(row[c])
			}
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(out, "(%d rows)\n", len(res.Rows))
	return err
}
