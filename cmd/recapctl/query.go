package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nharlow/recap/internal/query"
)

var queryDir string

var queryCmd = &cobra.Command{
	Use:   "query [sql]",
	Short: "Run a SQL query over a cache directory",
	Long: `Run a SQL query over a cache directory using DuckDB.

The placeholders $model and $agent expand to the directory's cache file
globs, e.g.:

  recapctl query --dir out "SELECT count(*) FROM read_parquet('$model')"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := query.Open(queryDir)
		if err != nil {
			return err
		}
		defer svc.Close()

		results, err := svc.ExecuteSQL(context.Background(), args[0])
		if err != nil {
			return err
		}
		printRows(results)
		return nil
	},
}

func printRows(rows []map[string]any) {
	if len(rows) == 0 {
		fmt.Println("no rows")
		return
	}

	columns := make([]string, 0, len(rows[0]))
	for col := range rows[0] {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	fmt.Println(strings.Join(columns, "\t"))

	for _, row := range rows {
		parts := make([]string, len(columns))
		for i, col := range columns {
			parts[i] = fmt.Sprintf("%v", row[col])
		}
		fmt.Println(strings.Join(parts, "\t"))
	}
}

func init() {
	queryCmd.Flags().StringVar(&queryDir, "dir", ".", "cache directory")
}
