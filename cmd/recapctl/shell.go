package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	prompt "github.com/c-bata/go-prompt"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nharlow/recap/internal/query"
)

var shellDir string

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive SQL shell over a cache directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := query.Open(shellDir)
		if err != nil {
			return err
		}
		defer svc.Close()

		if !term.IsTerminal(int(os.Stdin.Fd())) {
			// Piped input: execute line by line without the prompt UI.
			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				executeShellLine(svc, scanner.Text())
			}
			return scanner.Err()
		}

		fmt.Printf("recap shell over %s ($model / $agent expand to cache globs, \\q quits)\n", shellDir)
		p := prompt.New(
			func(line string) { executeShellLine(svc, line) },
			shellCompleter,
			prompt.OptionPrefix("recap> "),
			prompt.OptionTitle("recapctl shell"),
		)
		p.Run()
		return nil
	},
}

func executeShellLine(svc *query.Service, line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if line == `\q` || line == "exit" || line == "quit" {
		os.Exit(0)
	}

	results, err := svc.ExecuteSQL(context.Background(), line)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	printRows(results)
}

func shellCompleter(d prompt.Document) []prompt.Suggest {
	suggestions := []prompt.Suggest{
		{Text: "SELECT", Description: "start a query"},
		{Text: "FROM", Description: ""},
		{Text: "WHERE", Description: ""},
		{Text: "GROUP BY", Description: ""},
		{Text: "ORDER BY", Description: ""},
		{Text: "LIMIT", Description: ""},
		{Text: "read_parquet('$model')", Description: "model cache files"},
		{Text: "read_parquet('$agent')", Description: "agent cache files"},
		{Text: "step", Description: "step index column"},
		{Text: "agent_id", Description: "agent id column"},
	}
	return prompt.FilterHasPrefix(suggestions, d.GetWordBeforeCursor(), true)
}

func init() {
	shellCmd.Flags().StringVar(&shellDir, "dir", ".", "cache directory")
}
