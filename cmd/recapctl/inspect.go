package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nharlow/recap/internal/parquet"
)

var inspectDir string

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print metadata of every cache file in a directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		pattern := filepath.Join(inspectDir, "*."+parquet.Ext)
		paths, err := filepath.Glob(pattern)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			fmt.Printf("no cache files in %s\n", inspectDir)
			return nil
		}
		sort.Strings(paths)

		for _, path := range paths {
			info, err := parquet.Info(path)
			if err != nil {
				fmt.Printf("%s: %v\n", filepath.Base(path), err)
				continue
			}
			fmt.Printf("%s  rows=%d  size=%d  columns=[%s]\n",
				filepath.Base(path), info.NumRows, info.Size,
				strings.Join(info.Columns, ", "))
		}
		return nil
	},
}

func init() {
	inspectCmd.Flags().StringVar(&inspectDir, "dir", ".", "cache directory")
}
