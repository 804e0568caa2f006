package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/nharlow/recap/internal/manifest"
)

var (
	runsDir      string
	runsManifest string
	runsBuckets  bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List the cache runs recorded in a directory's manifest",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := runsManifest
		if path == "" {
			path = filepath.Join(runsDir, "manifest.db")
		}

		store, err := manifest.Open(context.Background(), path)
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.ListRuns(context.Background())
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("no runs recorded")
			return nil
		}

		for _, r := range runs {
			status := "running"
			if !r.FinishedAt.IsZero() {
				status = "finished " + r.FinishedAt.Format(time.RFC3339)
			}
			fmt.Printf("run %d  %s  %s  steps=%d/%d  sample=%d  interval=%d  %s\n",
				r.ID, r.Mode, r.StartedAt.Format(time.RFC3339),
				r.StepsCompleted, r.TotalSteps, r.SampleRate, r.FlushInterval, status)
			if r.DroppedModel > 0 || r.DroppedAgent > 0 {
				fmt.Printf("    dropped tail: %d model, %d agent records\n",
					r.DroppedModel, r.DroppedAgent)
			}

			if runsBuckets {
				buckets, err := store.Buckets(context.Background(), r.ID)
				if err != nil {
					return err
				}
				for _, b := range buckets {
					fmt.Printf("    bucket %d  steps %d-%d  model_rows=%d  agent_rows=%d\n",
						b.Bucket, b.WindowStart, b.WindowEnd, b.ModelRows, b.AgentRows)
				}
			}
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().StringVar(&runsDir, "dir", ".", "cache directory")
	runsCmd.Flags().StringVar(&runsManifest, "manifest", "", "manifest database path (overrides --dir)")
	runsCmd.Flags().BoolVar(&runsBuckets, "buckets", false, "also list each run's flushed buckets")
}
