package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/nharlow/recap/internal/cache"
	"github.com/nharlow/recap/internal/errors"
)

var (
	replayConfig        string
	replayDir           string
	replaySteps         int64
	replaySampleRate    int64
	replayFlushInterval int64
	replayPrintEvery    int64
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Step through a recorded cache directory and print model state",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRunConfig(replayConfig)
		if err != nil {
			return err
		}
		cfg.Mode = "replay"
		if replayDir != "" {
			cfg.OutputDir = replayDir
		}
		if replaySteps > 0 {
			cfg.TotalSteps = replaySteps
		}
		if replaySampleRate > 0 {
			cfg.SampleRate = replaySampleRate
		}
		if replayFlushInterval > 0 {
			cfg.FlushInterval = replayFlushInterval
		}

		// Replay needs no model; the session never steps it.
		session, err := cache.New(nil, nil, cfg)
		if err != nil {
			return err
		}
		defer session.Close()

		for i := int64(0); i < cfg.TotalSteps; i++ {
			if err := session.Step(); err != nil {
				if errors.IsReplayMiss(err) {
					fmt.Printf("step %d: not cached (%v)\n", i, err)
					return nil
				}
				return err
			}
			if replayPrintEvery > 0 && i%replayPrintEvery == 0 {
				if vars, ok := session.ModelVars(); ok {
					fmt.Printf("step %d: %s (%d agent rows)\n",
						i, formatVars(vars), len(session.AgentVars()))
				}
			}
		}
		return nil
	},
}

func formatVars(vars map[string]float64) string {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	out := ""
	for i, name := range names {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s=%.3f", name, vars[name])
	}
	return out
}

func init() {
	replayCmd.Flags().StringVar(&replayConfig, "config", "", "run config file (YAML)")
	replayCmd.Flags().StringVar(&replayDir, "dir", "", "cache directory to replay (overrides config)")
	replayCmd.Flags().Int64Var(&replaySteps, "steps", 0, "total steps of the recorded run (overrides config)")
	replayCmd.Flags().Int64Var(&replaySampleRate, "sample-rate", 0, "sample rate of the recorded run (overrides config)")
	replayCmd.Flags().Int64Var(&replayFlushInterval, "flush-interval", 0, "flush interval of the recorded run (overrides config)")
	replayCmd.Flags().Int64Var(&replayPrintEvery, "print-every", 100, "print model state every N steps (0 = quiet)")
}
