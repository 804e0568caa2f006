package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nharlow/recap/internal/cache"
	"github.com/nharlow/recap/internal/config"
	"github.com/nharlow/recap/internal/walk"
)

var (
	recordConfig        string
	recordOut           string
	recordSteps         int64
	recordSampleRate    int64
	recordFlushInterval int64
	recordAgents        int
	recordSeed          int64
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Run the demo random-walk model and record its steps to a cache directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRunConfig(recordConfig)
		if err != nil {
			return err
		}
		cfg.Mode = "record"
		applyRunFlags(cfg)

		model := walk.New(recordAgents, recordSeed)
		session, err := cache.New(model, walk.Collector(), cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		runErr := session.Run(ctx)
		if closeErr := session.Close(); closeErr != nil && runErr == nil {
			runErr = closeErr
		}
		if runErr != nil {
			return runErr
		}

		fmt.Printf("recorded %d steps to %s\n", session.StepIndex(), cfg.OutputDir)
		return nil
	},
}

// loadRunConfig loads the YAML run config, or starts from defaults when no
// file is given.
func loadRunConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.DefaultConfig(), nil
	}
	return config.Load(path)
}

// applyRunFlags lets CLI flags override the loaded config.
func applyRunFlags(cfg *config.Config) {
	if recordOut != "" {
		cfg.OutputDir = recordOut
	}
	if recordSteps > 0 {
		cfg.TotalSteps = recordSteps
	}
	if recordSampleRate > 0 {
		cfg.SampleRate = recordSampleRate
	}
	if recordFlushInterval > 0 {
		cfg.FlushInterval = recordFlushInterval
	}
}

func init() {
	recordCmd.Flags().StringVar(&recordConfig, "config", "", "run config file (YAML)")
	recordCmd.Flags().StringVar(&recordOut, "out", "", "output directory (overrides config)")
	recordCmd.Flags().Int64Var(&recordSteps, "steps", 0, "total steps (overrides config)")
	recordCmd.Flags().Int64Var(&recordSampleRate, "sample-rate", 0, "cache every Nth step (overrides config)")
	recordCmd.Flags().Int64Var(&recordFlushInterval, "flush-interval", 0, "steps per flush bucket (overrides config)")
	recordCmd.Flags().IntVar(&recordAgents, "agents", 25, "number of walkers in the demo model")
	recordCmd.Flags().Int64Var(&recordSeed, "seed", 1, "random seed for the demo model")
}
