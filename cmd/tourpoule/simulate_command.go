package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lwittrock/tourpoule/internal/config"
	"github.com/lwittrock/tourpoule/internal/simulate"
	"github.com/lwittrock/tourpoule/pkg/logger"
)

func newSimulateCommand() *cobra.Command {
	var stages int
	var participants int
	var rosterSize int
	var seed int64

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Generate simulated stage results and selections for development",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}
			if err := logger.Init(); err != nil {
				return err
			}
			if err := logger.SetLevelString(cfg.LogLevel); err != nil {
				return err
			}

			gen := simulate.NewGenerator(cfg.DataDir,
				simulate.WithStages(stages),
				simulate.WithParticipants(participants),
				simulate.WithRosterSize(rosterSize),
				simulate.WithSeed(seed))

			stageDir, selectionsPath, err := gen.Generate(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Wrote %d stages to %s\n", stages, stageDir)
			fmt.Printf("Wrote selections to %s\n", selectionsPath)
			return nil
		},
	}

	cmd.Flags().IntVar(&stages, "stages", 5, "Number of stages to generate")
	cmd.Flags().IntVar(&participants, "participants", 8, "Number of participants")
	cmd.Flags().IntVar(&rosterSize, "roster-size", 10, "Main riders per participant")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Random seed")

	return cmd
}
