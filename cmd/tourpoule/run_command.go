package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lwittrock/tourpoule/internal/adapters/archive"
	"github.com/lwittrock/tourpoule/internal/adapters/export"
	"github.com/lwittrock/tourpoule/internal/adapters/results"
	"github.com/lwittrock/tourpoule/internal/adapters/selection"
	service "github.com/lwittrock/tourpoule/internal/app"
	"github.com/lwittrock/tourpoule/internal/config"
	"github.com/lwittrock/tourpoule/internal/domain/scoring"
	"github.com/lwittrock/tourpoule/internal/domain/standings"
	"github.com/lwittrock/tourpoule/pkg/logger"
	"github.com/lwittrock/tourpoule/pkg/metrics"
)

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Process all available stages and export the standings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd.Context())
		},
	}
}

func runPipeline(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

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
	log := logger.Named("cli")

	if cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: metrics.Handler()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Warn(ctx, "metrics server stopped", logger.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	calculator := scoring.NewCalculator(
		scoring.WithRankTable(scoring.RankTable{
			Winner:  cfg.WinnerPoints,
			Base:    21,
			MaxRank: 20,
		}),
		scoring.WithJerseyPoints(cfg.JerseyPoints),
	)

	loader := selection.NewLoader(cfg.ResolvedSelectionsFile(),
		selection.WithAnonymize(cfg.Anonymize),
		selection.WithReformatNames(cfg.ReformatRiderNames))

	svc := service.New(
		service.WithSelectionSource(loader),
		service.WithStageSource(results.NewReader(cfg.ResolvedStageDir())),
		service.WithCalculator(calculator),
		service.WithYear(cfg.Year),
		service.WithDirectieTopN(cfg.DirectieTopN))

	result, err := svc.Run(ctx)
	if err != nil {
		return err
	}

	exportOpts := []export.Option{}
	if cfg.WebDataDir != "" {
		exportOpts = append(exportOpts, export.WithWebDir(cfg.WebDataDir))
	}
	writer := export.NewWriter(cfg.DataDir, exportOpts...)
	if err := writer.Write(ctx, export.Snapshot{
		RunID:         result.RunID,
		Year:          result.Year,
		DirectieTopN:  result.DirectieTopN,
		StageNumbers:  result.StageNumbers,
		Stages:        result.Stages,
		Riders:        result.Riders,
		Participants:  result.Participants,
		Leaderboards:  result.Leaderboards,
		Directies:     result.Directies,
		Substitutions: result.Substitutions,
	}); err != nil {
		return err
	}

	if cfg.ArchivePath != "" {
		if err := archiveRun(ctx, cfg.ArchivePath, result); err != nil {
			return err
		}
	}

	printLeaderboard(result.Leaderboards.Latest())
	printDirectieBoard(result.Directies.Latest())

	if len(result.SkippedStages) > 0 {
		fmt.Printf("\nSkipped stages: %v\n", result.SkippedStages)
	}
	return nil
}

func archiveRun(ctx context.Context, path string, result *service.Result) error {
	store, err := archive.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	currentStage := 0
	if len(result.StageNumbers) > 0 {
		currentStage = result.StageNumbers[len(result.StageNumbers)-1]
	}
	riderTotals := make(map[string]int, result.Riders.Len())
	for name, rec := range result.Riders.Records() {
		riderTotals[name] = rec.TotalPoints
	}
	return store.SaveRun(ctx, archive.Run{
		ID:              result.RunID,
		CreatedAt:       time.Now().UTC(),
		Year:            result.Year,
		StagesProcessed: len(result.StageNumbers),
		CurrentStage:    currentStage,
		Leaderboard:     result.Leaderboards.Latest(),
		RiderTotals:     riderTotals,
	})
}

func printLeaderboard(board []standings.Entry) {
	if len(board) == 0 {
		return
	}
	rows := make([][]string, 0, len(board))
	for _, e := range board {
		rows = append(rows, []string{
			strconv.Itoa(e.Rank),
			formatRankChange(e.RankChange),
			e.Participant,
			e.Directie,
			strconv.Itoa(e.StageScore),
			strconv.Itoa(e.TotalScore),
		})
	}
	fmt.Println(renderTable(
		[]string{"#", "+/-", "Participant", "Directie", "Stage", "Total"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignRight, alignRight}))
}

func printDirectieBoard(board []standings.DirectieEntry) {
	if len(board) == 0 {
		return
	}
	rows := make([][]string, 0, len(board))
	for _, e := range board {
		rows = append(rows, []string{
			strconv.Itoa(e.Rank),
			formatRankChange(e.RankChange),
			e.Directie,
			strconv.Itoa(e.StageScoreAdded),
			strconv.Itoa(e.TotalScore),
		})
	}
	fmt.Println(renderTable(
		[]string{"#", "+/-", "Directie", "Stage", "Total"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignLeft, alignRight, alignRight}))
}

func formatRankChange(change *int) string {
	switch {
	case change == nil:
		return "new"
	case *change > 0:
		return "+" + strconv.Itoa(*change)
	case *change < 0:
		return strconv.Itoa(*change)
	default:
		return "="
	}
}
