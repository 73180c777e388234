package service_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	service "github.com/lwittrock/tourpoule/internal/app"
	"github.com/lwittrock/tourpoule/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init(logger.WithWriter(os.Stderr))
	if err != nil {
		panic(err)
	}
	_ = logger.SetLevelString("error")
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// setupRace lays out a three-participant, five-stage race with a DNF in
// stage 3 (triggers a substitution) and another in stage 5 (roster just
// shrinks).
func setupRace(t *testing.T) (selectionsPath, stageDir string) {
	t.Helper()
	dir := t.TempDir()
	selectionsPath = filepath.Join(dir, "participant_selections.json")
	stageDir = filepath.Join(dir, "stage_results")

	writeFile(t, selectionsPath, `[
		{"name": "anna", "directie": "Noord", "main_riders": ["Rider M", "Rider K"], "reserve_rider": "Rider R"},
		{"name": "bram", "directie": "Noord", "main_riders": ["Rider B1", "Rider B2"], "reserve_rider": ""},
		{"name": "cees", "directie": "Zuid", "main_riders": ["Rider C1"], "reserve_rider": "Rider C2"}
	]`)

	stage := func(n int, date string, finishers string, dnf string) {
		writeFile(t, filepath.Join(stageDir, fmt.Sprintf("stage_%d.json", n)), fmt.Sprintf(`{
			"stage_info": {"date": %q},
			"top_20_finishers": [%s],
			"top_gc_rider": {"rider_name": "Rider M", "rank": 1},
			"dnf_riders": [%s]
		}`, date, finishers, dnf))
	}

	stage(1, "2025-07-05", `{"rider_name": "Rider M", "rank": 1}, {"rider_name": "Rider B1", "rank": 2}`, ``)
	stage(2, "2025-07-06", `{"rider_name": "Rider B1", "rank": 1}, {"rider_name": "Rider C1", "rank": 2}`, ``)
	stage(3, "2025-07-07", `{"rider_name": "Rider K", "rank": 1}`, `"Rider M"`)
	stage(4, "2025-07-08", `{"rider_name": "Rider R", "rank": 1}`, ``)
	stage(5, "2025-07-09", `{"rider_name": "Rider C1", "rank": 1}`, `{"rider_name": "Rider K", "status": "OTL"}`)
	return selectionsPath, stageDir
}

func TestServiceRun(t *testing.T) {
	Convey("Given a complete race setup", t, func() {
		selectionsPath, stageDir := setupRace(t)
		ctx := context.Background()

		svc := service.NewFromSources(selectionsPath, stageDir,
			service.WithRunID("test-run"),
			service.WithYear(2025),
			service.WithDirectieTopN(2))

		Convey("When running the pipeline", func() {
			result, err := svc.Run(ctx)
			So(err, ShouldBeNil)

			Convey("Then all stages are processed in order", func() {
				So(result.StageNumbers, ShouldResemble, []int{1, 2, 3, 4, 5})
				So(result.SkippedStages, ShouldBeEmpty)
				So(result.RunID, ShouldEqual, "test-run")
			})

			Convey("Then rider totals combine finish and jersey points", func() {
				// Stage 1: rank 1 (25) + yellow (15); yellow repeats every stage.
				So(result.Riders.Total("Rider M"), ShouldEqual, 25+15*5)
			})

			Convey("Then the stage-3 DNF triggers a single substitution", func() {
				subs := result.Substitutions["anna"]
				So(len(subs), ShouldEqual, 2)
				So(subs[0].Stage, ShouldEqual, 3)
				So(subs[0].OutRider, ShouldEqual, "Rider M")
				So(subs[0].InRider, ShouldEqual, "Rider R")

				// The stage-5 loss has no reserve left, so no replacement.
				So(subs[1].Stage, ShouldEqual, 5)
				So(subs[1].OutRider, ShouldEqual, "Rider K")
				So(subs[1].InRider, ShouldEqual, "")
			})

			Convey("Then participant scores follow the active roster", func() {
				rec := result.Participants.Record("anna")
				// Stage 1: Rider M wins (25) and takes yellow (15).
				So(rec.Stages[1].StageScore, ShouldEqual, 40)
				// Stage 3: Rider M is already substituted out, so his
				// yellow points no longer count for anna.
				So(rec.Stages[3].RiderContributions, ShouldNotContainKey, "Rider M")
				So(rec.Stages[4].RiderContributions, ShouldContainKey, "Rider R")
				So(rec.Stages[4].RiderContributions, ShouldNotContainKey, "Rider M")
			})

			Convey("Then the final leaderboard is ranked and dense", func() {
				board := result.Leaderboards.Latest()
				So(len(board), ShouldEqual, 3)
				for i, e := range board {
					So(e.Rank, ShouldEqual, i+1)
				}
				So(board[0].TotalScore, ShouldBeGreaterThanOrEqualTo, board[1].TotalScore)
			})

			Convey("Then directie boards cover both directies", func() {
				directies := result.Directies.Latest()
				So(len(directies), ShouldEqual, 2)
			})
		})

		Convey("When running the same pipeline twice", func() {
			first, err := svc.Run(ctx)
			So(err, ShouldBeNil)

			second, err := service.NewFromSources(selectionsPath, stageDir,
				service.WithDirectieTopN(2)).Run(ctx)
			So(err, ShouldBeNil)

			Convey("Then replaying from empty state is idempotent", func() {
				for _, name := range first.Participants.Names() {
					So(second.Participants.Record(name).TotalScore,
						ShouldEqual, first.Participants.Record(name).TotalScore)
				}
				So(second.Riders.Total("Rider M"), ShouldEqual, first.Riders.Total("Rider M"))
				So(second.Leaderboards.Latest(), ShouldResemble, first.Leaderboards.Latest())
			})
		})
	})
}

func TestServiceRunDegradation(t *testing.T) {
	Convey("Given a race with a corrupt stage file", t, func() {
		selectionsPath, stageDir := setupRace(t)
		writeFile(t, filepath.Join(stageDir, "stage_2.json"), "{broken")
		ctx := context.Background()

		svc := service.NewFromSources(selectionsPath, stageDir)

		Convey("When running the pipeline", func() {
			result, err := svc.Run(ctx)

			Convey("Then the bad stage is skipped and the rest processed", func() {
				So(err, ShouldBeNil)
				So(result.SkippedStages, ShouldResemble, []int{2})
				So(result.StageNumbers, ShouldResemble, []int{1, 3, 4, 5})
			})

			Convey("Then roster state carries across the gap", func() {
				subs := result.Substitutions["anna"]
				So(len(subs), ShouldBeGreaterThanOrEqualTo, 1)
				So(subs[0].Stage, ShouldEqual, 3)
				So(subs[0].InRider, ShouldEqual, "Rider R")
			})
		})
	})

	Convey("Given missing inputs", t, func() {
		ctx := context.Background()

		Convey("When the selections file is absent", func() {
			_, stageDir := setupRace(t)
			svc := service.NewFromSources(filepath.Join(t.TempDir(), "nope.json"), stageDir)
			_, err := svc.Run(ctx)

			Convey("Then the run aborts", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When there are no stage files at all", func() {
			selectionsPath, _ := setupRace(t)
			svc := service.NewFromSources(selectionsPath, t.TempDir())
			_, err := svc.Run(ctx)

			Convey("Then the run aborts with the no-stage-data sentinel", func() {
				So(errors.Is(err, service.ErrNoStageData), ShouldBeTrue)
				So(service.IsFatal(err), ShouldBeTrue)
			})
		})
	})
}
