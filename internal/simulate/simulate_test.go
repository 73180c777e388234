package simulate_test

import (
	"context"
	"os"
	"testing"

	service "github.com/lwittrock/tourpoule/internal/app"
	"github.com/lwittrock/tourpoule/internal/simulate"
	"github.com/lwittrock/tourpoule/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithWriter(os.Stderr)); err != nil {
		panic(err)
	}
	_ = logger.SetLevelString("error")
}

func TestGenerator(t *testing.T) {
	Convey("Given a seeded generator", t, func() {
		ctx := context.Background()

		Convey("When generating a race", func() {
			gen := simulate.NewGenerator(t.TempDir(),
				simulate.WithStages(4),
				simulate.WithParticipants(6),
				simulate.WithRosterSize(5),
				simulate.WithSeed(42))
			stageDir, selectionsPath, err := gen.Generate(ctx)
			So(err, ShouldBeNil)

			Convey("Then the pipeline can run over the generated data", func() {
				result, runErr := service.NewFromSources(selectionsPath, stageDir).Run(ctx)
				So(runErr, ShouldBeNil)
				So(result.StageNumbers, ShouldResemble, []int{1, 2, 3, 4})
				So(result.Participants.Len(), ShouldEqual, 6)
				So(len(result.Leaderboards.Latest()), ShouldEqual, 6)
			})
		})

		Convey("When generating twice with the same seed", func() {
			dirA, dirB := t.TempDir(), t.TempDir()
			_, selA, err := simulate.NewGenerator(dirA, simulate.WithSeed(7)).Generate(ctx)
			So(err, ShouldBeNil)
			_, selB, err := simulate.NewGenerator(dirB, simulate.WithSeed(7)).Generate(ctx)
			So(err, ShouldBeNil)

			Convey("Then the output is reproducible", func() {
				a, err := os.ReadFile(selA)
				So(err, ShouldBeNil)
				b, err := os.ReadFile(selB)
				So(err, ShouldBeNil)
				So(string(a), ShouldEqual, string(b))
			})
		})
	})
}
