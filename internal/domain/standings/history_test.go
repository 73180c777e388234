package standings_test

import (
	"testing"

	"github.com/lwittrock/tourpoule/internal/domain/model"
	"github.com/lwittrock/tourpoule/internal/domain/roster"
	"github.com/lwittrock/tourpoule/internal/domain/scoring"
	"github.com/lwittrock/tourpoule/internal/domain/standings"
	. "github.com/smartystreets/goconvey/convey"
)

func scoreStage(finishers []model.Finisher, jerseys map[model.Jersey]string) map[string]scoring.Breakdown {
	return scoring.NewCalculator().Score(model.Stage{Finishers: finishers, Jerseys: jerseys})
}

func TestRiderHistory(t *testing.T) {
	Convey("Given an empty rider history", t, func() {
		h := standings.NewRiderHistory()

		Convey("When applying two stages where a rider scores then goes missing", func() {
			h.ApplyStage(1, "2025-07-05", scoreStage(
				[]model.Finisher{{Rider: "Rider A", Rank: 1}, {Rider: "Rider B", Rank: 2}}, nil))
			h.ApplyStage(2, "2025-07-06", scoreStage(
				[]model.Finisher{{Rider: "Rider B", Rank: 1}}, nil))

			Convey("Then cumulative totals are running sums", func() {
				So(h.Total("Rider A"), ShouldEqual, 25)
				So(h.Total("Rider B"), ShouldEqual, 19+25)
			})

			Convey("Then the history is dense with zero entries", func() {
				rec := h.Records()["Rider A"]
				So(rec, ShouldNotBeNil)
				So(len(rec.Stages), ShouldEqual, 2)
				entry := rec.Stages[2]
				So(entry.StageTotal, ShouldEqual, 0)
				So(entry.CumulativeTotal, ShouldEqual, 25)
				So(entry.Date, ShouldEqual, "2025-07-06")
			})

			Convey("Then stage totals answer per-stage lookups", func() {
				So(h.StageTotal(1, "Rider B"), ShouldEqual, 19)
				So(h.StageTotal(2, "Rider B"), ShouldEqual, 25)
				So(h.StageTotal(2, "Rider A"), ShouldEqual, 0)
				So(h.StageTotal(1, "Nobody"), ShouldEqual, 0)
			})
		})

		Convey("When replaying the same stages into a fresh history", func() {
			stages := []map[string]scoring.Breakdown{
				scoreStage([]model.Finisher{{Rider: "Rider A", Rank: 1}}, map[model.Jersey]string{model.JerseyYellow: "Rider A"}),
				scoreStage([]model.Finisher{{Rider: "Rider A", Rank: 3}}, nil),
			}

			first := standings.NewRiderHistory()
			second := standings.NewRiderHistory()
			for i, s := range stages {
				first.ApplyStage(i+1, "", s)
				second.ApplyStage(i+1, "", s)
			}

			Convey("Then both histories agree on every total", func() {
				So(second.Total("Rider A"), ShouldEqual, first.Total("Rider A"))
				So(first.Total("Rider A"), ShouldEqual, 40+18)
			})
		})

		Convey("When many stages accumulate", func() {
			for n := 1; n <= 5; n++ {
				h.ApplyStage(n, "", scoreStage([]model.Finisher{{Rider: "Rider A", Rank: 21}}, nil))
			}

			Convey("Then cumulative totals never decrease", func() {
				rec := h.Records()["Rider A"]
				prev := 0
				for n := 1; n <= 5; n++ {
					cur := rec.Stages[n].CumulativeTotal
					So(cur, ShouldBeGreaterThanOrEqualTo, prev)
					prev = cur
				}
			})
		})
	})
}

func TestParticipantHistory(t *testing.T) {
	Convey("Given rider points for a stage", t, func() {
		riders := standings.NewRiderHistory()
		riders.ApplyStage(1, "2025-07-05", scoreStage([]model.Finisher{
			{Rider: "Rider A", Rank: 1}, // 25
			{Rider: "Rider B", Rank: 2}, // 19
			{Rider: "Rider C", Rank: 3}, // 18
		}, nil))

		participants := standings.NewParticipantHistory()
		rosters := []roster.ActiveRoster{
			{Participant: "deelnemer 1", Directie: "Noord", Riders: []string{"Rider A", "Rider C"}},
			{Participant: "deelnemer 2", Directie: "Zuid", Riders: []string{"Rider B", "Rider X"}},
		}

		Convey("When scoring the active rosters", func() {
			participants.ApplyStage(1, "2025-07-05", rosters, riders)

			Convey("Then stage scores sum the roster riders' stage totals", func() {
				rec := participants.Record("deelnemer 1")
				So(rec.Stages[1].StageScore, ShouldEqual, 43)
				So(rec.TotalScore, ShouldEqual, 43)
			})

			Convey("Then a non-scoring rostered rider contributes zero", func() {
				rec := participants.Record("deelnemer 2")
				So(rec.Stages[1].StageScore, ShouldEqual, 19)
				So(rec.Stages[1].RiderContributions["Rider X"], ShouldEqual, 0)
			})

			Convey("Then per-rider running totals are kept", func() {
				rec := participants.Record("deelnemer 1")
				So(rec.RiderTotals["Rider A"], ShouldEqual, 25)
				So(rec.RiderTotals["Rider C"], ShouldEqual, 18)
			})

			Convey("And when a second stage is applied", func() {
				riders.ApplyStage(2, "2025-07-06", scoreStage([]model.Finisher{
					{Rider: "Rider C", Rank: 1},
				}, nil))
				participants.ApplyStage(2, "2025-07-06", rosters, riders)

				Convey("Then cumulative scores carry forward", func() {
					rec := participants.Record("deelnemer 1")
					So(rec.Stages[2].StageScore, ShouldEqual, 25)
					So(rec.Stages[2].CumulativeScore, ShouldEqual, 68)
					So(rec.TotalScore, ShouldEqual, 68)
				})
			})
		})
	})
}
