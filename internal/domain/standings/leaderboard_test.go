package standings_test

import (
	"testing"

	"github.com/lwittrock/tourpoule/internal/domain/model"
	"github.com/lwittrock/tourpoule/internal/domain/roster"
	"github.com/lwittrock/tourpoule/internal/domain/standings"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLeaderboardBuilder(t *testing.T) {
	Convey("Given participants with known cumulative scores", t, func() {
		riders := standings.NewRiderHistory()
		participants := standings.NewParticipantHistory()
		builder := standings.NewBuilder()

		stage1 := scoreStage([]model.Finisher{
			{Rider: "PA", Rank: 1}, // 25
			{Rider: "PB", Rank: 2}, // 19
			{Rider: "PC", Rank: 3}, // 18
		}, nil)
		riders.ApplyStage(1, "", stage1)
		rosters := []roster.ActiveRoster{
			{Participant: "anna", Directie: "Noord", Riders: []string{"PA"}},
			{Participant: "bram", Directie: "Noord", Riders: []string{"PB"}},
			{Participant: "cees", Directie: "Zuid", Riders: []string{"PC"}},
		}
		participants.ApplyStage(1, "", rosters, riders)

		Convey("When building the first leaderboard", func() {
			board := builder.BuildStage(1, participants)

			Convey("Then entries are ordered by score descending with dense ranks", func() {
				So(len(board), ShouldEqual, 3)
				So(board[0].Participant, ShouldEqual, "anna")
				So(board[0].Rank, ShouldEqual, 1)
				So(board[1].Participant, ShouldEqual, "bram")
				So(board[2].Participant, ShouldEqual, "cees")
				So(board[2].Rank, ShouldEqual, 3)
			})

			Convey("Then no entry has a rank change yet", func() {
				for _, e := range board {
					So(e.RankChange, ShouldBeNil)
				}
			})

			Convey("Then stage ranks mirror the first stage's scores", func() {
				So(board[0].StageRank, ShouldEqual, 1)
				So(board[1].StageRank, ShouldEqual, 2)
				So(board[2].StageRank, ShouldEqual, 3)
			})
		})

		Convey("When a later stage reshuffles the standings", func() {
			builder.BuildStage(1, participants)

			// Stage 2: cees's rider wins big, anna's rider scores nothing.
			stage2 := scoreStage([]model.Finisher{
				{Rider: "PC", Rank: 1}, // 25 -> cees 43
				{Rider: "PB", Rank: 10}, // 11 -> bram 30
			}, map[model.Jersey]string{model.JerseyYellow: "PC"}) // +15 -> cees 58
			riders.ApplyStage(2, "", stage2)
			participants.ApplyStage(2, "", rosters, riders)
			board := builder.BuildStage(2, participants)

			Convey("Then rank change is previous rank minus current rank", func() {
				So(board[0].Participant, ShouldEqual, "cees")
				So(*board[0].RankChange, ShouldEqual, 2) // 3 -> 1
				So(board[1].Participant, ShouldEqual, "bram")
				So(*board[1].RankChange, ShouldEqual, 0)
				So(board[2].Participant, ShouldEqual, "anna")
				So(*board[2].RankChange, ShouldEqual, -2) // 1 -> 3
			})

			Convey("Then the stage-only ranking is independent of cumulative rank", func() {
				So(board[0].StageRank, ShouldEqual, 1) // cees scored 40 this stage
				So(board[2].StageScore, ShouldEqual, 0)
				So(board[2].StageRank, ShouldEqual, 3)
			})

			Convey("Then the history keeps both boards", func() {
				So(len(builder.History()), ShouldEqual, 2)
				So(builder.Latest()[0].Participant, ShouldEqual, "cees")
			})
		})

		Convey("When two participants tie on score", func() {
			riders2 := standings.NewRiderHistory()
			riders2.ApplyStage(1, "", scoreStage([]model.Finisher{
				{Rider: "X1", Rank: 2},
				{Rider: "X2", Rank: 2},
			}, nil))
			tied := standings.NewParticipantHistory()
			tied.ApplyStage(1, "", []roster.ActiveRoster{
				{Participant: "zoe", Riders: []string{"X1"}},
				{Participant: "aart", Riders: []string{"X2"}},
			}, riders2)

			board := standings.NewBuilder().BuildStage(1, tied)

			Convey("Then the tie breaks alphabetically", func() {
				So(board[0].Participant, ShouldEqual, "aart")
				So(board[0].Rank, ShouldEqual, 1)
				So(board[1].Participant, ShouldEqual, "zoe")
				So(board[1].Rank, ShouldEqual, 2)
			})
		})
	})
}

func TestDirectieBoard(t *testing.T) {
	Convey("Given participants across two directies", t, func() {
		riders := standings.NewRiderHistory()
		riders.ApplyStage(1, "", scoreStage([]model.Finisher{
			{Rider: "PA", Rank: 1}, // 25
			{Rider: "PB", Rank: 2}, // 19
			{Rider: "PC", Rank: 3}, // 18
			{Rider: "PD", Rank: 4}, // 17
		}, nil))
		participants := standings.NewParticipantHistory()
		participants.ApplyStage(1, "", []roster.ActiveRoster{
			{Participant: "anna", Directie: "Noord", Riders: []string{"PA"}},
			{Participant: "bram", Directie: "Noord", Riders: []string{"PB"}},
			{Participant: "cees", Directie: "Noord", Riders: []string{"PC"}},
			{Participant: "dirk", Directie: "Zuid", Riders: []string{"PD"}},
		}, riders)

		Convey("When only the top 2 per directie count", func() {
			board := standings.NewDirectieBoard(standings.WithTopN(2)).BuildStage(1, participants)

			Convey("Then each directie sums its top-N stage contributions", func() {
				So(len(board), ShouldEqual, 2)
				So(board[0].Directie, ShouldEqual, "Noord")
				So(board[0].StageScoreAdded, ShouldEqual, 44) // 25 + 19, cees's 18 dropped
				So(board[0].TotalScore, ShouldEqual, 44)
				So(board[1].Directie, ShouldEqual, "Zuid")
				So(board[1].TotalScore, ShouldEqual, 17)
			})

			Convey("Then contributor lists include everyone, sorted by total", func() {
				So(len(board[0].Contributors), ShouldEqual, 3)
				So(board[0].Contributors[0].Participant, ShouldEqual, "anna")
				So(board[0].Contributors[2].Participant, ShouldEqual, "cees")
			})

			Convey("Then first-stage entries have no rank change", func() {
				So(board[0].Rank, ShouldEqual, 1)
				So(board[0].RankChange, ShouldBeNil)
			})
		})

		Convey("When a second stage flips the directie order", func() {
			dBoard := standings.NewDirectieBoard(standings.WithTopN(2))
			dBoard.BuildStage(1, participants)

			riders.ApplyStage(2, "", scoreStage([]model.Finisher{
				{Rider: "PD", Rank: 1}, // Zuid +25 plus yellow
			}, map[model.Jersey]string{model.JerseyYellow: "PD"}))
			participants.ApplyStage(2, "", []roster.ActiveRoster{
				{Participant: "anna", Directie: "Noord", Riders: []string{"PA"}},
				{Participant: "bram", Directie: "Noord", Riders: []string{"PB"}},
				{Participant: "cees", Directie: "Noord", Riders: []string{"PC"}},
				{Participant: "dirk", Directie: "Zuid", Riders: []string{"PD"}},
			}, riders)
			board := dBoard.BuildStage(2, participants)

			Convey("Then cumulative directie totals accumulate per stage", func() {
				So(board[0].Directie, ShouldEqual, "Zuid")
				So(board[0].TotalScore, ShouldEqual, 17+40)
				So(*board[0].RankChange, ShouldEqual, 1)
				So(board[1].Directie, ShouldEqual, "Noord")
				So(*board[1].RankChange, ShouldEqual, -1)
			})
		})
	})
}
