// Package export writes the consolidated results document consumed by the
// static web frontend.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/lwittrock/tourpoule/internal/domain/model"
	"github.com/lwittrock/tourpoule/internal/domain/roster"
	"github.com/lwittrock/tourpoule/internal/domain/standings"
	"github.com/lwittrock/tourpoule/pkg/logger"
	"github.com/lwittrock/tourpoule/pkg/metrics"
)

// ConsolidatedFile is the name of the main export document.
const ConsolidatedFile = "tourpoule_data.json"

// TopScorersFile is the web-only summary of the latest stage's best scorers.
const TopScorersFile = "top5_stage_scorers.json"

// topScorerCount is how many participants the stage summary lists.
const topScorerCount = 5

// Snapshot is everything a finished pipeline run produces, handed to the
// writer in one piece so the export is internally consistent.
type Snapshot struct {
	RunID         string
	Year          int
	DirectieTopN  int
	StageNumbers  []int
	Stages        map[int]model.Stage
	Riders        *standings.RiderHistory
	Participants  *standings.ParticipantHistory
	Leaderboards  *standings.Builder
	Directies     *standings.DirectieBoard
	Substitutions map[string][]roster.Substitution
}

// Writer persists snapshots as JSON documents.
type Writer struct {
	dir    string
	webDir string
	log    logger.Logger
	now    func() time.Time
}

// Option configures a Writer.
type Option func(*Writer)

// WithWebDir mirrors the export into a second directory, typically the
// static site's data folder, and adds the stage-scorers summary there.
func WithWebDir(dir string) Option {
	return func(w *Writer) { w.webDir = dir }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(w *Writer) {
		if now != nil {
			w.now = now
		}
	}
}

// NewWriter creates a writer targeting the given output directory.
func NewWriter(dir string, opts ...Option) *Writer {
	w := &Writer{
		dir: dir,
		log: logger.Named("export"),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type metadata struct {
	LastUpdated          string `json:"last_updated"`
	RunID                string `json:"run_id"`
	Year                 int    `json:"tdf_year"`
	TotalStagesProcessed int    `json:"total_stages_processed"`
	CurrentStage         int    `json:"current_stage"`
	DirectieTopN         int    `json:"top_n_participants_for_directie"`
}

type stageDoc struct {
	Info        model.StageInfo         `json:"info"`
	Winner      string                  `json:"winner"`
	Jerseys     map[model.Jersey]string `json:"jerseys"`
	Finishers   []model.Finisher        `json:"top_20_finishers"`
	Withdrawals []model.Withdrawal      `json:"dnf_riders"`
}

// document is the consolidated export layout. Stage-keyed maps use string
// keys like "stage_4" for frontend compatibility.
type document struct {
	Metadata                   metadata                                `json:"metadata"`
	Stages                     map[string]stageDoc                     `json:"stages"`
	Leaderboard                []standings.Entry                       `json:"leaderboard"`
	LeaderboardHistory         map[string][]standings.Entry            `json:"leaderboard_history"`
	DirectieLeaderboard        []standings.DirectieEntry               `json:"directie_leaderboard"`
	DirectieLeaderboardHistory map[string][]standings.DirectieEntry    `json:"directie_leaderboard_history"`
	Participants               map[string]*standings.ParticipantRecord `json:"participants"`
	Riders                     map[string]*standings.RiderRecord       `json:"riders"`
	Substitutions              map[string][]roster.Substitution        `json:"substitutions"`
}

type topScorer struct {
	Participant        string         `json:"participant_name"`
	StagePoints        int            `json:"stage_points"`
	RiderContributions map[string]int `json:"rider_contributions"`
}

type topScorersDoc struct {
	Stage int         `json:"stage"`
	Top5  []topScorer `json:"top5"`
}

// Write exports the snapshot to the output directory and, when configured,
// the web mirror. Files are written whole via a temp file and rename so a
// crashed run never leaves a half-written document behind.
func (w *Writer) Write(ctx context.Context, snap Snapshot) error {
	start := w.now()

	doc := buildDocument(snap, start)
	if err := writeJSON(filepath.Join(w.dir, ConsolidatedFile), doc); err != nil {
		return fmt.Errorf("export consolidated data: %w", err)
	}

	if w.webDir != "" {
		if err := writeJSON(filepath.Join(w.webDir, ConsolidatedFile), doc); err != nil {
			return fmt.Errorf("export web mirror: %w", err)
		}
		scorers := buildTopScorers(snap)
		if err := writeJSON(filepath.Join(w.webDir, TopScorersFile), scorers); err != nil {
			return fmt.Errorf("export stage scorers: %w", err)
		}
	}

	metrics.ObserveExportDuration(w.now().Sub(start).Seconds())
	w.log.Info(ctx, "exported consolidated data",
		logger.String("dir", w.dir),
		logger.Int("stages", len(snap.StageNumbers)),
		logger.Int("participants", snap.Participants.Len()),
		logger.Int("riders", snap.Riders.Len()),
		logger.Bool("web_mirror", w.webDir != ""))
	return nil
}

func buildDocument(snap Snapshot, now time.Time) document {
	currentStage := 0
	if len(snap.StageNumbers) > 0 {
		currentStage = snap.StageNumbers[len(snap.StageNumbers)-1]
	}

	stages := make(map[string]stageDoc, len(snap.Stages))
	for num, st := range snap.Stages {
		stages[stageKey(num)] = stageDoc{
			Info:        st.Info,
			Winner:      st.Winner(),
			Jerseys:     st.Jerseys,
			Finishers:   st.Finishers,
			Withdrawals: st.Withdrawals,
		}
	}

	boards := make(map[string][]standings.Entry, len(snap.Leaderboards.History()))
	for num, entries := range snap.Leaderboards.History() {
		boards[stageKey(num)] = entries
	}
	directies := make(map[string][]standings.DirectieEntry, len(snap.Directies.History()))
	for num, entries := range snap.Directies.History() {
		directies[stageKey(num)] = entries
	}

	return document{
		Metadata: metadata{
			LastUpdated:          now.Format(time.RFC3339),
			RunID:                snap.RunID,
			Year:                 snap.Year,
			TotalStagesProcessed: len(snap.StageNumbers),
			CurrentStage:         currentStage,
			DirectieTopN:         snap.DirectieTopN,
		},
		Stages:                     stages,
		Leaderboard:                snap.Leaderboards.Latest(),
		LeaderboardHistory:         boards,
		DirectieLeaderboard:        snap.Directies.Latest(),
		DirectieLeaderboardHistory: directies,
		Participants:               snap.Participants.Records(),
		Riders:                     snap.Riders.Records(),
		Substitutions:              snap.Substitutions,
	}
}

// buildTopScorers picks the latest stage's best participant scores for the
// site's stage summary widget.
func buildTopScorers(snap Snapshot) topScorersDoc {
	if len(snap.StageNumbers) == 0 {
		return topScorersDoc{Top5: []topScorer{}}
	}
	latest := snap.StageNumbers[len(snap.StageNumbers)-1]

	scorers := make([]topScorer, 0, snap.Participants.Len())
	for _, name := range snap.Participants.Names() {
		rec := snap.Participants.Record(name)
		entry, ok := rec.Stages[latest]
		if !ok {
			continue
		}
		scorers = append(scorers, topScorer{
			Participant:        name,
			StagePoints:        entry.StageScore,
			RiderContributions: entry.RiderContributions,
		})
	}
	sort.Slice(scorers, func(i, j int) bool {
		if scorers[i].StagePoints != scorers[j].StagePoints {
			return scorers[i].StagePoints > scorers[j].StagePoints
		}
		return scorers[i].Participant < scorers[j].Participant
	})
	if len(scorers) > topScorerCount {
		scorers = scorers[:topScorerCount]
	}
	return topScorersDoc{Stage: latest, Top5: scorers}
}

func stageKey(num int) string {
	return fmt.Sprintf("stage_%d", num)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
