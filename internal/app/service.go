// Package service runs the scoring pipeline end to end: load selections,
// walk the available stages in order, score riders, maintain rosters and
// histories, and build the leaderboards after every stage.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lwittrock/tourpoule/internal/adapters/results"
	"github.com/lwittrock/tourpoule/internal/adapters/selection"
	"github.com/lwittrock/tourpoule/internal/domain/model"
	"github.com/lwittrock/tourpoule/internal/domain/roster"
	"github.com/lwittrock/tourpoule/internal/domain/scoring"
	"github.com/lwittrock/tourpoule/internal/domain/standings"
	"github.com/lwittrock/tourpoule/pkg/logger"
	"github.com/lwittrock/tourpoule/pkg/metrics"
)

// SelectionSource loads the initial participant selections.
type SelectionSource interface {
	Load(ctx context.Context) ([]model.Selection, error)
}

// StageSource discovers and loads stage results.
type StageSource interface {
	Scan(ctx context.Context) ([]int, error)
	Stage(ctx context.Context, number int) (model.Stage, error)
}

// Result is everything one pipeline run produced.
type Result struct {
	RunID         string
	Year          int
	DirectieTopN  int
	Selections    []model.Selection
	StageNumbers  []int
	SkippedStages []int
	Stages        map[int]model.Stage
	Riders        *standings.RiderHistory
	Participants  *standings.ParticipantHistory
	Leaderboards  *standings.Builder
	Directies     *standings.DirectieBoard
	Substitutions map[string][]roster.Substitution
}

// Service orchestrates one sequential run over all available stages.
// Stages must be processed in order because rosters and cumulative scores
// depend on everything that came before.
type Service struct {
	selections SelectionSource
	stages     StageSource
	calculator *scoring.Calculator

	runID        string
	year         int
	directieTopN int

	log logger.Logger
	now func() time.Time
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSelectionSource sets where initial rosters come from.
func WithSelectionSource(src SelectionSource) Option {
	return func(s *Service) { s.selections = src }
}

// WithStageSource sets where stage results come from.
func WithStageSource(src StageSource) Option {
	return func(s *Service) { s.stages = src }
}

// WithCalculator overrides the default points calculator.
func WithCalculator(c *scoring.Calculator) Option {
	return func(s *Service) {
		if c != nil {
			s.calculator = c
		}
	}
}

// WithRunID pins the run identifier, mainly for tests.
func WithRunID(id string) Option {
	return func(s *Service) {
		if id != "" {
			s.runID = id
		}
	}
}

// WithYear tags the run with the race edition.
func WithYear(year int) Option {
	return func(s *Service) { s.year = year }
}

// WithDirectieTopN sets how many participant stage scores count per
// directie.
func WithDirectieTopN(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.directieTopN = n
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Service. A selection source and a stage source are
// required; everything else has defaults.
func New(opts ...Option) *Service {
	s := &Service{
		calculator:   scoring.NewCalculator(),
		runID:        uuid.NewString(),
		directieTopN: 5,
		log:          logger.Named("pipeline"),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes the pipeline over every available stage. Selections and at
// least one stage file are required; a stage that fails to load is skipped
// and its roster state carried over, so one bad scrape never aborts the
// season.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	selections, err := s.selections.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load selections: %w", err)
	}
	if len(selections) == 0 {
		return nil, ErrNoSelections
	}

	stageNums, err := s.stages.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan stages: %w", err)
	}
	if len(stageNums) == 0 {
		return nil, ErrNoStageData
	}
	s.log.Info(ctx, "starting run",
		logger.String("run_id", s.runID),
		logger.Int("participants", len(selections)),
		logger.Int("stages", len(stageNums)))

	for i := 1; i < len(stageNums); i++ {
		if stageNums[i] != stageNums[i-1]+1 {
			s.log.Warn(ctx, "gap in available stage numbers",
				logger.Int("after_stage", stageNums[i-1]),
				logger.Int("next_stage", stageNums[i]))
		}
	}

	rosters := roster.NewManager(selections)
	riders := standings.NewRiderHistory()
	participants := standings.NewParticipantHistory()
	boards := standings.NewBuilder()
	directies := standings.NewDirectieBoard(standings.WithTopN(s.directieTopN))

	result := &Result{
		RunID:        s.runID,
		Year:         s.year,
		DirectieTopN: s.directieTopN,
		Selections:   selections,
		Stages:       make(map[int]model.Stage, len(stageNums)),
	}

	for _, num := range stageNums {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := s.now()
		stage, err := s.stages.Stage(ctx, num)
		if err != nil {
			s.log.Warn(ctx, "skipping stage",
				logger.Int("stage", num),
				logger.Error(err))
			rosters.CarryOver(num)
			metrics.RecordStageSkipped()
			result.SkippedStages = append(result.SkippedStages, num)
			continue
		}

		breakdowns := s.calculator.Score(stage)
		riders.ApplyStage(num, stage.Info.Date, breakdowns)
		active := rosters.ApplyStage(num, stage.Withdrawals)
		participants.ApplyStage(num, stage.Info.Date, active, riders)
		board := boards.BuildStage(num, participants)
		directies.BuildStage(num, participants)

		result.Stages[num] = stage
		result.StageNumbers = append(result.StageNumbers, num)
		metrics.RecordStageProcessed()
		metrics.UpdateLeaderboardSize(len(board))
		metrics.ObserveStageDuration(s.now().Sub(start).Seconds())

		s.log.Info(ctx, "stage processed",
			logger.Int("stage", num),
			logger.Int("finishers", len(stage.Finishers)),
			logger.Int("withdrawals", len(stage.Withdrawals)),
			logger.String("winner", stage.Winner()))
	}

	if len(result.StageNumbers) == 0 {
		return nil, fmt.Errorf("all %d stages failed to load: %w", len(stageNums), ErrNoStageData)
	}

	result.Riders = riders
	result.Participants = participants
	result.Leaderboards = boards
	result.Directies = directies
	result.Substitutions = rosters.Substitutions()

	for _, subs := range result.Substitutions {
		for range subs {
			metrics.RecordSubstitution()
		}
	}
	metrics.UpdateRidersTracked(riders.Len())
	metrics.UpdateParticipantsTracked(participants.Len())

	s.log.Info(ctx, "run complete",
		logger.String("run_id", s.runID),
		logger.Int("stages_processed", len(result.StageNumbers)),
		logger.Int("stages_skipped", len(result.SkippedStages)),
		logger.Int("riders", riders.Len()))
	return result, nil
}

// NewFromSources is a convenience constructor for the common file-backed
// setup.
func NewFromSources(selectionsPath, stageDir string, opts ...Option) *Service {
	base := []Option{
		WithSelectionSource(selection.NewLoader(selectionsPath)),
		WithStageSource(results.NewReader(stageDir)),
	}
	return New(append(base, opts...)...)
}

// IsFatal reports whether a run error means there is nothing to process,
// as opposed to a transient stage-level problem.
func IsFatal(err error) bool {
	return errors.Is(err, ErrNoSelections) || errors.Is(err, ErrNoStageData)
}
