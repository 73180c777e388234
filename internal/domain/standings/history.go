// Package standings accumulates rider and participant totals across an
// ordered sequence of stages and builds the per-stage leaderboards.
//
// All state lives in memory and is rebuilt from stage 1 on every run; the
// accumulators are pure functions of the ordered stage inputs, which makes
// a full recompute idempotent by construction.
package standings

import (
	"github.com/lwittrock/tourpoule/internal/domain/model"
	"github.com/lwittrock/tourpoule/internal/domain/rider"
	"github.com/lwittrock/tourpoule/internal/domain/roster"
	"github.com/lwittrock/tourpoule/internal/domain/scoring"
)

// RiderStageEntry is one rider's result for one processed stage.
type RiderStageEntry struct {
	Date         string               `json:"date"`
	FinishPoints int                  `json:"stage_finish_points"`
	JerseyPoints map[model.Jersey]int `json:"jersey_points"`
	StageTotal   int                  `json:"stage_total"`
	// CumulativeTotal is the rider's running total after this stage.
	CumulativeTotal int `json:"cumulative_total"`
}

// RiderRecord is a rider's full scoring history.
type RiderRecord struct {
	Name        string                  `json:"-"`
	TotalPoints int                     `json:"total_points"`
	Stages      map[int]RiderStageEntry `json:"stages"`
}

// RiderHistory keeps per-rider stage entries and running totals, keyed by
// canonical rider key. Histories are dense: from a rider's first scoring
// stage onward there is exactly one entry per processed stage, zero-valued
// when the rider did not score.
type RiderHistory struct {
	records map[string]*RiderRecord
}

// NewRiderHistory creates an empty history.
func NewRiderHistory() *RiderHistory {
	return &RiderHistory{records: make(map[string]*RiderRecord)}
}

// ApplyStage folds one stage's breakdowns into the history. Riders already
// known but absent from this stage receive a zero entry so downstream
// display never has to special-case gaps.
func (h *RiderHistory) ApplyStage(stageNum int, date string, breakdowns map[string]scoring.Breakdown) {
	for key, b := range breakdowns {
		rec, ok := h.records[key]
		if !ok {
			rec = &RiderRecord{Name: b.Rider, Stages: make(map[int]RiderStageEntry)}
			h.records[key] = rec
		}
		rec.TotalPoints += b.StageTotal
		rec.Stages[stageNum] = RiderStageEntry{
			Date:            date,
			FinishPoints:    b.FinishPoints,
			JerseyPoints:    b.JerseyPoints,
			StageTotal:      b.StageTotal,
			CumulativeTotal: rec.TotalPoints,
		}
	}

	for key, rec := range h.records {
		if _, scored := breakdowns[key]; scored {
			continue
		}
		rec.Stages[stageNum] = RiderStageEntry{
			Date:            date,
			JerseyPoints:    map[model.Jersey]int{},
			CumulativeTotal: rec.TotalPoints,
		}
	}
}

// StageTotal returns the points a rider earned in one stage, zero when the
// rider is unknown or did not score. The name is matched canonically.
func (h *RiderHistory) StageTotal(stageNum int, name string) int {
	rec, ok := h.records[rider.Key(name)]
	if !ok {
		return 0
	}
	return rec.Stages[stageNum].StageTotal
}

// Total returns a rider's cumulative points so far.
func (h *RiderHistory) Total(name string) int {
	rec, ok := h.records[rider.Key(name)]
	if !ok {
		return 0
	}
	return rec.TotalPoints
}

// Records returns the histories keyed by display name for export.
func (h *RiderHistory) Records() map[string]*RiderRecord {
	out := make(map[string]*RiderRecord, len(h.records))
	for _, rec := range h.records {
		out[rec.Name] = rec
	}
	return out
}

// Len returns the number of riders with a history.
func (h *RiderHistory) Len() int { return len(h.records) }

// ParticipantStageEntry is one participant's result for one processed stage.
type ParticipantStageEntry struct {
	Date       string `json:"date"`
	StageScore int    `json:"stage_score"`
	// CumulativeScore is the participant's running score after this stage.
	CumulativeScore    int            `json:"cumulative_score"`
	RiderContributions map[string]int `json:"rider_contributions"`
}

// ParticipantRecord is a participant's full scoring history.
type ParticipantRecord struct {
	Name        string                        `json:"-"`
	Directie    string                        `json:"directie"`
	TotalScore  int                           `json:"total_score"`
	Stages      map[int]ParticipantStageEntry `json:"stages"`
	RiderTotals map[string]int                `json:"rider_totals"`
}

// ParticipantHistory accumulates participant scores from the per-stage
// active rosters joined with the rider history.
type ParticipantHistory struct {
	records map[string]*ParticipantRecord
	order   []string
}

// NewParticipantHistory creates an empty history.
func NewParticipantHistory() *ParticipantHistory {
	return &ParticipantHistory{records: make(map[string]*ParticipantRecord)}
}

// ApplyStage scores every participant's active roster against the rider
// stage totals. A rostered rider who did not score contributes exactly 0.
func (p *ParticipantHistory) ApplyStage(stageNum int, date string, rosters []roster.ActiveRoster, riders *RiderHistory) {
	for _, r := range rosters {
		rec, ok := p.records[r.Participant]
		if !ok {
			rec = &ParticipantRecord{
				Name:        r.Participant,
				Directie:    r.Directie,
				Stages:      make(map[int]ParticipantStageEntry),
				RiderTotals: make(map[string]int),
			}
			p.records[r.Participant] = rec
			p.order = append(p.order, r.Participant)
		}

		stageScore := 0
		contributions := make(map[string]int, len(r.Riders))
		for _, name := range r.Riders {
			points := riders.StageTotal(stageNum, name)
			stageScore += points
			contributions[name] = points
			rec.RiderTotals[name] += points
		}

		rec.TotalScore += stageScore
		rec.Stages[stageNum] = ParticipantStageEntry{
			Date:               date,
			StageScore:         stageScore,
			CumulativeScore:    rec.TotalScore,
			RiderContributions: contributions,
		}
	}
}

// Record returns one participant's history, or nil when unknown.
func (p *ParticipantHistory) Record(name string) *ParticipantRecord {
	return p.records[name]
}

// Names returns participants in first-seen order.
func (p *ParticipantHistory) Names() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Records returns the histories keyed by participant name for export.
func (p *ParticipantHistory) Records() map[string]*ParticipantRecord {
	out := make(map[string]*ParticipantRecord, len(p.records))
	for name, rec := range p.records {
		out[name] = rec
	}
	return out
}

// Len returns the number of participants tracked.
func (p *ParticipantHistory) Len() int { return len(p.records) }
