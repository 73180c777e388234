// Package scoring converts one stage's raw results into per-rider point
// breakdowns. The calculator is stateless: it has no memory of other stages.
package scoring

import (
	"github.com/lwittrock/tourpoule/internal/domain/model"
	"github.com/lwittrock/tourpoule/internal/domain/rider"
)

// RankTable maps a finishing rank to points. Rank 1 earns Winner points,
// ranks 2..MaxRank earn Base minus the rank, everything else earns nothing.
type RankTable struct {
	Winner  int
	Base    int
	MaxRank int
}

// DefaultRankTable is the production table: 25 for the win, 19 for 2nd,
// descending to 1 for 20th.
func DefaultRankTable() RankTable {
	return RankTable{Winner: 25, Base: 21, MaxRank: 20}
}

// Points returns the finish points for a 1-based rank. Out-of-range and
// unparsable (zero) ranks score nothing.
func (t RankTable) Points(rank int) int {
	switch {
	case rank == 1:
		return t.Winner
	case rank >= 2 && rank <= t.MaxRank:
		return t.Base - rank
	default:
		return 0
	}
}

// JerseyTable maps a jersey classification to its per-stage bonus points.
type JerseyTable map[model.Jersey]int

// DefaultJerseyTable is the current scoring regime. Earlier seasons used
// smaller values, which is why the table is injected rather than hardcoded.
func DefaultJerseyTable() JerseyTable {
	return JerseyTable{
		model.JerseyYellow:    15,
		model.JerseyGreen:     10,
		model.JerseyPolkaDot:  10,
		model.JerseyWhite:     10,
		model.JerseyCombative: 5,
	}
}

// Breakdown is one rider's points for a single stage.
type Breakdown struct {
	// Rider is the display name as first seen in the stage data.
	Rider        string
	FinishPoints int
	JerseyPoints map[model.Jersey]int
	StageTotal   int
}

// Calculator computes per-rider stage breakdowns from a configured pair of
// point tables.
type Calculator struct {
	rankTable   RankTable
	jerseyTable JerseyTable
}

// NewCalculator creates a calculator with the default tables, overridable
// through options.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		rankTable:   DefaultRankTable(),
		jerseyTable: DefaultJerseyTable(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Score maps a stage's finishers and jersey holders to point breakdowns,
// keyed by canonical rider key (see the rider package). A rider holding
// several jerseys accumulates all of them on top of any finish points.
// Absent or "N/A" jersey holders are skipped silently.
func (c *Calculator) Score(stage model.Stage) map[string]Breakdown {
	out := make(map[string]Breakdown, len(stage.Finishers))

	for _, f := range stage.Finishers {
		if f.Rider == "" {
			continue
		}
		key := rider.Key(f.Rider)
		points := c.rankTable.Points(f.Rank)
		b := out[key]
		if b.Rider == "" {
			b.Rider = f.Rider
			b.JerseyPoints = make(map[model.Jersey]int)
		}
		b.FinishPoints = points
		b.StageTotal += points
		out[key] = b
	}

	for jersey, holder := range stage.Jerseys {
		points, ok := c.jerseyTable[jersey]
		if !ok || points <= 0 {
			continue
		}
		if holder == "" || holder == "N/A" {
			continue
		}
		key := rider.Key(holder)
		b, ok := out[key]
		if !ok {
			b = Breakdown{Rider: holder, JerseyPoints: make(map[model.Jersey]int)}
		}
		b.JerseyPoints[jersey] += points
		b.StageTotal += points
		out[key] = b
	}

	return out
}
