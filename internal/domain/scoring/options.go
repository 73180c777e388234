package scoring

import "github.com/lwittrock/tourpoule/internal/domain/model"

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithRankTable overrides the finish-points table.
func WithRankTable(t RankTable) Option {
	return func(c *Calculator) {
		if t.Winner > 0 && t.MaxRank > 0 {
			c.rankTable = t
		}
	}
}

// WithJerseyTable overrides the jersey bonus table. Entries with
// non-positive points are dropped.
func WithJerseyTable(t JerseyTable) Option {
	return func(c *Calculator) {
		cleaned := make(JerseyTable, len(t))
		for jersey, points := range t {
			if points > 0 {
				cleaned[jersey] = points
			}
		}
		c.jerseyTable = cleaned
	}
}

// WithJerseyPoints overrides the jersey table from a plain string map, as
// loaded from configuration. Unknown jersey names are kept as-is so a new
// classification only needs a config change.
func WithJerseyPoints(points map[string]int) Option {
	return func(c *Calculator) {
		if len(points) == 0 {
			return
		}
		t := make(JerseyTable, len(points))
		for name, p := range points {
			if p > 0 {
				t[model.Jersey(name)] = p
			}
		}
		c.jerseyTable = t
	}
}
