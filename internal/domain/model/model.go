// Package model contains domain models passed between layers.
package model

// Jersey identifies a classification whose holder earns bonus points.
type Jersey string

// Known jersey classifications. Combative is the most-aggressive-rider
// award; it behaves like a jersey for scoring purposes.
const (
	JerseyYellow    Jersey = "yellow"
	JerseyGreen     Jersey = "green"
	JerseyPolkaDot  Jersey = "polka_dot"
	JerseyWhite     Jersey = "white"
	JerseyCombative Jersey = "combative"
)

// Status marks a rider as out of the race.
type Status string

// Withdrawal statuses. Any of these removes the rider from further scoring.
const (
	StatusDNF Status = "DNF" // did not finish
	StatusDNS Status = "DNS" // did not start
	StatusOTL Status = "OTL" // outside time limit
	StatusDSQ Status = "DSQ" // disqualified
)

// Finisher is one classified rider in a stage result.
type Finisher struct {
	Rider string `json:"rider_name"`
	// Rank is 1-based. Zero means the rank could not be parsed; such a
	// finisher earns no finish points.
	Rank int `json:"rank"`
	Time string `json:"time,omitempty"`
}

// Withdrawal is a rider who left the race during a stage.
type Withdrawal struct {
	Rider  string `json:"rider_name"`
	Status Status `json:"status"`
}

// StageInfo carries descriptive stage metadata for display.
type StageInfo struct {
	Date          string  `json:"date"`
	Distance      float64 `json:"distance"`
	DepartureCity string  `json:"departure_city"`
	ArrivalCity   string  `json:"arrival_city"`
	Type          string  `json:"stage_type_category"`
	Difficulty    string  `json:"stage_difficulty"`
	WonHow        string  `json:"won_how"`
}

// Stage is one day's normalized race result. Stages are immutable once
// published; the engine never mutates them.
type Stage struct {
	Number      int
	Info        StageInfo
	Finishers   []Finisher
	Jerseys     map[Jersey]string
	Withdrawals []Withdrawal
}

// Winner returns the display name of the stage winner, or "" when the
// finisher list is empty.
func (s Stage) Winner() string {
	if len(s.Finishers) == 0 {
		return ""
	}
	return s.Finishers[0].Rider
}

// Selection is a participant's initial roster choice.
type Selection struct {
	Participant  string   `json:"name"`
	Directie     string   `json:"directie"`
	MainRiders   []string `json:"main_riders"`
	ReserveRider string   `json:"reserve_rider,omitempty"`
}
