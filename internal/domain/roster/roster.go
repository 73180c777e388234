// Package roster tracks each participant's active riders across stages.
//
// Per participant this is a two-state machine: before and after the single
// reserve substitution. A withdrawn rider (DNF/DNS/OTL/DSQ) is removed from
// the active roster; the first removal may be backfilled by the reserve
// rider exactly once for the whole race. Further losses shrink the roster
// permanently, which downstream scoring must tolerate.
package roster

import (
	"github.com/lwittrock/tourpoule/internal/domain/model"
	"github.com/lwittrock/tourpoule/internal/domain/rider"
)

// Substitution records one roster mutation. InRider is empty when a lost
// rider could not be replaced.
type Substitution struct {
	Stage    int    `json:"stage"`
	OutRider string `json:"out_rider"`
	InRider  string `json:"in_rider,omitempty"`
}

// ActiveRoster is the authoritative scoring roster of one participant for
// one stage.
type ActiveRoster struct {
	Participant string
	Directie    string
	Riders      []string
}

type participantState struct {
	name        string
	directie    string
	active      []string
	reserve     string
	substituted bool
	log         []Substitution
}

// Manager advances all participant rosters stage by stage. Stages must be
// applied in strictly increasing order; the manager keeps no lookahead
// state.
type Manager struct {
	states      []*participantState
	carriedOver []int
}

// NewManager seeds the manager from the initial selections. Input order is
// preserved in every snapshot.
func NewManager(selections []model.Selection) *Manager {
	m := &Manager{states: make([]*participantState, 0, len(selections))}
	for _, sel := range selections {
		active := make([]string, len(sel.MainRiders))
		copy(active, sel.MainRiders)
		m.states = append(m.states, &participantState{
			name:     sel.Participant,
			directie: sel.Directie,
			active:   active,
			reserve:  sel.ReserveRider,
		})
	}
	return m
}

// ApplyStage removes withdrawn riders from every roster, applies at most
// one reserve substitution per participant for the whole race, and returns
// the active rosters to score this stage with. The returned rosters carry
// over as the starting point for the next stage.
func (m *Manager) ApplyStage(stageNum int, withdrawals []model.Withdrawal) []ActiveRoster {
	withdrawn := make(map[string]struct{}, len(withdrawals))
	for _, w := range withdrawals {
		if w.Rider != "" {
			withdrawn[rider.Key(w.Rider)] = struct{}{}
		}
	}

	if len(withdrawn) == 0 {
		return m.snapshot()
	}

	for _, st := range m.states {
		kept := make([]string, 0, len(st.active))
		var lost []string
		for _, name := range st.active {
			if _, out := withdrawn[rider.Key(name)]; out {
				lost = append(lost, name)
			} else {
				kept = append(kept, name)
			}
		}
		if len(lost) == 0 {
			continue
		}

		st.active = kept
		for _, outRider := range lost {
			if !st.substituted && st.reserve != "" {
				in := st.reserve
				st.active = append(st.active, in)
				st.reserve = ""
				st.substituted = true
				st.log = append(st.log, Substitution{Stage: stageNum, OutRider: outRider, InRider: in})
				continue
			}
			st.log = append(st.log, Substitution{Stage: stageNum, OutRider: outRider})
		}
	}

	return m.snapshot()
}

// CarryOver records that a stage's result data was unusable and returns the
// rosters unchanged. The stage number is remembered so the run report can
// state explicitly which stages were carried over.
func (m *Manager) CarryOver(stageNum int) []ActiveRoster {
	m.carriedOver = append(m.carriedOver, stageNum)
	return m.snapshot()
}

// CarriedOver lists the stages whose rosters were carried over unchanged.
func (m *Manager) CarriedOver() []int {
	out := make([]int, len(m.carriedOver))
	copy(out, m.carriedOver)
	return out
}

// Substitutions returns the per-participant substitution log, including
// unreplaced losses (empty InRider).
func (m *Manager) Substitutions() map[string][]Substitution {
	out := make(map[string][]Substitution, len(m.states))
	for _, st := range m.states {
		if len(st.log) == 0 {
			continue
		}
		entries := make([]Substitution, len(st.log))
		copy(entries, st.log)
		out[st.name] = entries
	}
	return out
}

func (m *Manager) snapshot() []ActiveRoster {
	out := make([]ActiveRoster, 0, len(m.states))
	for _, st := range m.states {
		riders := make([]string, len(st.active))
		copy(riders, st.active)
		out = append(out, ActiveRoster{
			Participant: st.name,
			Directie:    st.directie,
			Riders:      riders,
		})
	}
	return out
}
