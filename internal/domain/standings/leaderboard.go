package standings

import (
	"sort"
)

// Entry is one row of a stage's participant leaderboard.
//
// Ordering: cumulative score descending, ties broken alphabetically by
// participant name so equal scores always rank deterministically.
type Entry struct {
	Participant string `json:"participant_name"`
	Directie    string `json:"directie"`
	TotalScore  int    `json:"total_score"`
	Rank        int    `json:"rank"`
	// RankChange is previous rank minus current rank (positive = moved
	// up). Nil for a participant without a prior rank.
	RankChange *int `json:"rank_change"`
	StageScore int  `json:"stage_score"`
	// StageRank ranks this stage's scores alone and resets every stage.
	StageRank int `json:"stage_rank"`
}

// Builder produces the cumulative leaderboard after each stage and keeps
// the per-stage history needed for rank-change computation and export.
type Builder struct {
	history map[int][]Entry
	prev    []Entry
}

// NewBuilder creates an empty leaderboard builder.
func NewBuilder() *Builder {
	return &Builder{history: make(map[int][]Entry)}
}

// BuildStage ranks all participants by cumulative score after stageNum.
// Rank changes compare against the previously built leaderboard, which is
// the immediately preceding processed stage even when stage numbers have
// gaps.
func (b *Builder) BuildStage(stageNum int, participants *ParticipantHistory) []Entry {
	names := participants.Names()
	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		rec := participants.Record(name)
		entries = append(entries, Entry{
			Participant: name,
			Directie:    rec.Directie,
			TotalScore:  rec.TotalScore,
			StageScore:  rec.Stages[stageNum].StageScore,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalScore != entries[j].TotalScore {
			return entries[i].TotalScore > entries[j].TotalScore
		}
		return entries[i].Participant < entries[j].Participant
	})

	prevRanks := make(map[string]int, len(b.prev))
	for _, e := range b.prev {
		prevRanks[e.Participant] = e.Rank
	}

	for i := range entries {
		entries[i].Rank = i + 1
		if prev, ok := prevRanks[entries[i].Participant]; ok {
			change := prev - entries[i].Rank
			entries[i].RankChange = &change
		}
	}

	assignStageRanks(entries)

	stored := make([]Entry, len(entries))
	copy(stored, entries)
	b.history[stageNum] = stored
	b.prev = stored
	return entries
}

// assignStageRanks ranks the same entries by this stage's score alone,
// with the same deterministic tie-break.
func assignStageRanks(entries []Entry) {
	idx := make([]int, len(entries))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		i, j := idx[a], idx[b]
		if entries[i].StageScore != entries[j].StageScore {
			return entries[i].StageScore > entries[j].StageScore
		}
		return entries[i].Participant < entries[j].Participant
	})
	for pos, i := range idx {
		entries[i].StageRank = pos + 1
	}
}

// History returns every built leaderboard keyed by stage number.
func (b *Builder) History() map[int][]Entry { return b.history }

// Latest returns the most recently built leaderboard.
func (b *Builder) Latest() []Entry { return b.prev }

// Contributor is one participant's share of a directie's score.
type Contributor struct {
	Participant string `json:"participant_name"`
	StageScore  int    `json:"stage_contribution"`
	TotalScore  int    `json:"total_contribution"`
}

// DirectieEntry is one row of the group-level leaderboard. A directie's
// cumulative total is the sum over stages of its top-N participant stage
// contributions, so it is not simply the sum of its members' totals.
type DirectieEntry struct {
	Directie   string `json:"directie"`
	TotalScore int    `json:"total_score"`
	// StageScoreAdded is the top-N stage-contribution sum added this stage.
	StageScoreAdded int           `json:"stage_score_added"`
	Rank            int           `json:"rank"`
	RankChange      *int          `json:"rank_change"`
	Contributors    []Contributor `json:"contributing_participants"`
}

// DirectieBoard accumulates and ranks the directie leaderboard.
type DirectieBoard struct {
	topN    int
	totals  map[string]int
	history map[int][]DirectieEntry
	prev    []DirectieEntry
}

// DirectieOption configures a DirectieBoard.
type DirectieOption func(*DirectieBoard)

// WithTopN sets how many participant stage scores count per directie.
func WithTopN(n int) DirectieOption {
	return func(d *DirectieBoard) {
		if n > 0 {
			d.topN = n
		}
	}
}

const defaultDirectieTopN = 5

// NewDirectieBoard creates an empty directie board.
func NewDirectieBoard(opts ...DirectieOption) *DirectieBoard {
	d := &DirectieBoard{
		topN:    defaultDirectieTopN,
		totals:  make(map[string]int),
		history: make(map[int][]DirectieEntry),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// BuildStage adds each directie's top-N participant stage contributions to
// its running total and ranks the directies. Participants with neither a
// stage nor a cumulative contribution are left off the contributor lists.
func (d *DirectieBoard) BuildStage(stageNum int, participants *ParticipantHistory) []DirectieEntry {
	byDirectie := make(map[string][]Contributor)
	for _, name := range participants.Names() {
		rec := participants.Record(name)
		directie := rec.Directie
		if directie == "" {
			directie = "Unknown"
		}
		stageScore := rec.Stages[stageNum].StageScore
		if stageScore == 0 && rec.TotalScore == 0 {
			continue
		}
		byDirectie[directie] = append(byDirectie[directie], Contributor{
			Participant: name,
			StageScore:  stageScore,
			TotalScore:  rec.TotalScore,
		})
	}

	entries := make([]DirectieEntry, 0, len(byDirectie))
	for directie, contributors := range byDirectie {
		byStage := make([]Contributor, len(contributors))
		copy(byStage, contributors)
		sort.Slice(byStage, func(i, j int) bool {
			if byStage[i].StageScore != byStage[j].StageScore {
				return byStage[i].StageScore > byStage[j].StageScore
			}
			return byStage[i].Participant < byStage[j].Participant
		})
		counted := byStage
		if len(counted) > d.topN {
			counted = counted[:d.topN]
		}
		added := 0
		for _, c := range counted {
			added += c.StageScore
		}
		d.totals[directie] += added

		sort.Slice(contributors, func(i, j int) bool {
			if contributors[i].TotalScore != contributors[j].TotalScore {
				return contributors[i].TotalScore > contributors[j].TotalScore
			}
			return contributors[i].Participant < contributors[j].Participant
		})

		entries = append(entries, DirectieEntry{
			Directie:        directie,
			TotalScore:      d.totals[directie],
			StageScoreAdded: added,
			Contributors:    contributors,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalScore != entries[j].TotalScore {
			return entries[i].TotalScore > entries[j].TotalScore
		}
		return entries[i].Directie < entries[j].Directie
	})

	prevRanks := make(map[string]int, len(d.prev))
	for _, e := range d.prev {
		prevRanks[e.Directie] = e.Rank
	}
	for i := range entries {
		entries[i].Rank = i + 1
		if prev, ok := prevRanks[entries[i].Directie]; ok {
			change := prev - entries[i].Rank
			entries[i].RankChange = &change
		}
	}

	stored := make([]DirectieEntry, len(entries))
	copy(stored, entries)
	d.history[stageNum] = stored
	d.prev = stored
	return entries
}

// History returns every built directie board keyed by stage number.
func (d *DirectieBoard) History() map[int][]DirectieEntry { return d.history }

// Latest returns the most recently built directie board.
func (d *DirectieBoard) Latest() []DirectieEntry { return d.prev }
