// Package simulate generates plausible stage results and participant
// selections for local development, so the pipeline can be exercised
// without scraping a live race.
package simulate

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/lwittrock/tourpoule/pkg/logger"
)

// Generator writes simulated race data under a data directory.
type Generator struct {
	dataDir      string
	stages       int
	participants int
	rosterSize   int
	riderPool    int
	seed         int64
	log          logger.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithStages sets how many stage files to generate.
func WithStages(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.stages = n
		}
	}
}

// WithParticipants sets how many participants to generate.
func WithParticipants(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.participants = n
		}
	}
}

// WithRosterSize sets how many main riders each participant picks.
func WithRosterSize(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.rosterSize = n
		}
	}
}

// WithSeed makes the generated race reproducible.
func WithSeed(seed int64) Option {
	return func(g *Generator) { g.seed = seed }
}

// NewGenerator creates a generator writing under dataDir.
func NewGenerator(dataDir string, opts ...Option) *Generator {
	g := &Generator{
		dataDir:      dataDir,
		stages:       5,
		participants: 8,
		rosterSize:   10,
		riderPool:    60,
		seed:         1,
		log:          logger.Named("simulate"),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.riderPool < g.rosterSize*2 {
		g.riderPool = g.rosterSize * 2
	}
	return g
}

type simFinisher struct {
	RiderName string `json:"rider_name"`
	Rank      int    `json:"rank"`
	Time      string `json:"time"`
}

type simHolder struct {
	RiderName string `json:"rider_name"`
	Rank      int    `json:"rank"`
}

type simStage struct {
	StageInfo struct {
		Date          string  `json:"date"`
		Distance      float64 `json:"distance"`
		DepartureCity string  `json:"departure_city"`
		ArrivalCity   string  `json:"arrival_city"`
		Type          string  `json:"stage_type_category"`
		WonHow        string  `json:"won_how"`
	} `json:"stage_info"`
	Finishers []simFinisher `json:"top_20_finishers"`
	TopGC     simHolder     `json:"top_gc_rider"`
	TopPoints simHolder     `json:"top_points_rider"`
	TopKOM    simHolder     `json:"top_kom_rider"`
	TopYouth  simHolder     `json:"top_youth_rider"`
	Combative string        `json:"combative_rider"`
	DNF       []string      `json:"dnf_riders"`
}

type simSelection struct {
	Name         string   `json:"name"`
	Directie     string   `json:"directie"`
	MainRiders   []string `json:"main_riders"`
	ReserveRider string   `json:"reserve_rider"`
}

var stageTypes = []string{"flat", "hilly", "mountain", "time_trial"}

var wonHow = []string{
	"sprint of a large group",
	"sprint of a small group",
	"solo attack",
	"attack in the final kilometer",
}

// Generate writes stage_N.json files and a participant_selections.json
// under the data directory and returns the stage directory and selections
// path.
func (g *Generator) Generate(ctx context.Context) (stageDir, selectionsPath string, err error) {
	rng := rand.New(rand.NewSource(g.seed))
	faker := gofakeit.New(uint64(g.seed))

	riders := g.riderNames(faker)

	stageDir = filepath.Join(g.dataDir, "stage_results")
	if err := os.MkdirAll(stageDir, 0o755); err != nil {
		return "", "", fmt.Errorf("create stage dir: %w", err)
	}

	withdrawn := make(map[string]bool)
	for n := 1; n <= g.stages; n++ {
		stage := g.buildStage(n, riders, withdrawn, rng, faker)
		data, err := json.MarshalIndent(stage, "", "  ")
		if err != nil {
			return "", "", fmt.Errorf("marshal stage %d: %w", n, err)
		}
		path := filepath.Join(stageDir, fmt.Sprintf("stage_%d.json", n))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return "", "", fmt.Errorf("write stage %d: %w", n, err)
		}
	}

	selections := g.buildSelections(riders, rng, faker)
	data, err := json.MarshalIndent(selections, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("marshal selections: %w", err)
	}
	selectionsPath = filepath.Join(g.dataDir, "participant_selections.json")
	if err := os.WriteFile(selectionsPath, data, 0o644); err != nil {
		return "", "", fmt.Errorf("write selections: %w", err)
	}

	g.log.Info(ctx, "generated simulated race data",
		logger.String("dir", g.dataDir),
		logger.Int("stages", g.stages),
		logger.Int("participants", g.participants),
		logger.Int("riders", len(riders)))
	return stageDir, selectionsPath, nil
}

func (g *Generator) riderNames(faker *gofakeit.Faker) []string {
	seen := make(map[string]struct{}, g.riderPool)
	riders := make([]string, 0, g.riderPool)
	for len(riders) < g.riderPool {
		name := faker.Name()
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		riders = append(riders, name)
	}
	return riders
}

func (g *Generator) buildStage(n int, riders []string, withdrawn map[string]bool, rng *rand.Rand, faker *gofakeit.Faker) simStage {
	active := make([]string, 0, len(riders))
	for _, r := range riders {
		if !withdrawn[r] {
			active = append(active, r)
		}
	}
	rng.Shuffle(len(active), func(i, j int) {
		active[i], active[j] = active[j], active[i]
	})

	var stage simStage
	stage.StageInfo.Date = fmt.Sprintf("2025-07-%02d", 4+n)
	stage.StageInfo.Distance = 120 + rng.Float64()*100
	stage.StageInfo.DepartureCity = faker.City()
	stage.StageInfo.ArrivalCity = faker.City()
	stage.StageInfo.Type = stageTypes[rng.Intn(len(stageTypes))]
	stage.StageInfo.WonHow = wonHow[rng.Intn(len(wonHow))]

	top := 20
	if top > len(active) {
		top = len(active)
	}
	secs := 0
	for i := 0; i < top; i++ {
		secs += rng.Intn(30)
		stage.Finishers = append(stage.Finishers, simFinisher{
			RiderName: active[i],
			Rank:      i + 1,
			Time:      fmt.Sprintf("%02d:%02d", secs/60, secs%60),
		})
	}

	pick := func() simHolder {
		return simHolder{RiderName: active[rng.Intn(top)], Rank: 1}
	}
	stage.TopGC = pick()
	stage.TopPoints = pick()
	stage.TopKOM = pick()
	stage.TopYouth = pick()
	stage.Combative = active[rng.Intn(top)]

	// Roughly one withdrawal every other stage, never a top finisher.
	if rng.Intn(2) == 0 && len(active) > top {
		victim := active[top+rng.Intn(len(active)-top)]
		withdrawn[victim] = true
		stage.DNF = append(stage.DNF, victim)
	}
	if stage.DNF == nil {
		stage.DNF = []string{}
	}
	return stage
}

func (g *Generator) buildSelections(riders []string, rng *rand.Rand, faker *gofakeit.Faker) []simSelection {
	pool := make([]string, len(riders))
	copy(pool, riders)
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	directies := []string{"Noord", "Zuid", "Oost", "West"}
	usedNames := make(map[string]struct{}, g.participants)
	selections := make([]simSelection, 0, g.participants)
	for i := 0; i < g.participants; i++ {
		name := faker.FirstName()
		for _, dup := usedNames[name]; dup; _, dup = usedNames[name] {
			name = faker.Name()
		}
		usedNames[name] = struct{}{}
		sel := simSelection{
			Name:     name,
			Directie: directies[i%len(directies)],
		}
		for j := 0; j < g.rosterSize; j++ {
			sel.MainRiders = append(sel.MainRiders, pool[rng.Intn(len(pool))])
		}
		sel.ReserveRider = pool[rng.Intn(len(pool))]
		selections = append(selections, sel)
	}
	return selections
}
