// Package results reads scraped per-stage result files and normalizes them
// into domain stages.
//
// The files come from an external scraper and are not fully trusted: ranks
// may be numeric strings, jersey holders may be a bare name or an object,
// and the withdrawal list mixes plain names with name/status objects. All
// of that variance is absorbed here so the scoring core only ever sees one
// shape.
package results

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/lwittrock/tourpoule/internal/domain/model"
	"github.com/lwittrock/tourpoule/pkg/metrics"
)

// stageFilePattern matches stage_<n>.json files produced by the scraper.
var stageFilePattern = regexp.MustCompile(`^stage_(\d+)\.json$`)

// digits extracts the first run of digits from a malformed rank string.
var digits = regexp.MustCompile(`\d+`)

// Reader loads stage result files from a directory.
type Reader struct {
	dir string
}

// NewReader creates a reader over the given stage-results directory.
func NewReader(dir string) *Reader {
	return &Reader{dir: dir}
}

// Scan returns the available stage numbers in ascending order. A missing
// directory yields an empty list, not an error; the caller decides whether
// an empty stage set is fatal.
func (r *Reader) Scan(ctx context.Context) ([]int, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan stage results %s: %w", r.dir, err)
	}

	seen := make(map[int]struct{})
	var nums []int
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := stageFilePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			continue
		}
		if _, dup := seen[n]; !dup {
			seen[n] = struct{}{}
			nums = append(nums, n)
		}
	}
	sort.Ints(nums)
	return nums, nil
}

// Stage loads and normalizes one stage's result file.
func (r *Reader) Stage(ctx context.Context, number int) (model.Stage, error) {
	path := filepath.Join(r.dir, fmt.Sprintf("stage_%d.json", number))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.Stage{}, fmt.Errorf("stage %d at %s: %w", number, path, ErrStageNotFound)
		}
		return model.Stage{}, fmt.Errorf("read stage %d: %w", number, err)
	}

	var raw rawStage
	if err := json.Unmarshal(data, &raw); err != nil {
		return model.Stage{}, fmt.Errorf("stage %d: %w: %v", number, ErrStageDecode, err)
	}

	return raw.normalize(number), nil
}

// rawStage mirrors the scraper's file layout with lenient field types.
type rawStage struct {
	StageInfo rawStageInfo      `json:"stage_info"`
	Finishers []rawFinisher     `json:"top_20_finishers"`
	TopGC     *rawHolder        `json:"top_gc_rider"`
	TopPoints *rawHolder        `json:"top_points_rider"`
	TopKOM    *rawHolder        `json:"top_kom_rider"`
	TopYouth  *rawHolder        `json:"top_youth_rider"`
	Combative json.RawMessage   `json:"combative_rider"`
	DNF       []json.RawMessage `json:"dnf_riders"`
}

type rawStageInfo struct {
	Date          string          `json:"date"`
	Distance      json.RawMessage `json:"distance"`
	DepartureCity string          `json:"departure_city"`
	ArrivalCity   string          `json:"arrival_city"`
	Type          string          `json:"stage_type_category"`
	Difficulty    string          `json:"stage_difficulty"`
	WonHow        string          `json:"won_how"`
}

type rawFinisher struct {
	RiderName string          `json:"rider_name"`
	Rank      json.RawMessage `json:"rank"`
	Time      string          `json:"time"`
}

// rawHolder is a classification leader: {"rider_name": ..., "rank": ...}.
type rawHolder struct {
	RiderName string `json:"rider_name"`
}

func (rs *rawStage) normalize(number int) model.Stage {
	stage := model.Stage{
		Number: number,
		Info: model.StageInfo{
			Date:          rs.StageInfo.Date,
			Distance:      parseDistance(rs.StageInfo.Distance),
			DepartureCity: rs.StageInfo.DepartureCity,
			ArrivalCity:   rs.StageInfo.ArrivalCity,
			Type:          rs.StageInfo.Type,
			Difficulty:    rs.StageInfo.Difficulty,
			WonHow:        rs.StageInfo.WonHow,
		},
		Jerseys: make(map[model.Jersey]string),
	}

	for _, f := range rs.Finishers {
		if strings.TrimSpace(f.RiderName) == "" {
			metrics.RecordMalformedRecord("results")
			continue
		}
		stage.Finishers = append(stage.Finishers, model.Finisher{
			Rider: f.RiderName,
			Rank:  parseRank(f.Rank),
			Time:  f.Time,
		})
	}

	addHolder := func(j model.Jersey, h *rawHolder) {
		if h == nil {
			return
		}
		if name := strings.TrimSpace(h.RiderName); name != "" && name != "N/A" {
			stage.Jerseys[j] = name
		}
	}
	addHolder(model.JerseyYellow, rs.TopGC)
	addHolder(model.JerseyGreen, rs.TopPoints)
	addHolder(model.JerseyPolkaDot, rs.TopKOM)
	addHolder(model.JerseyWhite, rs.TopYouth)

	// The combative award arrives either as a bare name or as an object
	// like the other holders.
	if name := parseName(rs.Combative); name != "" && name != "N/A" {
		stage.Jerseys[model.JerseyCombative] = name
	}

	for _, entry := range rs.DNF {
		w, ok := parseWithdrawal(entry)
		if !ok {
			metrics.RecordMalformedRecord("results")
			continue
		}
		stage.Withdrawals = append(stage.Withdrawals, w)
	}

	return stage
}

// parseRank coerces a rank field to an int. Numbers and numeric strings
// parse directly; anything else falls back to the first digit run in the
// string, and finally to zero. A zero rank scores no finish points but is
// never an error.
func parseRank(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}

	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		if n < 0 {
			return 0
		}
		return n
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && n >= 0 {
			return n
		}
		if m := digits.FindString(s); m != "" {
			if n, err := strconv.Atoi(m); err == nil {
				metrics.RecordMalformedRecord("results")
				return n
			}
		}
	}

	metrics.RecordMalformedRecord("results")
	return 0
}

// parseDistance tolerates both numbers and strings like "184.9" or "N/A".
func parseDistance(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	}
	return 0
}

// parseName accepts a bare JSON string or an object with a rider_name key.
func parseName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var h rawHolder
	if err := json.Unmarshal(raw, &h); err == nil {
		return strings.TrimSpace(h.RiderName)
	}
	return ""
}

// parseWithdrawal accepts "Name" or {"rider_name": ..., "status": ...}.
// Unknown statuses default to DNF.
func parseWithdrawal(raw json.RawMessage) (model.Withdrawal, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return model.Withdrawal{}, false
		}
		return model.Withdrawal{Rider: s, Status: model.StatusDNF}, true
	}

	var obj struct {
		RiderName string `json:"rider_name"`
		Status    string `json:"status"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return model.Withdrawal{}, false
	}
	name := strings.TrimSpace(obj.RiderName)
	if name == "" {
		return model.Withdrawal{}, false
	}
	status := model.Status(strings.ToUpper(strings.TrimSpace(obj.Status)))
	switch status {
	case model.StatusDNF, model.StatusDNS, model.StatusOTL, model.StatusDSQ:
	default:
		status = model.StatusDNF
	}
	return model.Withdrawal{Rider: name, Status: status}, true
}
