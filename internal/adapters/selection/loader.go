// Package selection loads the participants' pre-race rider selections.
package selection

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/lwittrock/tourpoule/internal/domain/model"
	"github.com/lwittrock/tourpoule/internal/domain/rider"
	"github.com/lwittrock/tourpoule/pkg/logger"
	"github.com/lwittrock/tourpoule/pkg/metrics"
)

// Loader reads and validates a participant selections file. Selections are
// the one input the pipeline cannot proceed without, so loading errors are
// returned to the caller rather than absorbed.
type Loader struct {
	path      string
	anonymize bool
	reformat  bool
	log       logger.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithAnonymize replaces participant names with "deelnemer N" so exported
// data can be published without real names.
func WithAnonymize(on bool) Option {
	return func(l *Loader) { l.anonymize = on }
}

// WithReformatNames flips surname-first rider names to given-name-first.
// Selection sheets are usually filled in surname-first while the scraped
// results use given-name-first.
func WithReformatNames(on bool) Option {
	return func(l *Loader) { l.reformat = on }
}

// NewLoader creates a loader for the given selections file.
func NewLoader(path string, opts ...Option) *Loader {
	l := &Loader{
		path: path,
		log:  logger.Named("selection"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type rawSelection struct {
	Name         string   `json:"name"`
	Directie     string   `json:"directie"`
	MainRiders   []string `json:"main_riders"`
	ReserveRider string   `json:"reserve_rider"`
}

// Load reads the selections file and returns the validated selections in
// file order. Entries without a name are skipped with a warning; duplicate
// riders within or across selections are warned about but kept, since the
// sheet is the source of truth even when it is sloppy.
func (l *Loader) Load(ctx context.Context) ([]model.Selection, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("selections at %s: %w", l.path, ErrSelectionsNotFound)
		}
		return nil, fmt.Errorf("read selections: %w", err)
	}

	var raws []rawSelection
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("selections: %w: %v", ErrSelectionsDecode, err)
	}

	seen := make(map[string]string) // rider key -> first participant
	selections := make([]model.Selection, 0, len(raws))
	anonCount := 0

	for i, raw := range raws {
		name := strings.TrimSpace(raw.Name)
		if name == "" {
			l.log.Warn(ctx, "skipping selection without a participant name",
				logger.Int("index", i))
			metrics.RecordMalformedRecord("selection")
			continue
		}
		if l.anonymize {
			anonCount++
			name = fmt.Sprintf("deelnemer %d", anonCount)
		}

		sel := model.Selection{
			Participant:  name,
			Directie:     strings.TrimSpace(raw.Directie),
			ReserveRider: l.riderName(raw.ReserveRider),
		}
		for _, r := range raw.MainRiders {
			if r = l.riderName(r); r != "" {
				sel.MainRiders = append(sel.MainRiders, r)
			}
		}
		if len(sel.MainRiders) == 0 {
			l.log.Warn(ctx, "participant has no main riders",
				logger.String("participant", name))
		}

		l.warnDuplicates(ctx, sel, seen)
		selections = append(selections, sel)
	}

	if len(selections) == 0 {
		return nil, ErrNoParticipants
	}

	l.log.Info(ctx, "loaded participant selections",
		logger.String("path", l.path),
		logger.Int("participants", len(selections)),
		logger.Bool("anonymized", l.anonymize))
	return selections, nil
}

func (l *Loader) riderName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if l.reformat {
		return rider.Reformat(name)
	}
	return name
}

// warnDuplicates flags riders picked twice in one selection and riders
// shared across participants. Shared riders are legal but usually a sheet
// mistake worth surfacing.
func (l *Loader) warnDuplicates(ctx context.Context, sel model.Selection, seen map[string]string) {
	all := make([]string, 0, len(sel.MainRiders)+1)
	all = append(all, sel.MainRiders...)
	if sel.ReserveRider != "" {
		all = append(all, sel.ReserveRider)
	}

	local := make(map[string]struct{}, len(all))
	for _, r := range all {
		key := rider.Key(r)
		if _, dup := local[key]; dup {
			l.log.Warn(ctx, "rider appears twice in one selection",
				logger.String("participant", sel.Participant),
				logger.String("rider", r))
			continue
		}
		local[key] = struct{}{}

		if other, taken := seen[key]; taken {
			l.log.Warn(ctx, "rider selected by multiple participants",
				logger.String("rider", r),
				logger.String("participant", sel.Participant),
				logger.String("also_selected_by", other))
			continue
		}
		seen[key] = sel.Participant
	}
}
