// Package evaluation scores a buyer's walkthrough of one home. Records
// are keyed per home through the scope subject.
package evaluation

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/hausee/navigator-backend/internal/forms"
	"github.com/hausee/navigator-backend/internal/modules/catalog"
)

const ModuleID forms.ModuleID = "home-evaluation"

const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

var ratingPoints = map[string]float64{"good": 5, "fair": 3, "poor": 1}

// Evaluation is the persisted payload. Ratings maps category to item to
// value: a rating word, a number, or free text depending on the item.
type Evaluation struct {
	Ratings      map[string]map[string]interface{} `json:"ratings"`
	ItemNotes    map[string]string                 `json:"item_notes"`
	SectionNotes map[string]string                 `json:"section_notes"`

	OverallRating        float64    `json:"overall_rating"`
	CompletionPercentage int        `json:"completion_percentage"`
	EvaluationStatus     string     `json:"evaluation_status"`
	StartedAt            *time.Time `json:"started_at"`
	CompletedAt          *time.Time `json:"completed_at"`
}

type scorer struct {
	entry catalog.Entry
	total int
}

func answered(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	default:
		return true
	}
}

func (s scorer) Default() Evaluation {
	return s.Derive(Evaluation{}, forms.Env{})
}

func (s scorer) Derive(e Evaluation, env forms.Env) Evaluation {
	if e.Ratings == nil {
		e.Ratings = map[string]map[string]interface{}{}
	}
	if e.ItemNotes == nil {
		e.ItemNotes = map[string]string{}
	}
	if e.SectionNotes == nil {
		e.SectionNotes = map[string]string{}
	}

	done, points, rated := 0, 0.0, 0
	for _, g := range s.entry.Groups {
		for _, it := range g.Items {
			v := e.Ratings[g.ID][it.ID]
			if !answered(v) {
				continue
			}
			done++
			if it.Kind == catalog.KindRating {
				if p, ok := ratingPoints[fmt.Sprint(v)]; ok {
					points += p
					rated++
				}
			}
		}
	}

	e.CompletionPercentage = 0
	if s.total > 0 {
		e.CompletionPercentage = int(math.Round(float64(done) / float64(s.total) * 100))
	}
	e.OverallRating = 0
	if rated > 0 {
		e.OverallRating = math.Round(points/float64(rated)*10) / 10
	}

	switch {
	case done == 0:
		e.EvaluationStatus = StatusNotStarted
		e.StartedAt = nil
		e.CompletedAt = nil
	case done < s.total:
		e.EvaluationStatus = StatusInProgress
		e.CompletedAt = nil
	default:
		e.EvaluationStatus = StatusCompleted
	}
	if done > 0 && e.StartedAt == nil && !env.AsOf.IsZero() {
		at := env.AsOf
		e.StartedAt = &at
	}
	if e.EvaluationStatus == StatusCompleted && e.CompletedAt == nil && !env.AsOf.IsZero() {
		at := env.AsOf
		e.CompletedAt = &at
	}
	return e
}

func (s scorer) Validate(e Evaluation) error {
	for groupID, items := range e.Ratings {
		for itemID, v := range items {
			it, ok := s.entry.Item(groupID, itemID)
			if !ok {
				return fmt.Errorf("ratings.%s.%s: unknown item", groupID, itemID)
			}
			if v == nil {
				continue
			}
			if err := checkValue(it, v); err != nil {
				return fmt.Errorf("ratings.%s.%s: %w", groupID, itemID, err)
			}
		}
	}
	known := map[string]bool{}
	groups := map[string]bool{}
	for _, g := range s.entry.Groups {
		groups[g.ID] = true
		for _, it := range g.Items {
			known[it.ID] = true
		}
	}
	for id := range e.ItemNotes {
		if !known[id] {
			return fmt.Errorf("item_notes.%s: unknown item", id)
		}
	}
	for id := range e.SectionNotes {
		if !groups[id] {
			return fmt.Errorf("section_notes.%s: unknown section", id)
		}
	}
	return nil
}

func checkValue(it catalog.Item, v interface{}) error {
	switch it.Kind {
	case catalog.KindRating:
		s, ok := v.(string)
		if _, known := ratingPoints[s]; !ok || !known {
			return fmt.Errorf("must be good, fair or poor")
		}
	case catalog.KindCurrency:
		n, ok := v.(float64)
		if !ok || n < 0 {
			return fmt.Errorf("must be a non-negative amount")
		}
	case catalog.KindDropdown:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("must be one of %s", strings.Join(it.Options, ", "))
		}
		for _, o := range it.Options {
			if o == s {
				return nil
			}
		}
		return fmt.Errorf("must be one of %s", strings.Join(it.Options, ", "))
	case catalog.KindTextarea:
		if _, ok := v.(string); !ok {
			return fmt.Errorf("must be text")
		}
	}
	return nil
}

func New(e catalog.Entry) forms.Module[Evaluation] {
	s := scorer{entry: e, total: len(e.ItemIDs())}
	return forms.Module[Evaluation]{
		ID:              forms.ModuleID(e.ID),
		CachePrefix:     e.CachePrefix,
		Table:           e.Table,
		Delay:           e.Delay(),
		SubjectRequired: true,
		Default:         s.Default,
		Derive:          s.Derive,
		Validate:        s.Validate,
	}
}
