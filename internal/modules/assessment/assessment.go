// Package assessment scores the fifteen-question homebuyer readiness
// self-assessment.
package assessment

import (
	"fmt"
	"time"

	"github.com/hausee/navigator-backend/internal/forms"
	"github.com/hausee/navigator-backend/internal/modules/catalog"
)

const ModuleID forms.ModuleID = "self-assessment"

const (
	StatusIncomplete       = "incomplete"
	StatusReady            = "ready"
	StatusOnTrack          = "on_track"
	StatusNeedsPreparation = "needs_preparation"

	minAnswer = 1
	maxAnswer = 5
)

type CategoryScore struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Score      int     `json:"score"`
	MaxScore   int     `json:"max_score"`
	Percentage float64 `json:"percentage"`
}

// Response is the persisted payload. Answers holds one entry per
// question; nil means unanswered.
type Response struct {
	Answers        []*int          `json:"answers"`
	Score          *float64        `json:"score"`
	Status         string          `json:"status"`
	CategoryScores []CategoryScore `json:"category_scores"`
	CompletedAt    *time.Time      `json:"completed_at"`
}

type scorer struct {
	groups    []catalog.Group
	questions int
}

func (s scorer) Default() Response {
	return s.Derive(Response{Answers: make([]*int, s.questions)}, forms.Env{})
}

// Derive scores a complete response and clears scores otherwise.
// CompletedAt is set the first time every question is answered.
func (s scorer) Derive(r Response, env forms.Env) Response {
	total, answered := 0, 0
	for _, a := range r.Answers {
		if a != nil {
			total += *a
			answered++
		}
	}
	if answered < s.questions || len(r.Answers) != s.questions {
		r.Score = nil
		r.Status = StatusIncomplete
		r.CategoryScores = nil
		return r
	}

	score := float64(total) / float64(s.questions*maxAnswer) * 100
	r.Score = &score
	switch {
	case score >= 75:
		r.Status = StatusReady
	case score >= 50:
		r.Status = StatusOnTrack
	default:
		r.Status = StatusNeedsPreparation
	}

	r.CategoryScores = r.CategoryScores[:0]
	idx := 0
	for _, g := range s.groups {
		cs := CategoryScore{ID: g.ID, Name: g.Name, MaxScore: len(g.Items) * maxAnswer}
		for range g.Items {
			cs.Score += *r.Answers[idx]
			idx++
		}
		if cs.MaxScore > 0 {
			cs.Percentage = float64(cs.Score) / float64(cs.MaxScore) * 100
		}
		r.CategoryScores = append(r.CategoryScores, cs)
	}
	if r.CompletedAt == nil && !env.AsOf.IsZero() {
		at := env.AsOf
		r.CompletedAt = &at
	}
	return r
}

func (s scorer) Validate(r Response) error {
	if len(r.Answers) != s.questions {
		return fmt.Errorf("answers: want %d entries, got %d", s.questions, len(r.Answers))
	}
	for i, a := range r.Answers {
		if a != nil && (*a < minAnswer || *a > maxAnswer) {
			return fmt.Errorf("answers[%d]: %d is outside %d-%d", i, *a, minAnswer, maxAnswer)
		}
	}
	return nil
}

func New(e catalog.Entry) forms.Module[Response] {
	s := scorer{groups: e.Groups, questions: len(e.ItemIDs())}
	return forms.Module[Response]{
		ID:          forms.ModuleID(e.ID),
		CachePrefix: e.CachePrefix,
		Table:       e.Table,
		Delay:       e.Delay(),
		Default:     s.Default,
		Derive:      s.Derive,
		Validate:    s.Validate,
	}
}
