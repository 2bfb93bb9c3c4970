// Package guide tracks lesson completion and private notes for the
// homebuying guide. Notes are typed freely, so the module debounces
// like the other long-form modules.
package guide

import (
	"fmt"
	"math"
	"time"

	"github.com/hausee/navigator-backend/internal/forms"
	"github.com/hausee/navigator-backend/internal/modules/catalog"
)

const ModuleID forms.ModuleID = "guide-progress"

// MaxNotesLen bounds one lesson's notes, in runes.
const MaxNotesLen = 10000

type Lesson struct {
	Completed   bool       `json:"completed"`
	Notes       string     `json:"notes"`
	CompletedAt *time.Time `json:"completed_at"`
}

type Progress struct {
	Completed  int `json:"completed"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// ModuleProgress is Progress for one guide module.
type ModuleProgress struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Progress
}

// Guide is the persisted payload. Progress and Modules are derived.
type Guide struct {
	Lessons  map[string]Lesson `json:"lessons"`
	Progress Progress          `json:"progress"`
	Modules  []ModuleProgress  `json:"modules"`
}

type definition struct {
	groups []catalog.Group
	known  map[string]bool
}

func percent(done, total int) Progress {
	p := Progress{Completed: done, Total: total}
	if total > 0 {
		p.Percentage = int(math.Round(float64(done) / float64(total) * 100))
	}
	return p
}

func (d definition) Default() Guide {
	return d.Derive(Guide{Lessons: map[string]Lesson{}}, forms.Env{})
}

// Derive stamps completed_at when a lesson is first completed, clears it
// when the lesson is reopened, and recounts per-module and overall
// progress. Notes never affect progress.
func (d definition) Derive(g Guide, env forms.Env) Guide {
	if g.Lessons == nil {
		g.Lessons = map[string]Lesson{}
	}
	for id, l := range g.Lessons {
		switch {
		case !l.Completed:
			l.CompletedAt = nil
		case l.CompletedAt == nil && !env.AsOf.IsZero():
			at := env.AsOf
			l.CompletedAt = &at
		}
		g.Lessons[id] = l
	}

	done, total := 0, 0
	g.Modules = make([]ModuleProgress, 0, len(d.groups))
	for _, grp := range d.groups {
		n := 0
		for _, it := range grp.Items {
			if g.Lessons[it.ID].Completed {
				n++
			}
		}
		g.Modules = append(g.Modules, ModuleProgress{ID: grp.ID, Name: grp.Name, Progress: percent(n, len(grp.Items))})
		done += n
		total += len(grp.Items)
	}
	g.Progress = percent(done, total)
	return g
}

func (d definition) Validate(g Guide) error {
	for id, l := range g.Lessons {
		if !d.known[id] {
			return fmt.Errorf("lessons: unknown lesson %q", id)
		}
		if n := len([]rune(l.Notes)); n > MaxNotesLen {
			return fmt.Errorf("lessons.%s.notes: %d characters, at most %d", id, n, MaxNotesLen)
		}
	}
	return nil
}

// New builds the guide progress module from its catalog entry; every
// catalog group is one guide module and its items are lesson IDs.
func New(e catalog.Entry) forms.Module[Guide] {
	d := definition{groups: e.Groups, known: map[string]bool{}}
	for _, id := range e.ItemIDs() {
		d.known[id] = true
	}
	return forms.Module[Guide]{
		ID:          forms.ModuleID(e.ID),
		CachePrefix: e.CachePrefix,
		Table:       e.Table,
		Delay:       e.Delay(),
		Default:     d.Default,
		Derive:      d.Derive,
		Validate:    d.Validate,
	}
}
