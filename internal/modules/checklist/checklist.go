// Package checklist implements the tick-box modules: the mortgage
// document checklist and the moving to-do list.
package checklist

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/hausee/navigator-backend/internal/forms"
	"github.com/hausee/navigator-backend/internal/modules/catalog"
)

const (
	MortgageModuleID forms.ModuleID = "mortgage-checklist"
	MovingModuleID   forms.ModuleID = "moving-todo-list"
)

type Item struct {
	Checked     bool       `json:"checked"`
	CompletedAt *time.Time `json:"completed_at"`
	CompletedBy *uuid.UUID `json:"completed_by,omitempty"`
}

type Progress struct {
	Completed  int `json:"completed"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// SectionProgress is Progress for one catalog group.
type SectionProgress struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Progress
}

// Checklist is the persisted payload. Progress and Sections are derived.
type Checklist struct {
	Items    map[string]Item   `json:"items"`
	Progress Progress          `json:"progress"`
	Sections []SectionProgress `json:"sections"`
}

type definition struct {
	groups      []catalog.Group
	known       map[string]bool
	completedBy bool
}

func newDefinition(e catalog.Entry, completedBy bool) definition {
	known := map[string]bool{}
	for _, id := range e.ItemIDs() {
		known[id] = true
	}
	return definition{groups: e.Groups, known: known, completedBy: completedBy}
}

func progress(done, total int) Progress {
	p := Progress{Completed: done, Total: total}
	if total > 0 {
		p.Percentage = int(math.Round(float64(done) / float64(total) * 100))
	}
	return p
}

func (d definition) Default() Checklist {
	return d.Derive(Checklist{Items: map[string]Item{}}, forms.Env{})
}

// Derive stamps completion on newly checked items, clears it on
// unchecked ones, and recounts progress.
func (d definition) Derive(c Checklist, env forms.Env) Checklist {
	if c.Items == nil {
		c.Items = map[string]Item{}
	}
	for id, it := range c.Items {
		if !it.Checked {
			it.CompletedAt = nil
			it.CompletedBy = nil
		} else {
			if it.CompletedAt == nil && !env.AsOf.IsZero() {
				at := env.AsOf
				it.CompletedAt = &at
			}
			if d.completedBy && it.CompletedBy == nil && env.UserID != uuid.Nil {
				by := env.UserID
				it.CompletedBy = &by
			}
			if !d.completedBy {
				it.CompletedBy = nil
			}
		}
		c.Items[id] = it
	}

	done, total := 0, 0
	c.Sections = make([]SectionProgress, 0, len(d.groups))
	for _, g := range d.groups {
		gd := 0
		for _, it := range g.Items {
			if c.Items[it.ID].Checked {
				gd++
			}
		}
		c.Sections = append(c.Sections, SectionProgress{ID: g.ID, Name: g.Name, Progress: progress(gd, len(g.Items))})
		done += gd
		total += len(g.Items)
	}
	c.Progress = progress(done, total)
	return c
}

func (d definition) Validate(c Checklist) error {
	for id := range c.Items {
		if !d.known[id] {
			return fmt.Errorf("items: unknown item %q", id)
		}
	}
	return nil
}

func (d definition) module(e catalog.Entry) forms.Module[Checklist] {
	return forms.Module[Checklist]{
		ID:          forms.ModuleID(e.ID),
		CachePrefix: e.CachePrefix,
		Table:       e.Table,
		Delay:       e.Delay(),
		Default:     d.Default,
		Derive:      d.Derive,
		Validate:    d.Validate,
	}
}

// NewMortgage builds the mortgage document checklist.
func NewMortgage(e catalog.Entry) forms.Module[Checklist] {
	return newDefinition(e, false).module(e)
}

// NewMoving builds the moving to-do list, which also records who
// completed each task.
func NewMoving(e catalog.Entry) forms.Module[Checklist] {
	return newDefinition(e, true).module(e)
}
