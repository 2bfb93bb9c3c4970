// Package dreamhome holds the buyer's dream home preferences.
package dreamhome

import (
	"fmt"
	"strings"

	"github.com/hausee/navigator-backend/internal/forms"
	"github.com/hausee/navigator-backend/internal/modules/catalog"
)

const ModuleID forms.ModuleID = "my-dream-home"

const maxCities = 3

var OntarioCities = []string{
	"Toronto", "Ottawa", "Mississauga", "Brampton", "Hamilton",
	"London", "Markham", "Vaughan", "Kitchener", "Windsor",
	"Richmond Hill", "Oakville", "Burlington", "Greater Sudbury", "Oshawa",
	"Barrie", "St. Catharines", "Cambridge", "Kingston", "Guelph",
}

type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Preferences is the persisted payload. Missing and Complete are derived.
type Preferences struct {
	ConstructionStatus *string    `json:"construction_status"`
	PriceRange         PriceRange `json:"price_range"`
	PreferredCities    []string   `json:"preferred_cities"`
	Bedrooms           *string    `json:"bedrooms"`
	Bathrooms          *string    `json:"bathrooms"`
	MaxCondoFees       *float64   `json:"max_condo_fees"`
	Backyard           *string    `json:"backyard"`
	Timeline           *string    `json:"timeline"`
	Notes              string     `json:"notes"`

	Missing  []string `json:"missing"`
	Complete bool     `json:"complete"`
}

func Default() Preferences {
	return Preferences{
		PriceRange:      PriceRange{Min: 400000, Max: 800000},
		PreferredCities: []string{},
	}
}

func blank(s *string) bool { return s == nil || strings.TrimSpace(*s) == "" }

// Derive lists the required answers still missing.
func Derive(p Preferences, _ forms.Env) Preferences {
	if p.PreferredCities == nil {
		p.PreferredCities = []string{}
	}
	p.Missing = []string{}
	if blank(p.ConstructionStatus) {
		p.Missing = append(p.Missing, "construction_status")
	}
	if blank(p.Timeline) {
		p.Missing = append(p.Missing, "timeline")
	}
	p.Complete = len(p.Missing) == 0
	return p
}

func oneOf(v *string, allowed ...string) bool {
	if v == nil {
		return true
	}
	for _, a := range allowed {
		if *v == a {
			return true
		}
	}
	return false
}

func Validate(p Preferences) error {
	if !oneOf(p.ConstructionStatus, "new", "ready") {
		return fmt.Errorf("construction_status must be new or ready")
	}
	if !oneOf(p.Backyard, "small", "large", "indifferent") {
		return fmt.Errorf("backyard must be small, large or indifferent")
	}
	if p.PriceRange.Min < 0 || p.PriceRange.Max < p.PriceRange.Min {
		return fmt.Errorf("price_range: min must be between 0 and max")
	}
	if p.MaxCondoFees != nil && *p.MaxCondoFees < 0 {
		return fmt.Errorf("max_condo_fees must not be negative")
	}
	if len(p.PreferredCities) > maxCities {
		return fmt.Errorf("preferred_cities: you can select up to %d cities", maxCities)
	}
	seen := map[string]bool{}
	for _, c := range p.PreferredCities {
		if seen[c] {
			return fmt.Errorf("preferred_cities: %q listed twice", c)
		}
		seen[c] = true
		if !knownCity(c) {
			return fmt.Errorf("preferred_cities: %q is not a supported city", c)
		}
	}
	return nil
}

func knownCity(c string) bool {
	for _, k := range OntarioCities {
		if k == c {
			return true
		}
	}
	return false
}

func New(e catalog.Entry) forms.Module[Preferences] {
	return forms.Module[Preferences]{
		ID:          forms.ModuleID(e.ID),
		CachePrefix: e.CachePrefix,
		Table:       e.Table,
		Delay:       e.Delay(),
		Default:     Default,
		Derive:      Derive,
		Validate:    Validate,
	}
}
