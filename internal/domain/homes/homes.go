// Package homes holds the homes a buyer is tracking. A home's ID is the
// subject of its home-evaluation form.
package homes

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type EvaluationStatus string

const (
	NotStarted EvaluationStatus = "not_started"
	InProgress EvaluationStatus = "in_progress"
	Completed  EvaluationStatus = "completed"
)

type OfferIntent string

const (
	OfferYes   OfferIntent = "yes"
	OfferMaybe OfferIntent = "maybe"
	OfferNo    OfferIntent = "no"
)

// Scope narrows every query to one user's homes in one workspace.
type Scope struct {
	UserID      uuid.UUID
	WorkspaceID uuid.UUID
}

// MaxCompareSelected caps how many homes can be compared side by side.
const MaxCompareSelected = 3

var (
	ErrNotFound     = errors.New("home not found")
	ErrInvalid      = errors.New("invalid home")
	ErrCompareLimit = fmt.Errorf("at most %d homes can be compared", MaxCompareSelected)
)

type Home struct {
	ID               uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID        `gorm:"type:uuid;not null;index:idx_homes_scope,priority:1" json:"user_id"`
	WorkspaceID      uuid.UUID        `gorm:"type:uuid;not null;index:idx_homes_scope,priority:2" json:"workspace_id"`
	Address          string           `gorm:"type:text;not null" json:"address"`
	Neighborhood     string           `gorm:"type:text;not null;default:''" json:"neighborhood"`
	Price            float64          `gorm:"not null" json:"price"`
	Bedrooms         float64          `gorm:"not null" json:"bedrooms"`
	Bathrooms        float64          `gorm:"not null" json:"bathrooms"`
	YearBuilt        *int             `json:"year_built,omitempty"`
	PropertyTaxes    *float64         `json:"property_taxes,omitempty"`
	SquareFootage    *float64         `json:"square_footage,omitempty"`
	Favorite         bool             `gorm:"not null;default:false" json:"favorite"`
	CompareSelected  bool             `gorm:"not null;default:false" json:"compare_selected"`
	EvaluationStatus EvaluationStatus `gorm:"type:text;not null;default:'not_started'" json:"evaluation_status"`
	OfferIntent      *OfferIntent     `gorm:"type:text" json:"offer_intent,omitempty"`
	OverallRating    float64          `gorm:"not null;default:0" json:"overall_rating"`
	PrimaryPhoto     *string          `gorm:"type:text" json:"primary_photo,omitempty"`
	CreatedAt        time.Time        `gorm:"not null;index" json:"created_at"`
	UpdatedAt        time.Time        `gorm:"not null" json:"updated_at"`
}

// NewHome is the add-home form.
type NewHome struct {
	Address       string   `json:"address"`
	Neighborhood  string   `json:"neighborhood"`
	Price         float64  `json:"price"`
	Bedrooms      float64  `json:"bedrooms"`
	Bathrooms     float64  `json:"bathrooms"`
	YearBuilt     *int     `json:"year_built,omitempty"`
	PropertyTaxes *float64 `json:"property_taxes,omitempty"`
	SquareFootage *float64 `json:"square_footage,omitempty"`
}

func (n NewHome) Validate() error {
	if strings.TrimSpace(n.Address) == "" {
		return fmt.Errorf("%w: address is required", ErrInvalid)
	}
	if n.Price < 0 || n.Bedrooms < 0 || n.Bathrooms < 0 {
		return fmt.Errorf("%w: price, bedrooms and bathrooms must not be negative", ErrInvalid)
	}
	return nil
}

// Patch is a partial update; nil fields are left alone.
type Patch struct {
	Address          *string           `json:"address,omitempty"`
	Neighborhood     *string           `json:"neighborhood,omitempty"`
	Price            *float64          `json:"price,omitempty"`
	Bedrooms         *float64          `json:"bedrooms,omitempty"`
	Bathrooms        *float64          `json:"bathrooms,omitempty"`
	YearBuilt        *int              `json:"year_built,omitempty"`
	PropertyTaxes    *float64          `json:"property_taxes,omitempty"`
	SquareFootage    *float64          `json:"square_footage,omitempty"`
	Favorite         *bool             `json:"favorite,omitempty"`
	CompareSelected  *bool             `json:"compare_selected,omitempty"`
	EvaluationStatus *EvaluationStatus `json:"evaluation_status,omitempty"`
	OfferIntent      *OfferIntent      `json:"offer_intent,omitempty"`
	OverallRating    *float64          `json:"overall_rating,omitempty"`
	PrimaryPhoto     *string           `json:"primary_photo,omitempty"`
}

// Columns validates p and returns the column updates it describes.
func (p Patch) Columns() (map[string]interface{}, error) {
	cols := map[string]interface{}{}
	if p.Address != nil {
		if strings.TrimSpace(*p.Address) == "" {
			return nil, fmt.Errorf("%w: address is required", ErrInvalid)
		}
		cols["address"] = *p.Address
	}
	if p.Neighborhood != nil {
		cols["neighborhood"] = *p.Neighborhood
	}
	for col, v := range map[string]*float64{"price": p.Price, "bedrooms": p.Bedrooms, "bathrooms": p.Bathrooms} {
		if v == nil {
			continue
		}
		if *v < 0 {
			return nil, fmt.Errorf("%w: %s must not be negative", ErrInvalid, col)
		}
		cols[col] = *v
	}
	if p.YearBuilt != nil {
		cols["year_built"] = *p.YearBuilt
	}
	if p.PropertyTaxes != nil {
		cols["property_taxes"] = *p.PropertyTaxes
	}
	if p.SquareFootage != nil {
		cols["square_footage"] = *p.SquareFootage
	}
	if p.Favorite != nil {
		cols["favorite"] = *p.Favorite
	}
	if p.CompareSelected != nil {
		cols["compare_selected"] = *p.CompareSelected
	}
	if p.EvaluationStatus != nil {
		switch *p.EvaluationStatus {
		case NotStarted, InProgress, Completed:
		default:
			return nil, fmt.Errorf("%w: evaluation_status %q", ErrInvalid, *p.EvaluationStatus)
		}
		cols["evaluation_status"] = string(*p.EvaluationStatus)
	}
	if p.OfferIntent != nil {
		switch *p.OfferIntent {
		case OfferYes, OfferMaybe, OfferNo:
		default:
			return nil, fmt.Errorf("%w: offer_intent %q", ErrInvalid, *p.OfferIntent)
		}
		cols["offer_intent"] = string(*p.OfferIntent)
	}
	if p.OverallRating != nil {
		if *p.OverallRating < 0 || *p.OverallRating > 5 {
			return nil, fmt.Errorf("%w: overall_rating must be within 0..5", ErrInvalid)
		}
		cols["overall_rating"] = *p.OverallRating
	}
	if p.PrimaryPhoto != nil {
		cols["primary_photo"] = *p.PrimaryPhoto
	}
	return cols, nil
}
