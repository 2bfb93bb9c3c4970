// Package agentmatch implements the multi-step agent matching request.
// Step movement is driven by a small state machine so that forward
// moves always validate the steps being left behind.
package agentmatch

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hausee/navigator-backend/internal/forms"
	"github.com/hausee/navigator-backend/internal/modules/catalog"
)

const ModuleID forms.ModuleID = "agent-matching"

const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"

	IntentBuying  = "buying"
	IntentSelling = "selling"

	FirstStep     = 1
	ConsentStep   = 4
	SubmittedStep = 5
)

var (
	ErrSubmitted   = errors.New("request already submitted")
	ErrInvalidStep = errors.New("invalid step")
)

var PropertyTypes = []string{"Condo", "Townhouse", "Semi-Detached", "Detached", "Multi-Unit"}

var preApproval = map[string]bool{"": true, "yes": true, "no": true, "in_progress": true}

type AboutYou struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	HasReferral  bool   `json:"has_referral"`
	ReferralCode string `json:"referral_code"`
}

type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type BuyerQuestions struct {
	PreferredCities    []string   `json:"preferred_cities"`
	PriceRange         PriceRange `json:"price_range"`
	PropertyTypes      []string   `json:"property_types"`
	Timeline           string     `json:"timeline"`
	PreApprovalStatus  string     `json:"pre_approval_status"`
	HasCurrentAgent    bool       `json:"has_current_agent"`
	AdditionalComments string     `json:"additional_comments"`
}

type SellerQuestions struct {
	PropertyType      string  `json:"property_type"`
	PropertyLocation  string  `json:"property_location"`
	EstimatedValue    float64 `json:"estimated_value"`
	SellingTimeline   string  `json:"selling_timeline"`
	SellingReason     string  `json:"selling_reason"`
	PropertyCondition string  `json:"property_condition"`
	PropertyNotes     string  `json:"property_notes"`
}

type Consent struct {
	ContactConsent bool `json:"contact_consent"`
	SharingConsent bool `json:"sharing_consent"`
}

// Request is the persisted payload.
type Request struct {
	AboutYou       AboutYou        `json:"about_you"`
	PropertyIntent string          `json:"property_intent"`
	Buyer          BuyerQuestions  `json:"buyer_questions"`
	Seller         SellerQuestions `json:"seller_questions"`
	Consent        Consent         `json:"consent"`
	CurrentStep    int             `json:"current_step"`
	Status         string          `json:"status"`
	SubmittedAt    *time.Time      `json:"submitted_at"`
}

// StepErrors maps a field path to a user-facing message.
type StepErrors map[string]string

func (e StepErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "step incomplete: " + strings.Join(parts, "; ")
}

func Default() Request {
	return Request{
		Buyer: BuyerQuestions{
			PreferredCities: []string{},
			PriceRange:      PriceRange{Min: 200000, Max: 2000000},
			PropertyTypes:   []string{},
		},
		CurrentStep: FirstStep,
		Status:      StatusDraft,
	}
}

// Derive only normalizes empty lists.
func Derive(r Request, _ forms.Env) Request {
	if r.Buyer.PreferredCities == nil {
		r.Buyer.PreferredCities = []string{}
	}
	if r.Buyer.PropertyTypes == nil {
		r.Buyer.PropertyTypes = []string{}
	}
	return r
}

func Validate(r Request) error {
	if r.CurrentStep < FirstStep || r.CurrentStep > SubmittedStep {
		return fmt.Errorf("current_step: must be between %d and %d", FirstStep, SubmittedStep)
	}
	switch r.Status {
	case StatusDraft:
		if r.CurrentStep == SubmittedStep {
			return errors.New("current_step: draft requests cannot be on the confirmation step")
		}
		if r.SubmittedAt != nil {
			return errors.New("submitted_at: must be empty on a draft")
		}
	case StatusSubmitted:
		if r.CurrentStep != SubmittedStep || r.SubmittedAt == nil {
			return errors.New("status: submitted requests must be on the confirmation step with submitted_at set")
		}
	default:
		return fmt.Errorf("status: unknown value %q", r.Status)
	}
	switch r.PropertyIntent {
	case "", IntentBuying, IntentSelling:
	default:
		return fmt.Errorf("property_intent: unknown value %q", r.PropertyIntent)
	}
	if !preApproval[r.Buyer.PreApprovalStatus] {
		return fmt.Errorf("buyer_questions.pre_approval_status: unknown value %q", r.Buyer.PreApprovalStatus)
	}
	for _, t := range r.Buyer.PropertyTypes {
		if !knownPropertyType(t) {
			return fmt.Errorf("buyer_questions.property_types: unknown value %q", t)
		}
	}
	if r.Buyer.PriceRange.Min < 0 || r.Buyer.PriceRange.Max < r.Buyer.PriceRange.Min {
		return errors.New("buyer_questions.price_range: min must be non-negative and not above max")
	}
	if r.Seller.EstimatedValue < 0 {
		return errors.New("seller_questions.estimated_value: must be non-negative")
	}
	return nil
}

// Guard freezes a request once it has been submitted.
func Guard(prev, _ Request) error {
	if prev.Status == StatusSubmitted {
		return ErrSubmitted
	}
	return nil
}

func knownPropertyType(t string) bool {
	for _, k := range PropertyTypes {
		if k == t {
			return true
		}
	}
	return false
}

func digits(s string) int {
	n := 0
	for _, c := range s {
		if c >= '0' && c <= '9' {
			n++
		}
	}
	return n
}

// ValidateStep reports what is missing before the user may leave step.
func (r Request) ValidateStep(step int) StepErrors {
	errs := StepErrors{}
	switch step {
	case 1:
		a := r.AboutYou
		if len(strings.TrimSpace(a.FirstName)) < 2 {
			errs["about_you.first_name"] = "First name must be at least 2 characters"
		}
		if len(strings.TrimSpace(a.LastName)) < 2 {
			errs["about_you.last_name"] = "Last name must be at least 2 characters"
		}
		if digits(a.Phone) != 10 {
			errs["about_you.phone"] = "Please enter a valid 10-digit phone number"
		}
		if a.HasReferral && strings.TrimSpace(a.ReferralCode) == "" {
			errs["about_you.referral_code"] = "Please enter your referral code"
		}
	case 2:
		if r.PropertyIntent == "" {
			errs["property_intent"] = "Please select your property intent"
		}
	case 3:
		switch r.PropertyIntent {
		case IntentBuying:
			b := r.Buyer
			if len(b.PreferredCities) == 0 {
				errs["buyer_questions.preferred_cities"] = "Please select at least one city"
			}
			if len(b.PropertyTypes) == 0 {
				errs["buyer_questions.property_types"] = "Please select at least one property type"
			}
			if b.Timeline == "" {
				errs["buyer_questions.timeline"] = "Please select your timeline"
			}
			if b.PreApprovalStatus == "" {
				errs["buyer_questions.pre_approval_status"] = "Please select your pre-approval status"
			}
		case IntentSelling:
			s := r.Seller
			if s.PropertyType == "" {
				errs["seller_questions.property_type"] = "Please select property type"
			}
			if strings.TrimSpace(s.PropertyLocation) == "" {
				errs["seller_questions.property_location"] = "Please enter property location"
			}
			if s.EstimatedValue < 1000 {
				errs["seller_questions.estimated_value"] = "Please enter estimated value"
			}
			if s.SellingTimeline == "" {
				errs["seller_questions.selling_timeline"] = "Please select selling timeline"
			}
			if s.SellingReason == "" {
				errs["seller_questions.selling_reason"] = "Please select reason for selling"
			}
			if s.PropertyCondition == "" {
				errs["seller_questions.property_condition"] = "Please select property condition"
			}
		default:
			errs["property_intent"] = "Please select your property intent"
		}
	case 4:
		if !r.Consent.ContactConsent {
			errs["consent.contact_consent"] = "You must consent to be contacted"
		}
		if !r.Consent.SharingConsent {
			errs["consent.sharing_consent"] = "You must consent to information sharing"
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// New builds the module from its catalog entry.
func New(e catalog.Entry) forms.Module[Request] {
	return forms.Module[Request]{
		ID:          forms.ModuleID(e.ID),
		CachePrefix: e.CachePrefix,
		Table:       e.Table,
		Delay:       e.Delay(),
		Default:     Default,
		Derive:      Derive,
		Validate:    Validate,
		Guard:       Guard,
	}
}
