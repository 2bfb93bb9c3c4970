// Package downpayment tracks savings toward a home down payment against
// Canadian minimum down payment rules.
package downpayment

import (
	"fmt"
	"math"
	"time"

	"github.com/hausee/navigator-backend/internal/forms"
	"github.com/hausee/navigator-backend/internal/modules/catalog"
)

const ModuleID forms.ModuleID = "down-payment-tracker"

const dateLayout = "2006-01-02"

type AccountType string

const (
	AccountFHSA        AccountType = "fhsa"
	AccountRRSPHBP     AccountType = "rrsp-hbp"
	AccountTFSA        AccountType = "tfsa"
	AccountSavings     AccountType = "savings"
	AccountInvestments AccountType = "investments"
	AccountCustom      AccountType = "custom"
)

func (t AccountType) valid() bool {
	switch t {
	case AccountFHSA, AccountRRSPHBP, AccountTFSA, AccountSavings, AccountInvestments, AccountCustom:
		return true
	}
	return false
}

type Goal struct {
	TargetPrice           float64 `json:"target_price"`
	DownPaymentPercentage float64 `json:"down_payment_percentage"`
	TargetDownPayment     float64 `json:"target_down_payment"`
	MinimumDownPayment    float64 `json:"minimum_down_payment"`
	// TargetDate is a calendar date, YYYY-MM-DD.
	TargetDate      string `json:"target_date"`
	MonthsRemaining int    `json:"months_remaining"`
}

type Account struct {
	ID                   string      `json:"id"`
	Name                 string      `json:"name"`
	Type                 AccountType `json:"type"`
	CurrentBalance       float64     `json:"current_balance"`
	AllocationPercentage float64     `json:"allocation_percentage"`
	MonthlyContribution  float64     `json:"monthly_contribution"`
	YearlyLimit          *float64    `json:"yearly_limit,omitempty"`
	WithdrawalLimit      *float64    `json:"withdrawal_limit,omitempty"`
	Notes                string      `json:"notes,omitempty"`
}

type Contribution struct {
	ID        string  `json:"id"`
	AccountID string  `json:"account_id"`
	Amount    float64 `json:"amount"`
	Date      string  `json:"date"`
	Notes     string  `json:"notes,omitempty"`
}

type Calculations struct {
	TotalSaved              float64 `json:"total_saved"`
	ProgressPercentage      float64 `json:"progress_percentage"`
	RemainingAmount         float64 `json:"remaining_amount"`
	MonthlyTargetSavings    float64 `json:"monthly_target_savings"`
	OnTrack                 bool    `json:"on_track"`
	EstimatedCompletionDate string  `json:"estimated_completion_date"`
}

// Milestones only ever move from false to true.
type Milestones struct {
	Reached25  bool `json:"reached_25"`
	Reached50  bool `json:"reached_50"`
	Reached75  bool `json:"reached_75"`
	Reached100 bool `json:"reached_100"`
}

type Tracker struct {
	Goal          Goal           `json:"goal"`
	Accounts      []Account      `json:"accounts"`
	Contributions []Contribution `json:"contributions"`
	Calculations  Calculations   `json:"calculations"`
	Milestones    Milestones     `json:"milestones"`
}

func limit(v float64) *float64 { return &v }

func Default() Tracker {
	return Tracker{
		Goal: Goal{DownPaymentPercentage: 20},
		Accounts: []Account{
			{ID: "fhsa", Name: "FHSA", Type: AccountFHSA, AllocationPercentage: 100, YearlyLimit: limit(8000)},
			{ID: "rrsp-hbp", Name: "RRSP Home Buyers' Plan", Type: AccountRRSPHBP, WithdrawalLimit: limit(35000)},
		},
		Contributions: []Contribution{},
	}
}

// MinimumDownPayment applies the insured-mortgage minimum: 5% of the
// first 500k, 10% of the portion up to 1M, 20% of the whole price above.
func MinimumDownPayment(price float64) float64 {
	switch {
	case price <= 0:
		return 0
	case price <= 500000:
		return price * 0.05
	case price <= 1000000:
		return 25000 + (price-500000)*0.1
	default:
		return price * 0.2
	}
}

// monthsBetween counts calendar months from asOf to target, never negative.
func monthsBetween(asOf, target time.Time) int {
	n := (target.Year()-asOf.Year())*12 + int(target.Month()) - int(asOf.Month())
	if n < 0 {
		return 0
	}
	return n
}

func Derive(t Tracker, env forms.Env) Tracker {
	g := &t.Goal
	g.MinimumDownPayment = MinimumDownPayment(g.TargetPrice)
	g.TargetDownPayment = g.TargetPrice * g.DownPaymentPercentage / 100
	g.MonthsRemaining = 0
	if d, err := time.Parse(dateLayout, g.TargetDate); err == nil {
		g.MonthsRemaining = monthsBetween(env.AsOf.UTC(), d)
	}

	c := Calculations{}
	contributions := 0.0
	for _, a := range t.Accounts {
		c.TotalSaved += a.CurrentBalance
		contributions += a.MonthlyContribution
	}
	target := g.TargetDownPayment
	if target == 0 {
		target = g.MinimumDownPayment
	}
	if target > 0 {
		c.ProgressPercentage = math.Min(100, c.TotalSaved/target*100)
	}
	c.RemainingAmount = math.Max(0, target-c.TotalSaved)
	if g.MonthsRemaining > 0 {
		c.MonthlyTargetSavings = c.RemainingAmount / float64(g.MonthsRemaining)
	}
	c.OnTrack = contributions >= c.MonthlyTargetSavings
	switch {
	case c.RemainingAmount == 0:
		c.EstimatedCompletionDate = env.AsOf.UTC().Format(dateLayout)
	case contributions > 0:
		months := int(math.Ceil(c.RemainingAmount / contributions))
		c.EstimatedCompletionDate = env.AsOf.UTC().AddDate(0, months, 0).Format(dateLayout)
	}
	t.Calculations = c

	p := c.ProgressPercentage
	m := &t.Milestones
	m.Reached25 = m.Reached25 || p >= 25
	m.Reached50 = m.Reached50 || p >= 50
	m.Reached75 = m.Reached75 || p >= 75
	m.Reached100 = m.Reached100 || p >= 100

	if t.Contributions == nil {
		t.Contributions = []Contribution{}
	}
	return t
}

func Validate(t Tracker) error {
	g := t.Goal
	if g.TargetPrice < 0 {
		return fmt.Errorf("goal.target_price must not be negative")
	}
	if g.DownPaymentPercentage < 0 || g.DownPaymentPercentage > 100 {
		return fmt.Errorf("goal.down_payment_percentage must be between 0 and 100")
	}
	if g.TargetDate != "" {
		if _, err := time.Parse(dateLayout, g.TargetDate); err != nil {
			return fmt.Errorf("goal.target_date must be YYYY-MM-DD")
		}
	}
	ids := map[string]bool{}
	for i, a := range t.Accounts {
		switch {
		case a.ID == "":
			return fmt.Errorf("accounts[%d].id is required", i)
		case ids[a.ID]:
			return fmt.Errorf("accounts[%d].id %q is duplicated", i, a.ID)
		case !a.Type.valid():
			return fmt.Errorf("accounts[%d].type %q is not supported", i, a.Type)
		case a.CurrentBalance < 0 || a.MonthlyContribution < 0:
			return fmt.Errorf("accounts[%d]: amounts must not be negative", i)
		case a.AllocationPercentage < 0 || a.AllocationPercentage > 100:
			return fmt.Errorf("accounts[%d].allocation_percentage must be between 0 and 100", i)
		}
		ids[a.ID] = true
	}
	for i, c := range t.Contributions {
		if !ids[c.AccountID] {
			return fmt.Errorf("contributions[%d].account_id %q does not match an account", i, c.AccountID)
		}
		if _, err := time.Parse(dateLayout, c.Date); err != nil {
			return fmt.Errorf("contributions[%d].date must be YYYY-MM-DD", i)
		}
	}
	return nil
}

func New(e catalog.Entry) forms.Module[Tracker] {
	return forms.Module[Tracker]{
		ID:          forms.ModuleID(e.ID),
		CachePrefix: e.CachePrefix,
		Table:       e.Table,
		Delay:       e.Delay(),
		Default:     Default,
		Derive:      Derive,
		Validate:    Validate,
	}
}
