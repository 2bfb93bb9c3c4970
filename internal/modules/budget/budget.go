// Package budget is the monthly budget planner: current and expected
// amounts per line item, with savings derived from income minus expenses.
package budget

import (
	"fmt"

	"github.com/hausee/navigator-backend/internal/forms"
	"github.com/hausee/navigator-backend/internal/modules/catalog"
)

const ModuleID forms.ModuleID = "budget-planner"

// LineItem is one budget row. Values are monthly dollar amounts.
type LineItem struct {
	Current  float64 `json:"current"`
	Expected float64 `json:"expected"`
}

type Income struct {
	NetIncome        LineItem `json:"net_income"`
	PartnerNetIncome LineItem `json:"partner_net_income"`
	OtherIncome      LineItem `json:"other_income"`
}

type Debt struct {
	CreditCards   LineItem `json:"credit_cards"`
	LinesOfCredit LineItem `json:"lines_of_credit"`
	StudentLoans  LineItem `json:"student_loans"`
	PersonalLoan  LineItem `json:"personal_loan"`
	AutoLoanLease LineItem `json:"auto_loan_lease"`
	OtherLoans    LineItem `json:"other_loans"`
}

type Transportation struct {
	AutoInsurance      LineItem `json:"auto_insurance"`
	RepairsMaintenance LineItem `json:"repairs_maintenance"`
	Fuel               LineItem `json:"fuel"`
	Parking            LineItem `json:"parking"`
	PublicTransit      LineItem `json:"public_transit"`
}

type Housing struct {
	RentMortgage  LineItem `json:"rent_mortgage"`
	PropertyTaxes LineItem `json:"property_taxes"`
	Insurance     LineItem `json:"insurance"`
	CondoPoaFees  LineItem `json:"condo_poa_fees"`
	Maintenance   LineItem `json:"maintenance"`
	Groceries     LineItem `json:"groceries"`
	Laundry       LineItem `json:"laundry"`
}

type Health struct {
	Medication        LineItem `json:"medication"`
	GlassesContacts   LineItem `json:"glasses_contacts"`
	Dental            LineItem `json:"dental"`
	Therapist         LineItem `json:"therapist"`
	SpecialNeedsItems LineItem `json:"special_needs_items"`
}

type Budget struct {
	Income         Income         `json:"income"`
	Debt           Debt           `json:"debt"`
	Transportation Transportation `json:"transportation"`
	Housing        Housing        `json:"housing"`
	Health         Health         `json:"health"`
}

type Calculations struct {
	CategoryTotals          map[string]LineItem `json:"category_totals"`
	CurrentMonthlySavings   float64             `json:"current_monthly_savings"`
	ExpectedMonthlySavings  float64             `json:"expected_monthly_savings"`
	MonthlySavingsDelta     float64             `json:"monthly_savings_delta"`
	CurrentMonthlyExpenses  float64             `json:"current_monthly_expenses"`
	ExpectedMonthlyExpenses float64             `json:"expected_monthly_expenses"`
}

// Plan is the persisted payload. Calculations is derived.
type Plan struct {
	Budget       Budget       `json:"budget"`
	Calculations Calculations `json:"calculations"`
}

func sum(items ...LineItem) LineItem {
	var t LineItem
	for _, it := range items {
		t.Current += it.Current
		t.Expected += it.Expected
	}
	return t
}

func (b Budget) totals() map[string]LineItem {
	i, d, tr, h, he := b.Income, b.Debt, b.Transportation, b.Housing, b.Health
	return map[string]LineItem{
		"income":         sum(i.NetIncome, i.PartnerNetIncome, i.OtherIncome),
		"debt":           sum(d.CreditCards, d.LinesOfCredit, d.StudentLoans, d.PersonalLoan, d.AutoLoanLease, d.OtherLoans),
		"transportation": sum(tr.AutoInsurance, tr.RepairsMaintenance, tr.Fuel, tr.Parking, tr.PublicTransit),
		"housing":        sum(h.RentMortgage, h.PropertyTaxes, h.Insurance, h.CondoPoaFees, h.Maintenance, h.Groceries, h.Laundry),
		"health":         sum(he.Medication, he.GlassesContacts, he.Dental, he.Therapist, he.SpecialNeedsItems),
	}
}

// Derive recomputes every calculation from the line items.
func Derive(p Plan, _ forms.Env) Plan {
	totals := p.Budget.totals()
	expenses := sum(totals["debt"], totals["transportation"], totals["housing"], totals["health"])
	income := totals["income"]
	p.Calculations = Calculations{
		CategoryTotals:          totals,
		CurrentMonthlyExpenses:  expenses.Current,
		ExpectedMonthlyExpenses: expenses.Expected,
		CurrentMonthlySavings:   income.Current - expenses.Current,
		ExpectedMonthlySavings:  income.Expected - expenses.Expected,
	}
	p.Calculations.MonthlySavingsDelta = p.Calculations.ExpectedMonthlySavings - p.Calculations.CurrentMonthlySavings
	return p
}

// Validate rejects negative amounts.
func Validate(p Plan) error {
	return walk(p.Budget, func(path string, it LineItem) error {
		if it.Current < 0 || it.Expected < 0 {
			return fmt.Errorf("%s: amounts must not be negative", path)
		}
		return nil
	})
}

func walk(b Budget, fn func(path string, it LineItem) error) error {
	rows := []struct {
		path string
		it   LineItem
	}{
		{"income.net_income", b.Income.NetIncome},
		{"income.partner_net_income", b.Income.PartnerNetIncome},
		{"income.other_income", b.Income.OtherIncome},
		{"debt.credit_cards", b.Debt.CreditCards},
		{"debt.lines_of_credit", b.Debt.LinesOfCredit},
		{"debt.student_loans", b.Debt.StudentLoans},
		{"debt.personal_loan", b.Debt.PersonalLoan},
		{"debt.auto_loan_lease", b.Debt.AutoLoanLease},
		{"debt.other_loans", b.Debt.OtherLoans},
		{"transportation.auto_insurance", b.Transportation.AutoInsurance},
		{"transportation.repairs_maintenance", b.Transportation.RepairsMaintenance},
		{"transportation.fuel", b.Transportation.Fuel},
		{"transportation.parking", b.Transportation.Parking},
		{"transportation.public_transit", b.Transportation.PublicTransit},
		{"housing.rent_mortgage", b.Housing.RentMortgage},
		{"housing.property_taxes", b.Housing.PropertyTaxes},
		{"housing.insurance", b.Housing.Insurance},
		{"housing.condo_poa_fees", b.Housing.CondoPoaFees},
		{"housing.maintenance", b.Housing.Maintenance},
		{"housing.groceries", b.Housing.Groceries},
		{"housing.laundry", b.Housing.Laundry},
		{"health.medication", b.Health.Medication},
		{"health.glasses_contacts", b.Health.GlassesContacts},
		{"health.dental", b.Health.Dental},
		{"health.therapist", b.Health.Therapist},
		{"health.special_needs_items", b.Health.SpecialNeedsItems},
	}
	for _, r := range rows {
		if err := fn("budget."+r.path, r.it); err != nil {
			return err
		}
	}
	return nil
}

func New(e catalog.Entry) forms.Module[Plan] {
	return forms.Module[Plan]{
		ID:          forms.ModuleID(e.ID),
		CachePrefix: e.CachePrefix,
		Table:       e.Table,
		Delay:       e.Delay(),
		Default:     func() Plan { return Plan{} },
		Derive:      Derive,
		Validate:    Validate,
	}
}
