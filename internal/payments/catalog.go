package payments

import (
	"github.com/shopspring/decimal"

	"github.com/vichar-ai/vichar-backend/pkg/enums"
	pkgerrors "github.com/vichar-ai/vichar-backend/pkg/errors"
)

// CreditPackage is a purchasable credit bundle.
type CreditPackage struct {
	ID          string `json:"id"`
	Credits     int    `json:"credits"`
	AmountPaise int64  `json:"amount_paise"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
}

// PremiumPlan is a purchasable subscription term.
type PremiumPlan struct {
	Plan        string             `json:"plan"`
	Interval    enums.PlanInterval `json:"interval"`
	AmountPaise int64              `json:"amount_paise"`
	Amount      string             `json:"amount"`
	Currency    string             `json:"currency"`
}

// displayAmount renders paise as a major-unit string, e.g. 19900 -> "199.00".
func displayAmount(paise int64) string {
	return decimal.NewFromInt(paise).Div(decimal.NewFromInt(100)).StringFixed(2)
}

// The catalog is fixed server-side; clients only ever send identifiers.
var creditPackages = []CreditPackage{
	{ID: "basic", Credits: 100, AmountPaise: 19900, Currency: "INR"},
	{ID: "standard", Credits: 300, AmountPaise: 49900, Currency: "INR"},
	{ID: "premium", Credits: 750, AmountPaise: 99900, Currency: "INR"},
}

var premiumPlans = []PremiumPlan{
	{Plan: "premium", Interval: enums.PlanIntervalMonthly, AmountPaise: 49900, Currency: "INR"},
	{Plan: "premium", Interval: enums.PlanIntervalYearly, AmountPaise: 499900, Currency: "INR"},
}

// CreditPackages lists the purchasable credit bundles.
func CreditPackages() []CreditPackage {
	out := make([]CreditPackage, len(creditPackages))
	copy(out, creditPackages)
	for i := range out {
		out[i].Amount = displayAmount(out[i].AmountPaise)
	}
	return out
}

// PremiumPlans lists the purchasable subscription terms.
func PremiumPlans() []PremiumPlan {
	out := make([]PremiumPlan, len(premiumPlans))
	copy(out, premiumPlans)
	for i := range out {
		out[i].Amount = displayAmount(out[i].AmountPaise)
	}
	return out
}

// LookupCreditPackage resolves a package identifier.
func LookupCreditPackage(id string) (*CreditPackage, error) {
	for _, pkg := range creditPackages {
		if pkg.ID == id {
			p := pkg
			p.Amount = displayAmount(p.AmountPaise)
			return &p, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown credit package").
		WithDetails(map[string]any{"package": id})
}

// LookupPremiumPlan resolves a subscription interval.
func LookupPremiumPlan(interval enums.PlanInterval) (*PremiumPlan, error) {
	for _, plan := range premiumPlans {
		if plan.Interval == interval {
			p := plan
			p.Amount = displayAmount(p.AmountPaise)
			return &p, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown subscription interval").
		WithDetails(map[string]any{"interval": interval.String()})
}
