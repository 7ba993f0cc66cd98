package credit

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/johanna-II/billing-engine/internal/domain/shared/valueobject"
)

// CreditType classifies where a credit balance came from
type CreditType string

const (
	// CreditTypeFree is a complimentary balance granted by the operator
	CreditTypeFree CreditType = "FREE"
	// CreditTypePromotional comes from a campaign and usually expires
	CreditTypePromotional CreditType = "PROMOTIONAL"
	// CreditTypePaid was purchased by the customer
	CreditTypePaid CreditType = "PAID"
)

// IsValid returns true if the credit type is valid
func (t CreditType) IsValid() bool {
	switch t {
	case CreditTypeFree, CreditTypePromotional, CreditTypePaid:
		return true
	default:
		return false
	}
}

// String returns the string representation of CreditType
func (t CreditType) String() string {
	return string(t)
}

// consumptionOrder decides which credit types are spent first: free and
// promotional balances before paid ones.
func (t CreditType) consumptionOrder() int {
	switch t {
	case CreditTypeFree:
		return 0
	case CreditTypePromotional:
		return 1
	case CreditTypePaid:
		return 2
	default:
		return 3
	}
}

// Credit is an available balance that can offset a charge
type Credit struct {
	CreditID  string          `json:"credit_id"`
	Type      CreditType      `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
}

// isUsable reports whether the credit can be spent at the given time
func (c Credit) isUsable(asOf time.Time) bool {
	if !c.Balance.IsPositive() {
		return false
	}
	return c.ExpiresAt == nil || asOf.Before(*c.ExpiresAt)
}

// Application records how much of one credit was consumed
type Application struct {
	CreditID string          `json:"credit_id"`
	Type     CreditType      `json:"type"`
	Applied  decimal.Decimal `json:"applied"`
}

// ApplicationResult is the outcome of offsetting a charge with credits
type ApplicationResult struct {
	FinalAmount  decimal.Decimal `json:"final_amount"`
	AppliedTotal decimal.Decimal `json:"applied_total"`
	Applications []Application   `json:"applications"`
}

// Apply consumes credits against a charge, free and promotional balances
// first, expired balances skipped, never driving the charge negative. The
// sort is stable so equal-priority credits are spent in input order.
func Apply(charge decimal.Decimal, credits []Credit, asOf time.Time) ApplicationResult {
	result := ApplicationResult{
		FinalAmount:  valueobject.RoundAmount(charge),
		AppliedTotal: decimal.Zero,
		Applications: []Application{},
	}

	ordered := make([]Credit, len(credits))
	copy(ordered, credits)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Type.consumptionOrder() < ordered[j].Type.consumptionOrder()
	})

	for _, c := range ordered {
		if !result.FinalAmount.IsPositive() {
			break
		}
		if !c.isUsable(asOf) {
			continue
		}

		applied := c.Balance
		if applied.GreaterThan(result.FinalAmount) {
			applied = result.FinalAmount
		}
		result.FinalAmount = result.FinalAmount.Sub(applied)
		result.AppliedTotal = result.AppliedTotal.Add(applied)
		result.Applications = append(result.Applications, Application{
			CreditID: c.CreditID,
			Type:     c.Type,
			Applied:  applied,
		})
	}

	result.FinalAmount = valueobject.RoundAmount(result.FinalAmount)
	result.AppliedTotal = valueobject.RoundAmount(result.AppliedTotal)
	return result
}
