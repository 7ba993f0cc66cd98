package adjustment

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/johanna-II/billing-engine/internal/domain/shared"
	"github.com/johanna-II/billing-engine/internal/domain/shared/valueobject"
)

// AdjustmentType represents the kind of monetary adjustment applied to a charge
type AdjustmentType string

const (
	// AdjustmentTypeFixedDiscount reduces the charge by an absolute amount
	AdjustmentTypeFixedDiscount AdjustmentType = "FIXED_DISCOUNT"
	// AdjustmentTypeRateDiscount reduces the charge by a percentage of the running total
	AdjustmentTypeRateDiscount AdjustmentType = "RATE_DISCOUNT"
	// AdjustmentTypeFixedSurcharge increases the charge by an absolute amount
	AdjustmentTypeFixedSurcharge AdjustmentType = "FIXED_SURCHARGE"
	// AdjustmentTypeRateSurcharge increases the charge by a percentage of the running total
	AdjustmentTypeRateSurcharge AdjustmentType = "RATE_SURCHARGE"
)

// IsValid returns true if the adjustment type is valid
func (t AdjustmentType) IsValid() bool {
	switch t {
	case AdjustmentTypeFixedDiscount, AdjustmentTypeRateDiscount,
		AdjustmentTypeFixedSurcharge, AdjustmentTypeRateSurcharge:
		return true
	default:
		return false
	}
}

// String returns the string representation of AdjustmentType
func (t AdjustmentType) String() string {
	return string(t)
}

// IsRate returns true if the amount is interpreted as percentage points
func (t AdjustmentType) IsRate() bool {
	return t == AdjustmentTypeRateDiscount || t == AdjustmentTypeRateSurcharge
}

// IsDiscount returns true if the adjustment reduces the charge
func (t AdjustmentType) IsDiscount() bool {
	return t == AdjustmentTypeFixedDiscount || t == AdjustmentTypeRateDiscount
}

// IsSurcharge returns true if the adjustment increases the charge
func (t AdjustmentType) IsSurcharge() bool {
	return t == AdjustmentTypeFixedSurcharge || t == AdjustmentTypeRateSurcharge
}

// ParseAdjustmentType coerces a raw string into an AdjustmentType.
// Matching is case-insensitive to stay compatible with untyped callers.
func ParseAdjustmentType(s string) (AdjustmentType, error) {
	t := AdjustmentType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", shared.NewDomainError("INVALID_ADJUSTMENT_TYPE", "Unknown adjustment type: "+s)
	}
	return t, nil
}

// AdjustmentTarget represents the billing scope an adjustment applies to
type AdjustmentTarget string

const (
	// AdjustmentTargetProject applies the adjustment at project level
	AdjustmentTargetProject AdjustmentTarget = "PROJECT"
	// AdjustmentTargetBillingGroup applies the adjustment at billing-group level
	AdjustmentTargetBillingGroup AdjustmentTarget = "BILLING_GROUP"
)

// IsValid returns true if the adjustment target is valid
func (t AdjustmentTarget) IsValid() bool {
	switch t {
	case AdjustmentTargetProject, AdjustmentTargetBillingGroup:
		return true
	default:
		return false
	}
}

// String returns the string representation of AdjustmentTarget
func (t AdjustmentTarget) String() string {
	return string(t)
}

// Adjustment is an immutable description of a single monetary adjustment.
// Amount semantics depend on Type: currency units for FIXED_* types,
// percentage points for RATE_* types.
type Adjustment struct {
	Type        AdjustmentType   `json:"type"`
	Amount      decimal.Decimal  `json:"amount"`
	Target      AdjustmentTarget `json:"target"`
	Description string           `json:"description,omitempty"`
}

// Business-rule bounds for adjustment amounts. The lower bound for every
// type is zero inclusive.
var (
	maxDiscountRate  = decimal.NewFromInt(100)
	maxSurchargeRate = decimal.NewFromInt(200)
	maxFixedAmount   = decimal.NewFromInt(1_000_000_000)
	oneHundred       = decimal.NewFromInt(100)
)

// Validate checks an adjustment amount against the policy bounds for its type.
// It fails fast with a DomainError and performs no computation.
func Validate(amount decimal.Decimal, adjustmentType AdjustmentType) error {
	if !adjustmentType.IsValid() {
		return shared.NewDomainError("INVALID_ADJUSTMENT_TYPE", "Unknown adjustment type: "+adjustmentType.String())
	}
	if amount.IsNegative() {
		return shared.ErrNegativeAmount
	}
	if adjustmentType.IsRate() {
		if adjustmentType.IsDiscount() && amount.GreaterThan(maxDiscountRate) {
			return shared.ErrRateExceeds100
		}
		if adjustmentType.IsSurcharge() && amount.GreaterThan(maxSurchargeRate) {
			return shared.ErrRateExceeds200
		}
		return nil
	}
	if amount.GreaterThan(maxFixedAmount) {
		return shared.ErrFixedExceedsMax
	}
	return nil
}

// Compute returns the signed adjustment value for a base amount.
// Discounts yield a positive value (the amount to subtract from the bill),
// surcharges a negative value (the bill increases). The result is rounded
// to two decimal places, half up.
func Compute(base, amount decimal.Decimal, adjustmentType AdjustmentType) (decimal.Decimal, error) {
	if !adjustmentType.IsValid() {
		return decimal.Zero, shared.NewDomainError("INVALID_ADJUSTMENT_TYPE", "Unknown adjustment type: "+adjustmentType.String())
	}
	delta := amount
	if adjustmentType.IsRate() {
		delta = base.Mul(amount).Div(oneHundred)
	}
	if adjustmentType.IsSurcharge() {
		delta = delta.Neg()
	}
	return valueobject.RoundAmount(delta), nil
}

// ApplyResult holds the outcome of applying one adjustment to a base amount
type ApplyResult struct {
	FinalAmount     decimal.Decimal `json:"final_amount"`
	AdjustmentValue decimal.Decimal `json:"adjustment_value"`
}

// Apply computes the adjustment value and subtracts it from the base amount.
// A discount can never produce a negative bill: when the result would drop
// below zero the final amount is clamped to zero and the realized adjustment
// value becomes the base itself. The unused remainder is not carried forward.
func Apply(base, amount decimal.Decimal, adjustmentType AdjustmentType) (ApplyResult, error) {
	value, err := Compute(base, amount, adjustmentType)
	if err != nil {
		return ApplyResult{}, err
	}
	final := valueobject.RoundAmount(base.Sub(value))
	if final.IsNegative() {
		final = decimal.Zero
		value = base
	}
	return ApplyResult{FinalAmount: final, AdjustmentValue: value}, nil
}

// Entry pairs an amount with its adjustment type for cumulative application
type Entry struct {
	Amount decimal.Decimal `json:"amount"`
	Type   AdjustmentType  `json:"type"`
}

// CumulativeResult holds the outcome of folding a list of adjustments
type CumulativeResult struct {
	FinalAmount     decimal.Decimal `json:"final_amount"`
	TotalAdjustment decimal.Decimal `json:"total_adjustment"`
}

// ApplyCumulative validates every entry up front (fail fast, no partial
// application), then folds Apply left to right, each step's final amount
// becoming the next step's base. Order matters: callers must pass
// adjustments in the exact order the business stacks them, e.g.
// billing-group level before project level.
func ApplyCumulative(base decimal.Decimal, entries []Entry) (CumulativeResult, error) {
	for _, e := range entries {
		if err := Validate(e.Amount, e.Type); err != nil {
			return CumulativeResult{}, err
		}
	}

	running := base
	total := decimal.Zero
	for _, e := range entries {
		result, err := Apply(running, e.Amount, e.Type)
		if err != nil {
			return CumulativeResult{}, err
		}
		running = result.FinalAmount
		total = total.Add(result.AdjustmentValue)
	}
	return CumulativeResult{FinalAmount: running, TotalAdjustment: total}, nil
}

// EffectiveRate returns the overall percentage change between an original
// and an adjusted amount, rounded to two places. A zero original returns a
// zero rate; this is a deliberate "no rate" sentinel, not an error.
func EffectiveRate(original, adjusted decimal.Decimal) decimal.Decimal {
	if original.IsZero() {
		return decimal.Zero
	}
	rate := original.Sub(adjusted).Abs().Div(original).Mul(oneHundred)
	return valueobject.RoundAmount(rate)
}

// EstimateImpact projects the total effect of applying an adjustment to a
// recurring monthly amount over a number of months. The per-period delta is
// kept unrounded and the projection is rounded once at the end.
func EstimateImpact(monthlyAmount, amount decimal.Decimal, adjustmentType AdjustmentType, months int64) (decimal.Decimal, error) {
	if !adjustmentType.IsValid() {
		return decimal.Zero, shared.NewDomainError("INVALID_ADJUSTMENT_TYPE", "Unknown adjustment type: "+adjustmentType.String())
	}
	delta := amount
	if adjustmentType.IsRate() {
		delta = monthlyAmount.Mul(amount).Div(oneHundred)
	}
	if adjustmentType.IsSurcharge() {
		delta = delta.Neg()
	}
	return valueobject.RoundAmount(delta.Mul(decimal.NewFromInt(months))), nil
}
