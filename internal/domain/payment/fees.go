package payment

import (
	"github.com/shopspring/decimal"

	"github.com/johanna-II/billing-engine/internal/domain/shared"
	"github.com/johanna-II/billing-engine/internal/domain/shared/valueobject"
)

// FeeRate is the configured pricing for one payment method: a percentage
// rate applied to the amount plus a fixed per-transaction fee.
type FeeRate struct {
	Rate     decimal.Decimal `json:"rate"`
	FixedFee decimal.Decimal `json:"fixed_fee"`
}

// FeeSchedule maps payment methods to their fee rates. Treat a schedule as
// read-only after construction.
type FeeSchedule map[PaymentMethod]FeeRate

// DefaultFeeSchedule returns the standard gateway pricing
func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		PaymentMethodBankTransfer:   {Rate: decimal.NewFromFloat(0.005), FixedFee: decimal.NewFromInt(300)},
		PaymentMethodCreditCard:     {Rate: decimal.NewFromFloat(0.029), FixedFee: decimal.Zero},
		PaymentMethodVirtualAccount: {Rate: decimal.NewFromFloat(0.01), FixedFee: decimal.NewFromInt(300)},
		PaymentMethodDirectDebit:    {Rate: decimal.NewFromFloat(0.008), FixedFee: decimal.NewFromInt(150)},
	}
}

// feeTaxRate is the VAT rate applied on top of gateway fees
var feeTaxRate = decimal.NewFromFloat(0.10)

// FeeBreakdown carries every figure of a processing-fee computation so the
// caller never needs to re-derive any of them.
type FeeBreakdown struct {
	PercentageFee decimal.Decimal `json:"percentage_fee"`
	FixedFee      decimal.Decimal `json:"fixed_fee"`
	Tax           decimal.Decimal `json:"tax"`
	TotalFee      decimal.Decimal `json:"total_fee"`
	NetAmount     decimal.Decimal `json:"net_amount"`
}

// CalculateFee computes the full fee breakdown for an amount and method
// under this schedule. Each figure is rounded to two places at its own
// computation step.
func (s FeeSchedule) CalculateFee(amount decimal.Decimal, method PaymentMethod, includeTax bool) (FeeBreakdown, error) {
	rate, ok := s[method]
	if !ok {
		return FeeBreakdown{}, shared.NewDomainError("UNKNOWN_PAYMENT_METHOD", "No fee rate configured for method: "+method.String())
	}

	percentageFee := valueobject.RoundAmount(amount.Mul(rate.Rate))
	subtotal := percentageFee.Add(rate.FixedFee)

	tax := decimal.Zero
	if includeTax {
		tax = valueobject.RoundAmount(subtotal.Mul(feeTaxRate))
	}

	totalFee := subtotal.Add(tax)
	return FeeBreakdown{
		PercentageFee: percentageFee,
		FixedFee:      rate.FixedFee,
		Tax:           tax,
		TotalFee:      totalFee,
		NetAmount:     amount.Sub(totalFee),
	}, nil
}

// CalculateProcessingFee computes a fee breakdown under the default schedule
func CalculateProcessingFee(amount decimal.Decimal, method PaymentMethod, includeTax bool) (FeeBreakdown, error) {
	return DefaultFeeSchedule().CalculateFee(amount, method, includeTax)
}
