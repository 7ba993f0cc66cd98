package billing

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/johanna-II/billing-engine/internal/domain/adjustment"
	"github.com/johanna-II/billing-engine/internal/domain/credit"
	"github.com/johanna-II/billing-engine/internal/domain/metering"
	"github.com/johanna-II/billing-engine/internal/domain/payment"
	"github.com/johanna-II/billing-engine/internal/domain/shared"
	"github.com/johanna-II/billing-engine/internal/domain/shared/valueobject"
)

// PriceBook maps counter names to the unit price charged per volume unit
type PriceBook map[string]decimal.Decimal

// Calculator composes the aggregation, adjustment, credit and payment
// calculations into a billing statement. It holds only read-only
// configuration and is safe for concurrent use.
type Calculator struct {
	vatRate     decimal.Decimal
	currency    valueobject.Currency
	feeSchedule payment.FeeSchedule
	logger      *zap.Logger
}

// CalculatorOption is a functional option for configuring a Calculator
type CalculatorOption func(*Calculator)

// WithVATRate overrides the default 10% VAT rate
func WithVATRate(rate decimal.Decimal) CalculatorOption {
	return func(c *Calculator) {
		c.vatRate = rate
	}
}

// WithCurrency sets the statement currency
func WithCurrency(currency valueobject.Currency) CalculatorOption {
	return func(c *Calculator) {
		c.currency = currency
	}
}

// WithFeeSchedule overrides the default gateway fee schedule
func WithFeeSchedule(schedule payment.FeeSchedule) CalculatorOption {
	return func(c *Calculator) {
		c.feeSchedule = schedule
	}
}

// WithLogger attaches a logger for statement tracing
func WithLogger(logger *zap.Logger) CalculatorOption {
	return func(c *Calculator) {
		c.logger = logger
	}
}

// NewCalculator creates a statement calculator with optional configuration
func NewCalculator(opts ...CalculatorOption) *Calculator {
	c := &Calculator{
		vatRate:     decimal.NewFromFloat(0.10),
		currency:    valueobject.DefaultCurrency,
		feeSchedule: payment.DefaultFeeSchedule(),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StatementInput carries everything needed to produce one statement.
// Adjustments must already be in business stacking order, billing-group
// level before project level.
type StatementInput struct {
	BillingGroupID string
	CustomerID     string
	Records        []metering.MeteringRecord
	Prices         PriceBook
	Adjustments    []adjustment.Entry
	Credits        []credit.Credit
	PaymentMethod  payment.PaymentMethod
	AsOf           time.Time
}

// UsageCharge is one priced line of a statement
type UsageCharge struct {
	CounterName string          `json:"counter_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}

// Statement is the complete computed bill for one billing group and period.
// Every intermediate figure is retained so reports never re-derive them.
type Statement struct {
	StatementID        string                 `json:"statement_id"`
	BillingGroupID     string                 `json:"billing_group_id"`
	Currency           valueobject.Currency   `json:"currency"`
	UsageCharges       []UsageCharge          `json:"usage_charges"`
	Subtotal           decimal.Decimal        `json:"subtotal"`
	AdjustmentTotal    decimal.Decimal        `json:"adjustment_total"`
	AdjustedCharge     decimal.Decimal        `json:"adjusted_charge"`
	CreditApplied      decimal.Decimal        `json:"credit_applied"`
	ChargeAfterCredits decimal.Decimal        `json:"charge_after_credits"`
	VAT                decimal.Decimal        `json:"vat"`
	TotalPayable       decimal.Decimal        `json:"total_payable"`
	UsageSummary       metering.UsageSummary  `json:"usage_summary"`
	PaymentRequest     payment.PaymentRequest `json:"payment_request"`
	Fees               payment.FeeBreakdown   `json:"fees"`
}

// CalculateStatement runs the full billing sequence: price aggregated
// usage, apply adjustments cumulatively, consume credits, add VAT, and
// prepare the payment request with its fee breakdown.
func (c *Calculator) CalculateStatement(input StatementInput) (*Statement, error) {
	if input.BillingGroupID == "" {
		return nil, shared.NewDomainError("INVALID_BILLING_GROUP", "Billing group ID cannot be empty")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, shared.NewDomainError("UNKNOWN_PAYMENT_METHOD", "Unknown payment method: "+input.PaymentMethod.String())
	}
	asOf := input.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}

	charges, subtotal := c.priceUsage(input.Records, input.Prices)

	adjusted, err := adjustment.ApplyCumulative(subtotal, input.Adjustments)
	if err != nil {
		return nil, err
	}

	credits := credit.Apply(adjusted.FinalAmount, input.Credits, asOf)

	vat := valueobject.RoundAmount(credits.FinalAmount.Mul(c.vatRate))
	totalPayable := credits.FinalAmount.Add(vat)

	amount, err := valueobject.NewMoney(totalPayable, c.currency)
	if err != nil {
		return nil, shared.ErrInvalidCurrency
	}
	request := payment.NewPaymentRequest(
		uuid.NewString(), amount, input.PaymentMethod, input.CustomerID,
	)
	if ok, reason := payment.ValidatePaymentRequest(request); !ok && totalPayable.IsPositive() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_REQUEST", reason)
	}

	fees, err := c.feeSchedule.CalculateFee(totalPayable, input.PaymentMethod, true)
	if err != nil {
		return nil, err
	}

	statement := &Statement{
		StatementID:        uuid.NewString(),
		BillingGroupID:     input.BillingGroupID,
		Currency:           c.currency,
		UsageCharges:       charges,
		Subtotal:           subtotal,
		AdjustmentTotal:    adjusted.TotalAdjustment,
		AdjustedCharge:     adjusted.FinalAmount,
		CreditApplied:      credits.AppliedTotal,
		ChargeAfterCredits: credits.FinalAmount,
		VAT:                vat,
		TotalPayable:       totalPayable,
		UsageSummary:       metering.CreateUsageSummary(input.Records),
		PaymentRequest:     request,
		Fees:               fees,
	}

	c.logger.Debug("statement calculated",
		zap.String("billing_group_id", statement.BillingGroupID),
		zap.String("subtotal", statement.Subtotal.String()),
		zap.String("total_payable", statement.TotalPayable.String()),
	)
	return statement, nil
}

// priceUsage turns DELTA usage sums into priced charge lines. Counters
// without a price book entry contribute nothing; line amounts are rounded
// per line and summed into the subtotal.
func (c *Calculator) priceUsage(records []metering.MeteringRecord, prices PriceBook) ([]UsageCharge, decimal.Decimal) {
	charges := make([]UsageCharge, 0, len(prices))
	subtotal := decimal.Zero

	summary := metering.CreateUsageSummary(records)
	counters := make([]string, 0, len(summary.Counters))
	for name := range summary.Counters {
		counters = append(counters, name)
	}
	// Map iteration order is random; statements must be reproducible.
	sort.Strings(counters)

	for _, name := range counters {
		price, ok := prices[name]
		if !ok {
			continue
		}
		quantity := metering.CalculateDeltaSum(records, name)
		if quantity.IsZero() {
			continue
		}
		amount := valueobject.RoundAmount(quantity.Mul(price))
		charges = append(charges, UsageCharge{
			CounterName: name,
			Quantity:    quantity,
			UnitPrice:   price,
			Amount:      amount,
		})
		subtotal = subtotal.Add(amount)
	}
	return charges, subtotal
}
