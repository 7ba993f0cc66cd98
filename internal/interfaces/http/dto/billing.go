package dto

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/johanna-II/billing-engine/internal/domain/adjustment"
	"github.com/johanna-II/billing-engine/internal/domain/metering"
	"github.com/johanna-II/billing-engine/internal/domain/payment"
	"github.com/johanna-II/billing-engine/internal/domain/shared/valueobject"
)

// MeteringRecordDTO mirrors the external metering source's record shape
type MeteringRecordDTO struct {
	AppKey        string `json:"appKey"`
	CounterName   string `json:"counterName" binding:"required"`
	CounterType   string `json:"counterType" binding:"required,countertype"`
	CounterVolume string `json:"counterVolume" binding:"required"`
	ResourceID    string `json:"resourceId"`
	Timestamp     string `json:"timestamp" binding:"required"`
}

// ToDomain converts the DTO into a metering record
func (d MeteringRecordDTO) ToDomain() metering.MeteringRecord {
	counterType, _ := metering.ParseCounterType(d.CounterType)
	return metering.MeteringRecord{
		AppKey:        d.AppKey,
		CounterName:   d.CounterName,
		CounterType:   counterType,
		CounterVolume: d.CounterVolume,
		ResourceID:    d.ResourceID,
		Timestamp:     d.Timestamp,
	}
}

// AdjustmentEntryDTO is one adjustment to stack onto the charge
type AdjustmentEntryDTO struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Type   string          `json:"type" binding:"required,adjustmenttype"`
}

// CreditDTO is one available credit balance
type CreditDTO struct {
	CreditID  string          `json:"credit_id"`
	Type      string          `json:"type" binding:"required"`
	Balance   decimal.Decimal `json:"balance" binding:"required"`
	ExpiresAt string          `json:"expires_at,omitempty"`
}

// StatementPreviewRequest asks for a full statement computation
type StatementPreviewRequest struct {
	BillingGroupID string                     `json:"billing_group_id" binding:"required"`
	CustomerID     string                     `json:"customer_id"`
	Records        []MeteringRecordDTO        `json:"records" binding:"dive"`
	Prices         map[string]decimal.Decimal `json:"prices"`
	Adjustments    []AdjustmentEntryDTO       `json:"adjustments" binding:"dive"`
	Credits        []CreditDTO                `json:"credits" binding:"dive"`
	PaymentMethod  string                     `json:"payment_method" binding:"required,paymentmethod"`
}

// AggregateRequest asks for dimension or time-bucket aggregation
type AggregateRequest struct {
	Records    []MeteringRecordDTO `json:"records" binding:"required,dive"`
	Dimensions []string            `json:"dimensions"`
	TimeBucket string              `json:"time_bucket"`
}

// ReconcileRequest asks for a batch reconciliation of payment records
type ReconcileRequest struct {
	Internal []InternalPaymentDTO `json:"internal" binding:"dive"`
	Gateway  []GatewayPaymentDTO  `json:"gateway" binding:"dive"`
}

// InternalPaymentDTO is the engine-side payment record
type InternalPaymentDTO struct {
	PaymentID string          `json:"payment_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Status    string          `json:"status" binding:"required"`
}

// GatewayPaymentDTO is the gateway-side payment record
type GatewayPaymentDTO struct {
	PaymentID string          `json:"payment_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Status    string          `json:"status" binding:"required"`
}

// FeePreviewRequest asks for a processing-fee breakdown
type FeePreviewRequest struct {
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	PaymentMethod string          `json:"payment_method" binding:"required,paymentmethod"`
	Currency      string          `json:"currency" binding:"omitempty,currency"`
	IncludeTax    *bool           `json:"include_tax"`
}

// RegisterCustomValidators installs the engine's field validators into
// gin's binding engine. Call once at startup.
func RegisterCustomValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		return valueobject.Currency(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("adjustmenttype", func(fl validator.FieldLevel) bool {
		_, err := adjustment.ParseAdjustmentType(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("countertype", func(fl validator.FieldLevel) bool {
		_, err := metering.ParseCounterType(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("paymentmethod", func(fl validator.FieldLevel) bool {
		return payment.PaymentMethod(fl.Field().String()).IsValid()
	})
}
