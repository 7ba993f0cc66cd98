package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/johanna-II/billing-engine/internal/application/billing"
	"github.com/johanna-II/billing-engine/internal/domain/adjustment"
	"github.com/johanna-II/billing-engine/internal/domain/credit"
	"github.com/johanna-II/billing-engine/internal/domain/metering"
	"github.com/johanna-II/billing-engine/internal/domain/payment"
	"github.com/johanna-II/billing-engine/internal/domain/shared"
	"github.com/johanna-II/billing-engine/internal/domain/shared/valueobject"
	"github.com/johanna-II/billing-engine/internal/interfaces/http/dto"
)

// BillingHandler exposes the calculation engine over HTTP. Every endpoint
// is a pure computation over the request body; nothing is persisted.
type BillingHandler struct {
	BaseHandler
	calculator *billing.Calculator
	logger     *zap.Logger
}

// NewBillingHandler creates a new billing handler
func NewBillingHandler(calculator *billing.Calculator, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{
		calculator: calculator,
		logger:     logger,
	}
}

// PreviewStatement computes a full statement for the submitted usage,
// adjustments and credits
// POST /api/v1/statements/preview
func (h *BillingHandler) PreviewStatement(c *gin.Context) {
	var req dto.StatementPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	input, err := h.toStatementInput(req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	statement, err := h.calculator.CalculateStatement(input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, statement)
}

// AggregateMetering groups metering records by dimensions or by time bucket
// POST /api/v1/metering/aggregate
func (h *BillingHandler) AggregateMetering(c *gin.Context) {
	var req dto.AggregateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	records := toDomainRecords(req.Records)

	if req.TimeBucket != "" {
		buckets, err := metering.AggregateByTimeBucket(records, metering.TimeBucket(req.TimeBucket))
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, gin.H{"buckets": buckets})
		return
	}

	dimensions := make([]metering.DimensionName, 0, len(req.Dimensions))
	for _, d := range req.Dimensions {
		dimensions = append(dimensions, metering.DimensionName(d))
	}
	groups := metering.AggregateByDimensions(records, dimensions)
	h.Success(c, gin.H{"groups": groups})
}

// DetectOutliers flags records whose volume deviates from the mean by more
// than the given number of standard deviations
// POST /api/v1/metering/outliers
func (h *BillingHandler) DetectOutliers(c *gin.Context) {
	var req dto.AggregateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	records := toDomainRecords(req.Records)
	outliers := metering.DetectOutliers(records, metering.DefaultOutlierThreshold)
	h.Success(c, gin.H{
		"outliers": outliers,
		"summary":  metering.CreateUsageSummary(records),
	})
}

// ReconcilePayments matches internal payment records against gateway
// records and reports every discrepancy
// POST /api/v1/payments/reconcile
func (h *BillingHandler) ReconcilePayments(c *gin.Context) {
	var req dto.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	internal := make([]payment.InternalPaymentRecord, 0, len(req.Internal))
	for _, r := range req.Internal {
		status := payment.InternalStatus(r.Status)
		if !status.IsValid() {
			h.BadRequest(c, "Unknown internal payment status: "+r.Status)
			return
		}
		internal = append(internal, payment.InternalPaymentRecord{
			PaymentID: r.PaymentID,
			Amount:    r.Amount,
			Status:    status,
		})
	}

	gateway := make([]payment.GatewayPaymentRecord, 0, len(req.Gateway))
	for _, r := range req.Gateway {
		gateway = append(gateway, payment.GatewayPaymentRecord{
			PaymentID: r.PaymentID,
			Amount:    r.Amount,
			Status:    r.Status,
		})
	}

	result := payment.BatchReconcile(internal, gateway)
	h.logger.Info("batch reconciliation completed",
		zap.Int("matched", len(result.Matched)),
		zap.Int("discrepancies", len(result.Discrepancies)),
		zap.Int("internal_only", len(result.InternalOnly)),
		zap.Int("gateway_only", len(result.GatewayOnly)),
	)
	h.Success(c, result)
}

// PreviewFees computes the gateway fee breakdown for an amount and method
// POST /api/v1/payments/fees
func (h *BillingHandler) PreviewFees(c *gin.Context) {
	var req dto.FeePreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	includeTax := true
	if req.IncludeTax != nil {
		includeTax = *req.IncludeTax
	}

	currency := valueobject.DefaultCurrency
	if req.Currency != "" {
		currency = valueobject.Currency(req.Currency)
	}

	method := payment.PaymentMethod(req.PaymentMethod)
	fees, err := payment.CalculateProcessingFee(req.Amount, method, includeTax)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{
		"fees":                 fees,
		"currency":             currency,
		"formatted_total_fee":  payment.FormatPaymentAmount(fees.TotalFee, currency, true),
		"formatted_net_amount": payment.FormatPaymentAmount(fees.NetAmount, currency, true),
	})
}

// RetrySchedule reports the backoff delays a payment would wait through
// GET /api/v1/payments/retry-schedule
func (h *BillingHandler) RetrySchedule(c *gin.Context) {
	policy := payment.DefaultRetryPolicy()
	delays := make([]int64, 0, policy.MaxAttempts)
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		delays = append(delays, payment.CalculateRetryDelay(attempt, policy))
	}
	h.Success(c, gin.H{
		"max_attempts":  policy.MaxAttempts,
		"delay_seconds": delays,
	})
}

// toStatementInput converts the request DTO into calculator input,
// validating enum fields as it goes.
func (h *BillingHandler) toStatementInput(req dto.StatementPreviewRequest) (billing.StatementInput, error) {
	adjustments := make([]adjustment.Entry, 0, len(req.Adjustments))
	for _, a := range req.Adjustments {
		adjType, err := adjustment.ParseAdjustmentType(a.Type)
		if err != nil {
			return billing.StatementInput{}, err
		}
		adjustments = append(adjustments, adjustment.Entry{Amount: a.Amount, Type: adjType})
	}

	credits := make([]credit.Credit, 0, len(req.Credits))
	for _, cr := range req.Credits {
		domainCredit := credit.Credit{
			CreditID: cr.CreditID,
			Type:     credit.CreditType(cr.Type),
			Balance:  cr.Balance,
		}
		if cr.ExpiresAt != "" {
			expires, err := time.Parse(time.RFC3339, cr.ExpiresAt)
			if err != nil {
				return billing.StatementInput{}, shared.NewDomainError(
					"INVALID_EXPIRY", "Credit expiry must be RFC 3339: "+cr.ExpiresAt)
			}
			domainCredit.ExpiresAt = &expires
		}
		credits = append(credits, domainCredit)
	}

	return billing.StatementInput{
		BillingGroupID: req.BillingGroupID,
		CustomerID:     req.CustomerID,
		Records:        toDomainRecords(req.Records),
		Prices:         billing.PriceBook(req.Prices),
		Adjustments:    adjustments,
		Credits:        credits,
		PaymentMethod:  payment.PaymentMethod(req.PaymentMethod),
	}, nil
}

func toDomainRecords(dtos []dto.MeteringRecordDTO) []metering.MeteringRecord {
	records := make([]metering.MeteringRecord, 0, len(dtos))
	for _, d := range dtos {
		records = append(records, d.ToDomain())
	}
	return records
}
