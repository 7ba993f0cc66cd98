package payment

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/johanna-II/billing-engine/internal/domain/shared/valueobject"
)

// InternalStatus is the engine's own view of a payment's settlement state
type InternalStatus string

const (
	InternalStatusRegistered InternalStatus = "REGISTERED"
	InternalStatusPaid       InternalStatus = "PAID"
	InternalStatusCancelled  InternalStatus = "CANCELLED"
	InternalStatusUnknown    InternalStatus = "UNKNOWN"
)

// IsValid returns true if the status is one of the recognized values
func (s InternalStatus) IsValid() bool {
	switch s {
	case InternalStatusRegistered, InternalStatusPaid, InternalStatusCancelled, InternalStatusUnknown:
		return true
	default:
		return false
	}
}

// String returns the string representation of InternalStatus
func (s InternalStatus) String() string {
	return string(s)
}

// gatewayStatusMap translates the gateway's free-text status names into
// internal statuses. Unmapped gateway text never matches any internal
// status. The table is read-only after initialization.
var gatewayStatusMap = map[string]InternalStatus{
	"COMPLETED":  InternalStatusPaid,
	"SUCCESS":    InternalStatusPaid,
	"PAID":       InternalStatusPaid,
	"PROCESSING": InternalStatusRegistered,
	"PENDING":    InternalStatusRegistered,
	"REFUNDED":   InternalStatusCancelled,
	"CANCELLED":  InternalStatusCancelled,
}

// MapGatewayStatus resolves a gateway status string to an internal status,
// case-insensitively. Unknown text maps to UNKNOWN.
func MapGatewayStatus(gatewayStatus string) InternalStatus {
	if mapped, ok := gatewayStatusMap[strings.ToUpper(strings.TrimSpace(gatewayStatus))]; ok {
		return mapped
	}
	return InternalStatusUnknown
}

// DiscrepancyType classifies what a reconciliation found wrong
type DiscrepancyType string

const (
	DiscrepancyAmountMismatch DiscrepancyType = "AMOUNT_MISMATCH"
	DiscrepancyStatusMismatch DiscrepancyType = "STATUS_MISMATCH"
	DiscrepancyInternalOnly   DiscrepancyType = "INTERNAL_ONLY"
	DiscrepancyGatewayOnly    DiscrepancyType = "GATEWAY_ONLY"
)

// InternalPaymentRecord is the engine's record of a payment
type InternalPaymentRecord struct {
	PaymentID string          `json:"payment_id"`
	Amount    decimal.Decimal `json:"amount"`
	Status    InternalStatus  `json:"status"`
}

// GatewayPaymentRecord is the gateway's record of the same payment, with
// the gateway's own status vocabulary.
type GatewayPaymentRecord struct {
	PaymentID string          `json:"payment_id"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
}

// ReconciliationRecord is the computed comparison of an internal payment
// against the gateway's record of truth. It is never mutated after creation.
type ReconciliationRecord struct {
	PaymentID         string          `json:"payment_id"`
	InternalAmount    decimal.Decimal `json:"internal_amount"`
	GatewayAmount     decimal.Decimal `json:"gateway_amount"`
	InternalStatus    InternalStatus  `json:"internal_status"`
	GatewayStatus     string          `json:"gateway_status"`
	DiscrepancyType   DiscrepancyType `json:"discrepancy_type,omitempty"`
	DiscrepancyAmount decimal.Decimal `json:"discrepancy_amount"`
}

// HasDiscrepancy returns true if the reconciliation found a mismatch
func (r ReconciliationRecord) HasDiscrepancy() bool {
	return r.DiscrepancyType != ""
}

// ReconcilePayment compares an internal payment record against the gateway
// record. Amounts are normalized to two decimal places before comparison so
// 100.0 and 100.00 compare equal. Amount mismatch is checked before status
// mismatch and only the first discrepancy found is reported.
func ReconcilePayment(internal InternalPaymentRecord, gateway GatewayPaymentRecord) ReconciliationRecord {
	record := ReconciliationRecord{
		PaymentID:      internal.PaymentID,
		InternalAmount: internal.Amount,
		GatewayAmount:  gateway.Amount,
		InternalStatus: internal.Status,
		GatewayStatus:  gateway.Status,
	}

	internalAmount := valueobject.RoundAmount(internal.Amount)
	gatewayAmount := valueobject.RoundAmount(gateway.Amount)
	if !internalAmount.Equal(gatewayAmount) {
		record.DiscrepancyType = DiscrepancyAmountMismatch
		record.DiscrepancyAmount = internalAmount.Sub(gatewayAmount).Abs()
		return record
	}

	if MapGatewayStatus(gateway.Status) != internal.Status {
		record.DiscrepancyType = DiscrepancyStatusMismatch
	}
	return record
}

// BatchReconciliationResult partitions a many-to-many reconciliation into
// four disjoint buckets whose payment IDs cover the union of both inputs.
type BatchReconciliationResult struct {
	Matched       []ReconciliationRecord `json:"matched"`
	Discrepancies []ReconciliationRecord `json:"discrepancies"`
	InternalOnly  []ReconciliationRecord `json:"internal_only"`
	GatewayOnly   []ReconciliationRecord `json:"gateway_only"`
}

// BatchReconcile indexes both record lists by payment ID, reconciles every
// ID present on both sides, and reports one-sided IDs with the missing side
// zeroed. Buckets are sorted by payment ID for stable output.
func BatchReconcile(internal []InternalPaymentRecord, gateway []GatewayPaymentRecord) BatchReconciliationResult {
	internalByID := make(map[string]InternalPaymentRecord, len(internal))
	for _, record := range internal {
		internalByID[record.PaymentID] = record
	}
	gatewayByID := make(map[string]GatewayPaymentRecord, len(gateway))
	for _, record := range gateway {
		gatewayByID[record.PaymentID] = record
	}

	result := BatchReconciliationResult{
		Matched:       []ReconciliationRecord{},
		Discrepancies: []ReconciliationRecord{},
		InternalOnly:  []ReconciliationRecord{},
		GatewayOnly:   []ReconciliationRecord{},
	}

	for id, internalRecord := range internalByID {
		gatewayRecord, ok := gatewayByID[id]
		if !ok {
			result.InternalOnly = append(result.InternalOnly, ReconciliationRecord{
				PaymentID:       id,
				InternalAmount:  internalRecord.Amount,
				GatewayAmount:   decimal.Zero,
				InternalStatus:  internalRecord.Status,
				DiscrepancyType: DiscrepancyInternalOnly,
			})
			continue
		}
		reconciled := ReconcilePayment(internalRecord, gatewayRecord)
		if reconciled.HasDiscrepancy() {
			result.Discrepancies = append(result.Discrepancies, reconciled)
		} else {
			result.Matched = append(result.Matched, reconciled)
		}
	}

	for id, gatewayRecord := range gatewayByID {
		if _, ok := internalByID[id]; ok {
			continue
		}
		result.GatewayOnly = append(result.GatewayOnly, ReconciliationRecord{
			PaymentID:       id,
			InternalAmount:  decimal.Zero,
			GatewayAmount:   gatewayRecord.Amount,
			InternalStatus:  InternalStatusUnknown,
			GatewayStatus:   gatewayRecord.Status,
			DiscrepancyType: DiscrepancyGatewayOnly,
		})
	}

	sortByPaymentID(result.Matched)
	sortByPaymentID(result.Discrepancies)
	sortByPaymentID(result.InternalOnly)
	sortByPaymentID(result.GatewayOnly)
	return result
}

func sortByPaymentID(records []ReconciliationRecord) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].PaymentID < records[j].PaymentID
	})
}
