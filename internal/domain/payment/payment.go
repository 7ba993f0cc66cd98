package payment

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/johanna-II/billing-engine/internal/domain/shared/valueobject"
)

// PaymentStatus represents the lifecycle state of a payment attempt
type PaymentStatus string

const (
	PaymentStatusInitiated   PaymentStatus = "INITIATED"
	PaymentStatusInProgress  PaymentStatus = "IN_PROGRESS"
	PaymentStatusCompleted   PaymentStatus = "COMPLETED"
	PaymentStatusFailed      PaymentStatus = "FAILED"
	PaymentStatusTimeout     PaymentStatus = "TIMEOUT"
	PaymentStatusRetryNeeded PaymentStatus = "RETRY_NEEDED"
)

// IsValid returns true if the status is valid
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusInitiated, PaymentStatusInProgress, PaymentStatusCompleted,
		PaymentStatusFailed, PaymentStatusTimeout, PaymentStatusRetryNeeded:
		return true
	default:
		return false
	}
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// IsRetriable returns true if a payment in this status may be retried
func (s PaymentStatus) IsRetriable() bool {
	switch s {
	case PaymentStatusFailed, PaymentStatusTimeout, PaymentStatusRetryNeeded:
		return true
	default:
		return false
	}
}

// ParsePaymentStatus coerces a raw string into a PaymentStatus
func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	status := PaymentStatus(strings.ToUpper(strings.TrimSpace(s)))
	return status, status.IsValid()
}

// PaymentMethod identifies how a payment is collected
type PaymentMethod string

const (
	PaymentMethodBankTransfer   PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCreditCard     PaymentMethod = "CREDIT_CARD"
	PaymentMethodVirtualAccount PaymentMethod = "VIRTUAL_ACCOUNT"
	PaymentMethodDirectDebit    PaymentMethod = "DIRECT_DEBIT"
)

// IsValid returns true if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodBankTransfer, PaymentMethodCreditCard,
		PaymentMethodVirtualAccount, PaymentMethodDirectDebit:
		return true
	default:
		return false
	}
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// MetadataKeyBankCode is the metadata entry virtual-account payments must carry
const MetadataKeyBankCode = "bank_code"

// PaymentRequest describes a payment to be attempted against a gateway.
// The amount travels as Money so the currency can never drift from the
// figure it prices. Construct with NewPaymentRequest so Metadata is a
// fresh map per instance.
type PaymentRequest struct {
	PaymentID     string            `json:"payment_id"`
	Amount        valueobject.Money `json:"amount"`
	PaymentMethod PaymentMethod     `json:"payment_method"`
	CustomerID    string            `json:"customer_id"`
	Metadata      map[string]string `json:"metadata"`
}

// NewPaymentRequest creates a payment request with an empty metadata map
func NewPaymentRequest(paymentID string, amount valueobject.Money, method PaymentMethod, customerID string) PaymentRequest {
	return PaymentRequest{
		PaymentID:     paymentID,
		Amount:        amount,
		PaymentMethod: method,
		CustomerID:    customerID,
		Metadata:      make(map[string]string),
	}
}

// WithMetadata returns a copy of the request with the metadata entry set
func (r PaymentRequest) WithMetadata(key, value string) PaymentRequest {
	metadata := make(map[string]string, len(r.Metadata)+1)
	for k, v := range r.Metadata {
		metadata[k] = v
	}
	metadata[key] = value
	r.Metadata = metadata
	return r
}

// PaymentResult is the classified outcome of a gateway call made by the
// (out-of-scope) client layer. This package only inspects it; it never
// performs the call.
type PaymentResult struct {
	PaymentID     string        `json:"payment_id"`
	Status        PaymentStatus `json:"status"`
	TransactionID string        `json:"transaction_id,omitempty"`
	ErrorCode     string        `json:"error_code,omitempty"`
	ErrorMessage  string        `json:"error_message,omitempty"`
}

// ValidatePaymentRequest is a pre-flight check callers branch on before
// dispatching to a gateway. It reports the first violated rule as a message
// instead of returning an error.
func ValidatePaymentRequest(req PaymentRequest) (bool, string) {
	if !req.Amount.IsPositive() {
		return false, "payment amount must be greater than zero"
	}
	if !req.Amount.Currency().IsValid() {
		return false, "unsupported currency: " + string(req.Amount.Currency())
	}
	if !req.PaymentMethod.IsValid() {
		return false, "unknown payment method: " + req.PaymentMethod.String()
	}
	if req.PaymentMethod == PaymentMethodVirtualAccount {
		if req.Metadata[MetadataKeyBankCode] == "" {
			return false, "virtual account payments require a bank_code in metadata"
		}
	}
	return true, ""
}

// FormatPaymentAmount renders an amount for display: zero-decimal with
// thousands separators for KRW and JPY, two-decimal for other currencies,
// optionally prefixed with the currency symbol.
func FormatPaymentAmount(amount decimal.Decimal, currency valueobject.Currency, includeSymbol bool) string {
	formatted := groupThousands(amount.StringFixed(currency.DecimalPlaces()))
	if includeSymbol {
		return currency.Symbol() + formatted
	}
	return formatted
}

// groupThousands inserts comma separators into the integer part of a
// plain decimal string.
func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}
	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i:]
	}

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return sign + b.String() + fracPart
}
