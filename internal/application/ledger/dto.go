package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// RecordPaymentCommand carries everything needed to record a payment
type RecordPaymentCommand struct {
	TenantID         uuid.UUID
	ClientID         uuid.UUID
	InvoiceID        *uuid.UUID
	Amount           decimal.Decimal
	IdempotencyKey   string
	AllowOverpayment bool
	Reference        string
	Remark           string
}

// RecordSaleCommand carries everything needed to record a sale
type RecordSaleCommand struct {
	TenantID       uuid.UUID
	ClientID       uuid.UUID
	Amount         decimal.Decimal
	IdempotencyKey string
	Reference      string
	Remark         string
}

// TransactionResponse represents a ledger transaction in API responses
type TransactionResponse struct {
	ID              uuid.UUID       `json:"id"`
	TenantID        uuid.UUID       `json:"tenant_id"`
	ClientID        uuid.UUID       `json:"client_id"`
	InvoiceID       *uuid.UUID      `json:"invoice_id,omitempty"`
	Type            string          `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	BalanceBefore   decimal.Decimal `json:"balance_before"`
	BalanceAfter    decimal.Decimal `json:"balance_after"`
	Reference       string          `json:"reference"`
	Remark          string          `json:"remark"`
	TransactionDate time.Time       `json:"transaction_date"`
	CreatedAt       time.Time       `json:"created_at"`
}

// BalanceResponse represents a client's current balance
type BalanceResponse struct {
	ClientID uuid.UUID       `json:"client_id"`
	Balance  decimal.Decimal `json:"balance"`
}

// PaidAmountResponse represents an invoice's paid amount
type PaidAmountResponse struct {
	InvoiceID  uuid.UUID       `json:"invoice_id"`
	Total      decimal.Decimal `json:"total"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
	Status     string          `json:"status"`
}

// ToTransactionResponse converts a domain Transaction to TransactionResponse
func ToTransactionResponse(t *ledger.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:              t.ID,
		TenantID:        t.TenantID,
		ClientID:        t.ClientID,
		InvoiceID:       t.InvoiceID,
		Type:            string(t.Type),
		Amount:          t.Amount,
		BalanceBefore:   t.BalanceBefore,
		BalanceAfter:    t.BalanceAfter,
		Reference:       t.Reference,
		Remark:          t.Remark,
		TransactionDate: t.TransactionDate,
		CreatedAt:       t.CreatedAt,
	}
}

// ToTransactionResponses converts a slice of domain Transactions
func ToTransactionResponses(transactions []*ledger.Transaction) []TransactionResponse {
	responses := make([]TransactionResponse, len(transactions))
	for i, t := range transactions {
		responses[i] = ToTransactionResponse(t)
	}
	return responses
}
