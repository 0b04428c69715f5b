package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TransactionType represents the type of ledger transaction
type TransactionType string

const (
	// TransactionTypePayment represents money received from a client (balance increase)
	TransactionTypePayment TransactionType = "PAYMENT"
	// TransactionTypeSale represents goods or services sold to a client (balance decrease)
	TransactionTypeSale TransactionType = "SALE"
)

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsValid returns true if the transaction type is valid
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypePayment, TransactionTypeSale:
		return true
	}
	return false
}

// Transaction represents an immutable record of money moving between a tenant
// and one of its clients. Once created, transactions are never updated or
// deleted; corrections are modeled as new transactions.
//
// Sign convention: a PAYMENT increases the client's balance by Amount, a SALE
// decreases it by Amount. Amount itself is always positive.
type Transaction struct {
	shared.BaseEntity
	TenantID        uuid.UUID
	ClientID        uuid.UUID
	InvoiceID       *uuid.UUID // set for payments applied against an invoice
	Type            TransactionType
	Amount          decimal.Decimal // always positive, direction determined by type
	BalanceBefore   decimal.Decimal // client balance before the transaction
	BalanceAfter    decimal.Decimal // client balance after the transaction
	IdempotencyKey  *string         // caller-supplied retry token, unique per tenant
	Reference       string
	Remark          string
	TransactionDate time.Time
}

// NewTransaction creates a new ledger transaction
func NewTransaction(
	tenantID uuid.UUID,
	clientID uuid.UUID,
	txType TransactionType,
	amount decimal.Decimal,
	balanceBefore decimal.Decimal,
) (*Transaction, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client ID cannot be empty")
	}
	if !txType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Invalid transaction type")
	}
	if amount.IsNegative() || amount.IsZero() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}

	tx := &Transaction{
		BaseEntity:      shared.NewBaseEntity(),
		TenantID:        tenantID,
		ClientID:        clientID,
		Type:            txType,
		Amount:          amount,
		BalanceBefore:   balanceBefore,
		TransactionDate: time.Now(),
	}
	tx.BalanceAfter = balanceBefore.Add(tx.SignedAmount())

	return tx, nil
}

// NewPaymentTransaction creates a payment transaction, optionally applied
// against an invoice
func NewPaymentTransaction(
	tenantID, clientID uuid.UUID,
	invoiceID *uuid.UUID,
	amount, balanceBefore decimal.Decimal,
) (*Transaction, error) {
	tx, err := NewTransaction(tenantID, clientID, TransactionTypePayment, amount, balanceBefore)
	if err != nil {
		return nil, err
	}
	tx.InvoiceID = invoiceID
	return tx, nil
}

// NewSaleTransaction creates a sale transaction
func NewSaleTransaction(
	tenantID, clientID uuid.UUID,
	amount, balanceBefore decimal.Decimal,
) (*Transaction, error) {
	return NewTransaction(tenantID, clientID, TransactionTypeSale, amount, balanceBefore)
}

// WithIdempotencyKey sets the caller-supplied retry token
func (t *Transaction) WithIdempotencyKey(key string) *Transaction {
	t.IdempotencyKey = &key
	return t
}

// WithReference sets the reference number for the transaction
func (t *Transaction) WithReference(reference string) *Transaction {
	t.Reference = reference
	return t
}

// WithRemark sets the remark for the transaction
func (t *Transaction) WithRemark(remark string) *Transaction {
	t.Remark = remark
	return t
}

// WithTransactionDate sets the transaction date
func (t *Transaction) WithTransactionDate(date time.Time) *Transaction {
	t.TransactionDate = date
	return t
}

// SignedAmount returns the amount with sign based on transaction type.
// Positive for payments, negative for sales.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TransactionTypeSale {
		return t.Amount.Neg()
	}
	return t.Amount
}

// IsPayment returns true if this is a payment transaction
func (t *Transaction) IsPayment() bool {
	return t.Type == TransactionTypePayment
}

// IsSale returns true if this is a sale transaction
func (t *Transaction) IsSale() bool {
	return t.Type == TransactionTypeSale
}

// BalanceChange returns the net balance change recorded by this transaction
func (t *Transaction) BalanceChange() decimal.Decimal {
	return t.BalanceAfter.Sub(t.BalanceBefore)
}
