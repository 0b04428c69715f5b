package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionFilter represents filter options for transaction queries
type TransactionFilter struct {
	Type      *TransactionType
	InvoiceID *uuid.UUID
	DateFrom  *time.Time
	DateTo    *time.Time
	SortBy    string
	SortDir   string
	Page      int
	PageSize  int
}

// TransactionRepository defines the interface for transaction persistence.
// Transactions are append-only: there are no update or delete operations.
type TransactionRepository interface {
	// Create appends a new transaction
	Create(ctx context.Context, transaction *Transaction) error

	// FindByIDForTenant finds a transaction by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Transaction, error)

	// FindByClientID finds all transactions for a client
	FindByClientID(ctx context.Context, tenantID, clientID uuid.UUID, filter TransactionFilter) ([]*Transaction, int64, error)

	// FindByIdempotencyKey finds the committed transaction carrying the
	// given retry token, or ErrNotFound
	FindByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*Transaction, error)

	// SumPaymentsByInvoice sums payment amounts referencing an invoice
	SumPaymentsByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (decimal.Decimal, error)

	// SumSignedByClient sums the signed amounts of a client's transactions
	// (payments positive, sales negative); replaying the full history this
	// way must reproduce the client's stored balance
	SumSignedByClient(ctx context.Context, tenantID, clientID uuid.UUID) (decimal.Decimal, error)
}
