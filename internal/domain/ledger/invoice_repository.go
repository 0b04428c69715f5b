package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	// FindByIDForTenant finds an invoice by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)

	// FindByClientID finds all invoices for a client
	FindByClientID(ctx context.Context, tenantID, clientID uuid.UUID, filter shared.Filter) ([]Invoice, int64, error)

	// Save creates or updates an invoice
	Save(ctx context.Context, invoice *Invoice) error

	// IncrementPaidAmount atomically adds amount to the stored paid amount
	// and returns the resulting value. Unless allowOverpayment is set, the
	// increment fails with a conflict when it would push the paid amount
	// past the invoice total, and nothing is written.
	IncrementPaidAmount(ctx context.Context, tenantID, id uuid.UUID, amount decimal.Decimal, allowOverpayment bool) (decimal.Decimal, error)

	// DeleteForTenant deletes an invoice within a tenant
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
}
