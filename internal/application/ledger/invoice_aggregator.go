package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// InvoiceAggregator answers paid-amount queries. The paid amount is a
// running total maintained inside the ledger's atomic unit, so a read issued
// after a successful RecordPayment observes that payment. The append-only
// transaction history stays the audit source of truth: both the paid amount
// and the client balance can be recomputed from scratch by replaying it.
type InvoiceAggregator struct {
	invoiceRepo ledger.InvoiceRepository
	txRepo      ledger.TransactionRepository
}

// NewInvoiceAggregator creates a new InvoiceAggregator
func NewInvoiceAggregator(
	invoiceRepo ledger.InvoiceRepository,
	txRepo ledger.TransactionRepository,
) *InvoiceAggregator {
	return &InvoiceAggregator{
		invoiceRepo: invoiceRepo,
		txRepo:      txRepo,
	}
}

// PaidAmount returns the maintained paid amount for an invoice
func (s *InvoiceAggregator) PaidAmount(ctx context.Context, tenantID, invoiceID uuid.UUID) (*PaidAmountResponse, error) {
	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}

	return &PaidAmountResponse{
		InvoiceID:  invoice.ID,
		Total:      invoice.Total,
		PaidAmount: invoice.PaidAmount,
		Status:     string(invoice.Status),
	}, nil
}

// RecomputePaidAmount replays the payment transactions referencing an
// invoice and returns their sum
func (s *InvoiceAggregator) RecomputePaidAmount(ctx context.Context, tenantID, invoiceID uuid.UUID) (decimal.Decimal, error) {
	if _, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID); err != nil {
		return decimal.Zero, err
	}
	return s.txRepo.SumPaymentsByInvoice(ctx, tenantID, invoiceID)
}

// RecomputeBalance replays a client's full transaction history and returns
// the signed sum (payments positive, sales negative)
func (s *InvoiceAggregator) RecomputeBalance(ctx context.Context, tenantID, clientID uuid.UUID) (decimal.Decimal, error) {
	return s.txRepo.SumSignedByClient(ctx, tenantID, clientID)
}

// VerifyInvoice compares the maintained paid amount with the replayed sum.
// A mismatch means the running total has drifted from the history.
func (s *InvoiceAggregator) VerifyInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (bool, error) {
	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return false, err
	}

	replayed, err := s.txRepo.SumPaymentsByInvoice(ctx, tenantID, invoiceID)
	if err != nil {
		return false, err
	}

	return invoice.PaidAmount.Equal(replayed), nil
}
