package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the payment status of an invoice
type InvoiceStatus string

const (
	// InvoiceStatusOpen represents an invoice with an outstanding amount
	InvoiceStatusOpen InvoiceStatus = "OPEN"
	// InvoiceStatusPaid represents a fully paid invoice
	InvoiceStatusPaid InvoiceStatus = "PAID"
)

// IsValid returns true if the invoice status is valid
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusOpen, InvoiceStatusPaid:
		return true
	}
	return false
}

// Invoice represents a bill issued to a client. PaidAmount is a derived
// running total of payment transactions referencing the invoice, maintained
// inside the ledger's atomic unit and recomputable from the transaction
// history.
type Invoice struct {
	shared.TenantAggregateRoot
	ClientID   uuid.UUID
	Number     string
	Total      decimal.Decimal
	PaidAmount decimal.Decimal
	Status     InvoiceStatus
	IssuedAt   time.Time
}

// NewInvoice creates a new open invoice
func NewInvoice(tenantID, clientID uuid.UUID, number string, total decimal.Decimal) (*Invoice, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client ID cannot be empty")
	}
	if number == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invoice number cannot be empty")
	}
	if total.IsNegative() || total.IsZero() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Invoice total must be positive")
	}

	return &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ClientID:            clientID,
		Number:              number,
		Total:               total,
		PaidAmount:          decimal.Zero,
		Status:              InvoiceStatusOpen,
		IssuedAt:            time.Now(),
	}, nil
}

// ApplyPayment increases the invoice's paid amount. Paying beyond Total is
// rejected unless allowOverpayment is set; the paid amount never silently
// exceeds the total.
func (i *Invoice) ApplyPayment(amount decimal.Decimal, allowOverpayment bool) error {
	if amount.IsNegative() || amount.IsZero() {
		return shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}

	newPaid := i.PaidAmount.Add(amount)
	if newPaid.GreaterThan(i.Total) && !allowOverpayment {
		return shared.NewDomainError("OVERPAYMENT_NOT_ALLOWED", "Payment would exceed invoice total")
	}

	i.PaidAmount = newPaid
	if i.PaidAmount.GreaterThanOrEqual(i.Total) {
		i.Status = InvoiceStatusPaid
	}
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
	return nil
}

// Outstanding returns the unpaid remainder of the invoice
func (i *Invoice) Outstanding() decimal.Decimal {
	remaining := i.Total.Sub(i.PaidAmount)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// IsPaid returns true if the invoice has been fully paid
func (i *Invoice) IsPaid() bool {
	return i.Status == InvoiceStatusPaid
}

// BelongsToClient returns true if the invoice references the given client
func (i *Invoice) BelongsToClient(clientID uuid.UUID) bool {
	return i.ClientID == clientID
}
