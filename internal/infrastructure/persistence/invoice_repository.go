package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/ledger"
	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/ledgerly/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByIDForTenant finds an invoice by ID within a tenant
func (r *GormInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Invoice, error) {
	var model models.InvoiceModel
	if err := dbFromContext(ctx, r.db).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByClientID finds all invoices for a client
func (r *GormInvoiceRepository) FindByClientID(ctx context.Context, tenantID, clientID uuid.UUID, filter shared.Filter) ([]ledger.Invoice, int64, error) {
	var invoiceModels []models.InvoiceModel
	var total int64

	base := dbFromContext(ctx, r.db).Model(&models.InvoiceModel{}).
		Where("tenant_id = ? AND client_id = ?", tenantID, clientID)

	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := dbFromContext(ctx, r.db).
		Where("tenant_id = ? AND client_id = ?", tenantID, clientID).
		Order("issued_at DESC")

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if err := query.Find(&invoiceModels).Error; err != nil {
		return nil, 0, err
	}

	invoices := make([]ledger.Invoice, len(invoiceModels))
	for i, model := range invoiceModels {
		invoices[i] = *model.ToDomain()
	}
	return invoices, total, nil
}

// Save creates or updates an invoice
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *ledger.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	return dbFromContext(ctx, r.db).Save(model).Error
}

// IncrementPaidAmount atomically adds amount to the stored paid amount in a
// single UPDATE and returns the new value. The WHERE clause carries the
// overpayment guard, so under concurrency the database decides which payment
// crosses the invoice total; a guarded-out increment writes nothing.
func (r *GormInvoiceRepository) IncrementPaidAmount(ctx context.Context, tenantID, id uuid.UUID, amount decimal.Decimal, allowOverpayment bool) (decimal.Decimal, error) {
	var result struct {
		PaidAmount decimal.Decimal
	}

	tx := dbFromContext(ctx, r.db).Raw(
		`UPDATE invoices
		 SET paid_amount = paid_amount + ?,
		     status = CASE WHEN paid_amount + ? >= total THEN 'PAID' ELSE status END,
		     updated_at = CURRENT_TIMESTAMP,
		     version = version + 1
		 WHERE tenant_id = ? AND id = ?
		   AND (? OR paid_amount + ? <= total)
		 RETURNING paid_amount`,
		amount, amount, tenantID, id, allowOverpayment, amount,
	).Scan(&result)
	if tx.Error != nil {
		return decimal.Zero, tx.Error
	}
	if tx.RowsAffected == 0 {
		// Distinguish a missing invoice from a guarded-out overpayment.
		var count int64
		if err := dbFromContext(ctx, r.db).
			Model(&models.InvoiceModel{}).
			Where("tenant_id = ? AND id = ?", tenantID, id).
			Count(&count).Error; err != nil {
			return decimal.Zero, err
		}
		if count == 0 {
			return decimal.Zero, shared.ErrNotFound
		}
		return decimal.Zero, shared.NewDomainError("OVERPAYMENT_NOT_ALLOWED", "Payment would exceed invoice total")
	}

	return result.PaidAmount, nil
}

// DeleteForTenant deletes an invoice within a tenant
func (r *GormInvoiceRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	result := dbFromContext(ctx, r.db).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.InvoiceModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ ledger.InvoiceRepository = (*GormInvoiceRepository)(nil)
