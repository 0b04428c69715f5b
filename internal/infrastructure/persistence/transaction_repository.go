package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/ledger"
	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/ledgerly/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormTransactionRepository implements TransactionRepository using GORM.
// The table is append-only; the repository exposes no update or delete.
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// Create appends a new transaction. An insert that trips the per-tenant
// unique index on the idempotency key reports ErrAlreadyExists so the caller
// can fetch the committed row instead.
func (r *GormTransactionRepository) Create(ctx context.Context, transaction *ledger.Transaction) error {
	model := models.TransactionModelFromDomain(transaction)
	if err := dbFromContext(ctx, r.db).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// FindByIDForTenant finds a transaction by ID within a tenant
func (r *GormTransactionRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Transaction, error) {
	var model models.TransactionModel
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

// FindByClientID finds all transactions for a client
func (r *GormTransactionRepository) FindByClientID(ctx context.Context, tenantID, clientID uuid.UUID, filter ledger.TransactionFilter) ([]*ledger.Transaction, int64, error) {
	var transactionModels []models.TransactionModel
	var total int64

	countQuery := dbFromContext(ctx, r.db).Model(&models.TransactionModel{}).
		Where("tenant_id = ? AND client_id = ?", tenantID, clientID)
	countQuery = applyTransactionFilter(countQuery, filter)
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := dbFromContext(ctx, r.db).Model(&models.TransactionModel{}).
		Where("tenant_id = ? AND client_id = ?", tenantID, clientID)
	query = applyTransactionFilter(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderField := ValidateSortField(filter.SortBy, TransactionSortFields, "transaction_date")
	query = query.Order(orderField + " " + ValidateSortOrder(filter.SortDir))

	if err := query.Find(&transactionModels).Error; err != nil {
		return nil, 0, err
	}

	transactions := make([]*ledger.Transaction, len(transactionModels))
	for i, model := range transactionModels {
		transactions[i] = model.ToDomain()
	}
	return transactions, total, nil
}

// FindByIdempotencyKey finds the committed transaction carrying the given
// retry token, or ErrNotFound
func (r *GormTransactionRepository) FindByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*ledger.Transaction, error) {
	var model models.TransactionModel
	if err := dbFromContext(ctx, r.db).
		Where("tenant_id = ? AND idempotency_key = ?", tenantID, key).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// SumPaymentsByInvoice sums payment amounts referencing an invoice
func (r *GormTransactionRepository) SumPaymentsByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}

	if err := dbFromContext(ctx, r.db).
		Model(&models.TransactionModel{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("tenant_id = ? AND invoice_id = ? AND type = ?",
			tenantID, invoiceID, ledger.TransactionTypePayment).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}

	return result.Total, nil
}

// SumSignedByClient sums the signed amounts of a client's transactions;
// payments count positive and sales negative, so the result reproduces the
// client's balance from history alone
func (r *GormTransactionRepository) SumSignedByClient(ctx context.Context, tenantID, clientID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}

	if err := dbFromContext(ctx, r.db).
		Model(&models.TransactionModel{}).
		Select("COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE -amount END), 0) as total",
			ledger.TransactionTypePayment).
		Where("tenant_id = ? AND client_id = ?", tenantID, clientID).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}

	return result.Total, nil
}

// applyTransactionFilter applies filter options to the query
func applyTransactionFilter(query *gorm.DB, filter ledger.TransactionFilter) *gorm.DB {
	if filter.Type != nil {
		query = query.Where("type = ?", strings.ToUpper(string(*filter.Type)))
	}

	if filter.InvoiceID != nil {
		query = query.Where("invoice_id = ?", *filter.InvoiceID)
	}

	if filter.DateFrom != nil {
		query = query.Where("transaction_date >= ?", *filter.DateFrom)
	}

	if filter.DateTo != nil {
		query = query.Where("transaction_date <= ?", *filter.DateTo)
	}

	return query
}

// isUniqueViolation reports whether err is a unique constraint violation.
// Covers gorm's translated error plus the raw postgres SQLSTATE.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "23505") ||
		strings.Contains(err.Error(), "duplicate key")
}

// Ensure GormTransactionRepository implements TransactionRepository
var _ ledger.TransactionRepository = (*GormTransactionRepository)(nil)
