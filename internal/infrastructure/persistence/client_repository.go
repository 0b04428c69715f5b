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

// GormClientRepository implements ClientRepository using GORM
type GormClientRepository struct {
	db *gorm.DB
}

// NewGormClientRepository creates a new GormClientRepository
func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

// FindByIDForTenant finds a client by ID within a tenant
func (r *GormClientRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Client, error) {
	var model models.ClientModel
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

// FindByCode finds a client by its code within a tenant
func (r *GormClientRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*ledger.Client, error) {
	var model models.ClientModel
	if err := dbFromContext(ctx, r.db).
		Where("tenant_id = ? AND code = ?", tenantID, code).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds all clients for a tenant
func (r *GormClientRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ledger.Client, error) {
	var clientModels []models.ClientModel

	query := dbFromContext(ctx, r.db).
		Where("tenant_id = ?", tenantID).
		Order("code ASC")

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if err := query.Find(&clientModels).Error; err != nil {
		return nil, err
	}

	clients := make([]ledger.Client, len(clientModels))
	for i, model := range clientModels {
		clients[i] = *model.ToDomain()
	}
	return clients, nil
}

// Save creates or updates a client
func (r *GormClientRepository) Save(ctx context.Context, client *ledger.Client) error {
	model := models.ClientModelFromDomain(client)
	return dbFromContext(ctx, r.db).Save(model).Error
}

// IncrementBalance atomically adds delta to the stored balance in a single
// UPDATE and returns the balance before and after. Concurrent increments
// against the same row serialize on the row lock, so no update is ever lost.
func (r *GormClientRepository) IncrementBalance(ctx context.Context, tenantID, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	var result struct {
		Balance decimal.Decimal
	}

	tx := dbFromContext(ctx, r.db).Raw(
		`UPDATE clients
		 SET balance = balance + ?, updated_at = CURRENT_TIMESTAMP, version = version + 1
		 WHERE tenant_id = ? AND id = ?
		 RETURNING balance`,
		delta, tenantID, id,
	).Scan(&result)
	if tx.Error != nil {
		return decimal.Zero, decimal.Zero, tx.Error
	}
	if tx.RowsAffected == 0 {
		return decimal.Zero, decimal.Zero, shared.ErrNotFound
	}

	return result.Balance.Sub(delta), result.Balance, nil
}

// DeleteForTenant deletes a client within a tenant
func (r *GormClientRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	result := dbFromContext(ctx, r.db).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.ClientModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountForTenant counts clients for a tenant
func (r *GormClientRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	if err := dbFromContext(ctx, r.db).
		Model(&models.ClientModel{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormClientRepository implements ClientRepository
var _ ledger.ClientRepository = (*GormClientRepository)(nil)
