package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/identity"
	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/ledgerly/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAccountIdentityRepository implements AccountIdentityRepository using GORM
type GormAccountIdentityRepository struct {
	db *gorm.DB
}

// NewGormAccountIdentityRepository creates a new GormAccountIdentityRepository
func NewGormAccountIdentityRepository(db *gorm.DB) *GormAccountIdentityRepository {
	return &GormAccountIdentityRepository{db: db}
}

// FindByPhone finds every identity registered under a phone number across all
// tenants. The lookup hits the phone index; it never scans by email pattern.
func (r *GormAccountIdentityRepository) FindByPhone(ctx context.Context, phone string) ([]identity.AccountIdentity, error) {
	var identityModels []models.AccountIdentityModel
	if err := dbFromContext(ctx, r.db).
		Where("phone = ?", phone).
		Order("created_at ASC").
		Find(&identityModels).Error; err != nil {
		return nil, err
	}

	identities := make([]identity.AccountIdentity, len(identityModels))
	for i, model := range identityModels {
		identities[i] = *model.ToDomain()
	}
	return identities, nil
}

// FindByPhoneForTenant finds the identity for a phone number within one tenant
func (r *GormAccountIdentityRepository) FindByPhoneForTenant(ctx context.Context, tenantID uuid.UUID, phone string) (*identity.AccountIdentity, error) {
	var model models.AccountIdentityModel
	if err := dbFromContext(ctx, r.db).
		Where("tenant_id = ? AND phone = ?", tenantID, phone).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates an account identity
func (r *GormAccountIdentityRepository) Save(ctx context.Context, ident *identity.AccountIdentity) error {
	model := models.AccountIdentityModelFromDomain(ident)
	if err := dbFromContext(ctx, r.db).Save(model).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// DeleteForTenant deletes an account identity within a tenant
func (r *GormAccountIdentityRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	result := dbFromContext(ctx, r.db).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.AccountIdentityModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormAccountIdentityRepository implements AccountIdentityRepository
var _ identity.AccountIdentityRepository = (*GormAccountIdentityRepository)(nil)
