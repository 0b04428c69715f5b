package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/identity"
	"github.com/ledgerly/backend/internal/domain/shared"
)

// TenantService handles tenant management operations. Tenants are the
// isolation boundary: every client, invoice, transaction and account
// identity belongs to exactly one of them.
type TenantService struct {
	tenantRepo identity.TenantRepository
}

// NewTenantService creates a new TenantService
func NewTenantService(tenantRepo identity.TenantRepository) *TenantService {
	return &TenantService{tenantRepo: tenantRepo}
}

// CreateTenantInput contains input for creating a tenant
type CreateTenantInput struct {
	Code string
	Name string
}

// TenantDTO represents tenant data returned to callers
type TenantDTO struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toTenantDTO(t *identity.Tenant) *TenantDTO {
	return &TenantDTO{
		ID:        t.ID,
		Code:      t.Code,
		Name:      t.Name,
		Status:    string(t.Status),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// Create creates a new tenant with a unique code
func (s *TenantService) Create(ctx context.Context, input CreateTenantInput) (*TenantDTO, error) {
	tenant, err := identity.NewTenant(input.Code, input.Name)
	if err != nil {
		return nil, err
	}

	exists, err := s.tenantRepo.ExistsByCode(ctx, tenant.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Tenant code already exists")
	}

	if err := s.tenantRepo.Save(ctx, tenant); err != nil {
		return nil, err
	}
	return toTenantDTO(tenant), nil
}

// GetByID returns a tenant by its ID
func (s *TenantService) GetByID(ctx context.Context, id uuid.UUID) (*TenantDTO, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toTenantDTO(tenant), nil
}

// GetByCode returns a tenant by its unique code
func (s *TenantService) GetByCode(ctx context.Context, code string) (*TenantDTO, error) {
	tenant, err := s.tenantRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return toTenantDTO(tenant), nil
}

// List returns tenants matching the filter, ordered by code
func (s *TenantService) List(ctx context.Context, filter shared.Filter) ([]TenantDTO, error) {
	tenants, err := s.tenantRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	dtos := make([]TenantDTO, 0, len(tenants))
	for i := range tenants {
		dtos = append(dtos, *toTenantDTO(&tenants[i]))
	}
	return dtos, nil
}

// Deactivate marks a tenant as inactive. Existing data is kept; the tenant
// simply stops accepting new activity.
func (s *TenantService) Deactivate(ctx context.Context, id uuid.UUID) (*TenantDTO, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	tenant.Deactivate()
	if err := s.tenantRepo.Save(ctx, tenant); err != nil {
		return nil, err
	}
	return toTenantDTO(tenant), nil
}
