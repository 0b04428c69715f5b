package identity

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/identity"
	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTenantRepository is a mock implementation of TenantRepository
type MockTenantRepository struct {
	mock.Mock
}

func (m *MockTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Tenant), args.Error(1)
}

func (m *MockTenantRepository) FindByCode(ctx context.Context, code string) (*identity.Tenant, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Tenant), args.Error(1)
}

func (m *MockTenantRepository) FindAll(ctx context.Context, filter shared.Filter) ([]identity.Tenant, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.Tenant), args.Error(1)
}

func (m *MockTenantRepository) Save(ctx context.Context, tenant *identity.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

func (m *MockTenantRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func TestTenantService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates tenant with uppercased code", func(t *testing.T) {
		repo := new(MockTenantRepository)
		service := NewTenantService(repo)

		repo.On("ExistsByCode", ctx, "ACME").Return(false, nil)
		repo.On("Save", ctx, mock.AnythingOfType("*identity.Tenant")).Return(nil)

		dto, err := service.Create(ctx, CreateTenantInput{Code: "acme", Name: "Acme Corp"})
		require.NoError(t, err)
		assert.Equal(t, "ACME", dto.Code)
		assert.Equal(t, "Acme Corp", dto.Name)
		assert.Equal(t, string(identity.TenantStatusActive), dto.Status)
		repo.AssertExpectations(t)
	})

	t.Run("rejects duplicate code", func(t *testing.T) {
		repo := new(MockTenantRepository)
		service := NewTenantService(repo)

		repo.On("ExistsByCode", ctx, "ACME").Return(true, nil)

		_, err := service.Create(ctx, CreateTenantInput{Code: "acme", Name: "Acme Corp"})
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ALREADY_EXISTS", domainErr.Code)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("rejects malformed code without touching the store", func(t *testing.T) {
		repo := new(MockTenantRepository)
		service := NewTenantService(repo)

		_, err := service.Create(ctx, CreateTenantInput{Code: "9bad code", Name: "Acme"})
		require.Error(t, err)
		repo.AssertNotCalled(t, "ExistsByCode", mock.Anything, mock.Anything)
	})
}

func TestTenantService_Deactivate(t *testing.T) {
	ctx := context.Background()

	t.Run("marks the tenant inactive and saves", func(t *testing.T) {
		repo := new(MockTenantRepository)
		service := NewTenantService(repo)

		tenant, err := identity.NewTenant("acme", "Acme Corp")
		require.NoError(t, err)

		repo.On("FindByID", ctx, tenant.ID).Return(tenant, nil)
		repo.On("Save", ctx, tenant).Return(nil)

		dto, err := service.Deactivate(ctx, tenant.ID)
		require.NoError(t, err)
		assert.Equal(t, string(identity.TenantStatusInactive), dto.Status)
		repo.AssertExpectations(t)
	})

	t.Run("unknown tenant", func(t *testing.T) {
		repo := new(MockTenantRepository)
		service := NewTenantService(repo)

		id := uuid.New()
		repo.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound)

		_, err := service.Deactivate(ctx, id)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestTenantService_List(t *testing.T) {
	ctx := context.Background()

	repo := new(MockTenantRepository)
	service := NewTenantService(repo)

	first, err := identity.NewTenant("acme", "Acme Corp")
	require.NoError(t, err)
	second, err := identity.NewTenant("globex", "Globex")
	require.NoError(t, err)

	repo.On("FindAll", ctx, shared.DefaultFilter()).Return([]identity.Tenant{*first, *second}, nil)

	dtos, err := service.List(ctx, shared.DefaultFilter())
	require.NoError(t, err)
	require.Len(t, dtos, 2)
	assert.Equal(t, "ACME", dtos[0].Code)
	assert.Equal(t, "GLOBEX", dtos[1].Code)
}
