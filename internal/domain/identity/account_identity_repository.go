package identity

import (
	"context"

	"github.com/google/uuid"
)

// AccountIdentityRepository defines the interface for account identity
// persistence. Lookups go through an index keyed by (phone, tenant) with a
// secondary index on phone alone; resolution never scans the full account
// population.
type AccountIdentityRepository interface {
	// FindByPhone returns every identity registered under the phone number
	// across all tenants
	FindByPhone(ctx context.Context, phone string) ([]AccountIdentity, error)

	// FindByPhoneForTenant returns the identity for a phone within one
	// tenant, or ErrNotFound
	FindByPhoneForTenant(ctx context.Context, tenantID uuid.UUID, phone string) (*AccountIdentity, error)

	// Save creates or updates an identity; (phone, tenant) is unique
	Save(ctx context.Context, ident *AccountIdentity) error

	// DeleteForTenant deletes an identity within a tenant
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
}
