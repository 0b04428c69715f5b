package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ClientRepository defines the interface for client persistence
type ClientRepository interface {
	// FindByIDForTenant finds a client by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Client, error)

	// FindByCode finds a client by its code within a tenant
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Client, error)

	// FindAllForTenant finds all clients for a tenant
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Client, error)

	// Save creates or updates a client
	Save(ctx context.Context, client *Client) error

	// IncrementBalance atomically adds delta (signed) to the stored balance
	// and returns the balance before and after the increment. The increment
	// happens at the storage layer in a single statement; concurrent calls
	// against the same client serialize there and never lose updates.
	IncrementBalance(ctx context.Context, tenantID, id uuid.UUID, delta decimal.Decimal) (before, after decimal.Decimal, err error)

	// DeleteForTenant deletes a client within a tenant
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error

	// CountForTenant counts clients for a tenant
	CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)
}
