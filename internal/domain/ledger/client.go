package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ClientStatus represents the status of a client
type ClientStatus string

const (
	// ClientStatusActive represents an active client
	ClientStatusActive ClientStatus = "ACTIVE"
	// ClientStatusInactive represents a deactivated client
	ClientStatusInactive ClientStatus = "INACTIVE"
)

// IsValid returns true if the client status is valid
func (s ClientStatus) IsValid() bool {
	switch s {
	case ClientStatusActive, ClientStatusInactive:
		return true
	}
	return false
}

// Client represents a tenant's customer holding a running credit balance.
// Balance is a derived quantity: its authoritative value is the signed sum of
// the client's transactions (payments add, sales subtract) and is
// recomputable by replaying them.
type Client struct {
	shared.TenantAggregateRoot
	Code    string
	Name    string
	Phone   string
	Email   string
	Balance decimal.Decimal
	Status  ClientStatus
}

// NewClient creates a new client with a zero balance
func NewClient(tenantID uuid.UUID, code, name string) (*Client, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if code == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Client code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Client name cannot be empty")
	}

	return &Client{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Name:                name,
		Balance:             decimal.Zero,
		Status:              ClientStatusActive,
	}, nil
}

// ApplyPayment increases the client's balance by amount
func (c *Client) ApplyPayment(amount decimal.Decimal) error {
	if amount.IsNegative() || amount.IsZero() {
		return shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}

	c.Balance = c.Balance.Add(amount)
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	return nil
}

// ApplySale decreases the client's balance by amount. The balance may go
// negative; a negative balance is outstanding debt, not an error.
func (c *Client) ApplySale(amount decimal.Decimal) error {
	if amount.IsNegative() || amount.IsZero() {
		return shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}

	c.Balance = c.Balance.Sub(amount)
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	return nil
}

// IsActive returns true if the client is active
func (c *Client) IsActive() bool {
	return c.Status == ClientStatusActive
}

// Deactivate marks the client as inactive
func (c *Client) Deactivate() {
	c.Status = ClientStatusInactive
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}
