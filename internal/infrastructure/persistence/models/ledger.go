package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/ledger"
	"github.com/ledgerly/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ClientModel is the persistence model for the Client domain entity.
type ClientModel struct {
	TenantAggregateModel
	Code    string              `gorm:"type:varchar(50);not null;uniqueIndex:idx_client_tenant_code,priority:2"`
	Name    string              `gorm:"type:varchar(200);not null"`
	Phone   string              `gorm:"type:varchar(50);index"`
	Email   string              `gorm:"type:varchar(200);index"`
	Balance decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	Status  ledger.ClientStatus `gorm:"type:varchar(20);not null;default:'ACTIVE'"`
}

// TableName returns the table name for GORM
func (ClientModel) TableName() string {
	return "clients"
}

// ToDomain converts the persistence model to a domain Client entity.
func (m *ClientModel) ToDomain() *ledger.Client {
	client := &ledger.Client{
		Code:    m.Code,
		Name:    m.Name,
		Phone:   m.Phone,
		Email:   m.Email,
		Balance: m.Balance,
		Status:  m.Status,
	}
	m.PopulateTenantAggregateRoot(&client.TenantAggregateRoot)
	return client
}

// FromDomain populates the persistence model from a domain Client entity.
func (m *ClientModel) FromDomain(c *ledger.Client) {
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	m.Code = c.Code
	m.Name = c.Name
	m.Phone = c.Phone
	m.Email = c.Email
	m.Balance = c.Balance
	m.Status = c.Status
}

// ClientModelFromDomain creates a new persistence model from a domain Client entity.
func ClientModelFromDomain(c *ledger.Client) *ClientModel {
	m := &ClientModel{}
	m.FromDomain(c)
	return m
}

// InvoiceModel is the persistence model for the Invoice domain entity.
type InvoiceModel struct {
	TenantAggregateModel
	ClientID   uuid.UUID            `gorm:"type:uuid;not null;index"`
	Number     string               `gorm:"type:varchar(50);not null;uniqueIndex:idx_invoice_tenant_number,priority:2"`
	Total      decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	PaidAmount decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	Status     ledger.InvoiceStatus `gorm:"type:varchar(20);not null;default:'OPEN'"`
	IssuedAt   time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice entity.
func (m *InvoiceModel) ToDomain() *ledger.Invoice {
	invoice := &ledger.Invoice{
		ClientID:   m.ClientID,
		Number:     m.Number,
		Total:      m.Total,
		PaidAmount: m.PaidAmount,
		Status:     m.Status,
		IssuedAt:   m.IssuedAt,
	}
	m.PopulateTenantAggregateRoot(&invoice.TenantAggregateRoot)
	return invoice
}

// FromDomain populates the persistence model from a domain Invoice entity.
func (m *InvoiceModel) FromDomain(i *ledger.Invoice) {
	m.FromDomainTenantAggregateRoot(i.TenantAggregateRoot)
	m.ClientID = i.ClientID
	m.Number = i.Number
	m.Total = i.Total
	m.PaidAmount = i.PaidAmount
	m.Status = i.Status
	m.IssuedAt = i.IssuedAt
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice entity.
func InvoiceModelFromDomain(i *ledger.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(i)
	return m
}

// TransactionModel is the persistence model for the Transaction entity.
// Rows are append-only; the idempotency key carries a per-tenant unique index
// so a retried delivery can never insert twice.
type TransactionModel struct {
	BaseModel
	TenantID        uuid.UUID              `gorm:"type:uuid;not null;index;uniqueIndex:idx_tx_tenant_idem,priority:1"`
	ClientID        uuid.UUID              `gorm:"type:uuid;not null;index"`
	InvoiceID       *uuid.UUID             `gorm:"type:uuid;index"`
	Type            ledger.TransactionType `gorm:"type:varchar(20);not null"`
	Amount          decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	BalanceBefore   decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	BalanceAfter    decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	IdempotencyKey  *string                `gorm:"type:varchar(100);uniqueIndex:idx_tx_tenant_idem,priority:2"`
	Reference       string                 `gorm:"type:varchar(100)"`
	Remark          string                 `gorm:"type:text"`
	TransactionDate time.Time              `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (TransactionModel) TableName() string {
	return "transactions"
}

// ToDomain converts the persistence model to a domain Transaction entity.
func (m *TransactionModel) ToDomain() *ledger.Transaction {
	return &ledger.Transaction{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		TenantID:        m.TenantID,
		ClientID:        m.ClientID,
		InvoiceID:       m.InvoiceID,
		Type:            m.Type,
		Amount:          m.Amount,
		BalanceBefore:   m.BalanceBefore,
		BalanceAfter:    m.BalanceAfter,
		IdempotencyKey:  m.IdempotencyKey,
		Reference:       m.Reference,
		Remark:          m.Remark,
		TransactionDate: m.TransactionDate,
	}
}

// FromDomain populates the persistence model from a domain Transaction entity.
func (m *TransactionModel) FromDomain(t *ledger.Transaction) {
	m.FromDomainBaseEntity(t.BaseEntity)
	m.TenantID = t.TenantID
	m.ClientID = t.ClientID
	m.InvoiceID = t.InvoiceID
	m.Type = t.Type
	m.Amount = t.Amount
	m.BalanceBefore = t.BalanceBefore
	m.BalanceAfter = t.BalanceAfter
	m.IdempotencyKey = t.IdempotencyKey
	m.Reference = t.Reference
	m.Remark = t.Remark
	m.TransactionDate = t.TransactionDate
}

// TransactionModelFromDomain creates a new persistence model from a domain Transaction entity.
func TransactionModelFromDomain(t *ledger.Transaction) *TransactionModel {
	m := &TransactionModel{}
	m.FromDomain(t)
	return m
}
