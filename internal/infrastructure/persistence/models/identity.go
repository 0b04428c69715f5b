package models

import (
	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/identity"
	"github.com/ledgerly/backend/internal/domain/shared"
)

// TenantModel is the persistence model for the Tenant domain entity.
type TenantModel struct {
	AggregateModel
	Code   string                `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name   string                `gorm:"type:varchar(200);not null"`
	Status identity.TenantStatus `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (TenantModel) TableName() string {
	return "tenants"
}

// ToDomain converts the persistence model to a domain Tenant entity.
func (m *TenantModel) ToDomain() *identity.Tenant {
	return &identity.Tenant{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: m.BaseModel.ToDomain(),
			Version:    m.Version,
		},
		Code:   m.Code,
		Name:   m.Name,
		Status: m.Status,
	}
}

// FromDomain populates the persistence model from a domain Tenant entity.
func (m *TenantModel) FromDomain(t *identity.Tenant) {
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	m.Code = t.Code
	m.Name = t.Name
	m.Status = t.Status
}

// TenantModelFromDomain creates a new persistence model from a domain Tenant entity.
func TenantModelFromDomain(t *identity.Tenant) *TenantModel {
	m := &TenantModel{}
	m.FromDomain(t)
	return m
}

// AccountIdentityModel is the persistence model for the AccountIdentity
// entity. The phone column is indexed on its own because resolution looks up
// by phone across all tenants.
type AccountIdentityModel struct {
	BaseModel
	TenantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_identity_phone_tenant,priority:2"`
	Phone    string    `gorm:"type:varchar(20);not null;index;uniqueIndex:idx_identity_phone_tenant,priority:1"`
	Email    string    `gorm:"type:varchar(200);not null;index"`
}

// TableName returns the table name for GORM
func (AccountIdentityModel) TableName() string {
	return "account_identities"
}

// ToDomain converts the persistence model to a domain AccountIdentity entity.
func (m *AccountIdentityModel) ToDomain() *identity.AccountIdentity {
	return &identity.AccountIdentity{
		BaseEntity: m.BaseModel.ToDomain(),
		TenantID:   m.TenantID,
		Phone:      m.Phone,
		Email:      m.Email,
	}
}

// FromDomain populates the persistence model from a domain AccountIdentity entity.
func (m *AccountIdentityModel) FromDomain(a *identity.AccountIdentity) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.TenantID = a.TenantID
	m.Phone = a.Phone
	m.Email = a.Email
}

// AccountIdentityModelFromDomain creates a new persistence model from a domain AccountIdentity entity.
func AccountIdentityModelFromDomain(a *identity.AccountIdentity) *AccountIdentityModel {
	m := &AccountIdentityModel{}
	m.FromDomain(a)
	return m
}
