package identity

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/domain/shared"
)

// Phone numbers are exactly 10 digits starting with 0.
var phonePattern = regexp.MustCompile(`^0\d{9}$`)

// Account email naming schemes. The new format embeds the tenant code after
// the phone number; the two legacy formats carry the phone number alone.
var (
	newFormatPattern    = regexp.MustCompile(`^(0\d{9})-[^-]+@client\.internal$`)
	legacyClientPattern = regexp.MustCompile(`^(0\d{9})@client\.internal$`)
	legacyOwnerPattern  = regexp.MustCompile(`^(0\d{9})@owner\.internal$`)
)

// ErrInvalidPhone is returned for any phone input not matching the fixed
// 10-digit local pattern. Rejected before any lookup.
var ErrInvalidPhone = shared.NewDomainError("INVALID_PHONE", "Invalid phone number format")

// ValidatePhone checks that phone matches the fixed local format
func ValidatePhone(phone string) error {
	if !phonePattern.MatchString(phone) {
		return ErrInvalidPhone
	}
	return nil
}

// NewFormatEmail builds the current account email for a phone within a tenant
func NewFormatEmail(phone, tenantCode string) string {
	return fmt.Sprintf("%s-%s@client.internal", phone, tenantCode)
}

// LegacyClientEmail builds the legacy client-account email for a phone
func LegacyClientEmail(phone string) string {
	return fmt.Sprintf("%s@client.internal", phone)
}

// LegacyOwnerEmail builds the legacy owner-account email for a phone
func LegacyOwnerEmail(phone string) string {
	return fmt.Sprintf("%s@owner.internal", phone)
}

// PhoneFromEmail extracts the phone number from an account email in any
// supported naming scheme. Returns false for emails outside the schemes.
func PhoneFromEmail(email string) (string, bool) {
	for _, p := range []*regexp.Regexp{newFormatPattern, legacyClientPattern, legacyOwnerPattern} {
		if m := p.FindStringSubmatch(email); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// TenantCodeFromEmail extracts the tenant code from a new-format account
// email. Legacy emails carry no tenant code.
func TenantCodeFromEmail(email string) (string, bool) {
	m := newFormatPattern.FindStringSubmatch(email)
	if m == nil {
		return "", false
	}
	rest := strings.TrimPrefix(email, m[1]+"-")
	return strings.TrimSuffix(rest, "@client.internal"), true
}

// AccountIdentity maps a (phone, tenant) pair to the account email used for
// login. The same phone may map to identities in several tenants;
// cross-tenant ambiguity is expected, not an error.
type AccountIdentity struct {
	shared.BaseEntity
	TenantID uuid.UUID
	Phone    string
	Email    string
}

// NewAccountIdentity creates a new account identity
func NewAccountIdentity(tenantID uuid.UUID, phone, email string) (*AccountIdentity, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if err := ValidatePhone(phone); err != nil {
		return nil, err
	}
	if email == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Email cannot be empty")
	}
	if p, ok := PhoneFromEmail(email); !ok || p != phone {
		return nil, shared.NewDomainError("INVALID_INPUT", "Email does not encode the identity's phone number")
	}

	return &AccountIdentity{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		Phone:      phone,
		Email:      email,
	}, nil
}
