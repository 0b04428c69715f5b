package identity

import (
	"context"

	"github.com/ledgerly/backend/internal/domain/identity"
)

// ResolverService maps a phone number to the tenant-scoped account email(s)
// registered under it. Resolution is a pure read: no side effects, no
// locking. A phone registered in several tenants resolves to multiple
// matches; picking the right one is the caller's decision.
type ResolverService struct {
	identityRepo identity.AccountIdentityRepository
}

// NewResolverService creates a new ResolverService
func NewResolverService(identityRepo identity.AccountIdentityRepository) *ResolverService {
	return &ResolverService{identityRepo: identityRepo}
}

// Resolve maps a phone number to account email(s) across all tenants.
// The phone format is validated before any lookup; malformed input never
// reaches the store. Zero matches is a normal outcome, not an error.
func (s *ResolverService) Resolve(ctx context.Context, phone string) (identity.Resolution, error) {
	if err := identity.ValidatePhone(phone); err != nil {
		return identity.Resolution{}, err
	}

	identities, err := s.identityRepo.FindByPhone(ctx, phone)
	if err != nil {
		return identity.Resolution{}, err
	}

	seen := make(map[string]struct{}, len(identities))
	emails := make([]string, 0, len(identities))
	for _, ident := range identities {
		if _, dup := seen[ident.Email]; dup {
			continue
		}
		seen[ident.Email] = struct{}{}
		emails = append(emails, ident.Email)
	}

	return identity.NewResolution(emails), nil
}
