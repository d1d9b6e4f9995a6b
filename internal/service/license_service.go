package service

import (
	"context"

	"github.com/spec-kit/support-intake/internal/cache"
	"github.com/spec-kit/support-intake/internal/domain"
)

// LicenseService fronts the marketplace lookup with a read-through cache.
// Both the cache and the upstream are best-effort; the zero-value shape is
// always a valid answer.
type LicenseService struct {
	lookup LicenseLookup
	cache  *cache.LicenseCache
}

// NewLicenseService constructs the service.
func NewLicenseService(lookup LicenseLookup, licenseCache *cache.LicenseCache) *LicenseService {
	return &LicenseService{lookup: lookup, cache: licenseCache}
}

// GetLicenseInfo returns license info for the email, from cache when
// available. Failed lookups are not cached so a recovering upstream is
// retried on the next request.
func (s *LicenseService) GetLicenseInfo(ctx context.Context, email string) domain.LicenseInfo {
	if email == "" {
		return domain.NoLicense()
	}
	if info, ok := s.cache.Get(ctx, email); ok {
		return info
	}
	info := s.lookup.GetLicenseInfo(ctx, email)
	if info.HasLicense {
		s.cache.Set(ctx, email, info)
	}
	return info
}
