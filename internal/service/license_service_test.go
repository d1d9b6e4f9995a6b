package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/support-intake/internal/cache"
	"github.com/spec-kit/support-intake/internal/domain"
)

func newLicenseService(t *testing.T, lookup *fakeLicenses) *LicenseService {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLicenseService(lookup, cache.NewLicenseCache(client, 15*time.Minute, zap.NewNop()))
}

func TestLicenseCacheHitSkipsUpstream(t *testing.T) {
	lookup := &fakeLicenses{info: domain.LicenseInfo{HasLicense: true, PlanName: "Team"}}
	svc := newLicenseService(t, lookup)
	ctx := context.Background()

	first := svc.GetLicenseInfo(ctx, "user@example.com")
	second := svc.GetLicenseInfo(ctx, "user@example.com")

	if lookup.calls != 1 {
		t.Errorf("upstream calls = %d, want 1 (second served from cache)", lookup.calls)
	}
	if first.PlanName != "Team" || second.PlanName != "Team" {
		t.Errorf("results = %+v / %+v", first, second)
	}
}

func TestLicenseNegativeResultNotCached(t *testing.T) {
	lookup := &fakeLicenses{info: domain.NoLicense()}
	svc := newLicenseService(t, lookup)
	ctx := context.Background()

	svc.GetLicenseInfo(ctx, "user@example.com")
	svc.GetLicenseInfo(ctx, "user@example.com")

	if lookup.calls != 2 {
		t.Errorf("upstream calls = %d, want 2 (failures are retried)", lookup.calls)
	}
}

func TestLicenseEmptyEmail(t *testing.T) {
	lookup := &fakeLicenses{}
	svc := newLicenseService(t, lookup)

	info := svc.GetLicenseInfo(context.Background(), "")
	if info.HasLicense || lookup.calls != 0 {
		t.Errorf("empty email must short-circuit, info=%+v calls=%d", info, lookup.calls)
	}
}
