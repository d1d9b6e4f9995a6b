package routing

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/support-intake/internal/domain"
)

const sampleRoutes = `
routes:
  - app_id: terprint-web
    devops_project: Terprint
    area_path: Terprint\Support
    app_name: Terprint Web
  - app_id: gridsight
    devops_project: GridSight
    area_path: GridSight\Support
    app_name: GridSight
  - app_id: _default
    devops_project: Infrastructure
    area_path: Infrastructure\Support
    app_name: Acidni
`

func writeRoutes(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "support-routing.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResolveKnownApp(t *testing.T) {
	table := NewTable(writeRoutes(t, sampleRoutes), zap.NewNop())

	route, ok := table.Resolve("terprint-web")
	if !ok {
		t.Fatal("expected terprint-web to resolve")
	}
	if route.DevOpsProject != "Terprint" {
		t.Errorf("project = %q, want Terprint", route.DevOpsProject)
	}
	if route.AreaPath != `Terprint\Support` {
		t.Errorf("area path = %q", route.AreaPath)
	}
	if route.AppName != "Terprint Web" {
		t.Errorf("app name = %q", route.AppName)
	}
}

func TestResolveAllConfiguredApps(t *testing.T) {
	table := NewTable(writeRoutes(t, sampleRoutes), zap.NewNop())

	for _, id := range table.AppIDs() {
		route, ok := table.Resolve(id)
		if !ok {
			t.Fatalf("configured app %q did not resolve", id)
		}
		if route.DevOpsProject == "" {
			t.Errorf("app %q has empty project", id)
		}
		if route.EffectiveAreaPath() == "" {
			t.Errorf("app %q has empty area path", id)
		}
		if route.EffectiveAppName(id) == "" {
			t.Errorf("app %q has empty app name", id)
		}
	}
}

func TestUnknownAppFallsBackToDefault(t *testing.T) {
	table := NewTable(writeRoutes(t, sampleRoutes), zap.NewNop())

	fallback, ok := table.ResolveWithFallback("completely-unknown-app")
	if !ok {
		t.Fatal("expected fallback route")
	}
	def, _ := table.Resolve(domain.FallbackAppID)
	if fallback != def {
		t.Errorf("fallback = %+v, want the _default route %+v", fallback, def)
	}
}

func TestAppIDsExcludesReservedKeys(t *testing.T) {
	table := NewTable(writeRoutes(t, sampleRoutes), zap.NewNop())

	for _, id := range table.AppIDs() {
		if id == domain.FallbackAppID {
			t.Errorf("AppIDs included reserved key %q", id)
		}
	}
	if got := len(table.AppIDs()); got != 2 {
		t.Errorf("len(AppIDs) = %d, want 2", got)
	}
}

func TestMissingFileLoadsEmpty(t *testing.T) {
	table := NewTable(filepath.Join(t.TempDir(), "absent.yaml"), zap.NewNop())

	if _, ok := table.ResolveWithFallback("anything"); ok {
		t.Error("expected no route from an empty table")
	}
	if ids := table.AppIDs(); len(ids) != 0 {
		t.Errorf("AppIDs = %v, want empty", ids)
	}
}

func TestMalformedFileLoadsEmpty(t *testing.T) {
	table := NewTable(writeRoutes(t, "routes: [not: {valid"), zap.NewNop())

	if ids := table.AppIDs(); len(ids) != 0 {
		t.Errorf("AppIDs = %v, want empty", ids)
	}
}

func TestReloadPicksUpNewRoutes(t *testing.T) {
	path := writeRoutes(t, sampleRoutes)
	table := NewTable(path, zap.NewNop())

	if _, ok := table.Resolve("solar"); ok {
		t.Fatal("solar should not resolve yet")
	}

	extended := sampleRoutes + `
  - app_id: solar
    devops_project: SolarReporting
    area_path: SolarReporting\Support
    app_name: Solar
`
	if err := os.WriteFile(path, []byte(extended), 0o600); err != nil {
		t.Fatal(err)
	}

	if count := table.Reload(); count != 4 {
		t.Errorf("Reload = %d routes, want 4", count)
	}
	route, ok := table.Resolve("solar")
	if !ok || route.DevOpsProject != "SolarReporting" {
		t.Errorf("solar route after reload = %+v, ok=%v", route, ok)
	}
}

func TestReloadReplacesNotMerges(t *testing.T) {
	path := writeRoutes(t, sampleRoutes)
	table := NewTable(path, zap.NewNop())

	if err := os.WriteFile(path, []byte("routes:\n  - app_id: only-one\n    devops_project: P\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	table.Reload()

	if _, ok := table.Resolve("terprint-web"); ok {
		t.Error("old route survived a reload; reload must replace, not merge")
	}
	if _, ok := table.Resolve("only-one"); !ok {
		t.Error("new route missing after reload")
	}
}
