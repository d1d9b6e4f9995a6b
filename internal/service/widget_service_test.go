package service

import (
	"testing"
)

func TestWidgetConfigForKnownApp(t *testing.T) {
	svc := NewWidgetService(newTestTable(t, testRoutes))

	cfg, err := svc.Config("terprint-web")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AppName != "Terprint Web" {
		t.Errorf("app name = %q", cfg.AppName)
	}
	if cfg.DevOpsProject != "Terprint" || cfg.AreaPath != `Terprint\Support` {
		t.Errorf("routing = %q / %q", cfg.DevOpsProject, cfg.AreaPath)
	}
	if len(cfg.Categories) != 4 {
		t.Errorf("categories = %d, want 4", len(cfg.Categories))
	}
	for _, field := range []string{"priority", "screenshot", "email"} {
		if !cfg.Fields[field] {
			t.Errorf("field %q should be enabled", field)
		}
	}
	if cfg.Branding.PrimaryColor != "#2563eb" || cfg.Branding.Position != "bottom-right" {
		t.Errorf("branding = %+v", cfg.Branding)
	}
}

func TestWidgetConfigFallsBackToDefault(t *testing.T) {
	svc := NewWidgetService(newTestTable(t, testRoutes))

	cfg, err := svc.Config("unknown-app")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AppID != "unknown-app" {
		t.Errorf("app id = %q, must echo the requested id", cfg.AppID)
	}
	if cfg.DevOpsProject != "Infrastructure" {
		t.Errorf("project = %q, want the _default route", cfg.DevOpsProject)
	}
}

func TestWidgetConfigNotFoundWithoutRouting(t *testing.T) {
	svc := NewWidgetService(newTestTable(t, "routes: []\n"))

	if _, err := svc.Config("anything"); err == nil {
		t.Fatal("expected not found when neither app nor default resolves")
	}
}
