package service

import (
	"github.com/spec-kit/support-intake/internal/domain"
	"github.com/spec-kit/support-intake/internal/routing"
	apperrors "github.com/spec-kit/support-intake/pkg/util"
)

// defaultCategories is the fixed category set shown by the widget.
var defaultCategories = []domain.WidgetCategory{
	{ID: "bug", Label: "Report a Bug", Icon: "🐛", DevOpsType: "Bug"},
	{ID: "feature", Label: "Request a Feature", Icon: "💡", DevOpsType: "Task"},
	{ID: "feedback", Label: "Give Feedback", Icon: "💬", DevOpsType: "Task"},
	{ID: "question", Label: "Ask a Question", Icon: "❓", DevOpsType: "Task"},
}

// WidgetService resolves per-app widget configuration.
type WidgetService struct {
	routes *routing.Table
}

// NewWidgetService constructs the service.
func NewWidgetService(routes *routing.Table) *WidgetService {
	return &WidgetService{routes: routes}
}

// Config returns the widget configuration for an app, using the same
// resolve-with-fallback logic as submission. Categories and field flags
// are fixed configuration, not derived from routing.
func (s *WidgetService) Config(appID string) (*domain.WidgetConfig, error) {
	route, ok := s.routes.ResolveWithFallback(appID)
	if !ok {
		return nil, apperrors.NewNotFound("widget configuration", map[string]any{"app_id": appID})
	}

	categories := make([]domain.WidgetCategory, len(defaultCategories))
	copy(categories, defaultCategories)

	return &domain.WidgetConfig{
		AppID:         appID,
		AppName:       route.EffectiveAppName(appID),
		Categories:    categories,
		Fields:        map[string]bool{"priority": true, "screenshot": true, "email": true},
		Branding:      domain.DefaultBranding(),
		DevOpsProject: route.DevOpsProject,
		AreaPath:      route.EffectiveAreaPath(),
	}, nil
}
