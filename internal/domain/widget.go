package domain

// WidgetCategory describes one selectable category in the widget UI.
type WidgetCategory struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Icon       string `json:"icon"`
	DevOpsType string `json:"devops_type"`
}

// WidgetBranding carries widget appearance settings.
type WidgetBranding struct {
	PrimaryColor string `json:"primary_color"`
	LogoURL      string `json:"logo_url,omitempty"`
	Position     string `json:"position"`
}

// DefaultBranding returns the stock widget appearance.
func DefaultBranding() WidgetBranding {
	return WidgetBranding{PrimaryColor: "#2563eb", Position: "bottom-right"}
}

// WidgetConfig is the per-app configuration returned to the embedded widget.
type WidgetConfig struct {
	AppID         string           `json:"app_id"`
	AppName       string           `json:"app_name"`
	Categories    []WidgetCategory `json:"categories"`
	Fields        map[string]bool  `json:"fields"`
	Branding      WidgetBranding   `json:"branding"`
	DevOpsProject string           `json:"devops_project"`
	AreaPath      string           `json:"area_path"`
}
