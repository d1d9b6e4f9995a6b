package domain

// Route maps one application identifier to an Azure DevOps destination.
type Route struct {
	AppID         string `yaml:"app_id"`
	DevOpsProject string `yaml:"devops_project"`
	AreaPath      string `yaml:"area_path"`
	AppName       string `yaml:"app_name"`
}

// FallbackAppID is the reserved routing key consulted when an app_id has
// no route of its own.
const FallbackAppID = "_default"

// EffectiveAreaPath returns the configured area path, defaulting to the
// project root when absent.
func (r Route) EffectiveAreaPath() string {
	if r.AreaPath != "" {
		return r.AreaPath
	}
	return r.DevOpsProject
}

// EffectiveAppName returns the display name, defaulting to the given app id.
func (r Route) EffectiveAppName(appID string) string {
	if r.AppName != "" {
		return r.AppName
	}
	return appID
}
