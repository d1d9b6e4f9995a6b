package domain

// SubscriptionSummary is one marketplace subscription as echoed into
// tickets and widget responses.
type SubscriptionSummary struct {
	OfferID           string `json:"offer_id"`
	PlanID            string `json:"plan_id"`
	PlanName          string `json:"plan_name"`
	Status            string `json:"status"`
	IsFreeTrial       bool   `json:"is_free_trial"`
	FreeTrialEnd      string `json:"free_trial_end,omitempty"`
	SubscriptionStart string `json:"subscription_start,omitempty"`
	SubscriptionEnd   string `json:"subscription_end,omitempty"`
}

// LicenseInfo is best-effort enrichment from the marketplace subscription
// lookup. It is echoed into work item descriptions and ticket records but
// never treated as a source of truth.
type LicenseInfo struct {
	HasLicense         bool                  `json:"has_license"`
	PlanName           string                `json:"plan_name,omitempty"`
	PlanID             string                `json:"plan_id,omitempty"`
	Status             string                `json:"status,omitempty"`
	IsFreeTrial        bool                  `json:"is_free_trial"`
	FreeTrialEnd       string                `json:"free_trial_end,omitempty"`
	HasPrioritySupport bool                  `json:"has_priority_support"`
	SupportPlan        string                `json:"support_plan,omitempty"`
	Subscriptions      []SubscriptionSummary `json:"subscriptions"`
}

// NoLicense returns the fully-populated zero-value shape used whenever a
// lookup fails or the user has no subscriptions.
func NoLicense() LicenseInfo {
	return LicenseInfo{Subscriptions: []SubscriptionSummary{}}
}
