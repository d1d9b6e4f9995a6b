// Package licensing fetches subscription and support plan details from the
// marketplace API. Lookups are best-effort enrichment: every failure path
// returns the zero-value license shape, never an error.
package licensing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-intake/internal/domain"
)

// planDisplayNames maps plan ids to human readable names, mirroring the
// publisher portal's display table.
var planDisplayNames = map[string]string{
	"free-trial-v1-0":          "Free Trial",
	"free-trial-checkbox-v1-0": "Free Trial (30 Days)",
	"basic-v1-0":               "Basic",
	"standard-v1-0":            "Standard",
	"pro-v1-0":                 "Professional",
	"premium-v1-0":             "Premium",
	"enterprise-v1-0":          "Enterprise",
	"personal-v1-0":            "Personal",
	"installer-v1-0":           "Installer Pro",
	"solo-v1-0":                "Solo",
	"solo-monthly-v1-0":        "Solo (Monthly)",
	"team-v1-0":                "Team",
	"business-v1-0":            "Business",
	"internal-test-v1-0":       "Internal Test",
}

// prioritySupportPlans lists product plans that include priority support.
var prioritySupportPlans = map[string]bool{
	"pro-v1-0":        true,
	"premium-v1-0":    true,
	"enterprise-v1-0": true,
}

// supportOfferIDs identifies standalone support subscriptions.
var supportOfferIDs = map[string]bool{
	"terprint-support-standard": true,
	"terprint-support-premium":  true,
	"terprint-managed-services": true,
}

var supportPlanNames = map[string]string{
	"terprint-support-standard": "Standard Support",
	"terprint-support-premium":  "Premium Support",
	"terprint-managed-services": "Managed Services",
}

type lookupResponse struct {
	HasActiveSubscription bool `json:"hasActiveSubscription"`
	Subscriptions         []struct {
		OfferID               string `json:"offerId"`
		PlanID                string `json:"planId"`
		PlanDisplayName       string `json:"planDisplayName"`
		Status                string `json:"status"`
		IsFreeTrial           bool   `json:"isFreeTrial"`
		FreeTrialEndDate      string `json:"freeTrialEndDate"`
		SubscriptionStartDate string `json:"subscriptionStartDate"`
		SubscriptionEndDate   string `json:"subscriptionEndDate"`
	} `json:"subscriptions"`
}

// Client calls the marketplace subscription-lookup endpoint.
type Client struct {
	baseURL    string
	apimKey    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds a licensing client against the APIM base URL.
func NewClient(apimBaseURL, apimKey string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    apimBaseURL + "/marketplace/api",
		apimKey:    apimKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// GetLicenseInfo looks up subscriptions for the given email and classifies
// them into product and standalone support plans.
func (c *Client) GetLicenseInfo(ctx context.Context, email string) domain.LicenseInfo {
	result := domain.NoLicense()
	if email == "" {
		return result
	}

	endpoint := c.baseURL + "/subscription-lookup?email=" + url.QueryEscape(email)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.logger.Warn("licensing request build failed", zap.Error(err))
		return result
	}
	if c.apimKey != "" {
		req.Header.Set("Ocp-Apim-Subscription-Key", c.apimKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("subscription lookup failed", zap.String("email", email), zap.Error(err))
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("subscription lookup non-200",
			zap.String("email", email), zap.Int("status", resp.StatusCode))
		return result
	}

	var data lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		c.logger.Warn("subscription lookup decode failed", zap.Error(err))
		return result
	}

	return classify(data)
}

// classify partitions subscriptions into product vs standalone support and
// derives the primary plan, trial state and support tier.
func classify(data lookupResponse) domain.LicenseInfo {
	result := domain.NoLicense()
	result.HasLicense = data.HasActiveSubscription

	var productSubs, supportSubs []domain.SubscriptionSummary
	for _, sub := range data.Subscriptions {
		planName := sub.PlanDisplayName
		if planName == "" {
			if display, ok := planDisplayNames[sub.PlanID]; ok {
				planName = display
			} else {
				planName = sub.PlanID
			}
		}
		summary := domain.SubscriptionSummary{
			OfferID:           sub.OfferID,
			PlanID:            sub.PlanID,
			PlanName:          planName,
			Status:            sub.Status,
			IsFreeTrial:       sub.IsFreeTrial,
			FreeTrialEnd:      sub.FreeTrialEndDate,
			SubscriptionStart: sub.SubscriptionStartDate,
			SubscriptionEnd:   sub.SubscriptionEndDate,
		}
		if supportOfferIDs[sub.OfferID] {
			supportSubs = append(supportSubs, summary)
		} else {
			productSubs = append(productSubs, summary)
		}
	}
	result.Subscriptions = append(productSubs, supportSubs...)
	if result.Subscriptions == nil {
		result.Subscriptions = []domain.SubscriptionSummary{}
	}

	if active := firstActive(productSubs); active != nil {
		result.PlanID = active.PlanID
		result.PlanName = active.PlanName
		result.Status = active.Status
		result.IsFreeTrial = active.IsFreeTrial
		result.FreeTrialEnd = active.FreeTrialEnd
		if prioritySupportPlans[active.PlanID] {
			result.HasPrioritySupport = true
		}
	}

	if active := firstActive(supportSubs); active != nil {
		if name, ok := supportPlanNames[active.OfferID]; ok {
			result.SupportPlan = name
		} else {
			result.SupportPlan = active.PlanName
		}
		result.HasPrioritySupport = true
	}

	return result
}

func firstActive(subs []domain.SubscriptionSummary) *domain.SubscriptionSummary {
	for i := range subs {
		if subs[i].Status == "Subscribed" || subs[i].Status == "PendingActivation" {
			return &subs[i]
		}
	}
	return nil
}
