package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/support-intake/internal/domain"
	apperrors "github.com/spec-kit/support-intake/pkg/util"
)

const maxScreenshotChars = 7_000_000

// SubmitRequest is the widget's submission payload.
type SubmitRequest struct {
	AppID            string                `json:"app_id"`
	Category         string                `json:"category"`
	Subject          string                `json:"subject"`
	Description      string                `json:"description"`
	Priority         *int                  `json:"priority"`
	UserEmail        string                `json:"user_email"`
	UserName         string                `json:"user_name"`
	Context          *domain.SubmitContext `json:"context"`
	LicenseInfo      *domain.LicenseInfo   `json:"license_info"`
	ScreenshotBase64 string                `json:"screenshot_base64"`
}

// Validate checks every bound before any collaborator is invoked and
// returns the validated submission.
func (r SubmitRequest) Validate() (domain.Submission, error) {
	details := map[string]any{}

	if strings.TrimSpace(r.AppID) == "" {
		details["app_id"] = "required"
	}
	category := domain.Category(r.Category)
	if !category.Valid() {
		details["category"] = fmt.Sprintf("must be one of bug, feature, feedback, question; got %q", r.Category)
	}
	if l := len(r.Subject); l < 5 || l > 200 {
		details["subject"] = fmt.Sprintf("length must be 5-200, got %d", l)
	}
	if l := len(r.Description); l < 10 || l > 5000 {
		details["description"] = fmt.Sprintf("length must be 10-5000, got %d", l)
	}
	priority := 3
	if r.Priority != nil {
		priority = *r.Priority
		if priority < 1 || priority > 4 {
			details["priority"] = fmt.Sprintf("must be 1-4, got %d", priority)
		}
	}
	if len(r.ScreenshotBase64) > maxScreenshotChars {
		details["screenshot_base64"] = "too large"
	}

	if len(details) > 0 {
		return domain.Submission{}, apperrors.NewValidationError("invalid submission", details)
	}

	return domain.Submission{
		AppID:            r.AppID,
		Category:         category,
		Subject:          r.Subject,
		Description:      r.Description,
		Priority:         priority,
		UserEmail:        r.UserEmail,
		UserName:         r.UserName,
		Context:          r.Context,
		License:          r.LicenseInfo,
		ScreenshotBase64: r.ScreenshotBase64,
	}, nil
}

// SubmitResponse is returned after a successful submission.
type SubmitResponse struct {
	TicketID          string `json:"ticket_id"`
	DevOpsWorkItemID  int    `json:"devops_work_item_id"`
	DevOpsWorkItemURL string `json:"devops_work_item_url"`
	Status            string `json:"status"`
	Message           string `json:"message"`
}

// TicketSummary is the caller-safe subset of a stored ticket.
type TicketSummary struct {
	TicketID         string          `json:"ticket_id"`
	AppID            string          `json:"app_id"`
	Category         domain.Category `json:"category"`
	Subject          string          `json:"subject"`
	Status           string          `json:"status"`
	Priority         int             `json:"priority"`
	CreatedAt        time.Time       `json:"created_at"`
	DevOpsWorkItemID int             `json:"devops_work_item_id,omitempty"`
}

// NewTicketSummary strips internal fields from a ticket record.
func NewTicketSummary(ticket domain.TicketRecord) TicketSummary {
	return TicketSummary{
		TicketID:         ticket.ID,
		AppID:            ticket.AppID,
		Category:         ticket.Category,
		Subject:          ticket.Subject,
		Status:           ticket.Status,
		Priority:         ticket.Priority,
		CreatedAt:        ticket.CreatedAt,
		DevOpsWorkItemID: ticket.DevOps.WorkItemID,
	}
}

// HealthResponse is the health probe payload.
type HealthResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Service     string `json:"service"`
}
