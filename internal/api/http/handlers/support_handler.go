package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-intake/internal/api/dto"
	"github.com/spec-kit/support-intake/internal/repository"
	"github.com/spec-kit/support-intake/internal/service"
	apperrors "github.com/spec-kit/support-intake/pkg/util"
)

// SupportHandler exposes the ticket intake endpoints.
type SupportHandler struct {
	submissions *service.SubmissionService
	widget      *service.WidgetService
	licenses    *service.LicenseService
}

// NewSupportHandler constructs handler.
func NewSupportHandler(submissions *service.SubmissionService, widget *service.WidgetService, licenses *service.LicenseService) *SupportHandler {
	return &SupportHandler{submissions: submissions, widget: widget, licenses: licenses}
}

// Submit POST /api/support/submit.
func (h *SupportHandler) Submit(c *fiber.Ctx) error {
	var req dto.SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	sub, err := req.Validate()
	if err != nil {
		return err
	}

	result, err := h.submissions.Submit(c.UserContext(), sub)
	if err != nil {
		return err
	}
	return c.JSON(dto.SubmitResponse{
		TicketID:          result.TicketID,
		DevOpsWorkItemID:  result.WorkItemID,
		DevOpsWorkItemURL: result.WorkItemURL,
		Status:            "created",
		Message:           "Your support request has been submitted. We'll review it shortly.",
	})
}

// WidgetConfig GET /api/support/config/:app_id.
func (h *SupportHandler) WidgetConfig(c *fiber.Ctx) error {
	cfg, err := h.widget.Config(c.Params("app_id"))
	if err != nil {
		return err
	}
	return c.JSON(cfg)
}

// ListTickets GET /api/support/tickets.
func (h *SupportHandler) ListTickets(c *fiber.Ctx) error {
	limit := 25
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	records, err := h.submissions.ListTickets(c.UserContext(), repository.TicketFilter{
		AppID:     c.Query("app_id"),
		UserEmail: c.Query("email"),
		Limit:     limit,
	})
	if err != nil {
		return err
	}
	summaries := make([]dto.TicketSummary, 0, len(records))
	for _, record := range records {
		summaries = append(summaries, dto.NewTicketSummary(record))
	}
	return c.JSON(summaries)
}

// LicenseInfo GET /api/support/license-info. Lookup failures never error;
// the zero-value shape is a valid answer.
func (h *SupportHandler) LicenseInfo(c *fiber.Ctx) error {
	return c.JSON(h.licenses.GetLicenseInfo(c.UserContext(), c.Query("email")))
}

// ReloadRoutes POST /api/support/routes/reload. Operator action; swaps in
// the routing file contents without a restart.
func (h *SupportHandler) ReloadRoutes(c *fiber.Ctx) error {
	count := h.submissions.ReloadRoutes()
	return c.JSON(fiber.Map{"status": "reloaded", "routes": count})
}
