package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"html"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/support-intake/internal/devops"
	"github.com/spec-kit/support-intake/internal/domain"
	"github.com/spec-kit/support-intake/internal/events"
	"github.com/spec-kit/support-intake/internal/repository"
	"github.com/spec-kit/support-intake/internal/routing"
	apperrors "github.com/spec-kit/support-intake/pkg/util"
)

// WorkItemCreator is the issue tracker boundary.
type WorkItemCreator interface {
	CreateWorkItem(ctx context.Context, input devops.WorkItemInput) (*devops.WorkItem, error)
}

// LicenseLookup is the subscription enrichment boundary.
type LicenseLookup interface {
	GetLicenseInfo(ctx context.Context, email string) domain.LicenseInfo
}

// categoryWorkItemTypes maps every category to a work item type. Bug maps
// to Bug; everything else is a generic Task.
var categoryWorkItemTypes = map[domain.Category]string{
	domain.CategoryBug:      "Bug",
	domain.CategoryFeature:  "Task",
	domain.CategoryFeedback: "Task",
	domain.CategoryQuestion: "Task",
}

var categoryTitlePrefixes = map[domain.Category]string{
	domain.CategoryBug:      "[Support]",
	domain.CategoryFeature:  "[Feature Request]",
	domain.CategoryFeedback: "[Feedback]",
	domain.CategoryQuestion: "[Question]",
}

var categoryTagPrefixes = map[domain.Category]string{
	domain.CategoryBug:      "support-widget; customer-reported",
	domain.CategoryFeature:  "support-widget; feature-request",
	domain.CategoryFeedback: "support-widget; customer-feedback",
	domain.CategoryQuestion: "support-widget; customer-question",
}

// SubmissionResult is returned after a successful submission.
type SubmissionResult struct {
	TicketID    string
	WorkItemID  int
	WorkItemURL string
}

// SubmissionDependencies bundles collaborators for the orchestrator.
type SubmissionDependencies struct {
	Routes     *routing.Table
	DevOps     WorkItemCreator
	Tickets    repository.TicketRepository
	Licenses   LicenseLookup
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	DevOpsOrg  string
}

// SubmissionService orchestrates ticket submission: routing resolution,
// work item creation, persistence and notification. Only the work item
// creation is fatal; storage, enrichment and email are best-effort.
type SubmissionService struct {
	routes     *routing.Table
	devops     WorkItemCreator
	tickets    repository.TicketRepository
	licenses   LicenseLookup
	dispatcher events.Dispatcher
	logger     *zap.Logger
	org        string
}

// NewSubmissionService constructs the service.
func NewSubmissionService(deps SubmissionDependencies) *SubmissionService {
	return &SubmissionService{
		routes:     deps.Routes,
		devops:     deps.DevOps,
		tickets:    deps.Tickets,
		licenses:   deps.Licenses,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		org:        deps.DevOpsOrg,
	}
}

// Submit runs the intake pipeline for a validated submission.
func (s *SubmissionService) Submit(ctx context.Context, sub domain.Submission) (*SubmissionResult, error) {
	route, ok := s.routes.ResolveWithFallback(sub.AppID)
	if !ok {
		return nil, apperrors.NewBadRequest(
			fmt.Sprintf("unknown app_id: %s, no routing configured", sub.AppID), nil)
	}

	workItemType := categoryWorkItemTypes[sub.Category]
	if workItemType == "" {
		workItemType = "Task"
	}

	// Enrich with license info when the widget did not send it.
	if sub.License == nil && sub.UserEmail != "" && s.licenses != nil {
		info := s.licenses.GetLicenseInfo(ctx, sub.UserEmail)
		sub.License = &info
	}

	description := buildDescription(sub, route)
	tags := fmt.Sprintf("%s; %s", categoryTagPrefixes[sub.Category], sub.AppID)
	title := fmt.Sprintf("%s %s", categoryTitlePrefixes[sub.Category], sub.Subject)

	workItem, err := s.devops.CreateWorkItem(ctx, devops.WorkItemInput{
		Project:      route.DevOpsProject,
		WorkItemType: workItemType,
		Title:        title,
		Description:  description,
		AreaPath:     route.EffectiveAreaPath(),
		Priority:     sub.Priority,
		Tags:         tags,
	})
	if err != nil {
		s.logger.Error("work item creation failed",
			zap.String("app_id", sub.AppID), zap.Error(err))
		return nil, apperrors.NewBadGateway("failed to create work item in Azure DevOps", err)
	}

	ticketID := generateTicketID()
	now := time.Now().UTC()
	ticket := &domain.TicketRecord{
		ID:          ticketID,
		AppID:       sub.AppID,
		Category:    sub.Category,
		Subject:     sub.Subject,
		Description: sub.Description,
		Priority:    sub.Priority,
		Status:      domain.TicketStatusCreated,
		UserEmail:   sub.UserEmail,
		UserName:    sub.UserName,
		Context:     sub.Context,
		License:     sub.License,
		DevOps: domain.DevOpsRef{
			Org:          s.org,
			Project:      route.DevOpsProject,
			WorkItemID:   workItem.ID,
			WorkItemURL:  workItem.URL,
			WorkItemType: workItemType,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	// The work item already exists; storage failures must not undo that.
	if err := s.tickets.Save(ctx, ticket); err != nil {
		s.logger.Warn("ticket persist failed",
			zap.String("ticket_id", ticketID), zap.Error(err))
	} else if err := s.tickets.SaveAudit(ctx, repository.AuditEntry{
		ID:       uuid.NewString(),
		TicketID: ticketID,
		AppID:    sub.AppID,
		Action:   "created",
		Details:  map[string]any{"work_item_id": workItem.ID, "project": route.DevOpsProject},
	}); err != nil {
		s.logger.Warn("audit log write failed",
			zap.String("ticket_id", ticketID), zap.Error(err))
	}

	s.publishCreated(ctx, ticket, route)

	s.logger.Info("support ticket created",
		zap.String("ticket_id", ticketID),
		zap.String("project", route.DevOpsProject),
		zap.Int("work_item_id", workItem.ID))

	return &SubmissionResult{
		TicketID:    ticketID,
		WorkItemID:  workItem.ID,
		WorkItemURL: workItem.URL,
	}, nil
}

// ListTickets returns past tickets for an app or submitter, most recent
// first. An unconfigured store yields an empty list.
func (s *SubmissionService) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.TicketRecord, error) {
	records, err := s.tickets.List(ctx, filter)
	if err != nil {
		if err == repository.ErrNotConfigured {
			return []domain.TicketRecord{}, nil
		}
		return nil, err
	}
	if records == nil {
		records = []domain.TicketRecord{}
	}
	return records, nil
}

// ReloadRoutes re-reads the routing table and returns the route count.
func (s *SubmissionService) ReloadRoutes() int {
	return s.routes.Reload()
}

func (s *SubmissionService) publishCreated(ctx context.Context, ticket *domain.TicketRecord, route domain.Route) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketCreated,
		TicketID:  ticket.ID,
		Timestamp: time.Now().UTC(),
		Payload: events.TicketCreatedPayload{
			AppID:      ticket.AppID,
			AppName:    route.EffectiveAppName(ticket.AppID),
			Subject:    ticket.Subject,
			UserEmail:  ticket.UserEmail,
			WorkItemID: ticket.DevOps.WorkItemID,
		},
	})
}

// buildDescription assembles the work item body in a fixed block order:
// heading, free text, app reference, context, reporter, license. Blocks
// with no source data are omitted entirely. All free text is escaped so a
// submitter cannot inject markup into the work item.
func buildDescription(sub domain.Submission, route domain.Route) string {
	var b strings.Builder

	heading := "Customer Feedback"
	if sub.Category == domain.CategoryBug {
		heading = "Customer Report"
	}
	fmt.Fprintf(&b, "<h3>%s</h3><p>%s</p>", heading, html.EscapeString(sub.Description))
	fmt.Fprintf(&b, "<h3>App</h3><p>%s (routed to %s)</p>",
		html.EscapeString(sub.AppID), html.EscapeString(route.DevOpsProject))

	if sub.Context != nil && !sub.Context.Empty() {
		var items []string
		appendItem := func(label, value string) {
			if value != "" {
				items = append(items, fmt.Sprintf("<li><b>%s:</b> %s</li>", label, html.EscapeString(value)))
			}
		}
		appendItem("URL", sub.Context.URL)
		appendItem("Browser", sub.Context.Browser)
		appendItem("OS", sub.Context.OS)
		appendItem("App Version", sub.Context.AppVersion)
		appendItem("Resolution", sub.Context.ScreenResolution)
		if len(items) > 0 {
			fmt.Fprintf(&b, "<h3>Context</h3><ul>%s</ul>", strings.Join(items, ""))
		}
	}

	if sub.UserEmail != "" {
		fmt.Fprintf(&b, "<h3>Reported By</h3><p>%s (%s)</p>",
			html.EscapeString(sub.UserName), html.EscapeString(sub.UserEmail))
	}

	if sub.License != nil {
		var items []string
		lic := sub.License
		if lic.PlanName != "" {
			items = append(items, fmt.Sprintf("<li><b>Plan:</b> %s</li>", html.EscapeString(lic.PlanName)))
		}
		if lic.Status != "" {
			items = append(items, fmt.Sprintf("<li><b>Status:</b> %s</li>", html.EscapeString(lic.Status)))
		}
		if lic.IsFreeTrial {
			end := lic.FreeTrialEnd
			if end == "" {
				end = "N/A"
			}
			items = append(items, fmt.Sprintf("<li><b>Free Trial:</b> Yes (ends %s)</li>", html.EscapeString(end)))
		}
		switch {
		case lic.SupportPlan != "":
			items = append(items, fmt.Sprintf("<li><b>Support Plan:</b> %s</li>", html.EscapeString(lic.SupportPlan)))
		case lic.HasPrioritySupport:
			items = append(items, "<li><b>Support:</b> Priority (included in plan)</li>")
		default:
			items = append(items, "<li><b>Support:</b> Standard</li>")
		}
		fmt.Fprintf(&b, "<h3>License &amp; Support</h3><ul>%s</ul>", strings.Join(items, ""))
	}

	return b.String()
}

// generateTicketID produces SUP-YYYYMMDD-HHMM-XXXX in UTC. The 4-digit
// suffix keeps the external format stable; collisions within a minute
// bucket are an accepted limitation.
func generateTicketID() string {
	now := time.Now().UTC()
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	suffix := int64(0)
	if err == nil {
		suffix = n.Int64()
	}
	return fmt.Sprintf("SUP-%s-%s-%04d", now.Format("20060102"), now.Format("1504"), 1000+suffix)
}
