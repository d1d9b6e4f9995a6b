// Package notification sends confirmation emails through the
// communications API. Sends are best-effort: failures are logged and never
// surfaced to the submitter.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"

	"go.uber.org/zap"

	"github.com/spec-kit/support-intake/internal/config"
	"github.com/spec-kit/support-intake/internal/events"
)

// Client posts emails to the communications send-email endpoint.
type Client struct {
	apimURL    string
	apimKey    string
	fromEmail  string
	enabled    bool
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds the notification client.
func NewClient(mkt config.MarketplaceConfig, cfg config.NotificationConfig, logger *zap.Logger) *Client {
	return &Client{
		apimURL:    mkt.BaseURL,
		apimKey:    mkt.SubscriptionKey,
		fromEmail:  cfg.FromEmail,
		enabled:    cfg.Enabled,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		logger:     logger,
	}
}

// RegisterHandlers subscribes the client to ticket lifecycle events.
func (c *Client) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventTicketCreated, c.handleTicketCreated)
}

func (c *Client) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return nil
	}
	c.SendConfirmation(ctx, payload.UserEmail, event.TicketID, payload.Subject, payload.AppName)
	return nil
}

// SendConfirmation emails the reporter a ticket receipt. Returns whether
// the send was accepted; errors never propagate.
func (c *Client) SendConfirmation(ctx context.Context, toEmail, ticketID, subject, appName string) bool {
	if !c.enabled {
		c.logger.Info("notifications disabled, skipping confirmation", zap.String("ticket_id", ticketID))
		return false
	}
	if toEmail == "" {
		return false
	}

	body := map[string]string{
		"to":      toEmail,
		"subject": fmt.Sprintf("[Acidni Support] %s — %s", subject, ticketID),
		"body":    confirmationBody(ticketID, subject, appName),
		"from":    c.fromEmail,
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		c.logger.Warn("encode confirmation email", zap.Error(err))
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.apimURL+"/communications/api/send-email", bytes.NewReader(encoded))
	if err != nil {
		c.logger.Warn("build confirmation request", zap.Error(err))
		return false
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apimKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("confirmation email send failed",
			zap.String("ticket_id", ticketID), zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusAccepted {
		c.logger.Info("confirmation email sent",
			zap.String("ticket_id", ticketID), zap.String("to", toEmail))
		return true
	}

	c.logger.Warn("confirmation email rejected",
		zap.String("ticket_id", ticketID), zap.Int("status", resp.StatusCode))
	return false
}

func confirmationBody(ticketID, subject, appName string) string {
	row := func(label, value string) string {
		return fmt.Sprintf(`<tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb; font-weight: bold;">%s</td>`+
			`<td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td></tr>`, label, html.EscapeString(value))
	}
	return `<div style="font-family: system-ui, sans-serif; max-width: 600px; margin: 0 auto;">` +
		`<h2 style="color: #2563eb;">Support Request Received</h2>` +
		`<p>Thank you for contacting Acidni Support.</p>` +
		`<table style="border-collapse: collapse; width: 100%; margin: 16px 0;">` +
		row("Ticket ID", ticketID) +
		row("Subject", subject) +
		row("Application", appName) +
		`</table>` +
		`<p>We'll review your request and get back to you shortly.</p>` +
		`<p style="color: #6b7280; font-size: 0.875rem;">— Acidni Support Team</p>` +
		`</div>`
}
