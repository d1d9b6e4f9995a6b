package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

// EventTicketCreated fires after a submission has produced a work item and
// a ticket record.
const EventTicketCreated EventType = "ticket_created"

// Event represents a domain event emitted by the orchestrator.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	AppID      string `json:"app_id"`
	AppName    string `json:"app_name"`
	Subject    string `json:"subject"`
	UserEmail  string `json:"user_email,omitempty"`
	WorkItemID int    `json:"work_item_id"`
}
