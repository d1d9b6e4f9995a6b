package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-intake/internal/domain"
)

// ErrNotConfigured is returned when no database pool is available. Callers
// treat the store as best-effort and log rather than fail.
var ErrNotConfigured = errors.New("ticket store not configured")

// TicketFilter captures history listing parameters.
type TicketFilter struct {
	AppID     string
	UserEmail string
	Limit     int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Save(ctx context.Context, ticket *domain.TicketRecord) error
	List(ctx context.Context, filter TicketFilter) ([]domain.TicketRecord, error)
	SaveAudit(ctx context.Context, entry AuditEntry) error
}

// AuditEntry is one row in the audit log.
type AuditEntry struct {
	ID       string
	TicketID string
	AppID    string
	Action   string
	Details  map[string]any
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

// Save upserts the full ticket document keyed by ticket id. The indexed
// columns are denormalized copies for filtering; the doc column is the
// source of record.
func (r *ticketRepository) Save(ctx context.Context, ticket *domain.TicketRecord) error {
	if r.pool == nil {
		return ErrNotConfigured
	}
	doc, err := json.Marshal(ticket)
	if err != nil {
		return fmt.Errorf("encode ticket document: %w", err)
	}
	const query = `
        INSERT INTO tickets (ticket_id, app_id, user_email, category, status, priority, doc, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        ON CONFLICT (ticket_id) DO UPDATE
            SET doc=EXCLUDED.doc, status=EXCLUDED.status, updated_at=EXCLUDED.updated_at`
	_, err = r.pool.Exec(ctx, query,
		ticket.ID,
		ticket.AppID,
		ticket.UserEmail,
		string(ticket.Category),
		ticket.Status,
		ticket.Priority,
		doc,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	)
	return err
}

// List returns tickets matching the filter, most recent first.
func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.TicketRecord, error) {
	if r.pool == nil {
		return nil, ErrNotConfigured
	}

	clauses := []string{"1=1"}
	args := []any{}
	if filter.AppID != "" {
		args = append(args, filter.AppID)
		clauses = append(clauses, fmt.Sprintf("app_id=$%d", len(args)))
	}
	if filter.UserEmail != "" {
		args = append(args, filter.UserEmail)
		clauses = append(clauses, fmt.Sprintf("user_email=$%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 25
	}
	if limit > 200 {
		limit = 200
	}

	query := fmt.Sprintf(`SELECT doc FROM tickets WHERE %s ORDER BY created_at DESC LIMIT %d`,
		strings.Join(clauses, " AND "), limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTickets(rows pgx.Rows) ([]domain.TicketRecord, error) {
	var result []domain.TicketRecord
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var ticket domain.TicketRecord
		if err := json.Unmarshal(doc, &ticket); err != nil {
			return nil, fmt.Errorf("decode ticket document: %w", err)
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

// SaveAudit writes an audit log row for a ticket action.
func (r *ticketRepository) SaveAudit(ctx context.Context, entry AuditEntry) error {
	if r.pool == nil {
		return ErrNotConfigured
	}
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("encode audit details: %w", err)
	}
	const query = `
        INSERT INTO audit_log (id, ticket_id, app_id, action, details, created_at)
        VALUES ($1,$2,$3,$4,$5,$6)`
	_, err = r.pool.Exec(ctx, query,
		entry.ID, entry.TicketID, entry.AppID, entry.Action, details, time.Now().UTC())
	return err
}
