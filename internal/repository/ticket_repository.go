package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/facility-tickets/internal/domain"
)

// TicketFilter narrows ticket listings. Nil pointers and empty slices
// leave the dimension unfiltered.
type TicketFilter struct {
	ReporterID *string
	WorkerID   *string
	Statuses   []domain.TicketStatus
	Priorities []domain.TicketPriority
	Category   *string
	SearchTerm *string
	Limit      int
	Offset     int
}

// TicketChange is the set of fields written by a status transition.
type TicketChange struct {
	Status      domain.TicketStatus
	WorkerID    *string
	AdminID     *string
	CompletedAt *time.Time
	UpdatedAt   time.Time
}

// Apply copies the change onto t.
func (c TicketChange) Apply(t *domain.Ticket) {
	t.Status = c.Status
	if c.WorkerID != nil {
		t.WorkerID = c.WorkerID
	}
	if c.AdminID != nil {
		t.AdminID = c.AdminID
	}
	if c.CompletedAt != nil {
		t.CompletedAt = c.CompletedAt
	}
	t.UpdatedAt = c.UpdatedAt
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	// CompareAndSetStatus applies change only while the stored status still
	// equals expected. It returns pgx.ErrNoRows for an unknown ticket and
	// ErrStatusConflict when another writer got there first.
	CompareAndSetStatus(ctx context.Context, id string, expected domain.TicketStatus, change TicketChange) (*domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, reporter_id, reporter_name, reporter_email, worker_id, admin_id,
               status, priority, category, subject, description, location, contact_number,
               created_at, updated_at, completed_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (reporter_id, reporter_name, reporter_email, status, priority, category,
            subject, description, location, contact_number)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.ReporterID,
		ticket.ReporterName,
		ticket.ReporterEmail,
		ticket.Status,
		ticket.Priority,
		ticket.Category,
		ticket.Subject,
		ticket.Description,
		ticket.Location,
		ticket.ContactNumber,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	if !validID(id) {
		return nil, pgx.ErrNoRows
	}
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return scanTicket(r.pool.QueryRow(ctx, query, id))
}

func (r *ticketRepository) CompareAndSetStatus(ctx context.Context, id string, expected domain.TicketStatus, change TicketChange) (*domain.Ticket, error) {
	var out *domain.Ticket
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		ticket, err := compareAndSetStatus(ctx, tx, id, expected, change)
		out = ticket
		return err
	})
	return out, err
}

// compareAndSetStatus runs the conditional update on any querier so the
// OTP redemption can share its transaction.
func compareAndSetStatus(ctx context.Context, q querier, id string, expected domain.TicketStatus, change TicketChange) (*domain.Ticket, error) {
	query := `
        UPDATE tickets SET status=$1, worker_id=COALESCE($2, worker_id), admin_id=COALESCE($3, admin_id),
            completed_at=COALESCE($4, completed_at), updated_at=$5
        WHERE id=$6 AND status=$7
        RETURNING ` + ticketColumns
	ticket, err := scanTicket(q.QueryRow(ctx, query,
		change.Status,
		change.WorkerID,
		change.AdminID,
		change.CompletedAt,
		change.UpdatedAt,
		id,
		expected,
	))
	if err == nil {
		return ticket, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	// Zero rows: tell a missing ticket apart from a lost race.
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tickets WHERE id=$1)`, id).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, pgx.ErrNoRows
	}
	return nil, ErrStatusConflict
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := `SELECT ` + ticketColumns + ` FROM tickets`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ReporterID != nil {
		args = append(args, *filter.ReporterID)
		clauses = append(clauses, fmt.Sprintf("reporter_id=$%d", len(args)))
	}
	if filter.WorkerID != nil {
		args = append(args, *filter.WorkerID)
		clauses = append(clauses, fmt.Sprintf("worker_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		idx := len(args)
		clauses = append(clauses, fmt.Sprintf("(LOWER(subject) LIKE $%d OR LOWER(description) LIKE $%d)", idx, idx))
	}

	query := fmt.Sprintf("%s WHERE %s ORDER BY created_at DESC", base, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *ticket)
	}
	return tickets, rows.Err()
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.ReporterID,
		&ticket.ReporterName,
		&ticket.ReporterEmail,
		&ticket.WorkerID,
		&ticket.AdminID,
		&ticket.Status,
		&ticket.Priority,
		&ticket.Category,
		&ticket.Subject,
		&ticket.Description,
		&ticket.Location,
		&ticket.ContactNumber,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.CompletedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
