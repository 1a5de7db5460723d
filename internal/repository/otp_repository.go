package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/facility-tickets/internal/domain"
)

// OTPRepository manages completion verification codes.
type OTPRepository interface {
	// Issue supersedes every unused code for the same ticket and student,
	// then stores otp. Issues for one ticket are serialized, and the ticket
	// must still be Completed: pgx.ErrNoRows for an unknown ticket,
	// ErrStatusConflict when it has moved on.
	Issue(ctx context.Context, otp *domain.OTP) error
	// FindActive returns the unused, non-superseded code matching all three
	// keys, or pgx.ErrNoRows.
	FindActive(ctx context.Context, ticketID, studentID, code string) (*domain.OTP, error)
	// Redeem marks the code used and moves the ticket Completed -> Done in a
	// single transaction. Either both happen or neither does.
	Redeem(ctx context.Context, otpID, ticketID string, at time.Time) (*domain.Ticket, error)
}

type otpRepository struct {
	pool *pgxpool.Pool
}

// NewOTPRepository constructs repository.
func NewOTPRepository(pool *pgxpool.Pool) OTPRepository {
	return &otpRepository{pool: pool}
}

func (r *otpRepository) Issue(ctx context.Context, otp *domain.OTP) error {
	if !validID(otp.TicketID) {
		return pgx.ErrNoRows
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		// The row lock makes concurrent issues take turns, so the second one
		// sees and supersedes the first instead of tripping the live-code index.
		var status domain.TicketStatus
		if err := tx.QueryRow(ctx, `SELECT status FROM tickets WHERE id=$1 FOR UPDATE`, otp.TicketID).Scan(&status); err != nil {
			return err
		}
		if status != domain.TicketStatusCompleted {
			return ErrStatusConflict
		}
		const invalidate = `
            UPDATE ticket_otps SET invalidated_at=$3
            WHERE ticket_id=$1 AND student_id=$2 AND used=false AND invalidated_at IS NULL`
		if _, err := tx.Exec(ctx, invalidate, otp.TicketID, otp.StudentID, otp.CreatedAt); err != nil {
			return err
		}
		const insert = `
            INSERT INTO ticket_otps (ticket_id, student_id, code, expires_at, created_at)
            VALUES ($1,$2,$3,$4,$5)
            RETURNING id`
		return tx.QueryRow(ctx, insert,
			otp.TicketID,
			otp.StudentID,
			otp.Code,
			otp.ExpiresAt,
			otp.CreatedAt,
		).Scan(&otp.ID)
	})
}

func (r *otpRepository) FindActive(ctx context.Context, ticketID, studentID, code string) (*domain.OTP, error) {
	const query = `
        SELECT id, ticket_id, student_id, code, expires_at, used, used_at, invalidated_at, created_at
        FROM ticket_otps
        WHERE ticket_id=$1 AND student_id=$2 AND code=$3 AND used=false AND invalidated_at IS NULL
        ORDER BY created_at DESC
        LIMIT 1`
	var otp domain.OTP
	if err := r.pool.QueryRow(ctx, query, ticketID, studentID, code).Scan(
		&otp.ID,
		&otp.TicketID,
		&otp.StudentID,
		&otp.Code,
		&otp.ExpiresAt,
		&otp.Used,
		&otp.UsedAt,
		&otp.InvalidatedAt,
		&otp.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &otp, nil
}

func (r *otpRepository) Redeem(ctx context.Context, otpID, ticketID string, at time.Time) (*domain.Ticket, error) {
	var out *domain.Ticket
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const consume = `
            UPDATE ticket_otps SET used=true, used_at=$2
            WHERE id=$1 AND used=false AND invalidated_at IS NULL`
		cmd, err := tx.Exec(ctx, consume, otpID, at)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return ErrOTPUnavailable
		}
		ticket, err := compareAndSetStatus(ctx, tx, ticketID, domain.TicketStatusCompleted, TicketChange{
			Status:    domain.TicketStatusDone,
			UpdatedAt: at,
		})
		if err != nil {
			return err
		}
		out = ticket
		return nil
	})
	return out, err
}
