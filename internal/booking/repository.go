package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kanemolly/campus-resource-hub/internal/db"
)

type Repository interface {
	Create(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	Update(ctx context.Context, booking *Booking) error

	// FindConfirmed returns confirmed bookings of resourceID overlapping [start, end).
	// A zero start or end leaves that side unbounded. excludeID, when set, is skipped.
	FindConfirmed(ctx context.Context, resourceID string, start, end time.Time, excludeID string) ([]*Booking, error)
	// ListExpired returns pending or confirmed bookings that ended before the given time.
	ListExpired(ctx context.Context, before time.Time) ([]*Booking, error)
	// ListEndingBetween returns pending or confirmed bookings ending in [from, to].
	ListEndingBetween(ctx context.Context, from, to time.Time) ([]*Booking, error)

	// WithinResourceLock runs fn against a repository bound to one transaction
	// holding an exclusive lock on resourceID's schedule. Concurrent callers for
	// the same resource are serialized; fn's writes commit only if it returns nil.
	WithinResourceLock(ctx context.Context, resourceID string, fn func(repo Repository) error) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
	q    db.Querier
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool, q: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var bookingColumns = []string{
	"b.id", "b.resource_id", "r.name", "b.requester_id", "COALESCE(u.display_name, u.email)",
	"b.start_time", "b.end_time", "b.status", "b.notes",
	"b.is_recurring", "b.recurrence_pattern", "b.recurrence_end_date", "b.parent_booking_id",
	"b.approved_by_id", "b.approved_at", "b.cancelled_by_id", "b.cancellation_reason",
	"b.modified_by_id", "b.modified_at", "b.change_summary",
	"b.created_at", "b.updated_at",
}

func selectBookings(extra ...string) squirrel.SelectBuilder {
	cols := append(append([]string{}, bookingColumns...), extra...)
	return psql.Select(cols...).
		From("public.bookings b").
		Join("public.resources r ON b.resource_id = r.id").
		Join("public.users u ON b.requester_id = u.id")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBooking(row scanner, extra ...any) (*Booking, error) {
	var b Booking
	dest := []any{
		&b.ID, &b.ResourceID, &b.ResourceName, &b.RequesterID, &b.RequesterName,
		&b.StartTime, &b.EndTime, &b.Status, &b.Notes,
		&b.IsRecurring, &b.RecurrencePattern, &b.RecurrenceEndDate, &b.ParentBookingID,
		&b.ApprovedByID, &b.ApprovedAt, &b.CancelledByID, &b.CancellationReason,
		&b.ModifiedByID, &b.ModifiedAt, &b.ChangeSummary,
		&b.CreatedAt, &b.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *pgxRepository) Create(ctx context.Context, b *Booking) error {
	query, args, err := psql.Insert("public.bookings").
		Columns(
			"resource_id", "requester_id", "start_time", "end_time", "status", "notes",
			"is_recurring", "recurrence_pattern", "recurrence_end_date", "parent_booking_id",
			"created_at", "updated_at",
		).
		Values(
			b.ResourceID, b.RequesterID, b.StartTime, b.EndTime, b.Status, b.Notes,
			b.IsRecurring, b.RecurrencePattern, b.RecurrenceEndDate, b.ParentBookingID,
			b.CreatedAt, b.UpdatedAt,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking query failed: %w", err)
	}

	if err := r.q.QueryRow(ctx, query, args...).Scan(&b.ID); err != nil {
		return mapWriteError(err, "create booking failed")
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	query, args, err := selectBookings().
		Where(squirrel.Eq{"b.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	b, err := scanBooking(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return b, nil
}

var sortableColumns = map[string]bool{
	"start_time": true, "end_time": true, "created_at": true, "status": true,
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	query := selectBookings("count(*) OVER() as total_count")

	if filter.RequesterID != "" {
		query = query.Where(squirrel.Eq{"b.requester_id": filter.RequesterID})
	}
	if filter.ResourceID != "" {
		query = query.Where(squirrel.Eq{"b.resource_id": filter.ResourceID})
	}
	if filter.ParentID != "" {
		query = query.Where(squirrel.Or{
			squirrel.Eq{"b.id": filter.ParentID},
			squirrel.Eq{"b.parent_booking_id": filter.ParentID},
		})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"b.status": filter.Status})
	}
	// Date range filtering (intersection logic)
	if filter.StartTime != nil {
		query = query.Where(squirrel.Gt{"b.end_time": *filter.StartTime})
	}
	if filter.EndTime != nil {
		query = query.Where(squirrel.Lt{"b.start_time": *filter.EndTime})
	}

	orderBy := "b.start_time"
	if sortableColumns[filter.SortBy] {
		orderBy = "b." + filter.SortBy
	}
	orderDir := "ASC"
	if filter.SortOrder == "desc" || filter.SortOrder == "DESC" {
		orderDir = "DESC"
	}
	query = query.OrderBy(orderBy + " " + orderDir)

	// Pagination
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize
	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	var total int
	for rows.Next() {
		b, err := scanBooking(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}

	return bookings, total, nil
}

func (r *pgxRepository) Update(ctx context.Context, b *Booking) error {
	query, args, err := psql.Update("public.bookings").
		Set("start_time", b.StartTime).
		Set("end_time", b.EndTime).
		Set("status", b.Status).
		Set("notes", b.Notes).
		Set("approved_by_id", b.ApprovedByID).
		Set("approved_at", b.ApprovedAt).
		Set("cancelled_by_id", b.CancelledByID).
		Set("cancellation_reason", b.CancellationReason).
		Set("modified_by_id", b.ModifiedByID).
		Set("modified_at", b.ModifiedAt).
		Set("change_summary", b.ChangeSummary).
		Set("updated_at", b.UpdatedAt).
		Where(squirrel.Eq{"id": b.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update booking query failed: %w", err)
	}

	ct, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return mapWriteError(err, "update booking failed")
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) FindConfirmed(ctx context.Context, resourceID string, start, end time.Time, excludeID string) ([]*Booking, error) {
	// Half-open overlap: existing.start < end AND existing.end > start.
	query := selectBookings().
		Where(squirrel.Eq{"b.resource_id": resourceID}).
		Where(squirrel.Eq{"b.status": StatusConfirmed})

	if !end.IsZero() {
		query = query.Where(squirrel.Lt{"b.start_time": end})
	}
	if !start.IsZero() {
		query = query.Where(squirrel.Gt{"b.end_time": start})
	}
	if excludeID != "" {
		query = query.Where(squirrel.NotEq{"b.id": excludeID})
	}

	return r.listWhere(ctx, query.OrderBy("b.start_time"), "find confirmed bookings")
}

func (r *pgxRepository) ListExpired(ctx context.Context, before time.Time) ([]*Booking, error) {
	query := selectBookings().
		Where(squirrel.Eq{"b.status": []Status{StatusConfirmed, StatusPending}}).
		Where(squirrel.Lt{"b.end_time": before}).
		OrderBy("b.end_time")
	return r.listWhere(ctx, query, "list expired bookings")
}

func (r *pgxRepository) ListEndingBetween(ctx context.Context, from, to time.Time) ([]*Booking, error) {
	query := selectBookings().
		Where(squirrel.Eq{"b.status": []Status{StatusConfirmed, StatusPending}}).
		Where(squirrel.GtOrEq{"b.end_time": from}).
		Where(squirrel.LtOrEq{"b.end_time": to}).
		OrderBy("b.end_time")
	return r.listWhere(ctx, query, "list bookings ending soon")
}

func (r *pgxRepository) listWhere(ctx context.Context, query squirrel.SelectBuilder, what string) ([]*Booking, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s query failed: %w", what, err)
	}

	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", what, err)
	}
	defer rows.Close()

	var bookings []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s failed: %w", what, err)
	}
	return bookings, nil
}

const resourceLockQuery = "SELECT pg_advisory_xact_lock(hashtext($1))"

func (r *pgxRepository) WithinResourceLock(ctx context.Context, resourceID string, fn func(repo Repository) error) error {
	// Already inside a transaction: take the lock on it and reuse it.
	if r.pool == nil {
		if _, err := r.q.Exec(ctx, resourceLockQuery, resourceID); err != nil {
			return fmt.Errorf("lock resource schedule failed: %w", err)
		}
		return fn(r)
	}

	return db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, resourceLockQuery, resourceID); err != nil {
			return fmt.Errorf("lock resource schedule failed: %w", err)
		}
		return fn(&pgxRepository{q: tx})
	})
}

// mapWriteError turns constraint violations into domain errors.
func mapWriteError(err error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.CheckViolation:
			if pgErr.ConstraintName == "bookings_time_order" {
				return ErrInvalidTimeRange
			}
		case pgerrcode.ForeignKeyViolation:
			if pgErr.ConstraintName == "bookings_resource_id_fkey" {
				return ErrResourceNotFound
			}
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}
