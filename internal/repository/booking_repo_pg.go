package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	CreatePending(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, int, error)
	FindOverlapping(ctx context.Context, destinationID string, start, end time.Time) ([]domain.Booking, error)
	Save(ctx context.Context, booking *domain.Booking, expected domain.BookingStatus) error
	ListFinishedConfirmed(ctx context.Context, before time.Time) ([]domain.Booking, error)
	Stats(ctx context.Context, from, to *time.Time) (*domain.BookingStats, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id::text, user_id, destination_id::text, start_date, end_date, guests,
	price_per_night, total_price, currency, status, payment_status, payment_method, special_requests,
	guest_details, cancelled_at, cancelled_by, cancellation_reason, refund_amount,
	confirmed_at, confirmation_number, review_rating, review_comment, reviewed_at,
	metadata, created_at, updated_at`

// overlapCondition holds the three conflict cases against $2 (start) and
// $3 (end). Touching intervals do not match.
const overlapCondition = `(
		(start_date <= $2 AND end_date > $2)
		OR (start_date < $3 AND end_date >= $3)
		OR (start_date >= $2 AND end_date <= $3)
	)`

// CreatePending inserts a pending booking. The destination row is locked for
// the duration of the transaction so overlapping inserts for the same
// destination run one after another; the exclusion constraint on bookings
// rejects anything that slips through.
func (r *PGBookingRepository) CreatePending(ctx context.Context, booking *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return mapError("begin create booking", err)
	}
	defer tx.Rollback(ctx)

	var active bool
	if err := tx.QueryRow(ctx, `SELECT is_active FROM destinations WHERE id=$1 FOR UPDATE`, booking.DestinationID).Scan(&active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrDestinationNotFound
		}
		return mapError("lock destination", err)
	}
	if !active {
		return domain.ErrDestinationNotFound
	}

	var conflicts int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM bookings
		WHERE destination_id=$1 AND status IN ('pending', 'confirmed') AND `+overlapCondition,
		booking.DestinationID, booking.StartDate, booking.EndDate).Scan(&conflicts); err != nil {
		return mapError("recheck availability", err)
	}
	if conflicts > 0 {
		return domain.ErrDatesUnavailable
	}

	booking.Status = domain.BookingStatusPending
	if err := tx.QueryRow(ctx, `INSERT INTO bookings (id, user_id, destination_id, start_date, end_date, guests,
		price_per_night, total_price, currency, status, payment_status, payment_method, special_requests,
		guest_details, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at`,
		booking.ID, booking.UserID, booking.DestinationID, booking.StartDate, booking.EndDate, booking.Guests,
		booking.PricePerNight, booking.TotalPrice, booking.Currency, booking.Status, booking.PaymentStatus,
		booking.PaymentMethod, booking.SpecialRequests, booking.GuestDetails, booking.Metadata).
		Scan(&booking.CreatedAt, &booking.UpdatedAt); err != nil {
		return mapError("insert booking", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE destinations SET booking_count = booking_count + 1, last_booked_at = now(), updated_at = now() WHERE id=$1`, booking.DestinationID); err != nil {
		return mapError("update destination counters", err)
	}

	return mapError("commit booking", tx.Commit(ctx))
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
	if err != nil {
		return nil, mapError("get booking", err)
	}
	return b, nil
}

func (r *PGBookingRepository) List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, int, error) {
	// destination_id is a uuid column; a malformed id matches nothing.
	if filter.DestinationID != "" {
		if _, err := uuid.Parse(filter.DestinationID); err != nil {
			return []domain.Booking{}, 0, nil
		}
	}

	where, args := bookingFilterClause(filter)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings`+where, args...).Scan(&total); err != nil {
		return nil, 0, mapError("count bookings", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)
	query := fmt.Sprintf(`SELECT %s FROM bookings%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		bookingColumns, where, len(args)-1, len(args))

	bookings, err := r.query(ctx, "list bookings", query, args...)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

func (r *PGBookingRepository) FindOverlapping(ctx context.Context, destinationID string, start, end time.Time) ([]domain.Booking, error) {
	return r.query(ctx, "find overlapping bookings", `SELECT `+bookingColumns+` FROM bookings
		WHERE destination_id=$1 AND status IN ('pending', 'confirmed') AND `+overlapCondition+`
		ORDER BY start_date`, destinationID, start, end)
}

// Save writes the mutable parts of a booking. The update only applies while
// the stored status still equals expected, so two concurrent transitions
// cannot both win.
func (r *PGBookingRepository) Save(ctx context.Context, b *domain.Booking, expected domain.BookingStatus) error {
	var (
		cancelledAt, confirmedAt, reviewedAt         *time.Time
		cancelledBy, reason, confirmationNo, comment *string
		refund                                       *int64
		rating                                       *int
	)
	if c := b.Cancellation; c != nil {
		cancelledAt, cancelledBy, reason, refund = &c.CancelledAt, &c.CancelledBy, &c.Reason, &c.RefundAmount
	}
	if c := b.Confirmation; c != nil {
		confirmedAt, confirmationNo = &c.ConfirmedAt, &c.ConfirmationNumber
	}
	if rv := b.Review; rv != nil {
		rating, comment, reviewedAt = &rv.Rating, &rv.Comment, &rv.ReviewedAt
	}

	err := r.db.QueryRow(ctx, `UPDATE bookings SET status=$1, payment_status=$2, special_requests=$3, guest_details=$4,
		cancelled_at=$5, cancelled_by=$6, cancellation_reason=$7, refund_amount=$8,
		confirmed_at=$9, confirmation_number=$10, review_rating=$11, review_comment=$12, reviewed_at=$13,
		updated_at=now()
		WHERE id=$14 AND status=$15
		RETURNING updated_at`,
		b.Status, b.PaymentStatus, b.SpecialRequests, b.GuestDetails,
		cancelledAt, cancelledBy, reason, refund,
		confirmedAt, confirmationNo, rating, comment, reviewedAt,
		b.ID, expected).Scan(&b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: booking %s is no longer %s", domain.ErrInvalidStateTransition, b.ID, expected)
	}
	return mapError("save booking", err)
}

func (r *PGBookingRepository) ListFinishedConfirmed(ctx context.Context, before time.Time) ([]domain.Booking, error) {
	return r.query(ctx, "list finished bookings", `SELECT `+bookingColumns+` FROM bookings
		WHERE status=$1 AND end_date <= $2 ORDER BY end_date`, domain.BookingStatusConfirmed, before)
}

func (r *PGBookingRepository) Stats(ctx context.Context, from, to *time.Time) (*domain.BookingStats, error) {
	stats := &domain.BookingStats{StatusBreakdown: make(map[domain.BookingStatus]int)}

	if err := r.db.QueryRow(ctx, `SELECT COUNT(*), COALESCE(SUM(total_price), 0)::bigint,
		COALESCE(AVG(total_price), 0)::float8, COALESCE(AVG(guests), 0)::float8
		FROM bookings WHERE ($1::timestamptz IS NULL OR created_at >= $1) AND ($2::timestamptz IS NULL OR created_at <= $2)`,
		from, to).Scan(&stats.TotalBookings, &stats.TotalRevenue, &stats.AverageBookingValue, &stats.AverageGuests); err != nil {
		return nil, mapError("booking totals", err)
	}

	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM bookings
		WHERE ($1::timestamptz IS NULL OR created_at >= $1) AND ($2::timestamptz IS NULL OR created_at <= $2)
		GROUP BY status`, from, to)
	if err != nil {
		return nil, mapError("booking status breakdown", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status domain.BookingStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, mapError("scan status breakdown", err)
		}
		stats.StatusBreakdown[status] = count
	}
	return stats, mapError("booking status breakdown", rows.Err())
}

func (r *PGBookingRepository) query(ctx context.Context, op, sql string, args ...any) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, mapError(op, err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, mapError(op, rows.Err())
}

func bookingFilterClause(f domain.BookingFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.UserID != "" {
		add("user_id = $%d", f.UserID)
	}
	if f.DestinationID != "" {
		add("destination_id = $%d", f.DestinationID)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.StartFrom != nil {
		add("start_date >= $%d", *f.StartFrom)
	}
	if f.StartTo != nil {
		add("start_date <= $%d", *f.StartTo)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		b                                            domain.Booking
		cancelledAt, confirmedAt, reviewedAt         *time.Time
		cancelledBy, reason, confirmationNo, comment *string
		refund                                       *int64
		rating                                       *int
	)
	if err := row.Scan(&b.ID, &b.UserID, &b.DestinationID, &b.StartDate, &b.EndDate, &b.Guests,
		&b.PricePerNight, &b.TotalPrice, &b.Currency, &b.Status, &b.PaymentStatus, &b.PaymentMethod, &b.SpecialRequests,
		&b.GuestDetails, &cancelledAt, &cancelledBy, &reason, &refund,
		&confirmedAt, &confirmationNo, &rating, &comment, &reviewedAt,
		&b.Metadata, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}

	if cancelledAt != nil {
		b.Cancellation = &domain.Cancellation{CancelledAt: *cancelledAt}
		if cancelledBy != nil {
			b.Cancellation.CancelledBy = *cancelledBy
		}
		if reason != nil {
			b.Cancellation.Reason = *reason
		}
		if refund != nil {
			b.Cancellation.RefundAmount = *refund
		}
	}
	if confirmedAt != nil && confirmationNo != nil {
		b.Confirmation = &domain.Confirmation{ConfirmedAt: *confirmedAt, ConfirmationNumber: *confirmationNo}
	}
	if rating != nil && reviewedAt != nil {
		b.Review = &domain.Review{Rating: *rating, ReviewedAt: *reviewedAt}
		if comment != nil {
			b.Review.Comment = *comment
		}
	}
	return &b, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
