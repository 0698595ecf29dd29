package repository

import (
	"context"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DestinationRepository interface {
	List(ctx context.Context) ([]domain.Destination, error)
	GetByID(ctx context.Context, id string) (*domain.Destination, error)
	Create(ctx context.Context, destination *domain.Destination) error
	Update(ctx context.Context, destination *domain.Destination) error
	Deactivate(ctx context.Context, id string) error
	RefreshRating(ctx context.Context, id string) error
}

type PGDestinationRepository struct {
	db *pgxpool.Pool
}

func NewDestinationRepository(db *pgxpool.Pool) DestinationRepository {
	return &PGDestinationRepository{db: db}
}

const destinationColumns = `id::text, name, description, location, category, price, currency, max_guests,
	is_active, booking_count, last_booked_at, rating, review_count, created_by, created_at, updated_at`

// List returns active destinations, most booked first.
func (r *PGDestinationRepository) List(ctx context.Context) ([]domain.Destination, error) {
	rows, err := r.db.Query(ctx, `SELECT `+destinationColumns+` FROM destinations WHERE is_active ORDER BY booking_count DESC, name`)
	if err != nil {
		return nil, mapError("list destinations", err)
	}
	defer rows.Close()

	destinations := make([]domain.Destination, 0)
	for rows.Next() {
		d, err := scanDestination(rows)
		if err != nil {
			return nil, mapError("scan destination", err)
		}
		destinations = append(destinations, *d)
	}
	return destinations, mapError("list destinations", rows.Err())
}

func (r *PGDestinationRepository) GetByID(ctx context.Context, id string) (*domain.Destination, error) {
	d, err := scanDestination(r.db.QueryRow(ctx, `SELECT `+destinationColumns+` FROM destinations WHERE id=$1`, id))
	if err != nil {
		return nil, mapError("get destination", err)
	}
	return d, nil
}

func (r *PGDestinationRepository) Create(ctx context.Context, d *domain.Destination) error {
	err := r.db.QueryRow(ctx, `INSERT INTO destinations (id, name, description, location, category, price, currency, max_guests, is_active, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`,
		d.ID, d.Name, d.Description, d.Location, d.Category, d.Price, d.Currency, d.MaxGuests, d.IsActive, d.CreatedBy).
		Scan(&d.CreatedAt, &d.UpdatedAt)
	return mapError("insert destination", err)
}

func (r *PGDestinationRepository) Update(ctx context.Context, d *domain.Destination) error {
	err := r.db.QueryRow(ctx, `UPDATE destinations SET name=$1, description=$2, location=$3, category=$4, price=$5,
		currency=$6, max_guests=$7, is_active=$8, updated_at=now()
		WHERE id=$9
		RETURNING updated_at`,
		d.Name, d.Description, d.Location, d.Category, d.Price, d.Currency, d.MaxGuests, d.IsActive, d.ID).
		Scan(&d.UpdatedAt)
	return mapError("update destination", err)
}

// Deactivate hides a destination from listings and new bookings. Existing
// bookings keep pointing at it.
func (r *PGDestinationRepository) Deactivate(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `UPDATE destinations SET is_active=false, updated_at=now() WHERE id=$1`, id)
	if err != nil {
		return mapError("deactivate destination", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RefreshRating recomputes the average review rating, rounded to one
// decimal, and the review count from the destination's bookings.
func (r *PGDestinationRepository) RefreshRating(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `UPDATE destinations d SET
		rating = COALESCE((SELECT ROUND(AVG(review_rating)::numeric, 1)::float8 FROM bookings WHERE destination_id = d.id AND review_rating IS NOT NULL), 0),
		review_count = (SELECT COUNT(*) FROM bookings WHERE destination_id = d.id AND review_rating IS NOT NULL),
		updated_at = now()
		WHERE d.id = $1`, id)
	return mapError("refresh destination rating", err)
}

func scanDestination(row pgx.Row) (*domain.Destination, error) {
	var d domain.Destination
	if err := row.Scan(&d.ID, &d.Name, &d.Description, &d.Location, &d.Category, &d.Price, &d.Currency, &d.MaxGuests,
		&d.IsActive, &d.BookingCount, &d.LastBookedAt, &d.Rating, &d.ReviewCount, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

var _ DestinationRepository = (*PGDestinationRepository)(nil)
