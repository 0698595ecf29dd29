package repository

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicateConfirmation reports a confirmation number collision; the
// caller may retry with a fresh number.
var ErrDuplicateConfirmation = errors.New("confirmation number already in use")

const (
	pgExclusionViolation  = "23P01"
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"

	// raised for ids that are not valid uuids
	pgInvalidTextRepresentation = "22P02"

	confirmationNumberIndex = "bookings_confirmation_number_key"
)

// mapError translates driver errors into domain kinds.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgExclusionViolation:
			return domain.ErrDatesUnavailable
		case pgUniqueViolation:
			if pgErr.ConstraintName == confirmationNumberIndex {
				return ErrDuplicateConfirmation
			}
		case pgForeignKeyViolation:
			return domain.ErrDestinationNotFound
		case pgInvalidTextRepresentation:
			return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	var connErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &connErr) || errors.As(err, &netErr) || pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %v", op, domain.ErrStorageUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
