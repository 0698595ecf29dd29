package booking

import (
	"context"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
)

// OverlapFinder returns active bookings on a destination that may overlap
// [start, end). Results are re-checked with Overlaps.
type OverlapFinder interface {
	FindOverlapping(ctx context.Context, destinationID string, start, end time.Time) ([]domain.Booking, error)
}

type AvailabilityChecker struct {
	finder OverlapFinder
}

func NewAvailabilityChecker(finder OverlapFinder) *AvailabilityChecker {
	return &AvailabilityChecker{finder: finder}
}

// Conflicts lists the active bookings that collide with [start, end).
// An empty result means the destination is free.
func (c *AvailabilityChecker) Conflicts(ctx context.Context, destinationID string, start, end time.Time) ([]domain.Booking, error) {
	v := &domain.ValidationError{}
	if destinationID == "" {
		v.Add("destinationId", "destination is required")
	}
	validateDates(v, start, end)
	if err := v.Err(); err != nil {
		return nil, err
	}

	candidates, err := c.finder.FindOverlapping(ctx, destinationID, start, end)
	if err != nil {
		return nil, err
	}

	conflicts := make([]domain.Booking, 0, len(candidates))
	for _, b := range candidates {
		if b.DestinationID != destinationID || !b.Status.IsActive() {
			continue
		}
		if Overlaps(b.StartDate, b.EndDate, start, end) {
			conflicts = append(conflicts, b)
		}
	}
	return conflicts, nil
}

// Overlaps reports whether the half-open stays [existingStart, existingEnd)
// and [start, end) collide. A stay ending on the day another starts does not.
func Overlaps(existingStart, existingEnd, start, end time.Time) bool {
	startsDuring := !start.Before(existingStart) && start.Before(existingEnd)
	endsDuring := existingStart.Before(end) && !end.After(existingEnd)
	contains := !existingStart.Before(start) && !existingEnd.After(end)
	return startsDuring || endsDuring || contains
}
