package destinations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type DestinationUseCase interface {
	List(ctx context.Context) ([]domain.Destination, error)
	GetByID(ctx context.Context, id string) (*domain.Destination, error)
	Create(ctx context.Context, actor domain.Actor, input CreateDestinationInput) (*domain.Destination, error)
	Update(ctx context.Context, actor domain.Actor, id string, input UpdateDestinationInput) (*domain.Destination, error)
	Deactivate(ctx context.Context, actor domain.Actor, id string) error
}

// Cache holds the active destination list. A nil slice from
// GetDestinations is a miss.
type Cache interface {
	GetDestinations(ctx context.Context) ([]domain.Destination, error)
	SetDestinations(ctx context.Context, destinations []domain.Destination) error
	InvalidateDestinations(ctx context.Context) error
}

type CreateDestinationInput struct {
	Name        string
	Description string
	Location    string
	Category    string
	Price       int64
	Currency    string
	MaxGuests   int
}

// UpdateDestinationInput is a partial update; nil fields are left alone.
type UpdateDestinationInput struct {
	Name        *string
	Description *string
	Location    *string
	Category    *string
	Price       *int64
	Currency    *string
	MaxGuests   *int
	IsActive    *bool
}

type DestinationService struct {
	repo            repository.DestinationRepository
	cache           Cache
	logger          *logrus.Logger
	defaultCurrency string
}

func NewDestinationService(repo repository.DestinationRepository, cache Cache, logger *logrus.Logger, defaultCurrency string) *DestinationService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &DestinationService{repo: repo, cache: cache, logger: logger, defaultCurrency: defaultCurrency}
}

func (s *DestinationService) List(ctx context.Context) ([]domain.Destination, error) {
	if s.cache != nil {
		cached, err := s.cache.GetDestinations(ctx)
		if err == nil && cached != nil {
			return cached, nil
		}
		if err != nil {
			s.logger.WithError(err).Warn("read destinations cache")
		}
	}

	destinations, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetDestinations(ctx, destinations); err != nil {
			s.logger.WithError(err).Warn("write destinations cache")
		}
	}
	return destinations, nil
}

func (s *DestinationService) GetByID(ctx context.Context, id string) (*domain.Destination, error) {
	d, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrDestinationNotFound
	}
	return d, err
}

func (s *DestinationService) Create(ctx context.Context, actor domain.Actor, input CreateDestinationInput) (*domain.Destination, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrAccessDenied
	}

	d := &domain.Destination{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Location:    strings.TrimSpace(input.Location),
		Category:    strings.TrimSpace(input.Category),
		Price:       input.Price,
		Currency:    strings.ToUpper(strings.TrimSpace(input.Currency)),
		MaxGuests:   input.MaxGuests,
		IsActive:    true,
		CreatedBy:   actor.UserID,
	}
	if d.Currency == "" {
		d.Currency = s.defaultCurrency
	}
	if err := validate(d); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.logger.WithFields(logrus.Fields{"destination_id": d.ID, "created_by": actor.UserID}).Info("destination created")
	return d, nil
}

func (s *DestinationService) Update(ctx context.Context, actor domain.Actor, id string, input UpdateDestinationInput) (*domain.Destination, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrAccessDenied
	}

	d, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		d.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		d.Description = strings.TrimSpace(*input.Description)
	}
	if input.Location != nil {
		d.Location = strings.TrimSpace(*input.Location)
	}
	if input.Category != nil {
		d.Category = strings.TrimSpace(*input.Category)
	}
	if input.Price != nil {
		d.Price = *input.Price
	}
	if input.Currency != nil {
		d.Currency = strings.ToUpper(strings.TrimSpace(*input.Currency))
	}
	if input.MaxGuests != nil {
		d.MaxGuests = *input.MaxGuests
	}
	if input.IsActive != nil {
		d.IsActive = *input.IsActive
	}
	if err := validate(d); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, d); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrDestinationNotFound
		}
		return nil, err
	}
	s.invalidate(ctx)
	s.logger.WithFields(logrus.Fields{"destination_id": d.ID, "updated_by": actor.UserID}).Info("destination updated")
	return d, nil
}

// Deactivate is a soft delete: the destination stops accepting bookings
// and drops out of List.
func (s *DestinationService) Deactivate(ctx context.Context, actor domain.Actor, id string) error {
	if !actor.IsAdmin() {
		return domain.ErrAccessDenied
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrDestinationNotFound
		}
		return err
	}
	s.invalidate(ctx)
	s.logger.WithFields(logrus.Fields{"destination_id": id, "deactivated_by": actor.UserID}).Info("destination deactivated")
	return nil
}

func (s *DestinationService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateDestinations(ctx); err != nil {
		s.logger.WithError(err).Warn("invalidate destinations cache")
	}
}

func validate(d *domain.Destination) error {
	v := &domain.ValidationError{}
	if d.Name == "" || len(d.Name) > 100 {
		v.Add("name", "name must be 1 to 100 characters")
	}
	if d.Location == "" || len(d.Location) > 100 {
		v.Add("location", "location must be 1 to 100 characters")
	}
	if d.Price < 0 {
		v.Add("price", "price cannot be negative")
	}
	if d.MaxGuests < 1 {
		v.Add("maxGuests", "at least 1 guest must be allowed")
	}
	if len(d.Currency) != 3 {
		v.Add("currency", fmt.Sprintf("currency %q must be a 3-letter code", d.Currency))
	}
	return v.Err()
}

var _ DestinationUseCase = (*DestinationService)(nil)
