package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/export"
	"github.com/Domenick1991/travelbooking/internal/kafka"
	"github.com/Domenick1991/travelbooking/internal/metrics"
	"github.com/Domenick1991/travelbooking/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, actor domain.Actor, input CreateBookingInput) (*domain.Booking, error)
	GetBooking(ctx context.Context, actor domain.Actor, id string) (*domain.Booking, error)
	ListBookings(ctx context.Context, actor domain.Actor, filter domain.BookingFilter) (*domain.BookingPage, error)
	UpdateBooking(ctx context.Context, actor domain.Actor, id string, input UpdateBookingInput) (*domain.Booking, error)
	CancelBooking(ctx context.Context, actor domain.Actor, id string, input CancelBookingInput) (*domain.Booking, error)
	ConfirmBooking(ctx context.Context, actor domain.Actor, id string) (*domain.Booking, error)
	CompleteBooking(ctx context.Context, actor domain.Actor, id string) (*domain.Booking, error)
	RefundBooking(ctx context.Context, actor domain.Actor, id string) (*domain.Booking, error)
	AddReview(ctx context.Context, actor domain.Actor, id string, input ReviewInput) (*domain.Booking, error)
	CheckAvailability(ctx context.Context, destinationID string, start, end time.Time) (*Availability, error)
	CompleteFinishedStays(ctx context.Context) ([]domain.Booking, error)
	Stats(ctx context.Context, actor domain.Actor, from, to *time.Time) (*domain.BookingStats, error)
	ExportBookings(ctx context.Context, actor domain.Actor, filter domain.BookingFilter) ([]byte, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type CreateBookingInput struct {
	DestinationID   string
	StartDate       time.Time
	EndDate         time.Time
	Guests          int
	GuestDetails    *domain.GuestDetails
	SpecialRequests string
	PaymentMethod   domain.PaymentMethod
	Metadata        domain.Metadata
}

// UpdateBookingInput carries the fields a booking owner may change. Nil
// means "leave as is".
type UpdateBookingInput struct {
	SpecialRequests *string
	GuestDetails    *domain.GuestDetails
}

type CancelBookingInput struct {
	Reason string
	// Force lets an admin cancel a confirmed stay that has already started.
	Force bool
}

type ReviewInput struct {
	Rating  int
	Comment string
}

type Availability struct {
	Available bool
	Conflicts []domain.Booking
}

const (
	maxPageSize   = 100
	maxExportRows = 10000
)

type BookingService struct {
	bookings            repository.BookingRepository
	destinations        repository.DestinationRepository
	availability        *AvailabilityChecker
	locker              DestinationLocker
	producer            Producer
	bookingTopic        string
	notificationsTopic  string
	metrics             *metrics.Metrics
	logger              *logrus.Logger
	now                 func() time.Time
	newCode             func(time.Time) string
	defaultCurrency     string
	readRetries         int
	readBackoff         time.Duration
	confirmationRetries int
}

type BookingServiceOption func(*BookingService)

func WithProducer(producer Producer, bookingTopic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = producer
		s.bookingTopic = bookingTopic
	}
}

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithMetrics(m *metrics.Metrics) BookingServiceOption {
	return func(s *BookingService) {
		s.metrics = m
	}
}

func WithLogger(logger *logrus.Logger) BookingServiceOption {
	return func(s *BookingService) {
		s.logger = logger
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func WithConfirmationPrefix(prefix string) BookingServiceOption {
	return func(s *BookingService) {
		s.newCode = func(now time.Time) string { return NewConfirmationNumber(prefix, now) }
	}
}

func WithDefaultCurrency(currency string) BookingServiceOption {
	return func(s *BookingService) {
		s.defaultCurrency = strings.ToUpper(currency)
	}
}

// WithReadRetries sets how often CheckAvailability retries after
// StorageUnavailable, with a linear backoff.
func WithReadRetries(retries int, backoff time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.readRetries = retries
		s.readBackoff = backoff
	}
}

func WithConfirmationRetries(retries int) BookingServiceOption {
	return func(s *BookingService) {
		s.confirmationRetries = retries
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	destinations repository.DestinationRepository,
	locker DestinationLocker,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:            bookings,
		destinations:        destinations,
		availability:        NewAvailabilityChecker(bookings),
		locker:              locker,
		logger:              logrus.StandardLogger(),
		now:                 func() time.Time { return time.Now().UTC() },
		newCode:             func(now time.Time) string { return NewConfirmationNumber("TRV", now) },
		defaultCurrency:     "USD",
		readRetries:         3,
		readBackoff:         100 * time.Millisecond,
		confirmationRetries: 3,
	}
	for _, opt := range opts {
		opt(service)
	}
	if service.locker == nil {
		service.locker = NewLocalLocker(3 * time.Second)
	}
	return service
}

// CreateBooking reserves a destination for [StartDate, EndDate). The
// availability check and the insert run under the destination lock, and the
// repository re-checks inside its transaction.
func (s *BookingService) CreateBooking(ctx context.Context, actor domain.Actor, input CreateBookingInput) (*domain.Booking, error) {
	if actor.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	now := s.now()
	if err := validateCreateInput(input, now); err != nil {
		return nil, err
	}

	destination, err := s.activeDestination(ctx, input.DestinationID)
	if err != nil {
		return nil, err
	}

	lockStart := time.Now()
	unlock, err := s.locker.LockDestination(ctx, destination.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	s.metrics.ObserveLockWait(time.Since(lockStart).Seconds())

	conflicts, err := s.availability.Conflicts(ctx, destination.ID, input.StartDate, input.EndDate)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		s.metrics.IncConflict()
		return nil, fmt.Errorf("%w: %d conflicting booking(s)", domain.ErrDatesUnavailable, len(conflicts))
	}

	if err := ValidateGuestCapacity(input.Guests, destination.MaxGuests); err != nil {
		return nil, err
	}

	nights := Nights(input.StartDate, input.EndDate)
	booking := &domain.Booking{
		ID:              uuid.NewString(),
		UserID:          actor.UserID,
		DestinationID:   destination.ID,
		StartDate:       input.StartDate,
		EndDate:         input.EndDate,
		Guests:          input.Guests,
		PricePerNight:   destination.Price,
		TotalPrice:      PriceBooking(nights, destination.Price, input.Guests),
		Currency:        s.currencyFor(destination),
		Status:          domain.BookingStatusPending,
		PaymentStatus:   domain.PaymentStatusPending,
		PaymentMethod:   input.PaymentMethod,
		SpecialRequests: strings.TrimSpace(input.SpecialRequests),
		GuestDetails:    s.guestDetailsFor(actor, input.GuestDetails),
		Metadata:        input.Metadata,
	}
	if booking.PaymentMethod == "" {
		booking.PaymentMethod = domain.PaymentMethodCreditCard
	}
	if booking.Metadata.Source == "" {
		booking.Metadata.Source = domain.BookingSourceWeb
	}

	if err := s.bookings.CreatePending(ctx, booking); err != nil {
		if errors.Is(err, domain.ErrDatesUnavailable) {
			s.metrics.IncConflict()
		}
		return nil, err
	}

	s.metrics.IncCreated()
	s.logger.WithFields(logrus.Fields{
		"booking_id":     booking.ID,
		"destination_id": booking.DestinationID,
		"user_id":        booking.UserID,
		"nights":         nights,
		"total_price":    booking.TotalPrice,
	}).Info("booking created")
	s.publish(ctx, kafka.EventBookingCreated, booking)
	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, actor domain.Actor, id string) (*domain.Booking, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !actor.Owns(current) {
		return nil, domain.ErrAccessDenied
	}
	return current, nil
}

// ListBookings pages through bookings. Non-admins only ever see their own.
func (s *BookingService) ListBookings(ctx context.Context, actor domain.Actor, filter domain.BookingFilter) (*domain.BookingPage, error) {
	if actor.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	if !actor.IsAdmin() {
		filter.UserID = actor.UserID
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.FieldError("status", "unknown booking status")
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 10
	}
	if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}

	bookings, total, err := s.bookings.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &domain.BookingPage{
		Bookings:   bookings,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: (total + filter.Limit - 1) / filter.Limit,
	}, nil
}

// UpdateBooking changes special requests and guest details. Owners may only
// edit pending bookings; admins may edit any.
func (s *BookingService) UpdateBooking(ctx context.Context, actor domain.Actor, id string, input UpdateBookingInput) (*domain.Booking, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !(actor.Owns(current) && current.Status == domain.BookingStatusPending) {
		return nil, domain.ErrAccessDenied
	}

	v := &domain.ValidationError{}
	if input.SpecialRequests != nil {
		validateSpecialRequests(v, *input.SpecialRequests)
	}
	if input.GuestDetails != nil {
		validateGuestDetails(v, *input.GuestDetails)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	updated := *current
	if input.SpecialRequests != nil {
		updated.SpecialRequests = strings.TrimSpace(*input.SpecialRequests)
	}
	if input.GuestDetails != nil {
		updated.GuestDetails = normalizeGuestDetails(*input.GuestDetails)
	}

	if err := s.bookings.Save(ctx, &updated, current.Status); err != nil {
		return nil, err
	}
	s.publish(ctx, kafka.EventBookingUpdated, &updated)
	return &updated, nil
}

// CancelBooking cancels on behalf of the owner or an admin and stores the
// refund owed at this moment.
func (s *BookingService) CancelBooking(ctx context.Context, actor domain.Actor, id string, input CancelBookingInput) (*domain.Booking, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !actor.Owns(current) {
		return nil, domain.ErrAccessDenied
	}
	reason := strings.TrimSpace(input.Reason)
	if len(reason) > maxCancellationReason {
		return nil, domain.FieldError("reason", fmt.Sprintf("reason cannot exceed %d characters", maxCancellationReason))
	}

	now := s.now()
	cancelled, err := Cancel(*current, reason, actor.UserID, now, input.Force && actor.IsAdmin())
	if err != nil {
		return nil, err
	}
	cancelled.Cancellation.RefundAmount = CalculateRefund(*current, now)

	if err := s.bookings.Save(ctx, &cancelled, current.Status); err != nil {
		return nil, err
	}

	s.metrics.IncTransition(string(cancelled.Status))
	s.metrics.AddRefund(cancelled.Cancellation.RefundAmount)
	s.logger.WithFields(logrus.Fields{
		"booking_id":    cancelled.ID,
		"cancelled_by":  actor.UserID,
		"refund_amount": cancelled.Cancellation.RefundAmount,
		"forced":        input.Force && actor.IsAdmin(),
	}).Info("booking cancelled")
	s.publish(ctx, kafka.EventBookingCancelled, &cancelled)
	return &cancelled, nil
}

// ConfirmBooking is admin-only. A confirmation number collision is retried
// with a fresh number; the transition itself is never repeated.
func (s *BookingService) ConfirmBooking(ctx context.Context, actor domain.Actor, id string) (*domain.Booking, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrAccessDenied
	}
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	attempts := s.confirmationRetries
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 0; attempt < attempts; attempt++ {
		now := s.now()
		confirmed, err := Confirm(*current, now, s.newCode(now))
		if err != nil {
			return nil, err
		}

		err = s.bookings.Save(ctx, &confirmed, current.Status)
		if errors.Is(err, repository.ErrDuplicateConfirmation) {
			s.logger.WithField("booking_id", id).Warn("confirmation number collision, regenerating")
			continue
		}
		if err != nil {
			return nil, err
		}

		s.metrics.IncTransition(string(confirmed.Status))
		s.logger.WithFields(logrus.Fields{
			"booking_id":          confirmed.ID,
			"confirmation_number": confirmed.Confirmation.ConfirmationNumber,
		}).Info("booking confirmed")
		s.publish(ctx, kafka.EventBookingConfirmed, &confirmed)
		return &confirmed, nil
	}
	return nil, fmt.Errorf("confirm booking %s: %w", id, repository.ErrDuplicateConfirmation)
}

func (s *BookingService) CompleteBooking(ctx context.Context, actor domain.Actor, id string) (*domain.Booking, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrAccessDenied
	}
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.complete(ctx, *current)
}

func (s *BookingService) RefundBooking(ctx context.Context, actor domain.Actor, id string) (*domain.Booking, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrAccessDenied
	}
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	refunded, err := MarkRefunded(*current)
	if err != nil {
		return nil, err
	}
	if err := s.bookings.Save(ctx, &refunded, current.Status); err != nil {
		return nil, err
	}
	s.metrics.IncTransition(string(refunded.Status))
	s.publish(ctx, kafka.EventBookingRefunded, &refunded)
	return &refunded, nil
}

// AddReview attaches the owner's review and refreshes the destination
// rating. A failed rating refresh is logged; the review stays.
func (s *BookingService) AddReview(ctx context.Context, actor domain.Actor, id string, input ReviewInput) (*domain.Booking, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(current) {
		return nil, domain.ErrAccessDenied
	}

	reviewed, err := AttachReview(*current, input.Rating, input.Comment, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.bookings.Save(ctx, &reviewed, current.Status); err != nil {
		return nil, err
	}

	if err := s.destinations.RefreshRating(ctx, reviewed.DestinationID); err != nil {
		s.logger.WithError(err).WithField("destination_id", reviewed.DestinationID).Warn("refresh destination rating")
	}
	s.publish(ctx, kafka.EventBookingReviewed, &reviewed)
	return &reviewed, nil
}

// CheckAvailability is read-only and retried on StorageUnavailable.
func (s *BookingService) CheckAvailability(ctx context.Context, destinationID string, start, end time.Time) (*Availability, error) {
	var result *Availability
	err := s.retryRead(ctx, func() error {
		destination, err := s.activeDestination(ctx, destinationID)
		if err != nil {
			return err
		}
		conflicts, err := s.availability.Conflicts(ctx, destination.ID, start, end)
		if err != nil {
			return err
		}
		result = &Availability{Available: len(conflicts) == 0, Conflicts: conflicts}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CompleteFinishedStays completes every confirmed booking whose end date has
// passed. Bookings changed concurrently are skipped.
func (s *BookingService) CompleteFinishedStays(ctx context.Context) ([]domain.Booking, error) {
	finished, err := s.bookings.ListFinishedConfirmed(ctx, s.now())
	if err != nil {
		return nil, err
	}

	completed := make([]domain.Booking, 0, len(finished))
	for _, b := range finished {
		done, err := s.complete(ctx, b)
		if errors.Is(err, domain.ErrInvalidStateTransition) {
			continue
		}
		if err != nil {
			return completed, err
		}
		completed = append(completed, *done)
	}
	return completed, nil
}

func (s *BookingService) Stats(ctx context.Context, actor domain.Actor, from, to *time.Time) (*domain.BookingStats, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrAccessDenied
	}
	return s.bookings.Stats(ctx, from, to)
}

// ExportBookings renders every booking matching filter as an XLSX workbook.
func (s *BookingService) ExportBookings(ctx context.Context, actor domain.Actor, filter domain.BookingFilter) ([]byte, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrAccessDenied
	}

	var all []domain.Booking
	filter.Limit = maxPageSize
	for filter.Page = 1; ; filter.Page++ {
		bookings, total, err := s.bookings.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, bookings...)
		if len(bookings) == 0 || len(all) >= total || len(all) >= maxExportRows {
			break
		}
	}
	return export.BookingsXLSX(all)
}

func (s *BookingService) complete(ctx context.Context, current domain.Booking) (*domain.Booking, error) {
	completed, err := Complete(current, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.bookings.Save(ctx, &completed, current.Status); err != nil {
		return nil, err
	}
	s.metrics.IncTransition(string(completed.Status))
	s.publish(ctx, kafka.EventBookingCompleted, &completed)
	return &completed, nil
}

func (s *BookingService) load(ctx context.Context, id string) (*domain.Booking, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.FieldError("id", "booking id is required")
	}
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("booking %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return b, nil
}

func (s *BookingService) activeDestination(ctx context.Context, id string) (*domain.Destination, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.FieldError("destinationId", "destination is required")
	}
	d, err := s.destinations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrDestinationNotFound
		}
		return nil, err
	}
	if !d.IsActive {
		return nil, domain.ErrDestinationNotFound
	}
	return d, nil
}

func (s *BookingService) retryRead(ctx context.Context, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || !errors.Is(err, domain.ErrStorageUnavailable) || attempt >= s.readRetries {
			return err
		}
		s.logger.WithError(err).WithField("attempt", attempt+1).Warn("storage unavailable, retrying read")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * s.readBackoff):
		}
	}
}

func (s *BookingService) currencyFor(d *domain.Destination) string {
	if d.Currency != "" {
		return strings.ToUpper(d.Currency)
	}
	return s.defaultCurrency
}

// guestDetailsFor falls back to the actor's identity for the primary guest.
func (s *BookingService) guestDetailsFor(actor domain.Actor, details *domain.GuestDetails) domain.GuestDetails {
	if details == nil {
		return domain.GuestDetails{PrimaryGuest: domain.Guest{Name: actor.Name, Email: strings.ToLower(actor.Email)}}
	}
	return normalizeGuestDetails(*details)
}

func (s *BookingService) publish(ctx context.Context, eventType string, b *domain.Booking) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:          eventType,
		BookingID:     b.ID,
		DestinationID: b.DestinationID,
		UserID:        b.UserID,
		Email:         b.GuestDetails.PrimaryGuest.Email,
		GuestName:     b.GuestDetails.PrimaryGuest.Name,
		Status:        string(b.Status),
		StartDate:     b.StartDate,
		EndDate:       b.EndDate,
		TotalPrice:    b.TotalPrice,
		Currency:      b.Currency,
		OccurredAt:    s.now(),
	}
	if b.Confirmation != nil {
		event.ConfirmationNumber = b.Confirmation.ConfirmationNumber
	}
	if b.Cancellation != nil {
		event.RefundAmount = b.Cancellation.RefundAmount
	}

	if err := s.producer.Publish(ctx, s.bookingTopic, b.ID, event); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{"booking_id": b.ID, "event": eventType}).Warn("failed to publish booking event")
		return
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, b.ID, event); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{"booking_id": b.ID, "event": eventType}).Warn("failed to publish notification")
		}
	}
}

var _ BookingUseCase = (*BookingService)(nil)
