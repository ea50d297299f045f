package booking

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hogwarts/facility-booking/internal/facility"
	"github.com/hogwarts/facility-booking/internal/pkg/apperror"
	"github.com/hogwarts/facility-booking/internal/pkg/logger"
	"github.com/hogwarts/facility-booking/internal/user"
)

// Event routing keys.
const (
	EventCreated   = "booking.created"
	EventUpdated   = "booking.updated"
	EventCancelled = "booking.cancelled"
)

const publishTimeout = 2 * time.Second

type FacilityFinder interface {
	GetByID(ctx context.Context, id int64) (*facility.Facility, error)
}

type UserFinder interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

type CreateRequest struct {
	FacilityID int64
	OwnerID    int64
	Date       string
	Slot       SlotInput
}

type EditRequest struct {
	BookingID  int64
	FacilityID int64
	Date       string
	Slot       SlotInput
}

// Event is the payload published after every successful write.
type Event struct {
	Type       string    `json:"type"`
	BookingID  int64     `json:"bookingId"`
	FacilityID int64     `json:"facilityId"`
	OwnerID    int64     `json:"ownerId"`
	Date       string    `json:"date"`
	TimeSlot   string    `json:"timeSlot"`
	OccurredAt time.Time `json:"occurredAt"`
}

type Service interface {
	CheckAvailability(ctx context.Context, facilityID int64, date string) ([]Interval, error)
	CreateBooking(ctx context.Context, req CreateRequest) (*Booking, error)
	// CancelBooking deletes a booking owned by requesterID.
	CancelBooking(ctx context.Context, bookingID, requesterID int64) error
	// DeleteBooking deletes a booking regardless of owner.
	DeleteBooking(ctx context.Context, bookingID int64) error
	ListBookingsForUser(ctx context.Context, ownerID int64) ([]*Booking, error)
	ListAllBookings(ctx context.Context) ([]*Booking, error)
	BookingStats(ctx context.Context) ([]FacilityCount, error)
	BookingCount(ctx context.Context) (int, error)
	EditBooking(ctx context.Context, req EditRequest) (*Booking, error)
}

type service struct {
	repo       Repository
	facilities FacilityFinder
	users      UserFinder
	events     EventPublisher
	log        *logger.Logger
	tracer     trace.Tracer
}

func NewService(repo Repository, facilities FacilityFinder, users UserFinder, events EventPublisher, log *logger.Logger) Service {
	return &service{
		repo:       repo,
		facilities: facilities,
		users:      users,
		events:     events,
		log:        log,
		tracer:     otel.Tracer("github.com/hogwarts/facility-booking/internal/booking"),
	}
}

func (s *service) CheckAvailability(ctx context.Context, facilityID int64, date string) (_ []Interval, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.CheckAvailability",
		trace.WithAttributes(attribute.Int64("facility.id", facilityID), attribute.String("booking.date", date)))
	defer func() { endSpan(span, err) }()

	day, err := ParseDate(date)
	if err != nil {
		return nil, err
	}
	if err := s.requireFacility(ctx, facilityID); err != nil {
		return nil, err
	}

	booked, err := s.repo.ListBooked(ctx, facilityID, day)
	if err != nil {
		return nil, apperror.StoreFailure(err)
	}
	return booked, nil
}

func (s *service) CreateBooking(ctx context.Context, req CreateRequest) (_ *Booking, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.Create",
		trace.WithAttributes(
			attribute.Int64("facility.id", req.FacilityID),
			attribute.Int64("owner.id", req.OwnerID),
			attribute.String("booking.date", req.Date),
		))
	defer func() { endSpan(span, err) }()

	day, err := ParseDate(req.Date)
	if err != nil {
		return nil, err
	}
	slot, err := req.Slot.Resolve()
	if err != nil {
		return nil, err
	}
	if err := s.requireFacility(ctx, req.FacilityID); err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, req.OwnerID); err != nil {
		return nil, err
	}

	b := &Booking{
		FacilityID: req.FacilityID,
		OwnerID:    req.OwnerID,
		Date:       day,
		Slot:       slot,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, s.writeError(err)
	}

	s.log.Info("booking created",
		"booking_id", b.ID, "facility_id", b.FacilityID, "owner_id", b.OwnerID,
		"date", req.Date, "slot", slot.String())
	s.publish(ctx, EventCreated, b)
	return b, nil
}

func (s *service) CancelBooking(ctx context.Context, bookingID, requesterID int64) (err error) {
	ctx, span := s.tracer.Start(ctx, "booking.Cancel",
		trace.WithAttributes(attribute.Int64("booking.id", bookingID), attribute.Int64("requester.id", requesterID)))
	defer func() { endSpan(span, err) }()

	if requesterID <= 0 {
		return ErrNotFound
	}
	return s.delete(ctx, bookingID, requesterID)
}

func (s *service) DeleteBooking(ctx context.Context, bookingID int64) (err error) {
	ctx, span := s.tracer.Start(ctx, "booking.Delete",
		trace.WithAttributes(attribute.Int64("booking.id", bookingID)))
	defer func() { endSpan(span, err) }()

	return s.delete(ctx, bookingID, 0)
}

func (s *service) delete(ctx context.Context, bookingID, ownerID int64) error {
	// fetched only for the event payload; a miss is reported by Delete below
	before, err := s.repo.GetByID(ctx, bookingID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return apperror.StoreFailure(err)
	}

	if err := s.repo.Delete(ctx, bookingID, ownerID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return apperror.StoreFailure(err)
	}

	s.log.Info("booking cancelled", "booking_id", bookingID, "scoped_to_owner", ownerID != 0)
	if before != nil {
		s.publish(ctx, EventCancelled, before)
	}
	return nil
}

func (s *service) ListBookingsForUser(ctx context.Context, ownerID int64) ([]*Booking, error) {
	out, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperror.StoreFailure(err)
	}
	return out, nil
}

func (s *service) ListAllBookings(ctx context.Context) ([]*Booking, error) {
	out, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, apperror.StoreFailure(err)
	}
	return out, nil
}

func (s *service) BookingStats(ctx context.Context) ([]FacilityCount, error) {
	out, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, apperror.StoreFailure(err)
	}
	return out, nil
}

func (s *service) BookingCount(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, apperror.StoreFailure(err)
	}
	return n, nil
}

func (s *service) EditBooking(ctx context.Context, req EditRequest) (_ *Booking, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.Edit",
		trace.WithAttributes(
			attribute.Int64("booking.id", req.BookingID),
			attribute.Int64("facility.id", req.FacilityID),
			attribute.String("booking.date", req.Date),
		))
	defer func() { endSpan(span, err) }()

	day, err := ParseDate(req.Date)
	if err != nil {
		return nil, err
	}
	slot, err := req.Slot.Resolve()
	if err != nil {
		return nil, err
	}
	if err := s.requireFacility(ctx, req.FacilityID); err != nil {
		return nil, err
	}

	b := &Booking{
		ID:         req.BookingID,
		FacilityID: req.FacilityID,
		Date:       day,
		Slot:       slot,
	}
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, s.writeError(err)
	}

	s.log.Info("booking updated",
		"booking_id", b.ID, "facility_id", b.FacilityID, "date", req.Date, "slot", slot.String())
	s.publish(ctx, EventUpdated, b)
	return b, nil
}

func (s *service) requireFacility(ctx context.Context, id int64) error {
	if _, err := s.facilities.GetByID(ctx, id); err != nil {
		if errors.Is(err, facility.ErrNotFound) {
			return ErrFacilityNotFound
		}
		return apperror.StoreFailure(err)
	}
	return nil
}

func (s *service) requireUser(ctx context.Context, id int64) error {
	if _, err := s.users.GetByID(ctx, id); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrUserNotFound
		}
		return apperror.StoreFailure(err)
	}
	return nil
}

// writeError keeps domain outcomes and wraps everything else as a store failure.
func (s *service) writeError(err error) error {
	for _, known := range []error{ErrSlotConflict, ErrNotFound, ErrFacilityNotFound, ErrUserNotFound, ErrInvalidSlot} {
		if errors.Is(err, known) {
			return err
		}
	}
	return apperror.StoreFailure(err)
}

func (s *service) publish(ctx context.Context, key string, b *Booking) {
	if s.events == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	ev := Event{
		Type:       key,
		BookingID:  b.ID,
		FacilityID: b.FacilityID,
		OwnerID:    b.OwnerID,
		Date:       b.Date.Format(DateLayout),
		TimeSlot:   b.Slot.String(),
		OccurredAt: time.Now().UTC(),
	}
	if err := s.events.PublishJSON(ctx, key, ev); err != nil {
		s.log.Warn("publish booking event failed", "event", key, "booking_id", b.ID, "error", err)
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		if apperror.StatusOf(err) >= 500 {
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.End()
}
