// Package booking contains handlers, services and structures used to run the booking lifecycle.
package booking

import (
	"context"
	"fmt"

	"clinic-booking/internal/apierrors"
	"clinic-booking/internal/auth"
	"clinic-booking/internal/database"
	"clinic-booking/internal/events"
	"clinic-booking/internal/metrics"

	"go.uber.org/zap"
)

// Writer determines the methods available to create and move bookings.
type Writer interface {

	// Create books a slot in status booked.
	Create(ctx context.Context, user auth.User, request CreateRequest) (CreateResult, error)

	// CheckIn moves a booked booking to in_progress.
	CheckIn(ctx context.Context, user auth.User, bookingID int64, request TransitionRequest) (StatusChange, error)

	// Cancel moves a booked booking to cancelled, storing the given reason.
	Cancel(ctx context.Context, user auth.User, bookingID int64, request TransitionRequest) (StatusChange, error)

	// Complete moves an in_progress booking to completed.
	Complete(ctx context.Context, user auth.User, bookingID int64, request TransitionRequest) (StatusChange, error)

	// MarkNoShow moves an in_progress booking to no_show.
	MarkNoShow(ctx context.Context, user auth.User, bookingID int64, request TransitionRequest) (StatusChange, error)

	// UpdateNote replaces the booking note without touching its status.
	UpdateNote(ctx context.Context, bookingID int64, request NoteRequest) error
}

// Reader determines the methods available to read bookings.
type Reader interface {

	// GetBooking returns the booking with the given ID.
	GetBooking(ctx context.Context, bookingID int64) (*Booking, error)

	// GetHistory returns the status changes of the booking, most recent first.
	GetHistory(ctx context.Context, bookingID int64) ([]History, error)
}

// Service determines the methods used to manage bookings.
type Service interface {
	Writer
	Reader
}

type defaultService struct {
	repository Repository
	publisher  events.Publisher
	logger     *zap.Logger
}

// NewService creates a new booking service publishing committed changes through publisher.
func NewService(logger *zap.Logger, publisher events.Publisher, dbConn database.Connection) Service {
	return &defaultService{
		repository: newRepository(dbConn),
		publisher:  publisher,
		logger:     logger,
	}
}

var eventTypes = map[Action]string{
	CheckIn:    events.BookingCheckedIn,
	Cancel:     events.BookingCancelled,
	Complete:   events.BookingCompleted,
	MarkNoShow: events.BookingNoShow,
}

// publish delivers event. The change is already committed, so failures are only logged.
func (d defaultService) publish(ctx context.Context, event events.Event) {
	if err := d.publisher.Publish(ctx, event); err != nil {
		d.logger.Warn("booking event not published",
			zap.String("type", event.Type),
			zap.Int64("booking_id", event.BookingID),
			zap.Error(err))
	}
}

func (d defaultService) Create(ctx context.Context, user auth.User, request CreateRequest) (CreateResult, error) {
	booking, err := request.toBooking()
	if err != nil {
		return CreateResult{}, err
	}
	id, err := d.repository.Insert(ctx, booking, user.ID)
	if err != nil {
		return CreateResult{}, database.Classify(err)
	}
	d.publish(ctx, events.NewEvent(events.BookingCreated, id, "", string(Booked), user.ID))
	return CreateResult{ID: id, Status: Booked}, nil
}

// transition applies action under the transition table guard.
func (d defaultService) transition(ctx context.Context, user auth.User, bookingID int64, action Action, change Change) (StatusChange, error) {
	guard := func(from Status) (Status, error) {
		to, ok := Next(action, from)
		if !ok {
			return "", apierrors.Conflict(fmt.Sprintf(ErrInvalidTransition, action, from), nil)
		}
		return to, nil
	}
	result, err := d.repository.Transition(ctx, bookingID, guard, change)
	if err != nil {
		err = database.Classify(err)
		metrics.ObserveTransition(string(action), string(apierrors.KindOf(err)))
		return StatusChange{}, err
	}
	metrics.ObserveTransition(string(action), "ok")
	d.publish(ctx, events.NewEvent(eventTypes[action], bookingID, string(result.From), string(result.To), user.ID))
	return result, nil
}

func (d defaultService) CheckIn(ctx context.Context, user auth.User, bookingID int64, request TransitionRequest) (StatusChange, error) {
	return d.transition(ctx, user, bookingID, CheckIn, Change{ChangedBy: user.ID, Note: request.Note})
}

func (d defaultService) Cancel(ctx context.Context, user auth.User, bookingID int64, request TransitionRequest) (StatusChange, error) {
	return d.transition(ctx, user, bookingID, Cancel, Change{ChangedBy: user.ID, Reason: request.Reason, Note: request.Note})
}

func (d defaultService) Complete(ctx context.Context, user auth.User, bookingID int64, request TransitionRequest) (StatusChange, error) {
	return d.transition(ctx, user, bookingID, Complete, Change{ChangedBy: user.ID, Note: request.Note})
}

func (d defaultService) MarkNoShow(ctx context.Context, user auth.User, bookingID int64, request TransitionRequest) (StatusChange, error) {
	return d.transition(ctx, user, bookingID, MarkNoShow, Change{ChangedBy: user.ID, Note: request.Note})
}

func (d defaultService) UpdateNote(ctx context.Context, bookingID int64, request NoteRequest) error {
	found, err := d.repository.UpdateNote(ctx, bookingID, request.Note)
	if err != nil {
		return database.Classify(err)
	}
	if !found {
		return apierrors.NotFound(ErrBookingNotFound)
	}
	return nil
}

func (d defaultService) GetBooking(ctx context.Context, bookingID int64) (*Booking, error) {
	booking, err := d.repository.FindBooking(ctx, bookingID)
	if err != nil {
		return nil, database.Classify(err)
	}
	if booking == nil {
		return nil, apierrors.NotFound(ErrBookingNotFound)
	}
	return booking, nil
}

func (d defaultService) GetHistory(ctx context.Context, bookingID int64) ([]History, error) {
	booking, err := d.repository.FindBooking(ctx, bookingID)
	if err != nil {
		return nil, database.Classify(err)
	}
	if booking == nil {
		return nil, apierrors.NotFound(ErrBookingNotFound)
	}
	history, err := d.repository.ListHistory(ctx, bookingID)
	if err != nil {
		return nil, database.Classify(err)
	}
	return history, nil
}
