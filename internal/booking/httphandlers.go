package booking

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"clinic-booking/internal/apierrors"
	"clinic-booking/internal/auth"
	"clinic-booking/internal/database"
	"clinic-booking/internal/events"
	"clinic-booking/internal/logging"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type httpHandler struct {
	authorizer auth.Authorizer
	service    Service
	logger     *zap.Logger
}

// Setup setups the routes handled by booking context.
func Setup(router chi.Router, logger *zap.Logger, authorizer auth.Authorizer, publisher events.Publisher, dbConn database.Connection) {
	handler := &httpHandler{logger: logger, authorizer: authorizer, service: NewService(logger, publisher, dbConn)}

	// protected routes, only for the front desk
	router.Group(func(group chi.Router) {
		group.Use(auth.JwtValidator(authorizer))
		group.Use(auth.AllowedRoles(authorizer, auth.AdminRole, auth.ReceptionistRole))
		group.Post("/api/v1/bookings", handler.CreateBooking)
		group.Post("/api/v1/bookings/{bookingID}/cancel", handler.transition(handler.service.Cancel))
		group.Put("/api/v1/bookings/{bookingID}/note", handler.UpdateNote)
	})

	// protected routes, for every staff role
	router.Group(func(group chi.Router) {
		group.Use(auth.JwtValidator(authorizer))
		group.Use(auth.AllowedRoles(authorizer, auth.AdminRole, auth.ReceptionistRole, auth.DoctorRole))
		group.Get("/api/v1/bookings/{bookingID}", handler.GetBooking)
		group.Get("/api/v1/bookings/{bookingID}/history", handler.GetHistory)
		group.Post("/api/v1/bookings/{bookingID}/check-in", handler.transition(handler.service.CheckIn))
		group.Post("/api/v1/bookings/{bookingID}/complete", handler.transition(handler.service.Complete))
		group.Post("/api/v1/bookings/{bookingID}/no-show", handler.transition(handler.service.MarkNoShow))
	})
}

func (h httpHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if apierrors.KindOf(err) == apierrors.KindInternal {
		logging.ForRequest(h.logger, r).Error("booking request failed", zap.Error(err))
	}
	apierrors.Write(w, err)
}

// parseBookingID parses the bookingID path parameter.
func (h httpHandler) parseBookingID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "bookingID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apierrors.InvalidRequest(ErrInvalidIdentifier)
	}
	return id, nil
}

// decodeOptional decodes the request body into v, accepting an empty body.
func decodeOptional(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return apierrors.InvalidRequest(ErrMalformedBody)
	}
	return nil
}

func (h httpHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.authorizer.GetAuthenticatedUser(ctx)
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	request := new(CreateRequest)
	if err = json.NewDecoder(r.Body).Decode(request); err != nil {
		h.fail(w, r, apierrors.InvalidRequest(ErrMalformedBody))
		return
	}
	result, err := h.service.Create(ctx, user, *request)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(result)
}

type transitionFunc func(ctx context.Context, user auth.User, bookingID int64, request TransitionRequest) (StatusChange, error)

// transition builds the handler of a lifecycle action.
func (h httpHandler) transition(apply transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		user, err := h.authorizer.GetAuthenticatedUser(ctx)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		bookingID, err := h.parseBookingID(r)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		request := TransitionRequest{}
		if err = decodeOptional(r, &request); err != nil {
			h.fail(w, r, err)
			return
		}
		result, err := apply(ctx, user, bookingID, request)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		_ = json.NewEncoder(w).Encode(result)
	}
}

func (h httpHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	bookingID, err := h.parseBookingID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	request := NoteRequest{}
	if err = json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.fail(w, r, apierrors.InvalidRequest(ErrMalformedBody))
		return
	}
	if err = h.service.UpdateNote(r.Context(), bookingID, request); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h httpHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, err := h.parseBookingID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	booking, err := h.service.GetBooking(r.Context(), bookingID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(booking)
}

func (h httpHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	bookingID, err := h.parseBookingID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	history, err := h.service.GetHistory(r.Context(), bookingID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(history)
}
