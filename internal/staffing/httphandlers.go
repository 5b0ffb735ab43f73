package staffing

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"clinic-booking/internal/apierrors"
	"clinic-booking/internal/auth"
	"clinic-booking/internal/database"
	"clinic-booking/internal/logging"
	"clinic-booking/internal/timeofday"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type httpHandler struct {
	service Service
	logger  *zap.Logger
}

// Setup setups the routes handled by staffing context.
func Setup(router chi.Router, logger *zap.Logger, authorizer auth.Authorizer, dbConn database.Connection) {
	handler := &httpHandler{logger: logger, service: NewService(dbConn)}

	// protected routes, only for the front desk
	router.Group(func(group chi.Router) {
		group.Use(auth.JwtValidator(authorizer))
		group.Use(auth.AllowedRoles(authorizer, auth.AdminRole, auth.ReceptionistRole))
		group.Get("/api/v1/rooms/{roomID}/eligible-staff", handler.FindEligibleStaff)
	})
}

func (h httpHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if apierrors.KindOf(err) == apierrors.KindInternal {
		logging.ForRequest(h.logger, r).Error("eligibility request failed", zap.Error(err))
	}
	apierrors.Write(w, err)
}

func parseFlag(value string) (bool, error) {
	if value == "" {
		return false, nil
	}
	flag, err := strconv.ParseBool(value)
	if err != nil {
		return false, apierrors.InvalidRequest(ErrInvalidCheckFlag)
	}
	return flag, nil
}

// parseRequest reads the eligibility parameters from the path and the query string.
func (h httpHandler) parseRequest(r *http.Request) (Request, error) {
	request := Request{}
	roomID, err := strconv.ParseInt(chi.URLParam(r, "roomID"), 10, 64)
	if err != nil {
		return request, apierrors.InvalidRequest(ErrInvalidIdentifier)
	}
	request.RoomID = roomID
	query := r.URL.Query()
	request.Role = query.Get("role")
	if value := query.Get("location_id"); value != "" {
		locationID, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return request, apierrors.InvalidRequest(ErrInvalidIdentifier)
		}
		request.LocationID = &locationID
	}
	if value := query.Get("date"); value != "" {
		date, err := time.Parse("2006-01-02", value)
		if err != nil {
			return request, apierrors.InvalidRequest(ErrInvalidDate)
		}
		request.Date = &date
	}
	if value := query.Get("time"); value != "" {
		at, err := timeofday.Parse(value)
		if err != nil {
			return request, apierrors.InvalidRequest("%s", err.Error())
		}
		request.Time = &at
	}
	if request.CheckLocation, err = parseFlag(query.Get("check_location")); err != nil {
		return request, err
	}
	if request.CheckTimeslot, err = parseFlag(query.Get("check_timeslot")); err != nil {
		return request, err
	}
	if request.CheckBooking, err = parseFlag(query.Get("check_booking")); err != nil {
		return request, err
	}
	return request, nil
}

func (h httpHandler) FindEligibleStaff(w http.ResponseWriter, r *http.Request) {
	request, err := h.parseRequest(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	candidates, err := h.service.FindEligible(r.Context(), request)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(candidates)
}
