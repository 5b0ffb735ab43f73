package schedule

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"clinic-booking/internal/apierrors"
	"clinic-booking/internal/auth"
	"clinic-booking/internal/configs"
	"clinic-booking/internal/database"
	"clinic-booking/internal/logging"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type httpHandler struct {
	service Service
	logger  *zap.Logger
}

// Setup setups the routes handled by schedule context.
func Setup(router chi.Router, logger *zap.Logger, authorizer auth.Authorizer, config configs.Config, dbConn database.Connection) {
	handler := &httpHandler{logger: logger, service: NewService(config, dbConn)}

	// protected routes, for every staff role
	router.Group(func(group chi.Router) {
		group.Use(auth.JwtValidator(authorizer))
		group.Use(auth.AllowedRoles(authorizer, auth.AdminRole, auth.ReceptionistRole, auth.DoctorRole))
		group.Get("/api/v1/buildings/{buildingID}/grid/{year}/{month}/{day}", handler.GetGrid)
	})
}

// fail answers with the status matching err. Internal errors are logged with the request context.
func (h httpHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if apierrors.KindOf(err) == apierrors.KindInternal {
		logging.ForRequest(h.logger, r).Error("grid request failed", zap.Error(err))
	}
	apierrors.Write(w, err)
}

// parseDateParameters parses the year, month and day parameters into a valid date.
func (h httpHandler) parseDateParameters(r *http.Request) (time.Time, error) {
	concatDate := fmt.Sprintf("%s-%s-%s", chi.URLParam(r, "year"), chi.URLParam(r, "month"), chi.URLParam(r, "day"))
	date, err := time.Parse("2006-01-02", concatDate)
	if err != nil {
		return time.Time{}, apierrors.InvalidRequest(ErrInvalidDateReference)
	}
	return date, nil
}

// parseGridRequest reads the grid parameters from the path and the query string.
func (h httpHandler) parseGridRequest(r *http.Request) (GridRequest, error) {
	request := GridRequest{}
	date, err := h.parseDateParameters(r)
	if err != nil {
		return request, err
	}
	request.Date = date
	request.BuildingID, err = strconv.ParseInt(chi.URLParam(r, "buildingID"), 10, 64)
	if err != nil {
		return request, apierrors.InvalidRequest(ErrInvalidIdentifier)
	}
	query := r.URL.Query()
	request.CompanyCode = query.Get("company")
	if value := query.Get("location"); value != "" {
		if request.LocationID, err = strconv.ParseInt(value, 10, 64); err != nil {
			return request, apierrors.NewValidationError("location", "must be a number")
		}
	}
	if request.ViewMode, err = ParseViewMode(query.Get("view")); err != nil {
		return request, err
	}
	request.Page = 1
	if value := query.Get("page"); value != "" {
		if request.Page, err = strconv.Atoi(value); err != nil {
			return request, apierrors.InvalidRequest(ErrInvalidPage)
		}
	}
	return request, nil
}

func (h httpHandler) GetGrid(w http.ResponseWriter, r *http.Request) {
	request, err := h.parseGridRequest(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	result, err := h.service.BuildGrid(r.Context(), request)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(result)
}
