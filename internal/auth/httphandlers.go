package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"clinic-booking/internal/apierrors"
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

// Setup setups the routes handled by auth context and returns the service guarding the others.
func Setup(router chi.Router, logger *zap.Logger, config configs.Config, dbConn database.Connection) Service {
	handler := &httpHandler{logger: logger, service: NewService(config, dbConn)}

	// public routes
	router.Group(func(group chi.Router) {
		group.Post("/api/v1/auth/login", handler.Authenticate)
		group.Put("/api/v1/auth/token", handler.RefreshToken)
	})

	// protected routes
	router.Group(func(group chi.Router) {
		group.Use(JwtValidator(handler.service))
		group.Get("/api/v1/auth/me", handler.GetAuthenticatedUser)
	})
	return handler.service
}

// fail answers with the status matching err and logs it.
func (h httpHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var unauthorized *UnauthorizedError
	if errors.As(err, &unauthorized) {
		logging.ForRequest(h.logger, r).Info("authentication refused", zap.Error(err))
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if apierrors.KindOf(err) == apierrors.KindInternal {
		logging.ForRequest(h.logger, r).Error("authentication failed", zap.Error(err))
	}
	apierrors.Write(w, err)
}

// Authenticate handles the request to authenticate a user.
func (h httpHandler) Authenticate(w http.ResponseWriter, r *http.Request) {
	credentials := new(Credentials)
	if err := json.NewDecoder(r.Body).Decode(credentials); err != nil {
		h.fail(w, r, apierrors.InvalidRequest("malformed body"))
		return
	}
	tokens, err := h.service.Authenticate(r.Context(), *credentials)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(tokens)
}

// RefreshToken handles the request to return new tokens to the holder of a refresh token.
func (h httpHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	request := new(Tokens)
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		h.fail(w, r, apierrors.InvalidRequest("malformed body"))
		return
	}
	tokens, err := h.service.RefreshTokens(r.Context(), *request)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(tokens)
}

// GetAuthenticatedUser handles the request to return data about the authenticated user.
func (h httpHandler) GetAuthenticatedUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetAuthenticatedUser(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(user)
}
