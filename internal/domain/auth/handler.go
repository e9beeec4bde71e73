package auth

import (
	"errors"
	"net/http"

	"github.com/minewatch/minewatch-api/internal/middleware"
	"github.com/minewatch/minewatch-api/internal/pkg/errorhandler"
	"github.com/minewatch/minewatch-api/internal/pkg/response"
	"github.com/minewatch/minewatch-api/internal/pkg/validator"
)

// Handler handles auth HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates auth handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RequestCode handles POST /auth/code
func (h *Handler) RequestCode(w http.ResponseWriter, r *http.Request) {
	var req RequestCodeRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		errorhandler.HandleValidationError(r.Context(), w, errs)
		return
	}

	result, err := h.service.RequestCode(r.Context(), req.Identifier)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.OK(w, result)
}

// Verify handles POST /auth/verify
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		errorhandler.HandleValidationError(r.Context(), w, errs)
		return
	}

	result, err := h.service.Verify(r.Context(), req.Identifier, req.Code)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.OK(w, result)
}

// Refresh handles POST /auth/refresh
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		errorhandler.HandleValidationError(r.Context(), w, errs)
		return
	}

	result, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.OK(w, result)
}

// Logout handles POST /auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	_ = response.DecodeJSON(r.Body, &req)

	if err := h.service.Logout(r.Context(), req.RefreshToken); err != nil {
		h.writeError(w, r, err)
		return
	}

	response.NoContent(w)
}

// Me handles GET /auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.GetCurrentUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.OK(w, u)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidIdentifier):
		response.ValidationError(w, map[string]string{"identifier": err.Error()})
	case errors.Is(err, ErrInvalidCode):
		response.Error(w, http.StatusBadRequest, "INVALID_CODE", err.Error())
	case errors.Is(err, ErrTooManyAttempts):
		response.Error(w, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS", err.Error())
	case errors.Is(err, ErrCodeRateLimited):
		response.TooManyRequests(w, err.Error())
	case errors.Is(err, ErrInvalidRefreshToken), errors.Is(err, ErrRefreshTokenRequired):
		response.Unauthorized(w, "Invalid or expired refresh token")
	case errors.Is(err, ErrDeliveryUnavailable):
		errorhandler.HandleError(r.Context(), w, http.StatusServiceUnavailable, "DELIVERY_UNAVAILABLE", err.Error(), err)
	case errors.Is(err, ErrUserNotFound):
		response.NotFound(w, "User not found")
	default:
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", err)
	}
}
