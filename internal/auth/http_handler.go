package auth

import (
	"net/http"
	"time"

	"bookshelf/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type meResponse struct {
	UserID    string    `json:"user_id"`
	Role      string    `json:"role,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Me handles GET /v1/me
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} httpx.SuccessResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Router /v1/me [get]
func (h *HTTPHandler) Me(w http.ResponseWriter, r *http.Request) {
	c, ok := httpx.ClaimsFrom(r)
	if !ok || c.UserID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in required", nil)
		return
	}

	httpx.JSONSuccess(w, r, meResponse{
		UserID:    c.UserID,
		Role:      httpx.RoleFrom(r),
		ExpiresAt: c.ExpiresAt.UTC(),
	}, nil)
}

// SignOut handles POST /v1/me/signout
// @Summary Sign out
// @Description Revokes the bearer token for the rest of its lifetime
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} httpx.ErrorResponse
// @Router /v1/me/signout [post]
func (h *HTTPHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	c, ok := httpx.ClaimsFrom(r)
	if !ok {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in required", nil)
		return
	}

	if err := h.service.SignOut(r.Context(), c); err != nil {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in required", nil)
		return
	}

	httpx.JSONSuccessNoContent(w)
}
