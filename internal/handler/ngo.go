package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/foodshare/backend/internal/domain"
	"github.com/foodshare/backend/internal/service"
)

// NGOHandler handles the NGO-facing claim endpoints and dashboard.
type NGOHandler struct {
	claims *service.ClaimService
}

// NewNGOHandler creates a new NGOHandler.
func NewNGOHandler(claims *service.ClaimService) *NGOHandler {
	return &NGOHandler{claims: claims}
}

// Dashboard returns the bucketed donation overview for the NGO.
func (h *NGOHandler) Dashboard(c echo.Context) error {
	claims, ok := GetClaims(c)
	if !ok {
		return domain.ErrUnauthorized
	}
	dash, err := h.claims.Dashboard(c.Request().Context(), claims.UserID)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, dash)
}

// Claim places the NGO's hold on a donation. Conflicts answer 409 with
// the blocking state named in the error body.
func (h *NGOHandler) Claim(c echo.Context) error {
	claims, ok := GetClaims(c)
	if !ok {
		return domain.ErrUnauthorized
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	claim, err := h.claims.Claim(c.Request().Context(), claims.UserID, id)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusCreated, claim)
}

// Release cancels the NGO's own active claim on a donation.
func (h *NGOHandler) Release(c echo.Context) error {
	claims, ok := GetClaims(c)
	if !ok {
		return domain.ErrUnauthorized
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.claims.Release(c.Request().Context(), claims.UserID, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListMyClaims returns the NGO's claim history.
func (h *NGOHandler) ListMyClaims(c echo.Context) error {
	claims, ok := GetClaims(c)
	if !ok {
		return domain.ErrUnauthorized
	}
	list, err := h.claims.ListMyClaims(c.Request().Context(), claims.UserID)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, list)
}
