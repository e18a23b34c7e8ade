package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/foodshare/backend/internal/domain"
	"github.com/foodshare/backend/internal/service"
)

// AdminHandler handles NGO verification, account moderation, broadcasts
// and manual sweep triggers.
type AdminHandler struct {
	admin *service.AdminService
	sweep *service.SweepService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(admin *service.AdminService, sweep *service.SweepService) *AdminHandler {
	return &AdminHandler{admin: admin, sweep: sweep}
}

// ListPendingOrganizations returns organizations awaiting verification.
func (h *AdminHandler) ListPendingOrganizations(c echo.Context) error {
	list, err := h.admin.ListPendingOrganizations(c.Request().Context())
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, list)
}

type verifyOrganizationRequest struct {
	Approve bool `json:"approve"`
}

// VerifyOrganization records the approve/reject decision for an
// organization.
func (h *AdminHandler) VerifyOrganization(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req verifyOrganizationRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}

	if err := h.admin.VerifyOrganization(c.Request().Context(), id, req.Approve); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Stats returns the platform-wide counts for the admin landing page.
func (h *AdminHandler) Stats(c echo.Context) error {
	stats, err := h.admin.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, stats)
}

// ListDonations returns every donation for admin oversight.
func (h *AdminHandler) ListDonations(c echo.Context) error {
	list, err := h.admin.ListDonations(c.Request().Context())
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, list)
}

// ListUsers returns accounts filtered by role.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	role := domain.Role(c.QueryParam("role"))
	switch role {
	case domain.RoleDonor, domain.RoleNGO, domain.RoleAdmin:
	default:
		return &domain.ValidationError{Field: "role", Message: "must be donor, ngo or admin"}
	}

	list, err := h.admin.ListUsers(c.Request().Context(), role)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, list)
}

type setUserStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active suspended"`
}

// SetUserStatus suspends or reactivates an account.
func (h *AdminHandler) SetUserStatus(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req setUserStatusRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.admin.SetUserStatus(c.Request().Context(), id, domain.UserStatus(req.Status)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteUser removes an account. Donor donation history survives
// anonymized.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.admin.DeleteUser(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type broadcastRequest struct {
	Role    string `json:"role" validate:"required,oneof=donor ngo admin"`
	Title   string `json:"title" validate:"required"`
	Message string `json:"message" validate:"required"`
}

// Broadcast sends an announcement to every account of one role.
func (h *AdminHandler) Broadcast(c echo.Context) error {
	var req broadcastRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	sent, err := h.admin.Broadcast(c.Request().Context(), domain.Role(req.Role), req.Title, req.Message)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, map[string]int{"sent": sent})
}

// RunSweep triggers a full maintenance pass immediately, outside the
// periodic schedule.
func (h *AdminHandler) RunSweep(c echo.Context) error {
	report := h.sweep.Run(c.Request().Context())
	return JSON(c, http.StatusOK, report)
}

// ExpireDonations triggers the auto-expire sweep alone.
func (h *AdminHandler) ExpireDonations(c echo.Context) error {
	n := h.sweep.ExpireDonations(c.Request().Context())
	return JSON(c, http.StatusOK, map[string]int{"expired": n})
}

// ReleaseStaleClaims triggers the stale-claim release sweep alone.
func (h *AdminHandler) ReleaseStaleClaims(c echo.Context) error {
	n := h.sweep.ReleaseStaleClaims(c.Request().Context())
	return JSON(c, http.StatusOK, map[string]int{"released": n})
}

// SendExpiryReminders triggers the expiry reminder sweep alone.
func (h *AdminHandler) SendExpiryReminders(c echo.Context) error {
	n := h.sweep.SendExpiryReminders(c.Request().Context())
	return JSON(c, http.StatusOK, map[string]int{"reminded": n})
}
