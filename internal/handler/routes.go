package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/foodshare/backend/internal/domain"
	"github.com/foodshare/backend/internal/service"
)

// Handlers bundles everything RegisterRoutes wires up.
type Handlers struct {
	Auth          *AuthHandler
	Donations     *DonationHandler
	NGO           *NGOHandler
	Notifications *NotificationHandler
	Admin         *AdminHandler
}

// RegisterRoutes mounts the full API surface on the echo instance.
func RegisterRoutes(e *echo.Echo, h Handlers, auth *service.AuthService) {
	e.GET("/health", func(c echo.Context) error {
		return JSON(c, http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api")

	// Public auth routes.
	api.POST("/auth/register/donor", h.Auth.RegisterDonor)
	api.POST("/auth/register/ngo", h.Auth.RegisterNGO)
	api.POST("/auth/login", h.Auth.Login)
	api.GET("/auth/google", h.Auth.GoogleRedirect)
	api.GET("/auth/google/callback", h.Auth.GoogleCallback)

	// Public QR scan endpoint; responds with HTML, not the envelope.
	api.GET("/donations/:id/confirm-pickup", h.Donations.ConfirmPickup)

	authed := api.Group("", JWTAuth(auth))
	authed.GET("/auth/verify", h.Auth.Verify)
	authed.GET("/auth/me", h.Auth.Me)
	authed.PUT("/auth/me", h.Auth.UpdateProfile)
	authed.DELETE("/auth/me", h.Auth.DeleteAccount)
	authed.GET("/donors/:id", h.Auth.DonorProfile)
	authed.GET("/donations/:id", h.Donations.Get)
	authed.GET("/notifications", h.Notifications.List)
	authed.PUT("/notifications/:id/read", h.Notifications.MarkRead)
	authed.PUT("/notifications/read-all", h.Notifications.MarkAllRead)

	donor := authed.Group("", RequireRole(domain.RoleDonor))
	donor.POST("/donations", h.Donations.Create)
	donor.GET("/donations", h.Donations.ListMine)
	donor.PUT("/donations/:id", h.Donations.Update)
	donor.PUT("/donations/:id/cancel", h.Donations.Cancel)

	ngo := authed.Group("/ngo", RequireRole(domain.RoleNGO))
	ngo.GET("/dashboard", h.NGO.Dashboard)
	ngo.POST("/donations/:id/claim", h.NGO.Claim)
	ngo.PUT("/donations/:id/release", h.NGO.Release)
	ngo.GET("/claims", h.NGO.ListMyClaims)
	ngo.GET("/organization", h.Auth.MyOrganization)
	ngo.PUT("/organization", h.Auth.UpdateOrganization)

	admin := authed.Group("/admin", RequireRole(domain.RoleAdmin))
	admin.GET("/stats", h.Admin.Stats)
	admin.GET("/organizations/pending", h.Admin.ListPendingOrganizations)
	admin.PUT("/organizations/:id/verify", h.Admin.VerifyOrganization)
	admin.GET("/users", h.Admin.ListUsers)
	admin.PUT("/users/:id/status", h.Admin.SetUserStatus)
	admin.DELETE("/users/:id", h.Admin.DeleteUser)
	admin.GET("/donations", h.Admin.ListDonations)
	admin.POST("/broadcasts", h.Admin.Broadcast)
	admin.PUT("/sweeps/run", h.Admin.RunSweep)
	admin.PUT("/sweeps/expirations", h.Admin.ExpireDonations)
	admin.PUT("/sweeps/stale-claims", h.Admin.ReleaseStaleClaims)
	admin.PUT("/sweeps/reminders", h.Admin.SendExpiryReminders)
}
