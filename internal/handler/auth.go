package handler

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/foodshare/backend/internal/domain"
	"github.com/foodshare/backend/internal/service"
)

// AuthHandler handles registration, login and profile endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type registerDonorRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8"`
	FullName string  `json:"full_name" validate:"required"`
	Phone    *string `json:"phone,omitempty"`
}

// RegisterDonor creates an immediately active donor account.
func (h *AuthHandler) RegisterDonor(c echo.Context) error {
	var req registerDonorRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.auth.RegisterDonor(c.Request().Context(), service.RegisterDonorInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Phone:    req.Phone,
	})
	if err != nil {
		return err
	}
	return JSON(c, http.StatusCreated, user)
}

type registerNGORequest struct {
	Email          string  `json:"email" validate:"required,email"`
	Password       string  `json:"password" validate:"required,min=8"`
	FullName       string  `json:"full_name" validate:"required"`
	Phone          *string `json:"phone,omitempty"`
	OrgName        string  `json:"org_name" validate:"required"`
	OrgAddress     string  `json:"org_address" validate:"required"`
	OrgDescription string  `json:"org_description" validate:"required"`
	OrgPhone       string  `json:"org_phone" validate:"required"`
}

// RegisterNGO creates a pending NGO account awaiting admin verification.
func (h *AuthHandler) RegisterNGO(c echo.Context) error {
	var req registerNGORequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, org, err := h.auth.RegisterNGO(c.Request().Context(), service.RegisterNGOInput{
		Email:          req.Email,
		Password:       req.Password,
		FullName:       req.FullName,
		Phone:          req.Phone,
		OrgName:        req.OrgName,
		OrgAddress:     req.OrgAddress,
		OrgDescription: req.OrgDescription,
		OrgPhone:       req.OrgPhone,
	})
	if err != nil {
		return err
	}
	return JSON(c, http.StatusCreated, map[string]any{
		"user":         user,
		"organization": org,
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login verifies credentials and returns a signed token. Pending and
// suspended accounts get 403 even with correct credentials.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, token, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, map[string]any{
		"user":  user,
		"token": token,
	})
}

// GoogleRedirect sends the user to Google's OAuth consent page.
func (h *AuthHandler) GoogleRedirect(c echo.Context) error {
	state := generateState()
	c.SetCookie(&http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600,
	})
	return c.Redirect(http.StatusTemporaryRedirect, h.auth.GoogleAuthURL(state))
}

// GoogleCallback handles the OAuth callback from Google.
func (h *AuthHandler) GoogleCallback(c echo.Context) error {
	if err := validateOAuthState(c); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	code := c.QueryParam("code")
	if code == "" {
		return fmt.Errorf("%w: missing code parameter", domain.ErrInvalidInput)
	}

	user, token, err := h.auth.GoogleCallback(c.Request().Context(), code)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, map[string]any{
		"user":  user,
		"token": token,
	})
}

// Verify confirms the bearer token is still valid and echoes its claims
// so clients can restore a session without a fresh login.
func (h *AuthHandler) Verify(c echo.Context) error {
	claims, ok := GetClaims(c)
	if !ok {
		return domain.ErrUnauthorized
	}
	return JSON(c, http.StatusOK, map[string]any{
		"user_id": claims.UserID,
		"email":   claims.Email,
		"role":    claims.Role,
	})
}

// DonorProfile returns the public part of a donor's profile, shown to
// NGOs on claimed donations.
func (h *AuthHandler) DonorProfile(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	user, err := h.auth.GetUser(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if user.Role != domain.RoleDonor {
		return domain.ErrNotFound
	}
	return JSON(c, http.StatusOK, map[string]any{
		"id":        user.ID,
		"full_name": user.FullName,
		"phone":     user.Phone,
	})
}

// Me returns the currently authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	claims, ok := GetClaims(c)
	if !ok {
		return domain.ErrUnauthorized
	}
	user, err := h.auth.GetUser(c.Request().Context(), claims.UserID)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, user)
}

type updateProfileRequest struct {
	FullName string  `json:"full_name" validate:"required"`
	Phone    *string `json:"phone,omitempty"`
}

// UpdateProfile updates the caller's profile fields.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	claims, ok := GetClaims(c)
	if !ok {
		return domain.ErrUnauthorized
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.auth.UpdateProfile(c.Request().Context(), claims.UserID, req.FullName, req.Phone)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, user)
}

// MyOrganization returns the NGO caller's organization profile.
func (h *AuthHandler) MyOrganization(c echo.Context) error {
	claims, ok := GetClaims(c)
	if !ok {
		return domain.ErrUnauthorized
	}
	org, err := h.auth.GetOrganization(c.Request().Context(), claims.UserID)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, org)
}

type updateOrganizationRequest struct {
	Name        string `json:"name" validate:"required"`
	Address     string `json:"address" validate:"required"`
	Description string `json:"description" validate:"required"`
	Phone       string `json:"phone" validate:"required"`
}

// UpdateOrganization updates the NGO caller's organization profile.
func (h *AuthHandler) UpdateOrganization(c echo.Context) error {
	claims, ok := GetClaims(c)
	if !ok {
		return domain.ErrUnauthorized
	}

	var req updateOrganizationRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	org, err := h.auth.UpdateOrganization(c.Request().Context(),
		claims.UserID, req.Name, req.Address, req.Description, req.Phone)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, org)
}

// DeleteAccount removes the caller's account. Donation history stays,
// anonymized.
func (h *AuthHandler) DeleteAccount(c echo.Context) error {
	claims, ok := GetClaims(c)
	if !ok {
		return domain.ErrUnauthorized
	}
	if err := h.auth.DeleteAccount(c.Request().Context(), claims.UserID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func generateState() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "fallback-state"
	}
	return base64.URLEncoding.EncodeToString(b)
}

func validateOAuthState(c echo.Context) error {
	cookie, err := c.Cookie("oauth_state")
	if err != nil {
		return fmt.Errorf("missing oauth_state cookie")
	}
	queryState := c.QueryParam("state")
	if queryState == "" || queryState != cookie.Value {
		return fmt.Errorf("state mismatch")
	}
	return nil
}
