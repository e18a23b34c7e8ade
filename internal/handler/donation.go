package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/foodshare/backend/internal/domain"
	"github.com/foodshare/backend/internal/service"
)

// DonationHandler handles donor-facing donation endpoints and the
// public pickup confirmation page.
type DonationHandler struct {
	donations *service.DonationService
}

// NewDonationHandler creates a new DonationHandler.
func NewDonationHandler(donations *service.DonationService) *DonationHandler {
	return &DonationHandler{donations: donations}
}

type donationRequest struct {
	Title              string   `json:"title" validate:"required"`
	Description        *string  `json:"description,omitempty"`
	Category           string   `json:"category" validate:"required"`
	Quantity           int      `json:"quantity" validate:"required,gt=0"`
	Unit               string   `json:"unit" validate:"required"`
	ExpiryDate         string   `json:"expiry_date" validate:"required"`
	PickupAddress      string   `json:"pickup_address" validate:"required"`
	PickupLat          *float64 `json:"pickup_lat,omitempty" validate:"omitempty,min=-90,max=90"`
	PickupLng          *float64 `json:"pickup_lng,omitempty" validate:"omitempty,min=-180,max=180"`
	PickupInstructions *string  `json:"pickup_instructions,omitempty"`
	Urgency            string   `json:"urgency,omitempty" validate:"omitempty,oneof=low medium high"`
}

func (r donationRequest) expiry() (time.Time, error) {
	t, err := time.Parse("2006-01-02", r.ExpiryDate)
	if err != nil {
		return time.Time{}, &domain.ValidationError{
			Field:   "expiry_date",
			Message: "must be a date in YYYY-MM-DD format",
		}
	}
	return t, nil
}

// Create adds a new donation listing for the authenticated donor.
func (h *DonationHandler) Create(c echo.Context) error {
	claims, ok := GetClaims(c)
	if !ok {
		return domain.ErrUnauthorized
	}

	var req donationRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	expiry, err := req.expiry()
	if err != nil {
		return err
	}

	donation, err := h.donations.Create(c.Request().Context(), claims.UserID, service.CreateDonationInput{
		Title:              req.Title,
		Description:        req.Description,
		Category:           req.Category,
		Quantity:           req.Quantity,
		Unit:               req.Unit,
		ExpiryDate:         expiry,
		PickupAddress:      req.PickupAddress,
		PickupLat:          req.PickupLat,
		PickupLng:          req.PickupLng,
		PickupInstructions: req.PickupInstructions,
		Urgency:            domain.Urgency(req.Urgency),
	})
	if err != nil {
		return err
	}
	return JSON(c, http.StatusCreated, donation)
}

// ListMine returns the caller's donations.
func (h *DonationHandler) ListMine(c echo.Context) error {
	claims, ok := GetClaims(c)
	if !ok {
		return domain.ErrUnauthorized
	}
	list, err := h.donations.ListMine(c.Request().Context(), claims.UserID)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, list)
}

// Get returns one donation.
func (h *DonationHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	donation, err := h.donations.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, donation)
}

// Update edits the caller's own donation. Lifecycle locks (completed,
// cancelled, expired) answer 400 here rather than 409: the listing is
// simply no longer editable.
func (h *DonationHandler) Update(c echo.Context) error {
	claims, ok := GetClaims(c)
	if !ok {
		return domain.ErrUnauthorized
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req donationRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	expiry, err := req.expiry()
	if err != nil {
		return err
	}

	donation, err := h.donations.Update(c.Request().Context(), claims.UserID, id, service.UpdateDonationInput{
		Title:              req.Title,
		Description:        req.Description,
		Category:           req.Category,
		Quantity:           req.Quantity,
		Unit:               req.Unit,
		ExpiryDate:         expiry,
		PickupAddress:      req.PickupAddress,
		PickupLat:          req.PickupLat,
		PickupLng:          req.PickupLng,
		PickupInstructions: req.PickupInstructions,
		Urgency:            domain.Urgency(req.Urgency),
	})
	if err != nil {
		return asBadRequestIfLocked(err)
	}
	return JSON(c, http.StatusOK, donation)
}

// Cancel applies the donor's permanent cancellation.
func (h *DonationHandler) Cancel(c echo.Context) error {
	claims, ok := GetClaims(c)
	if !ok {
		return domain.ErrUnauthorized
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	donation, err := h.donations.Cancel(c.Request().Context(), claims.UserID, id)
	if err != nil {
		return asBadRequestIfLocked(err)
	}
	return JSON(c, http.StatusOK, donation)
}

// ConfirmPickup serves the public QR scan endpoint. The response is a
// small HTML page since the scanner is a phone camera, not an API
// client. Repeat scans render the already-confirmed page.
func (h *DonationHandler) ConfirmPickup(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.HTML(http.StatusBadRequest, pickupPage("Invalid code", "This QR code is not valid."))
	}

	result, err := h.donations.ConfirmPickup(c.Request().Context(), id)
	if err != nil {
		var stateErr *domain.StateConflictError
		switch {
		case errors.As(err, &stateErr):
			return c.HTML(http.StatusConflict,
				pickupPage("Pickup not confirmed", stateErr.Message))
		case errors.Is(err, domain.ErrNotFound):
			return c.HTML(http.StatusNotFound,
				pickupPage("Not found", "This donation does not exist."))
		default:
			return err
		}
	}

	if result.Already {
		return c.HTML(http.StatusOK,
			pickupPage("Already confirmed", "This pickup was already confirmed. Nothing more to do."))
	}
	return c.HTML(http.StatusOK,
		pickupPage("Pickup confirmed", fmt.Sprintf("Pickup of '%s' is confirmed. Thank you!", result.Donation.Title)))
}

func pickupPage(title, message string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>%s</title></head>
<body style="font-family: sans-serif; text-align: center; padding: 3rem 1rem;">
<h1>%s</h1>
<p>%s</p>
</body>
</html>`, title, title, message)
}

// asBadRequestIfLocked downgrades lifecycle conflicts on the donor's
// own listing to 400: from the donor's side these are invalid requests,
// not races.
func asBadRequestIfLocked(err error) error {
	var stateErr *domain.StateConflictError
	if errors.As(err, &stateErr) {
		return echo.NewHTTPError(http.StatusBadRequest, stateErr.Message)
	}
	return err
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid id", domain.ErrInvalidInput)
	}
	return id, nil
}
