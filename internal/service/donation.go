package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/foodshare/backend/internal/domain"
	"github.com/foodshare/backend/internal/qr"
)

// DonationStore defines the donation data access interface consumed by
// DonationService.
type DonationStore interface {
	Create(ctx context.Context, d domain.Donation) (*domain.Donation, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Donation, error)
	ListByDonor(ctx context.Context, donorID uuid.UUID) ([]domain.Donation, error)
	Update(ctx context.Context, d domain.Donation) (*domain.Donation, error)
	SetQRCode(ctx context.Context, id uuid.UUID, qrCode string) error
	DonorCancel(ctx context.Context, donationID uuid.UUID, now time.Time) error
	ConfirmPickup(ctx context.Context, donationID uuid.UUID, now time.Time) error
}

// ActiveClaimFinder looks up who currently holds a donation.
type ActiveClaimFinder interface {
	FindActiveByDonation(ctx context.Context, donationID uuid.UUID) (*domain.Claim, error)
}

// UserFinder resolves account details for notification delivery.
type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// DonationService handles the donor-facing donation lifecycle and the
// public pickup confirmation.
type DonationService struct {
	donations DonationStore
	claims    ActiveClaimFinder
	users     UserFinder
	notifier  *Notifier
	baseURL   string
	logger    *slog.Logger
}

// NewDonationService creates a new DonationService.
func NewDonationService(donations DonationStore, claims ActiveClaimFinder, users UserFinder, notifier *Notifier, baseURL string, logger *slog.Logger) *DonationService {
	return &DonationService{
		donations: donations,
		claims:    claims,
		users:     users,
		notifier:  notifier,
		baseURL:   baseURL,
		logger:    logger,
	}
}

// CreateDonationInput carries new-listing fields.
type CreateDonationInput struct {
	Title              string
	Description        *string
	Category           string
	Quantity           int
	Unit               string
	ExpiryDate         time.Time
	PickupAddress      string
	PickupLat          *float64
	PickupLng          *float64
	PickupInstructions *string
	Urgency            domain.Urgency
}

// validateListing enforces the field rules shared by create and edit:
// positive quantity, expiry strictly after today, and coordinates that
// come as a complete, in-range pair or not at all.
func validateListing(quantity int, expiry time.Time, lat, lng *float64) error {
	if quantity <= 0 {
		return &domain.ValidationError{Field: "quantity", Message: "must be greater than zero"}
	}
	if !domain.DateOnly(expiry).After(domain.DateOnly(time.Now())) {
		return &domain.ValidationError{Field: "expiry_date", Message: "must be after today"}
	}
	if (lat == nil) != (lng == nil) {
		return &domain.ValidationError{Field: "pickup_lat", Message: "latitude and longitude must be provided together"}
	}
	if lat != nil {
		if *lat < -90 || *lat > 90 {
			return &domain.ValidationError{Field: "pickup_lat", Message: "must be between -90 and 90"}
		}
		if *lng < -180 || *lng > 180 {
			return &domain.ValidationError{Field: "pickup_lng", Message: "must be between -180 and 180"}
		}
	}
	return nil
}

// Create inserts a new available donation, generates its pickup QR code
// and emails the code to the donor. The QR step is best-effort: a
// failed encode leaves the listing live without a code.
func (s *DonationService) Create(ctx context.Context, donorID uuid.UUID, in CreateDonationInput) (*domain.Donation, error) {
	if err := validateListing(in.Quantity, in.ExpiryDate, in.PickupLat, in.PickupLng); err != nil {
		return nil, err
	}
	if in.Urgency == "" {
		in.Urgency = domain.UrgencyMedium
	}

	donation, err := s.donations.Create(ctx, domain.Donation{
		DonorID:            &donorID,
		Title:              in.Title,
		Description:        in.Description,
		Category:           in.Category,
		Quantity:           in.Quantity,
		Unit:               in.Unit,
		ExpiryDate:         in.ExpiryDate,
		PickupAddress:      in.PickupAddress,
		PickupLat:          in.PickupLat,
		PickupLng:          in.PickupLng,
		PickupInstructions: in.PickupInstructions,
		Urgency:            in.Urgency,
		Status:             domain.DonationAvailable,
	})
	if err != nil {
		return nil, err
	}

	code, err := qr.Generate(s.baseURL, donation.ID)
	if err != nil {
		s.logger.Error("generate qr code failed", "donation_id", donation.ID, "error", err)
		return donation, nil
	}
	if err := s.donations.SetQRCode(ctx, donation.ID, code); err != nil {
		s.logger.Error("store qr code failed", "donation_id", donation.ID, "error", err)
		return donation, nil
	}
	donation.QRCode = &code

	if donor, err := s.users.FindByID(ctx, donorID); err == nil {
		s.notifier.EmailWithQR(donor.Email,
			"Your FoodShare pickup QR code",
			fmt.Sprintf("Your donation '%s' is live. Attached is the QR code the NGO will scan at pickup.", donation.Title),
			code)
	}

	return donation, nil
}

// Get returns one donation.
func (s *DonationService) Get(ctx context.Context, id uuid.UUID) (*domain.Donation, error) {
	return s.donations.FindByID(ctx, id)
}

// ListMine returns the caller's donations, newest first.
func (s *DonationService) ListMine(ctx context.Context, donorID uuid.UUID) ([]domain.Donation, error) {
	return s.donations.ListByDonor(ctx, donorID)
}

// UpdateDonationInput carries editable listing fields.
type UpdateDonationInput struct {
	Title              string
	Description        *string
	Category           string
	Quantity           int
	Unit               string
	ExpiryDate         time.Time
	PickupAddress      string
	PickupLat          *float64
	PickupLng          *float64
	PickupInstructions *string
	Urgency            domain.Urgency
}

// Update edits listing fields on the caller's own donation. Completed
// and finalized donations are immutable.
func (s *DonationService) Update(ctx context.Context, donorID, donationID uuid.UUID, in UpdateDonationInput) (*domain.Donation, error) {
	if err := validateListing(in.Quantity, in.ExpiryDate, in.PickupLat, in.PickupLng); err != nil {
		return nil, err
	}

	donation, err := s.ownedBy(ctx, donorID, donationID)
	if err != nil {
		return nil, err
	}
	if err := donation.CanEdit(); err != nil {
		return nil, err
	}

	donation.Title = in.Title
	donation.Description = in.Description
	donation.Category = in.Category
	donation.Quantity = in.Quantity
	donation.Unit = in.Unit
	donation.ExpiryDate = in.ExpiryDate
	donation.PickupAddress = in.PickupAddress
	donation.PickupLat = in.PickupLat
	donation.PickupLng = in.PickupLng
	donation.PickupInstructions = in.PickupInstructions
	if in.Urgency != "" {
		donation.Urgency = in.Urgency
	}

	return s.donations.Update(ctx, *donation)
}

// Cancel applies the donor's permanent cancellation and informs any NGO
// whose active claim it voids.
func (s *DonationService) Cancel(ctx context.Context, donorID, donationID uuid.UUID) (*domain.Donation, error) {
	donation, err := s.ownedBy(ctx, donorID, donationID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	updated, err := donation.DonorCancelled(now)
	if err != nil {
		return nil, err
	}

	holder, findErr := s.claims.FindActiveByDonation(ctx, donationID)

	if err := s.donations.DonorCancel(ctx, donationID, now); err != nil {
		return nil, err
	}

	if findErr == nil {
		s.notifier.Notify(ctx, holder.NGOID, domain.NotificationStatusUpdate,
			"Claim cancelled by donor",
			fmt.Sprintf("The donor cancelled '%s'. Your claim has been released.", donation.Title))
		if ngo, err := s.users.FindByID(ctx, holder.NGOID); err == nil {
			s.notifier.Email(ngo.Email, "Claim cancelled by donor",
				fmt.Sprintf("The donor cancelled '%s'. Your claim has been released.", donation.Title))
		}
	}

	return &updated, nil
}

// PickupResult is the outcome of a QR confirmation scan.
type PickupResult struct {
	Donation *domain.Donation
	Already  bool
}

// ConfirmPickup completes the handover after a QR scan. Repeat scans on
// a completed donation succeed idempotently with Already set.
func (s *DonationService) ConfirmPickup(ctx context.Context, donationID uuid.UUID) (*PickupResult, error) {
	donation, err := s.donations.FindByID(ctx, donationID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	updated, already, err := donation.PickupConfirmed(now)
	if err != nil {
		return nil, err
	}
	if already {
		return &PickupResult{Donation: donation, Already: true}, nil
	}

	holder, findErr := s.claims.FindActiveByDonation(ctx, donationID)

	if err := s.donations.ConfirmPickup(ctx, donationID, now); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Lost a race with another scan; re-read and report idempotently.
			if fresh, ferr := s.donations.FindByID(ctx, donationID); ferr == nil && fresh.Status == domain.DonationCompleted {
				return &PickupResult{Donation: fresh, Already: true}, nil
			}
		}
		return nil, err
	}

	if donation.DonorID != nil {
		s.notifier.Notify(ctx, *donation.DonorID, domain.NotificationStatusUpdate,
			"Donation picked up",
			fmt.Sprintf("'%s' was picked up and is now completed. Thank you!", donation.Title))
	}
	if findErr == nil {
		s.notifier.Notify(ctx, holder.NGOID, domain.NotificationStatusUpdate,
			"Pickup confirmed",
			fmt.Sprintf("Pickup of '%s' is confirmed. The donation is completed.", donation.Title))
	}

	return &PickupResult{Donation: &updated}, nil
}

func (s *DonationService) ownedBy(ctx context.Context, donorID, donationID uuid.UUID) (*domain.Donation, error) {
	donation, err := s.donations.FindByID(ctx, donationID)
	if err != nil {
		return nil, err
	}
	if donation.DonorID == nil || *donation.DonorID != donorID {
		return nil, domain.ErrForbidden
	}
	return donation, nil
}
