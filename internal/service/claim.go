package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/foodshare/backend/internal/domain"
)

// ClaimDonationStore is the donation access needed for NGO claim flows.
type ClaimDonationStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Donation, error)
	ListAll(ctx context.Context) ([]domain.Donation, error)
	Claim(ctx context.Context, donationID, ngoID uuid.UUID, now time.Time) (*domain.Claim, error)
	ReleaseClaim(ctx context.Context, claimID, donationID uuid.UUID, now time.Time) error
}

// ClaimStore defines the claim data access interface consumed by
// ClaimService.
type ClaimStore interface {
	FindActiveByDonationAndNGO(ctx context.Context, donationID, ngoID uuid.UUID) (*domain.Claim, error)
	ListByNGO(ctx context.Context, ngoID uuid.UUID) ([]domain.Claim, error)
	ActiveDonationIDsByNGO(ctx context.Context, ngoID uuid.UUID) ([]uuid.UUID, error)
	CountCompletedByNGO(ctx context.Context, ngoID uuid.UUID) (int, error)
}

// ClaimService handles the NGO side of the lifecycle: browsing, claiming
// and releasing donations.
type ClaimService struct {
	donations ClaimDonationStore
	claims    ClaimStore
	users     UserFinder
	notifier  *Notifier
}

// NewClaimService creates a new ClaimService.
func NewClaimService(donations ClaimDonationStore, claims ClaimStore, users UserFinder, notifier *Notifier) *ClaimService {
	return &ClaimService{donations: donations, claims: claims, users: users, notifier: notifier}
}

// Claim places the NGO's hold on an available donation. The lifecycle
// guard runs first for a precise conflict message; the store enforces
// the same rules atomically so concurrent claims cannot both win.
func (s *ClaimService) Claim(ctx context.Context, ngoID, donationID uuid.UUID) (*domain.Claim, error) {
	donation, err := s.donations.FindByID(ctx, donationID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := donation.CanClaim(now); err != nil {
		return nil, err
	}

	claim, err := s.donations.Claim(ctx, donationID, ngoID, now)
	if err != nil {
		return nil, err
	}

	if donation.DonorID != nil {
		s.notifier.Notify(ctx, *donation.DonorID, domain.NotificationStatusUpdate,
			"Donation claimed",
			fmt.Sprintf("An NGO has claimed '%s' and will arrange pickup.", donation.Title))
		if donor, err := s.users.FindByID(ctx, *donation.DonorID); err == nil {
			s.notifier.Email(donor.Email, "Your donation was claimed",
				fmt.Sprintf("An NGO has claimed '%s'. Have the pickup QR code ready.", donation.Title))
		}
	}

	return claim, nil
}

// Release cancels the NGO's own active claim and restores the donation
// to available with the cancelled_by_ngo marker, which a later claim
// clears.
func (s *ClaimService) Release(ctx context.Context, ngoID, donationID uuid.UUID) error {
	claim, err := s.claims.FindActiveByDonationAndNGO(ctx, donationID, ngoID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if err := s.donations.ReleaseClaim(ctx, claim.ID, donationID, now); err != nil {
		return err
	}

	donation, err := s.donations.FindByID(ctx, donationID)
	if err == nil && donation.DonorID != nil {
		s.notifier.Notify(ctx, *donation.DonorID, domain.NotificationStatusUpdate,
			"Claim withdrawn",
			fmt.Sprintf("The NGO withdrew its claim on '%s'. It is available again.", donation.Title))
	}

	return nil
}

// ListMyClaims returns the NGO's claim history, newest first.
func (s *ClaimService) ListMyClaims(ctx context.Context, ngoID uuid.UUID) ([]domain.Claim, error) {
	return s.claims.ListByNGO(ctx, ngoID)
}

// Dashboard groups donations into the NGO browsing buckets.
type Dashboard struct {
	Available      []domain.Donation `json:"available"`
	Urgent         []domain.Donation `json:"urgent"`
	Claimed        []domain.Donation `json:"claimed"`
	Expired        []domain.Donation `json:"expired"`
	Cancelled      []domain.Donation `json:"cancelled"`
	CompletedCount int               `json:"completed_count"`
}

const urgentWindow = 48 * time.Hour

// Dashboard builds the NGO's donation overview: claimable listings,
// those expiring within two days, the NGO's own active claims, and the
// expired and cancelled remainder for context.
func (s *ClaimService) Dashboard(ctx context.Context, ngoID uuid.UUID) (*Dashboard, error) {
	donations, err := s.donations.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	mineIDs, err := s.claims.ActiveDonationIDsByNGO(ctx, ngoID)
	if err != nil {
		return nil, err
	}
	completed, err := s.claims.CountCompletedByNGO(ctx, ngoID)
	if err != nil {
		return nil, err
	}

	mine := make(map[uuid.UUID]bool, len(mineIDs))
	for _, id := range mineIDs {
		mine[id] = true
	}

	now := time.Now().UTC()
	urgentCutoff := domain.DateOnly(now.Add(urgentWindow))
	dash := &Dashboard{CompletedCount: completed}

	for _, d := range donations {
		switch {
		case mine[d.ID]:
			dash.Claimed = append(dash.Claimed, d)
		case d.FinalState == domain.FinalStateExpired:
			dash.Expired = append(dash.Expired, d)
		case d.FinalState == domain.FinalStateCancelledByDonor:
			dash.Cancelled = append(dash.Cancelled, d)
		case d.CanClaim(now) == nil:
			if !domain.DateOnly(d.ExpiryDate).After(urgentCutoff) {
				dash.Urgent = append(dash.Urgent, d)
			} else {
				dash.Available = append(dash.Available, d)
			}
		}
	}

	return dash, nil
}
