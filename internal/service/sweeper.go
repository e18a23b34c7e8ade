package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/foodshare/backend/internal/domain"
)

// SweepDonationStore is the donation access needed by the periodic
// maintenance sweeps.
type SweepDonationStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Donation, error)
	ListExpireCandidates(ctx context.Context, today time.Time) ([]domain.Donation, error)
	ListExpiringBetween(ctx context.Context, from, to time.Time) ([]domain.Donation, error)
	MarkExpired(ctx context.Context, donationID uuid.UUID, now time.Time) (bool, error)
	ReleaseStaleClaim(ctx context.Context, claimID, donationID uuid.UUID, now time.Time) error
}

// StaleClaimLister returns active claims past the hold window.
type StaleClaimLister interface {
	ListStale(ctx context.Context, cutoff time.Time) ([]domain.Claim, error)
}

// SweepReport counts what one maintenance pass did.
type SweepReport struct {
	Expired  int `json:"expired"`
	Released int `json:"released"`
	Reminded int `json:"reminded"`
}

// SweepService runs the periodic maintenance passes: auto-expiring
// overdue donations, releasing stale claims and sending expiry
// reminders. One bad row never aborts a pass; failures are logged and
// the sweep moves on.
type SweepService struct {
	donations SweepDonationStore
	claims    StaleClaimLister
	users     UserFinder
	notifier  *Notifier
	logger    *slog.Logger
}

// NewSweepService creates a new SweepService.
func NewSweepService(donations SweepDonationStore, claims StaleClaimLister, users UserFinder, notifier *Notifier, logger *slog.Logger) *SweepService {
	return &SweepService{donations: donations, claims: claims, users: users, notifier: notifier, logger: logger}
}

// Run executes all three sweeps and returns the combined report.
func (s *SweepService) Run(ctx context.Context) SweepReport {
	report := SweepReport{
		Expired:  s.ExpireDonations(ctx),
		Released: s.ReleaseStaleClaims(ctx),
		Reminded: s.SendExpiryReminders(ctx),
	}
	s.logger.Info("sweep finished",
		"expired", report.Expired, "released", report.Released, "reminded", report.Reminded)
	return report
}

// ExpireDonations stamps the expired marker on overdue donations.
// Completed and donor-cancelled donations are never touched; claimed
// donations keep their claim and only gain the marker.
func (s *SweepService) ExpireDonations(ctx context.Context) int {
	now := time.Now().UTC()
	candidates, err := s.donations.ListExpireCandidates(ctx, domain.DateOnly(now))
	if err != nil {
		s.logger.Error("list expire candidates failed", "error", err)
		return 0
	}

	expired := 0
	for _, d := range candidates {
		if !d.ExpireEligible(now) {
			continue
		}
		stamped, err := s.donations.MarkExpired(ctx, d.ID, now)
		if err != nil {
			s.logger.Error("expire donation failed", "donation_id", d.ID, "error", err)
			continue
		}
		if !stamped {
			continue
		}
		expired++
		if d.DonorID != nil {
			s.notifier.Notify(ctx, *d.DonorID, domain.NotificationStatusUpdate,
				"Donation expired", d.WithExpired(now).ReminderMessage())
		}
	}
	return expired
}

// ReleaseStaleClaims cancels claims that sat unredeemed past the hold
// window and puts the donations back up for grabs with no final-state
// marker.
func (s *SweepService) ReleaseStaleClaims(ctx context.Context) int {
	now := time.Now().UTC()
	stale, err := s.claims.ListStale(ctx, now.Add(-domain.ClaimHold))
	if err != nil {
		s.logger.Error("list stale claims failed", "error", err)
		return 0
	}

	released := 0
	for _, c := range stale {
		if !c.Stale(now, domain.ClaimHold) {
			continue
		}
		if err := s.donations.ReleaseStaleClaim(ctx, c.ID, c.DonationID, now); err != nil {
			s.logger.Error("release stale claim failed",
				"claim_id", c.ID, "donation_id", c.DonationID, "error", err)
			continue
		}
		released++

		s.notifier.Notify(ctx, c.NGOID, domain.NotificationStatusUpdate,
			"Claim expired",
			"Your claim was not redeemed within 24 hours and has been released.")
		if d, err := s.donations.FindByID(ctx, c.DonationID); err == nil && d.DonorID != nil {
			s.notifier.Notify(ctx, *d.DonorID, domain.NotificationStatusUpdate,
				"Donation available again",
				"The claiming NGO did not pick up in time, so your donation is available again.")
		}
	}
	return released
}

// SendExpiryReminders notifies donors about donations expiring within
// the next day. Reminders are informational and read state only: they
// fire in whatever lifecycle state the donation is in, with the message
// contextualized to that state.
func (s *SweepService) SendExpiryReminders(ctx context.Context) int {
	now := time.Now().UTC()
	expiring, err := s.donations.ListExpiringBetween(ctx,
		domain.DateOnly(now), domain.DateOnly(now.Add(24*time.Hour)))
	if err != nil {
		s.logger.Error("list expiring donations failed", "error", err)
		return 0
	}

	reminded := 0
	for _, d := range expiring {
		if d.DonorID == nil {
			continue
		}
		s.notifier.Notify(ctx, *d.DonorID, domain.NotificationReminder,
			"Expiry reminder", d.ReminderMessage())
		if donor, err := s.users.FindByID(ctx, *d.DonorID); err == nil {
			s.notifier.Email(donor.Email, "Expiry reminder", d.ReminderMessage())
		}
		reminded++
	}
	return reminded
}
