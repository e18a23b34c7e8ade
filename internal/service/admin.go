package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/foodshare/backend/internal/domain"
)

// AdminOrganizationStore is the organization access needed for admin
// verification flows.
type AdminOrganizationStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Organization, error)
	SetVerificationStatus(ctx context.Context, id uuid.UUID, status domain.VerificationStatus) error
	ListByVerificationStatus(ctx context.Context, status domain.VerificationStatus) ([]domain.Organization, error)
}

// AdminUserStore is the user access needed for admin account management.
type AdminUserStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	SetStatus(ctx context.Context, id uuid.UUID, status domain.UserStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AdminDonationStore is the donation access needed for admin oversight.
type AdminDonationStore interface {
	ListAll(ctx context.Context) ([]domain.Donation, error)
	AnonymizeDonor(ctx context.Context, donorID uuid.UUID) error
}

// AdminService handles NGO verification, account moderation, platform
// statistics and broadcast announcements.
type AdminService struct {
	users     AdminUserStore
	orgs      AdminOrganizationStore
	donations AdminDonationStore
	notifier  *Notifier
}

// NewAdminService creates a new AdminService.
func NewAdminService(users AdminUserStore, orgs AdminOrganizationStore, donations AdminDonationStore, notifier *Notifier) *AdminService {
	return &AdminService{users: users, orgs: orgs, donations: donations, notifier: notifier}
}

// ListPendingOrganizations returns organizations awaiting review, oldest
// first.
func (s *AdminService) ListPendingOrganizations(ctx context.Context) ([]domain.Organization, error) {
	return s.orgs.ListByVerificationStatus(ctx, domain.VerificationPending)
}

// VerifyOrganization records the review decision. Approval activates
// the NGO account so it can log in; rejection suspends it. The owner is
// notified either way.
func (s *AdminService) VerifyOrganization(ctx context.Context, orgID uuid.UUID, approve bool) error {
	org, err := s.orgs.FindByID(ctx, orgID)
	if err != nil {
		return err
	}
	orgStatus := domain.VerificationRejected
	userStatus := domain.UserSuspended
	title := "Registration rejected"
	message := fmt.Sprintf("Your organization '%s' was not approved. Contact support for details.", org.Name)
	if approve {
		orgStatus = domain.VerificationApproved
		userStatus = domain.UserActive
		title = "Registration approved"
		message = fmt.Sprintf("Your organization '%s' is verified. You can now log in and claim donations.", org.Name)
	}

	if err := s.orgs.SetVerificationStatus(ctx, org.ID, orgStatus); err != nil {
		return err
	}
	if err := s.users.SetStatus(ctx, org.UserID, userStatus); err != nil {
		return err
	}

	s.notifier.Notify(ctx, org.UserID, domain.NotificationAccountStatus, title, message)
	if owner, err := s.users.FindByID(ctx, org.UserID); err == nil {
		s.notifier.Email(owner.Email, title, message)
	}
	return nil
}

// ListUsers returns accounts of one role.
func (s *AdminService) ListUsers(ctx context.Context, role domain.Role) ([]domain.User, error) {
	return s.users.ListByRole(ctx, role)
}

// SetUserStatus suspends or reactivates an account and tells the owner.
func (s *AdminService) SetUserStatus(ctx context.Context, userID uuid.UUID, status domain.UserStatus) error {
	if err := s.users.SetStatus(ctx, userID, status); err != nil {
		return err
	}
	s.notifier.Notify(ctx, userID, domain.NotificationAccountStatus,
		"Account status changed", fmt.Sprintf("Your account is now %s.", status))
	return nil
}

// DeleteUser removes an account on the admin's authority. Donor
// donation history survives anonymized, same as self-deletion.
func (s *AdminService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role == domain.RoleDonor {
		if err := s.donations.AnonymizeDonor(ctx, userID); err != nil {
			return err
		}
	}
	return s.users.Delete(ctx, userID)
}

// ListDonations returns every donation for admin oversight.
func (s *AdminService) ListDonations(ctx context.Context) ([]domain.Donation, error) {
	return s.donations.ListAll(ctx)
}

// Stats is the platform-wide overview for the admin landing page.
type Stats struct {
	Donors         int `json:"donors"`
	NGOs           int `json:"ngos"`
	PendingNGOs    int `json:"pending_ngos"`
	Donations      int `json:"donations"`
	Available      int `json:"available"`
	Claimed        int `json:"claimed"`
	Completed      int `json:"completed"`
	Expired        int `json:"expired"`
	DonorCancelled int `json:"donor_cancelled"`
}

// Stats aggregates platform counts.
func (s *AdminService) Stats(ctx context.Context) (*Stats, error) {
	donors, err := s.users.ListByRole(ctx, domain.RoleDonor)
	if err != nil {
		return nil, err
	}
	ngos, err := s.users.ListByRole(ctx, domain.RoleNGO)
	if err != nil {
		return nil, err
	}
	pending, err := s.orgs.ListByVerificationStatus(ctx, domain.VerificationPending)
	if err != nil {
		return nil, err
	}
	donations, err := s.donations.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Donors:      len(donors),
		NGOs:        len(ngos),
		PendingNGOs: len(pending),
		Donations:   len(donations),
	}
	for _, d := range donations {
		switch {
		case d.FinalState == domain.FinalStateCancelledByDonor:
			stats.DonorCancelled++
		case d.FinalState == domain.FinalStateExpired:
			stats.Expired++
		case d.Status == domain.DonationCompleted:
			stats.Completed++
		case d.Status == domain.DonationClaimed:
			stats.Claimed++
		default:
			stats.Available++
		}
	}
	return stats, nil
}

// Broadcast sends an announcement to every account of one role.
// Delivery is best-effort per recipient.
func (s *AdminService) Broadcast(ctx context.Context, role domain.Role, title, message string) (int, error) {
	users, err := s.users.ListByRole(ctx, role)
	if err != nil {
		return 0, err
	}
	for _, u := range users {
		s.notifier.Notify(ctx, u.ID, domain.NotificationBroadcast, title, message)
	}
	return len(users), nil
}
