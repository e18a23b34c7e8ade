package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/foodshare/backend/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeDonations struct {
	byID        map[uuid.UUID]*domain.Donation
	createErr   error
	claimErr    error
	expireFails map[uuid.UUID]error
	releaseErr  error
	createCalls int
}

func newFakeDonations(list ...domain.Donation) *fakeDonations {
	f := &fakeDonations{byID: make(map[uuid.UUID]*domain.Donation)}
	for i := range list {
		d := list[i]
		f.byID[d.ID] = &d
	}
	return f
}

func (f *fakeDonations) Create(_ context.Context, d domain.Donation) (*domain.Donation, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	d.ID = uuid.New()
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	f.byID[d.ID] = &d
	return &d, nil
}

func (f *fakeDonations) FindByID(_ context.Context, id uuid.UUID) (*domain.Donation, error) {
	d, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copy := *d
	return &copy, nil
}

func (f *fakeDonations) ListByDonor(_ context.Context, donorID uuid.UUID) ([]domain.Donation, error) {
	var out []domain.Donation
	for _, d := range f.byID {
		if d.DonorID != nil && *d.DonorID == donorID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDonations) ListAll(_ context.Context) ([]domain.Donation, error) {
	var out []domain.Donation
	for _, d := range f.byID {
		out = append(out, *d)
	}
	return out, nil
}

func (f *fakeDonations) Update(_ context.Context, d domain.Donation) (*domain.Donation, error) {
	if _, ok := f.byID[d.ID]; !ok {
		return nil, domain.ErrNotFound
	}
	f.byID[d.ID] = &d
	copy := d
	return &copy, nil
}

func (f *fakeDonations) SetQRCode(_ context.Context, id uuid.UUID, qr string) error {
	d, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	d.QRCode = &qr
	return nil
}

func (f *fakeDonations) Claim(_ context.Context, donationID, ngoID uuid.UUID, now time.Time) (*domain.Claim, error) {
	if f.claimErr != nil {
		return nil, f.claimErr
	}
	d, ok := f.byID[donationID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if d.Status != domain.DonationAvailable ||
		(d.FinalState != domain.FinalStateNone && d.FinalState != domain.FinalStateCancelledByNGO) {
		return nil, domain.ErrConflict
	}
	*d = d.WithClaim(now)
	claim := domain.NewClaim(donationID, ngoID, now)
	return &claim, nil
}

func (f *fakeDonations) DonorCancel(_ context.Context, donationID uuid.UUID, now time.Time) error {
	d, ok := f.byID[donationID]
	if !ok {
		return domain.ErrNotFound
	}
	updated, err := d.DonorCancelled(now)
	if err != nil {
		return domain.ErrConflict
	}
	*d = updated
	return nil
}

func (f *fakeDonations) ConfirmPickup(_ context.Context, donationID uuid.UUID, now time.Time) error {
	d, ok := f.byID[donationID]
	if !ok {
		return domain.ErrNotFound
	}
	if d.Status != domain.DonationClaimed || d.FinalState != domain.FinalStateNone {
		return domain.ErrConflict
	}
	updated, _, err := d.PickupConfirmed(now)
	if err != nil {
		return domain.ErrConflict
	}
	*d = updated
	return nil
}

func (f *fakeDonations) ReleaseClaim(_ context.Context, _, donationID uuid.UUID, now time.Time) error {
	if f.releaseErr != nil {
		return f.releaseErr
	}
	d, ok := f.byID[donationID]
	if !ok {
		return domain.ErrNotFound
	}
	*d = d.ReleasedByNGO(now)
	return nil
}

func (f *fakeDonations) ReleaseStaleClaim(_ context.Context, _, donationID uuid.UUID, now time.Time) error {
	if f.releaseErr != nil {
		return f.releaseErr
	}
	d, ok := f.byID[donationID]
	if !ok {
		return domain.ErrNotFound
	}
	*d = d.Restored(now)
	return nil
}

func (f *fakeDonations) MarkExpired(_ context.Context, donationID uuid.UUID, now time.Time) (bool, error) {
	if err := f.expireFails[donationID]; err != nil {
		return false, err
	}
	d, ok := f.byID[donationID]
	if !ok {
		return false, domain.ErrNotFound
	}
	if d.FinalState != domain.FinalStateNone || d.Status == domain.DonationCompleted {
		return false, nil
	}
	*d = d.WithExpired(now)
	return true, nil
}

func (f *fakeDonations) ListExpireCandidates(_ context.Context, today time.Time) ([]domain.Donation, error) {
	var out []domain.Donation
	for _, d := range f.byID {
		if !domain.DateOnly(d.ExpiryDate).After(today) &&
			d.FinalState == domain.FinalStateNone && d.Status != domain.DonationCompleted {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDonations) ListExpiringBetween(_ context.Context, from, to time.Time) ([]domain.Donation, error) {
	var out []domain.Donation
	for _, d := range f.byID {
		exp := domain.DateOnly(d.ExpiryDate)
		if !exp.Before(from) && !exp.After(to) {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDonations) AnonymizeDonor(_ context.Context, donorID uuid.UUID) error {
	for _, d := range f.byID {
		if d.DonorID != nil && *d.DonorID == donorID {
			d.DonorID = nil
		}
	}
	return nil
}

type fakeClaims struct {
	claims []domain.Claim
}

func (f *fakeClaims) FindActiveByDonation(_ context.Context, donationID uuid.UUID) (*domain.Claim, error) {
	for i := range f.claims {
		if f.claims[i].DonationID == donationID && f.claims[i].Status == domain.ClaimActive {
			c := f.claims[i]
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeClaims) FindActiveByDonationAndNGO(_ context.Context, donationID, ngoID uuid.UUID) (*domain.Claim, error) {
	for i := range f.claims {
		c := f.claims[i]
		if c.DonationID == donationID && c.NGOID == ngoID && c.Status == domain.ClaimActive {
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeClaims) ListStale(_ context.Context, cutoff time.Time) ([]domain.Claim, error) {
	var out []domain.Claim
	for _, c := range f.claims {
		if c.Status == domain.ClaimActive && !c.ClaimedAt.After(cutoff) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeClaims) ListByNGO(_ context.Context, ngoID uuid.UUID) ([]domain.Claim, error) {
	var out []domain.Claim
	for _, c := range f.claims {
		if c.NGOID == ngoID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeClaims) ActiveDonationIDsByNGO(_ context.Context, ngoID uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, c := range f.claims {
		if c.NGOID == ngoID && c.Status == domain.ClaimActive {
			out = append(out, c.DonationID)
		}
	}
	return out, nil
}

func (f *fakeClaims) CountCompletedByNGO(_ context.Context, ngoID uuid.UUID) (int, error) {
	n := 0
	for _, c := range f.claims {
		if c.NGOID == ngoID && c.Status == domain.ClaimCompleted {
			n++
		}
	}
	return n, nil
}

type fakeUsers struct {
	byID map[uuid.UUID]*domain.User
}

func newFakeUsers(list ...domain.User) *fakeUsers {
	f := &fakeUsers{byID: make(map[uuid.UUID]*domain.User)}
	for i := range list {
		u := list[i]
		f.byID[u.ID] = &u
	}
	return f
}

func (f *fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copy := *u
	return &copy, nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUsers) Create(_ context.Context, u domain.User) (*domain.User, error) {
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return nil, domain.ErrConflict
		}
	}
	u.ID = uuid.New()
	f.byID[u.ID] = &u
	copy := u
	return &copy, nil
}

func (f *fakeUsers) UpsertByProvider(_ context.Context, u domain.User) (*domain.User, error) {
	for _, existing := range f.byID {
		if existing.Provider != nil && u.Provider != nil && *existing.Provider == *u.Provider &&
			existing.ProviderID != nil && u.ProviderID != nil && *existing.ProviderID == *u.ProviderID {
			existing.Email = u.Email
			existing.FullName = u.FullName
			copy := *existing
			return &copy, nil
		}
	}
	u.ID = uuid.New()
	f.byID[u.ID] = &u
	copy := u
	return &copy, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id uuid.UUID, fullName string, phone *string) (*domain.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	u.FullName = fullName
	u.Phone = phone
	copy := *u
	return &copy, nil
}

func (f *fakeUsers) SetStatus(_ context.Context, id uuid.UUID, status domain.UserStatus) error {
	u, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.Status = status
	return nil
}

func (f *fakeUsers) ListByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	var out []domain.User
	for _, u := range f.byID {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUsers) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeOrgs struct {
	byID map[uuid.UUID]*domain.Organization
}

func newFakeOrgs(list ...domain.Organization) *fakeOrgs {
	f := &fakeOrgs{byID: make(map[uuid.UUID]*domain.Organization)}
	for i := range list {
		o := list[i]
		f.byID[o.ID] = &o
	}
	return f
}

func (f *fakeOrgs) Create(_ context.Context, o domain.Organization) (*domain.Organization, error) {
	o.ID = uuid.New()
	f.byID[o.ID] = &o
	copy := o
	return &copy, nil
}

func (f *fakeOrgs) FindByID(_ context.Context, id uuid.UUID) (*domain.Organization, error) {
	o, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copy := *o
	return &copy, nil
}

func (f *fakeOrgs) FindByUserID(_ context.Context, userID uuid.UUID) (*domain.Organization, error) {
	for _, o := range f.byID {
		if o.UserID == userID {
			copy := *o
			return &copy, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeOrgs) Update(_ context.Context, o domain.Organization) (*domain.Organization, error) {
	if _, ok := f.byID[o.ID]; !ok {
		return nil, domain.ErrNotFound
	}
	f.byID[o.ID] = &o
	copy := o
	return &copy, nil
}

func (f *fakeOrgs) SetVerificationStatus(_ context.Context, id uuid.UUID, status domain.VerificationStatus) error {
	o, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.VerificationStatus = status
	return nil
}

func (f *fakeOrgs) ListByVerificationStatus(_ context.Context, status domain.VerificationStatus) ([]domain.Organization, error) {
	var out []domain.Organization
	for _, o := range f.byID {
		if o.VerificationStatus == status {
			out = append(out, *o)
		}
	}
	return out, nil
}

type fakeNotifications struct {
	created   []domain.Notification
	createErr error
}

func (f *fakeNotifications) Create(_ context.Context, n domain.Notification) (*domain.Notification, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	n.ID = uuid.New()
	f.created = append(f.created, n)
	copy := n
	return &copy, nil
}

func (f *fakeNotifications) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Notification, error) {
	var out []domain.Notification
	for _, n := range f.created {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotifications) CountUnread(_ context.Context, userID uuid.UUID) (int, error) {
	n := 0
	for _, item := range f.created {
		if item.UserID == userID && !item.Read {
			n++
		}
	}
	return n, nil
}

func (f *fakeNotifications) MarkRead(_ context.Context, id, userID uuid.UUID) error {
	for i := range f.created {
		if f.created[i].ID == id && f.created[i].UserID == userID {
			f.created[i].Read = true
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeNotifications) MarkAllRead(_ context.Context, userID uuid.UUID) error {
	for i := range f.created {
		if f.created[i].UserID == userID {
			f.created[i].Read = true
		}
	}
	return nil
}

func (f *fakeNotifications) forUser(userID uuid.UUID) []domain.Notification {
	var out []domain.Notification
	for _, n := range f.created {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

type sentMail struct {
	To      string
	Subject string
}

type fakeMail struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeMail) Send(to, subject, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{To: to, Subject: subject})
	return nil
}

func (f *fakeMail) SendWithPNG(to, subject, _, _, _ string) error {
	return f.Send(to, subject, "")
}

func newTestNotifier(n *fakeNotifications, mail *fakeMail) *Notifier {
	var sender EmailSender
	if mail != nil {
		sender = mail
	}
	return NewNotifier(n, sender, discardLogger())
}
