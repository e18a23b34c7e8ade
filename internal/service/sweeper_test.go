package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/foodshare/backend/internal/domain"
)

func newSweepService(donations *fakeDonations, claims *fakeClaims, users *fakeUsers, notifications *fakeNotifications, mail *fakeMail) *SweepService {
	return NewSweepService(donations, claims, users, newTestNotifier(notifications, mail), discardLogger())
}

func TestExpireDonations(t *testing.T) {
	donorID := uuid.New()
	now := time.Now()

	t.Run("stamps overdue and notifies the donor", func(t *testing.T) {
		overdue := activeDonation(donorID, now.Add(-24*time.Hour))
		fresh := activeDonation(donorID, now.Add(96*time.Hour))
		donations := newFakeDonations(overdue, fresh)
		notifications := &fakeNotifications{}
		svc := newSweepService(donations, &fakeClaims{}, newFakeUsers(), notifications, nil)

		if got := svc.ExpireDonations(context.Background()); got != 1 {
			t.Fatalf("ExpireDonations() = %d, want 1", got)
		}
		stored, _ := donations.FindByID(context.Background(), overdue.ID)
		if stored.FinalState != domain.FinalStateExpired {
			t.Errorf("final state = %q, want expired", stored.FinalState)
		}
		untouched, _ := donations.FindByID(context.Background(), fresh.ID)
		if untouched.FinalState != domain.FinalStateNone {
			t.Errorf("fresh donation final state = %q, want none", untouched.FinalState)
		}
		if len(notifications.forUser(donorID)) != 1 {
			t.Errorf("donor notifications = %d, want 1", len(notifications.forUser(donorID)))
		}
	})

	t.Run("claimed donation keeps its status", func(t *testing.T) {
		claimed := activeDonation(donorID, now.Add(-24*time.Hour)).WithClaim(now.Add(-30 * time.Hour))
		donations := newFakeDonations(claimed)
		svc := newSweepService(donations, &fakeClaims{}, newFakeUsers(), &fakeNotifications{}, nil)

		if got := svc.ExpireDonations(context.Background()); got != 1 {
			t.Fatalf("ExpireDonations() = %d, want 1", got)
		}
		stored, _ := donations.FindByID(context.Background(), claimed.ID)
		if stored.Status != domain.DonationClaimed {
			t.Errorf("status = %q, want claimed (expiry only stamps the marker)", stored.Status)
		}
		if stored.FinalState != domain.FinalStateExpired {
			t.Errorf("final state = %q, want expired", stored.FinalState)
		}
	})

	t.Run("one failing row does not abort the pass", func(t *testing.T) {
		bad := activeDonation(donorID, now.Add(-24*time.Hour))
		good := activeDonation(donorID, now.Add(-24*time.Hour))
		donations := newFakeDonations(bad, good)
		donations.expireFails = map[uuid.UUID]error{bad.ID: errors.New("row is cursed")}
		svc := newSweepService(donations, &fakeClaims{}, newFakeUsers(), &fakeNotifications{}, nil)

		if got := svc.ExpireDonations(context.Background()); got != 1 {
			t.Fatalf("ExpireDonations() = %d, want 1 despite the failing row", got)
		}
		stored, _ := donations.FindByID(context.Background(), good.ID)
		if stored.FinalState != domain.FinalStateExpired {
			t.Errorf("good row final state = %q, want expired", stored.FinalState)
		}
	})

	t.Run("empty table is a no-op", func(t *testing.T) {
		svc := newSweepService(newFakeDonations(), &fakeClaims{}, newFakeUsers(), &fakeNotifications{}, nil)
		if got := svc.ExpireDonations(context.Background()); got != 0 {
			t.Errorf("ExpireDonations() = %d, want 0", got)
		}
	})
}

func TestReleaseStaleClaims(t *testing.T) {
	donorID := uuid.New()
	ngoID := uuid.New()
	now := time.Now()

	t.Run("restores the donation and notifies both sides", func(t *testing.T) {
		d := activeDonation(donorID, now.Add(96*time.Hour)).WithClaim(now.Add(-25 * time.Hour))
		donations := newFakeDonations(d)
		claims := &fakeClaims{claims: []domain.Claim{domain.NewClaim(d.ID, ngoID, now.Add(-25*time.Hour))}}
		notifications := &fakeNotifications{}
		svc := newSweepService(donations, claims, newFakeUsers(), notifications, nil)

		if got := svc.ReleaseStaleClaims(context.Background()); got != 1 {
			t.Fatalf("ReleaseStaleClaims() = %d, want 1", got)
		}
		stored, _ := donations.FindByID(context.Background(), d.ID)
		if stored.Status != domain.DonationAvailable || stored.FinalState != domain.FinalStateNone {
			t.Errorf("donation = (%q, %q), want (available, none)", stored.Status, stored.FinalState)
		}
		if len(notifications.forUser(ngoID)) != 1 || len(notifications.forUser(donorID)) != 1 {
			t.Error("both ngo and donor should be notified")
		}
	})

	t.Run("fresh claims are left alone", func(t *testing.T) {
		d := activeDonation(donorID, now.Add(96*time.Hour)).WithClaim(now.Add(-2 * time.Hour))
		donations := newFakeDonations(d)
		claims := &fakeClaims{claims: []domain.Claim{domain.NewClaim(d.ID, ngoID, now.Add(-2*time.Hour))}}
		svc := newSweepService(donations, claims, newFakeUsers(), &fakeNotifications{}, nil)

		if got := svc.ReleaseStaleClaims(context.Background()); got != 0 {
			t.Fatalf("ReleaseStaleClaims() = %d, want 0", got)
		}
		stored, _ := donations.FindByID(context.Background(), d.ID)
		if stored.Status != domain.DonationClaimed {
			t.Errorf("status = %q, want still claimed", stored.Status)
		}
	})

	t.Run("release failure skips the row", func(t *testing.T) {
		d := activeDonation(donorID, now.Add(96*time.Hour)).WithClaim(now.Add(-25 * time.Hour))
		donations := newFakeDonations(d)
		donations.releaseErr = errors.New("db hiccup")
		claims := &fakeClaims{claims: []domain.Claim{domain.NewClaim(d.ID, ngoID, now.Add(-25*time.Hour))}}
		svc := newSweepService(donations, claims, newFakeUsers(), &fakeNotifications{}, nil)

		if got := svc.ReleaseStaleClaims(context.Background()); got != 0 {
			t.Errorf("ReleaseStaleClaims() = %d, want 0", got)
		}
	})
}

func TestSendExpiryReminders(t *testing.T) {
	donorID := uuid.New()
	now := time.Now()

	t.Run("reminds about soon-expiring donations in any state", func(t *testing.T) {
		active := activeDonation(donorID, now.Add(12*time.Hour))
		cancelled, err := activeDonation(donorID, now.Add(12*time.Hour)).DonorCancelled(now)
		if err != nil {
			t.Fatalf("DonorCancelled() = %v", err)
		}
		farOut := activeDonation(donorID, now.Add(96*time.Hour))
		donations := newFakeDonations(active, cancelled, farOut)
		notifications := &fakeNotifications{}
		svc := newSweepService(donations, &fakeClaims{}, newFakeUsers(), notifications, nil)

		if got := svc.SendExpiryReminders(context.Background()); got != 2 {
			t.Fatalf("SendExpiryReminders() = %d, want 2", got)
		}
		// Reminders never mutate state.
		stored, _ := donations.FindByID(context.Background(), cancelled.ID)
		if stored.FinalState != domain.FinalStateCancelledByDonor {
			t.Errorf("final state = %q, reminder must not touch it", stored.FinalState)
		}
	})

	t.Run("completed donation gets a contextualized reminder", func(t *testing.T) {
		completed := activeDonation(donorID, now.Add(12*time.Hour))
		completed.Status = domain.DonationCompleted
		donations := newFakeDonations(completed)
		notifications := &fakeNotifications{}
		svc := newSweepService(donations, &fakeClaims{}, newFakeUsers(), notifications, nil)

		if got := svc.SendExpiryReminders(context.Background()); got != 1 {
			t.Fatalf("SendExpiryReminders() = %d, want 1", got)
		}
		got := notifications.forUser(donorID)
		if len(got) != 1 || !strings.Contains(got[0].Message, "picked up") {
			t.Errorf("reminder = %v, want picked-up wording", got)
		}
	})

	t.Run("skips anonymized donors", func(t *testing.T) {
		anonymized := activeDonation(donorID, now.Add(12*time.Hour))
		anonymized.DonorID = nil
		donations := newFakeDonations(anonymized)
		svc := newSweepService(donations, &fakeClaims{}, newFakeUsers(), &fakeNotifications{}, nil)

		if got := svc.SendExpiryReminders(context.Background()); got != 0 {
			t.Errorf("SendExpiryReminders() = %d, want 0", got)
		}
	})

	t.Run("emails the donor alongside the in-app reminder", func(t *testing.T) {
		donor := domain.User{ID: donorID, Email: "donor@example.com", Role: domain.RoleDonor, Status: domain.UserActive}
		d := activeDonation(donorID, now.Add(12*time.Hour))
		donations := newFakeDonations(d)
		mail := &fakeMail{}
		svc := newSweepService(donations, &fakeClaims{}, newFakeUsers(donor), &fakeNotifications{}, mail)

		if got := svc.SendExpiryReminders(context.Background()); got != 1 {
			t.Fatalf("SendExpiryReminders() = %d, want 1", got)
		}
		svc.notifier.Wait()
		if len(mail.sent) != 1 || mail.sent[0].To != "donor@example.com" {
			t.Errorf("mail.sent = %v, want one reminder email to the donor", mail.sent)
		}
	})
}

func TestRunCombinesSweeps(t *testing.T) {
	donorID := uuid.New()
	now := time.Now()
	overdue := activeDonation(donorID, now.Add(-24*time.Hour))
	donations := newFakeDonations(overdue)
	svc := newSweepService(donations, &fakeClaims{}, newFakeUsers(), &fakeNotifications{}, nil)

	report := svc.Run(context.Background())
	if report.Expired != 1 {
		t.Errorf("report.Expired = %d, want 1", report.Expired)
	}
	if report.Released != 0 || report.Reminded != 0 {
		t.Errorf("report = %+v, want no releases or reminders", report)
	}
}
