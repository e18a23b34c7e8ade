package service

import (
	"context"
	"errors"
	"testing"

	"github.com/foodshare/backend/internal/domain"
)

func newAuthService(users *fakeUsers, orgs *fakeOrgs, donations *fakeDonations) *AuthService {
	return NewAuthService(users, orgs, donations, AuthConfig{
		JWTSecret:   "test-secret",
		FrontendURL: "http://localhost:5173",
	})
}

func TestRegisterDonor(t *testing.T) {
	users := newFakeUsers()
	svc := newAuthService(users, newFakeOrgs(), newFakeDonations())

	user, err := svc.RegisterDonor(context.Background(), RegisterDonorInput{
		Email: "donor@example.com", Password: "hunter2hunter2", FullName: "Dana Donor",
	})
	if err != nil {
		t.Fatalf("RegisterDonor() = %v", err)
	}
	if user.Role != domain.RoleDonor || user.Status != domain.UserActive {
		t.Errorf("user = (%q, %q), want active donor", user.Role, user.Status)
	}
	if user.PasswordHash == nil || *user.PasswordHash == "hunter2hunter2" {
		t.Error("password must be stored hashed")
	}

	_, err = svc.RegisterDonor(context.Background(), RegisterDonorInput{
		Email: "donor@example.com", Password: "hunter2hunter2", FullName: "Dup",
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("duplicate email = %v, want conflict", err)
	}
}

func TestRegisterNGO(t *testing.T) {
	users := newFakeUsers()
	orgs := newFakeOrgs()
	svc := newAuthService(users, orgs, newFakeDonations())

	user, org, err := svc.RegisterNGO(context.Background(), RegisterNGOInput{
		Email: "ngo@example.com", Password: "hunter2hunter2", FullName: "Nia",
		OrgName: "Food Rescue", OrgAddress: "Main St 1", OrgDescription: "We rescue food", OrgPhone: "123",
	})
	if err != nil {
		t.Fatalf("RegisterNGO() = %v", err)
	}
	if user.Status != domain.UserPending {
		t.Errorf("user status = %q, want pending until verification", user.Status)
	}
	if org.VerificationStatus != domain.VerificationPending {
		t.Errorf("org status = %q, want pending", org.VerificationStatus)
	}
	if org.UserID != user.ID {
		t.Error("organization must reference the new user")
	}
}

func TestLogin(t *testing.T) {
	users := newFakeUsers()
	svc := newAuthService(users, newFakeOrgs(), newFakeDonations())

	registered, err := svc.RegisterDonor(context.Background(), RegisterDonorInput{
		Email: "donor@example.com", Password: "hunter2hunter2", FullName: "Dana",
	})
	if err != nil {
		t.Fatalf("RegisterDonor() = %v", err)
	}

	t.Run("issues a token carrying identity claims", func(t *testing.T) {
		user, token, err := svc.Login(context.Background(), "donor@example.com", "hunter2hunter2")
		if err != nil {
			t.Fatalf("Login() = %v", err)
		}
		if user.ID != registered.ID {
			t.Errorf("user.ID = %s, want %s", user.ID, registered.ID)
		}

		claims, err := svc.ValidateToken(token)
		if err != nil {
			t.Fatalf("ValidateToken() = %v", err)
		}
		if claims.UserID != registered.ID || claims.Email != "donor@example.com" || claims.Role != domain.RoleDonor {
			t.Errorf("claims = %+v", claims)
		}
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		_, _, err := svc.Login(context.Background(), "donor@example.com", "wrong")
		if !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("Login() = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("unknown email is unauthorized", func(t *testing.T) {
		_, _, err := svc.Login(context.Background(), "nobody@example.com", "whatever")
		if !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("Login() = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("pending ngo is forbidden even with correct password", func(t *testing.T) {
		_, _, err := svc.RegisterNGO(context.Background(), RegisterNGOInput{
			Email: "pending@example.com", Password: "hunter2hunter2", FullName: "Nia",
			OrgName: "o", OrgAddress: "a", OrgDescription: "d", OrgPhone: "p",
		})
		if err != nil {
			t.Fatalf("RegisterNGO() = %v", err)
		}
		_, _, err = svc.Login(context.Background(), "pending@example.com", "hunter2hunter2")
		if !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("Login() = %v, want ErrForbidden", err)
		}
	})
}

func TestValidateToken(t *testing.T) {
	svc := newAuthService(newFakeUsers(), newFakeOrgs(), newFakeDonations())

	if _, err := svc.ValidateToken("not-a-token"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("garbage token = %v, want ErrUnauthorized", err)
	}

	// A token signed with a different secret must be rejected.
	other := newAuthService(newFakeUsers(), newFakeOrgs(), newFakeDonations())
	other.jwtSecret = []byte("different-secret")
	user, err := other.users.(*fakeUsers).Create(context.Background(), domain.User{
		Email: "x@example.com", Role: domain.RoleDonor, Status: domain.UserActive,
	})
	if err != nil {
		t.Fatalf("Create() = %v", err)
	}
	token, err := other.generateToken(user)
	if err != nil {
		t.Fatalf("generateToken() = %v", err)
	}
	if _, err := svc.ValidateToken(token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("foreign-signed token = %v, want ErrUnauthorized", err)
	}
}

func TestDeleteAccount(t *testing.T) {
	users := newFakeUsers()
	orgs := newFakeOrgs()
	donations := newFakeDonations()
	svc := newAuthService(users, orgs, donations)

	donor, err := svc.RegisterDonor(context.Background(), RegisterDonorInput{
		Email: "donor@example.com", Password: "hunter2hunter2", FullName: "Dana",
	})
	if err != nil {
		t.Fatalf("RegisterDonor() = %v", err)
	}
	d, err := donations.Create(context.Background(), domain.Donation{
		DonorID: &donor.ID, Title: "Bread", Status: domain.DonationAvailable,
	})
	if err != nil {
		t.Fatalf("Create donation = %v", err)
	}

	if err := svc.DeleteAccount(context.Background(), donor.ID); err != nil {
		t.Fatalf("DeleteAccount() = %v", err)
	}
	if _, err := users.FindByID(context.Background(), donor.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Error("user row should be gone")
	}
	stored, err := donations.FindByID(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("donation should survive deletion, got %v", err)
	}
	if stored.DonorID != nil {
		t.Error("surviving donation must be anonymized")
	}
}
