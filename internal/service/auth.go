package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	googleOAuth "golang.org/x/oauth2/google"

	"github.com/foodshare/backend/internal/domain"
)

const tokenTTL = 12 * time.Hour

// UserStore defines the user data access interface consumed by AuthService.
type UserStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user domain.User) (*domain.User, error)
	UpsertByProvider(ctx context.Context, user domain.User) (*domain.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, fullName string, phone *string) (*domain.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// OrganizationStore defines the organization data access interface
// consumed by AuthService and AdminService.
type OrganizationStore interface {
	Create(ctx context.Context, org domain.Organization) (*domain.Organization, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.Organization, error)
	Update(ctx context.Context, org domain.Organization) (*domain.Organization, error)
}

// DonorAnonymizer detaches a donor's identity from their donation
// history before account deletion.
type DonorAnonymizer interface {
	AnonymizeDonor(ctx context.Context, donorID uuid.UUID) error
}

// AuthConfig holds token signing and OAuth configuration.
type AuthConfig struct {
	JWTSecret          string
	GoogleClientID     string
	GoogleClientSecret string
	FrontendURL        string
}

// TokenClaims is the verified identity carried by a request token.
type TokenClaims struct {
	UserID uuid.UUID
	Email  string
	Role   domain.Role
}

// AuthService handles registration, login, token issuance and profile
// management.
type AuthService struct {
	users     UserStore
	orgs      OrganizationStore
	donations DonorAnonymizer
	jwtSecret []byte
	google    *oauth2.Config
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, orgs OrganizationStore, donations DonorAnonymizer, cfg AuthConfig) *AuthService {
	return &AuthService{
		users:     users,
		orgs:      orgs,
		donations: donations,
		jwtSecret: []byte(cfg.JWTSecret),
		google: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			Endpoint:     googleOAuth.Endpoint,
			Scopes:       []string{"openid", "profile", "email"},
			RedirectURL:  cfg.FrontendURL + "/auth/google/callback",
		},
	}
}

// RegisterDonorInput carries donor self-registration fields.
type RegisterDonorInput struct {
	Email    string
	Password string
	FullName string
	Phone    *string
}

// RegisterDonor creates an immediately active donor account.
func (s *AuthService) RegisterDonor(ctx context.Context, in RegisterDonorInput) (*domain.User, error) {
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user, err := s.users.Create(ctx, domain.User{
		Email:        in.Email,
		PasswordHash: &hash,
		FullName:     in.FullName,
		Phone:        in.Phone,
		Role:         domain.RoleDonor,
		Status:       domain.UserActive,
	})
	if err != nil {
		return nil, fmt.Errorf("register donor: %w", err)
	}
	return user, nil
}

// RegisterNGOInput carries NGO registration fields, account plus
// organization profile.
type RegisterNGOInput struct {
	Email          string
	Password       string
	FullName       string
	Phone          *string
	OrgName        string
	OrgAddress     string
	OrgDescription string
	OrgPhone       string
}

// RegisterNGO creates a pending NGO account with its organization
// record awaiting admin verification. The account cannot log in until
// an admin approves it.
func (s *AuthService) RegisterNGO(ctx context.Context, in RegisterNGOInput) (*domain.User, *domain.Organization, error) {
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.users.Create(ctx, domain.User{
		Email:        in.Email,
		PasswordHash: &hash,
		FullName:     in.FullName,
		Phone:        in.Phone,
		Role:         domain.RoleNGO,
		Status:       domain.UserPending,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("register ngo: %w", err)
	}
	org, err := s.orgs.Create(ctx, domain.Organization{
		UserID:             user.ID,
		Name:               in.OrgName,
		Address:            in.OrgAddress,
		Description:        in.OrgDescription,
		Phone:              in.OrgPhone,
		VerificationStatus: domain.VerificationPending,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create organization: %w", err)
	}
	return user, org, nil
}

// Login verifies credentials and issues a signed token. Pending and
// suspended accounts are rejected with ErrForbidden even when the
// password is correct.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.ErrUnauthorized
		}
		return nil, "", err
	}
	if user.PasswordHash == nil ||
		bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)) != nil {
		return nil, "", domain.ErrUnauthorized
	}
	if user.Status != domain.UserActive {
		return nil, "", domain.ErrForbidden
	}
	token, err := s.generateToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// GoogleAuthURL returns the Google OAuth authorization URL.
func (s *AuthService) GoogleAuthURL(state string) string {
	return s.google.AuthCodeURL(state)
}

// GoogleCallback exchanges the authorization code, upserts the donor
// account and issues a token. Social accounts are always donors; NGO
// accounts require the reviewed registration path.
func (s *AuthService) GoogleCallback(ctx context.Context, code string) (*domain.User, string, error) {
	token, err := s.google.Exchange(ctx, code)
	if err != nil {
		return nil, "", fmt.Errorf("google token exchange: %w", err)
	}

	info, err := fetchGoogleUserInfo(ctx, token.AccessToken)
	if err != nil {
		return nil, "", fmt.Errorf("fetch google user info: %w", err)
	}

	provider := domain.AuthProviderGoogle
	user, err := s.users.UpsertByProvider(ctx, domain.User{
		Email:      info.Email,
		FullName:   info.Name,
		Role:       domain.RoleDonor,
		Status:     domain.UserActive,
		Provider:   &provider,
		ProviderID: &info.ID,
	})
	if err != nil {
		return nil, "", fmt.Errorf("upsert google user: %w", err)
	}
	if user.Status != domain.UserActive {
		return nil, "", domain.ErrForbidden
	}

	signed, err := s.generateToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, signed, nil
}

// ValidateToken parses and verifies a token, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)

	return &TokenClaims{
		UserID: userID,
		Email:  email,
		Role:   domain.Role(role),
	}, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.users.FindByID(ctx, userID)
}

// UpdateProfile updates the caller's editable profile fields.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, fullName string, phone *string) (*domain.User, error) {
	return s.users.UpdateProfile(ctx, userID, fullName, phone)
}

// GetOrganization returns the NGO caller's organization profile.
func (s *AuthService) GetOrganization(ctx context.Context, userID uuid.UUID) (*domain.Organization, error) {
	return s.orgs.FindByUserID(ctx, userID)
}

// UpdateOrganization updates the caller's own organization profile.
// Verification status is admin-only and never changed here.
func (s *AuthService) UpdateOrganization(ctx context.Context, userID uuid.UUID, name, address, description, phone string) (*domain.Organization, error) {
	org, err := s.orgs.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	org.Name = name
	org.Address = address
	org.Description = description
	org.Phone = phone
	return s.orgs.Update(ctx, *org)
}

// DeleteAccount removes the caller's account. Donation history survives
// anonymized; organization, claim and notification rows cascade away
// with the user row.
func (s *AuthService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
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

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"role":  string(user.Role),
		"iat":   now.Unix(),
		"exp":   now.Add(tokenTTL).Unix(),
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

type googleUserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func fetchGoogleUserInfo(ctx context.Context, accessToken string) (*googleUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://www.googleapis.com/oauth2/v2/userinfo", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google user info returned status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}
	return &info, nil
}
