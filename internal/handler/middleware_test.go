package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/foodshare/backend/internal/domain"
	"github.com/foodshare/backend/internal/service"
)

const testSecret = "test-secret"

func testAuthService() *service.AuthService {
	return service.NewAuthService(nil, nil, nil, service.AuthConfig{JWTSecret: testSecret})
}

func signToken(t *testing.T, userID uuid.UUID, role domain.Role) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID.String(),
		"email": "user@example.com",
		"role":  string(role),
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func invoke(t *testing.T, mw echo.MiddlewareFunc, authorization string) (echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	c := e.NewContext(req, httptest.NewRecorder())
	err := mw(func(echo.Context) error { return nil })(c)
	return c, err
}

func TestJWTAuth(t *testing.T) {
	auth := testAuthService()
	userID := uuid.New()

	t.Run("valid token injects claims", func(t *testing.T) {
		c, err := invoke(t, JWTAuth(auth), "Bearer "+signToken(t, userID, domain.RoleDonor))
		if err != nil {
			t.Fatalf("middleware error: %v", err)
		}
		claims, ok := GetClaims(c)
		if !ok {
			t.Fatal("claims missing from context")
		}
		if claims.UserID != userID || claims.Role != domain.RoleDonor {
			t.Errorf("claims = %+v", claims)
		}
	})

	t.Run("missing header", func(t *testing.T) {
		if _, err := invoke(t, JWTAuth(auth), ""); !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("err = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("malformed header", func(t *testing.T) {
		if _, err := invoke(t, JWTAuth(auth), "Token abc"); !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("err = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		if _, err := invoke(t, JWTAuth(auth), "Bearer not.a.jwt"); !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("err = %v, want ErrUnauthorized", err)
		}
	})
}

func TestRequireRole(t *testing.T) {
	auth := testAuthService()

	chain := func(role domain.Role, token string) error {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		c := e.NewContext(req, httptest.NewRecorder())
		handler := JWTAuth(auth)(RequireRole(role)(func(echo.Context) error { return nil }))
		return handler(c)
	}

	if err := chain(domain.RoleNGO, signToken(t, uuid.New(), domain.RoleNGO)); err != nil {
		t.Errorf("matching role = %v, want nil", err)
	}
	if err := chain(domain.RoleAdmin, signToken(t, uuid.New(), domain.RoleDonor)); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("mismatched role = %v, want ErrForbidden", err)
	}
}
