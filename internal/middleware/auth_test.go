package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func TestAdminRequired(t *testing.T) {
	app := fiber.New()
	app.Get("/admin", AdminRequired(testSecret), func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"staffID": c.Locals("staffID")})
	})

	valid, err := NewStaffToken(testSecret, 123, time.Hour)
	require.NoError(t, err)
	expired, err := NewStaffToken(testSecret, 123, -time.Hour)
	require.NoError(t, err)
	wrongKey, err := NewStaffToken("another-secret-another-secret-another", 123, time.Hour)
	require.NoError(t, err)

	nonStaff := func() string {
		claims := StaffClaims{
			Staff: false,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    tokenIssuer,
				Audience:  jwt.ClaimStrings{tokenAudience},
				Subject:   "7",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		s, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		return s
	}()

	wrongAudience := func() string {
		claims := StaffClaims{
			Staff: true,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    tokenIssuer,
				Audience:  jwt.ClaimStrings{"someone-else"},
				Subject:   "7",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		s, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		return s
	}()

	tests := []struct {
		name            string
		authHeader      string
		expectedStatus  int
		expectedStaffID float64
	}{
		{"Happy Path", "Bearer " + valid, http.StatusOK, 123},
		{"Missing Header", "", http.StatusUnauthorized, 0},
		{"Invalid Format", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, 0},
		{"Expired Token", "Bearer " + expired, http.StatusUnauthorized, 0},
		{"Wrong Signing Key", "Bearer " + wrongKey, http.StatusUnauthorized, 0},
		{"Wrong Audience", "Bearer " + wrongAudience, http.StatusUnauthorized, 0},
		{"Not Staff", "Bearer " + nonStaff, http.StatusForbidden, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var body map[string]interface{}
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, tt.expectedStaffID, body["staffID"])
			}
		})
	}
}

func TestNewStaffToken_EmptySecret(t *testing.T) {
	_, err := NewStaffToken("", 1, time.Hour)
	assert.Error(t, err)
}
