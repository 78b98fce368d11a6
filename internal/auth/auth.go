package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const TokenTypeBearer = "bearer"

// TokenGenerator signs and verifies access tokens.
type TokenGenerator interface {
	GenerateAccessToken(userID int64, username, role string) (token string, err error)
	ValidateToken(tokenString string) (*Claims, error)
}

// TokenResponse is the OAuth2 password-grant response body.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Claims is the signed claim set {sub: username, role, user_id, exp, iat}.
type Claims struct {
	Role   string `json:"role"`
	UserID int64  `json:"user_id"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	Secret         []byte
	AccessTokenTTL time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

func (j *JWTTokenGenerator) clock() time.Time {
	if j.Now == nil {
		return time.Now()
	}
	return j.Now()
}

type RegisterResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Status   string `json:"status"`
	Role     string `json:"role"`
	VendorID string `json:"vendor_id,omitempty"`
}

type VerifyIdentityResponse struct {
	Verified bool   `json:"verified"`
	Message  string `json:"message"`
}

type ResetPasswordResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ValidateTokenResponse struct {
	Valid    bool   `json:"valid"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}
