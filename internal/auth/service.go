package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/vendor-portal/internal"
	"github.com/frahmantamala/vendor-portal/internal/account"
	"github.com/frahmantamala/vendor-portal/internal/core/events"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type RepositoryAPI interface {
	GetByUsername(ctx context.Context, username string) (*account.Account, error)
	GetByID(ctx context.Context, userID int64) (*account.Account, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string, excludeUserID int64) (bool, error)
	// Register inserts the account and, for vendors, its vendor row in one transaction.
	Register(ctx context.Context, acct *account.Account, companyName string) (vendorID string, err error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
}

// Service is the identity provider.
type Service struct {
	repo           RepositoryAPI
	tokenGenerator TokenGenerator
	publisher      events.Publisher
	bcryptCost     int
	logger         *slog.Logger
	// compared against when the username is unknown so both paths cost one bcrypt round
	dummyHash []byte
}

func NewService(repo RepositoryAPI, tokenGen TokenGenerator, publisher events.Publisher, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("vendor-portal-dummy-password"), bcryptCost)
	return &Service{
		repo:           repo,
		tokenGenerator: tokenGen,
		publisher:      publisher,
		bcryptCost:     bcryptCost,
		logger:         logger,
		dummyHash:      dummy,
	}
}

func NewJWTTokenGenerator(secret string, accessTTL time.Duration) *JWTTokenGenerator {
	if accessTTL <= 0 {
		accessTTL = 30 * time.Minute
	}
	return &JWTTokenGenerator{
		Secret:         []byte(secret),
		AccessTokenTTL: accessTTL,
	}
}

// Authenticate checks credentials and issues an access token. Account status is deliberately
// not checked here; role-gated endpoints enforce it.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (TokenResponse, error) {
	if err := dto.Validate(); err != nil {
		return TokenResponse{}, internal.ErrInvalidCredentials
	}

	acct, err := s.repo.GetByUsername(ctx, dto.Username)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(dto.Password))
			return TokenResponse{}, internal.ErrInvalidCredentials
		}
		s.logger.Error("failed to load account for login", "error", err)
		return TokenResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(dto.Password)); err != nil {
		s.logger.Warn("login rejected", "username", dto.Username)
		return TokenResponse{}, internal.ErrInvalidCredentials
	}

	token, err := s.tokenGenerator.GenerateAccessToken(acct.UserID, acct.Username, string(acct.Role))
	if err != nil {
		return TokenResponse{}, internal.NewInternalError("failed to issue token", err)
	}

	s.logger.Info("login succeeded", "user_id", acct.UserID, "role", acct.Role)
	return TokenResponse{AccessToken: token, TokenType: TokenTypeBearer}, nil
}

// VerifyToken turns a bearer token into an identity; every failure looks the same to the caller.
func (s *Service) VerifyToken(tokenString string) (internal.Identity, error) {
	claims, err := s.tokenGenerator.ValidateToken(tokenString)
	if err != nil {
		return internal.Identity{}, internal.ErrInvalidToken
	}
	return internal.Identity{
		UserID:   claims.UserID,
		Username: claims.Subject,
		Role:     claims.Role,
	}, nil
}

func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*RegisterResponse, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	return s.register(ctx, dto)
}

// CreateAdmin registers an administrator. It is only reachable from the CLI.
func (s *Service) CreateAdmin(ctx context.Context, dto RegisterDTO) (*RegisterResponse, error) {
	dto.Role = string(account.RoleAdmin)
	dto.Normalize()
	if err := dto.validate([]string{string(account.RoleAdmin)}); err != nil {
		return nil, err
	}
	return s.register(ctx, dto)
}

func (s *Service) register(ctx context.Context, dto RegisterDTO) (*RegisterResponse, error) {
	taken, err := s.repo.UsernameExists(ctx, dto.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, internal.ErrUsernameTaken
	}
	taken, err = s.repo.EmailExists(ctx, dto.Email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, internal.ErrEmailTaken
	}

	hash, err := s.HashPassword(dto.Password)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	acct := &account.Account{
		Username:     dto.Username,
		Email:        dto.Email,
		PasswordHash: hash,
		FirstName:    dto.FirstName,
		LastName:     dto.LastName,
		Role:         account.Role(dto.Role),
		Status:       dto.Status,
		Phone:        dto.Phone,
		Age:          dto.Age,
		Gender:       dto.Gender,
	}

	companyName := acct.FullName()
	if dto.CompanyName != nil && strings.TrimSpace(*dto.CompanyName) != "" {
		companyName = strings.TrimSpace(*dto.CompanyName)
	}

	// the unique constraints still catch a concurrent registration that slipped past the checks above
	vendorID, err := s.repo.Register(ctx, acct, companyName)
	if err != nil {
		s.logger.Error("failed to register account", "username", dto.Username, "error", err)
		return nil, err
	}

	if err := s.publisher.PublishSync(ctx, events.NewAccountRegisteredEvent(acct.UserID, acct.Username, string(acct.Role))); err != nil {
		s.logger.Warn("account registered event not delivered", "user_id", acct.UserID, "error", err)
	}

	s.logger.Info("account registered", "user_id", acct.UserID, "role", acct.Role)
	return &RegisterResponse{
		Success:  true,
		Message:  "User registered successfully",
		UserID:   acct.UserID,
		Username: acct.Username,
		Status:   acct.Status,
		Role:     string(acct.Role),
		VendorID: vendorID,
	}, nil
}

// VerifyIdentity confirms that username and email belong to the same account.
func (s *Service) VerifyIdentity(ctx context.Context, dto VerifyIdentityDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}
	_, err := s.matchIdentity(ctx, dto.Username, dto.Email)
	return err
}

func (s *Service) ResetPassword(ctx context.Context, dto ResetPasswordDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	acct, err := s.matchIdentity(ctx, dto.Username, dto.Email)
	if err != nil {
		return err
	}

	hash, err := s.HashPassword(dto.NewPassword)
	if err != nil {
		return internal.NewInternalError("failed to hash password", err)
	}

	if err := s.repo.UpdatePassword(ctx, acct.UserID, hash); err != nil {
		s.logger.Error("failed to update password", "user_id", acct.UserID, "error", err)
		return err
	}

	s.logger.Info("password reset", "user_id", acct.UserID)
	return nil
}

func (s *Service) CurrentUser(ctx context.Context, id internal.Identity) (account.Profile, error) {
	acct, err := s.repo.GetByID(ctx, id.UserID)
	if err != nil {
		return account.Profile{}, err
	}
	return acct.ToProfile(), nil
}

func (s *Service) matchIdentity(ctx context.Context, username, email string) (*account.Account, error) {
	acct, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return nil, internal.ErrIdentityMismatch
		}
		return nil, err
	}
	if !strings.EqualFold(acct.Email, strings.TrimSpace(email)) {
		return nil, internal.ErrIdentityMismatch
	}
	return acct, nil
}

// HashPassword creates a bcrypt hash of the password
func (s *Service) HashPassword(password string) (string, error) {
	return account.HashPassword(password, s.bcryptCost)
}

// GenerateAccessToken creates a new access token
func (j *JWTTokenGenerator) GenerateAccessToken(userID int64, username, role string) (string, error) {
	now := j.clock()

	claims := &Claims{
		Role:   role,
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(now.Add(j.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Secret)
}

// ValidateToken validates a JWT token and returns claims
func (j *JWTTokenGenerator) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.clock),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Subject == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
