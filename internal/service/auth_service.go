package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/pdf-page-api/internal/dto"
	"github.com/noah-isme/pdf-page-api/internal/models"
	appErrors "github.com/noah-isme/pdf-page-api/pkg/errors"
)

// ErrAuthDisabled is returned when no signing secret is configured.
var ErrAuthDisabled = errors.New("admin auth disabled")

// AuthConfig defines configuration for admin tokens.
type AuthConfig struct {
	Secret   string
	TokenTTL time.Duration
	Issuer   string
}

// AuthService issues and validates admin tokens.
type AuthService struct {
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.TokenTTL <= 0 {
		config.TokenTTL = 12 * time.Hour
	}
	if config.Issuer == "" {
		config.Issuer = "pdf-page-api"
	}
	return &AuthService{validator: validate, logger: logger, config: config, now: time.Now}
}

// Enabled reports whether a signing secret is configured.
func (s *AuthService) Enabled() bool {
	return s != nil && s.config.Secret != ""
}

// IssueToken signs an admin token for req.Subject.
func (s *AuthService) IssueToken(req dto.IssueTokenRequest) (*models.IssuedToken, error) {
	if !s.Enabled() {
		return nil, ErrAuthDisabled
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid token request")
	}

	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.config.TokenTTL)
	claims := &models.AdminClaims{
		Role: models.AdminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.config.Issuer,
			Subject:   req.Subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign token")
	}
	s.logger.Info("admin token issued", zap.String("subject", req.Subject), zap.Time("expires_at", expiresAt))

	return &models.IssuedToken{
		Token:     signed,
		Subject:   req.Subject,
		ExpiresIn: int64(s.config.TokenTTL.Seconds()),
		ExpiresAt: expiresAt,
		IssuedAt:  issuedAt,
	}, nil
}

// ValidateToken parses and validates an admin token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.AdminClaims, error) {
	if !s.Enabled() {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "admin access disabled")
	}
	token, err := jwt.ParseWithClaims(tokenString, &models.AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithIssuer(s.config.Issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.AdminClaims)
	if !ok || !token.Valid || claims.Subject == "" || claims.Role != models.AdminRole {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}
