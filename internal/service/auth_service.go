package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/studentms/internal/models"
	appErrors "github.com/noah-isme/studentms/pkg/errors"
)

type studentAuthenticator interface {
	Authenticate(ctx context.Context, email, code string) (*models.Student, error)
}

// AuthConfig defines configuration for token issuance.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
}

// AuthService provides the login use cases.
type AuthService struct {
	credentials CredentialStore
	students    studentAuthenticator
	validator   *validator.Validate
	logger      *zap.Logger
	config      AuthConfig
	now         func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(credentials CredentialStore, students studentAuthenticator, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 24 * time.Hour
	}
	return &AuthService{credentials: credentials, students: students, validator: validate, logger: logger, config: config, now: time.Now}
}

// Login verifies a role credential and issues an access token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid login payload")
	}

	ok, err := s.credentials.Verify(ctx, req.Username, req.Password, req.Role)
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrInternal, err, "failed to verify credentials")
	}
	if !ok {
		s.logger.Info("login rejected", zap.String("username", req.Username), zap.String("role", string(req.Role)))
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}

	return s.issue(strings.TrimSpace(req.Username), req.Role, nil)
}

// StudentLogin authenticates a student by email and student code.
func (s *AuthService) StudentLogin(ctx context.Context, req models.StudentLoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid login payload")
	}

	student, err := s.students.Authenticate(ctx, strings.TrimSpace(req.Email), strings.ToUpper(strings.TrimSpace(req.StudentCode)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or student code")
		}
		return nil, storageError(err, "student", "authenticate student")
	}

	id := student.ID
	return s.issue(student.Code, models.RoleStudent, &id)
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrUnauthorized, err, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

func (s *AuthService) issue(username string, role models.UserRole, studentID *int64) (*models.LoginResponse, error) {
	issuedAt := s.now().UTC()
	subject := username
	if studentID != nil {
		subject = strconv.FormatInt(*studentID, 10)
	}
	claims := &models.JWTClaims{
		Username:  username,
		Role:      role,
		StudentID: studentID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.config.Issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.AccessTokenSecret))
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrInternal, err, "failed to create access token")
	}

	s.logger.Info("login succeeded", zap.String("username", username), zap.String("role", string(role)))
	return &models.LoginResponse{
		AccessToken: signed,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:    issuedAt,
		User: models.UserInfo{
			Username:    username,
			Role:        role,
			DisplayName: role.DisplayName(),
			StudentID:   studentID,
		},
	}, nil
}
