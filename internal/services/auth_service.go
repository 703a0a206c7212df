package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/examcore/exam-service/internal/events"
	"github.com/examcore/exam-service/internal/mail"
	"github.com/examcore/exam-service/internal/models"
	"github.com/examcore/exam-service/internal/repositories"
	"github.com/examcore/exam-service/internal/validator"
)

const (
	resetTokenTTL = 30 * time.Minute

	adminLandingPath   = "/admin-dashboard"
	studentLandingPath = "/user-dashboard"
)

// TokenClaims is the JWT payload issued on login.
type TokenClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// AuthConfig carries the token and environment settings for the auth service.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
	// DevMode exposes password reset tokens in API responses instead of
	// relying on email delivery.
	DevMode bool
}

type authService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.Publisher
	mailer    mail.Mailer
	config    AuthConfig
}

func NewAuthService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator, publisher events.Publisher, mailer mail.Mailer, config AuthConfig) AuthService {
	return &authService{
		repo:      repo,
		logger:    logger,
		validator: v,
		publisher: publisher,
		mailer:    mailer,
		config:    config,
	}
}

func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.repo.User().EmailExists(ctx, nil, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, NewConflictError("user", fmt.Sprintf("email %s is already registered", email))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	role := models.RoleStudent
	if req.Role == string(models.RoleAdmin) {
		role = models.RoleAdmin
	}

	user := &models.User{
		ID:           uuid.New().String(),
		UserName:     email,
		FullName:     req.FullName,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}

	if err := s.repo.User().Create(ctx, nil, user); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, NewConflictError("user", fmt.Sprintf("email %s is already registered", email))
		}
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Login verifies credentials and issues a JWT. The redirect path tells the
// client which dashboard the role lands on.
func (s *authService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, NewValidationError("credentials", "email and password are required", nil)
	}

	user, err := s.repo.User().GetByEmail(ctx, nil, email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewAuthError("unknown email")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("login failed", "user_id", user.ID)
		return nil, NewAuthError("wrong password")
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}

	redirect := studentLandingPath
	if user.IsAdmin() {
		redirect = adminLandingPath
	}

	s.logger.Info("user logged in", "user_id", user.ID, "role", user.Role)

	return &LoginResult{
		Token:        token,
		RedirectPath: redirect,
		User:         user,
	}, nil
}

// ForgotPassword issues a time-limited reset token. In development mode the
// token is also returned in the response body so the flow works without a
// mail server.
func (s *authService) ForgotPassword(ctx context.Context, req *ForgotPasswordRequest) (*PasswordResetResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.repo.User().GetByEmail(ctx, nil, email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("user", email)
		}
		return nil, err
	}

	token := uuid.New().String()
	expires := time.Now().UTC().Add(resetTokenTTL)
	user.ResetToken = &token
	user.ResetTokenExpires = &expires

	if err := s.repo.User().Update(ctx, nil, user); err != nil {
		return nil, err
	}

	body := fmt.Sprintf(
		"<p>Hello %s,</p><p>Use the token below to reset your password. It expires in 30 minutes.</p><p><strong>%s</strong></p>",
		user.FullName, token)
	if err := s.mailer.Send(user.Email, "Password reset", body); err != nil {
		s.logger.Error("reset mail delivery failed", "user_id", user.ID, "error", err)
		if !s.config.DevMode {
			return nil, fmt.Errorf("send reset mail: %w", err)
		}
	}

	s.publishResetRequested(ctx, user)

	result := &PasswordResetResult{Email: user.Email}
	if s.config.DevMode {
		result.Token = token
	}
	return result, nil
}

func (s *authService) ResetPassword(ctx context.Context, req *ResetPasswordRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.repo.User().GetByEmail(ctx, nil, email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return NewNotFoundError("user", email)
		}
		return err
	}

	if user.ResetToken == nil || *user.ResetToken != req.Token {
		return NewValidationError("token", "is invalid", nil)
	}
	if user.ResetTokenExpires == nil || time.Now().UTC().After(*user.ResetTokenExpires) {
		return NewValidationError("token", "has expired", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user.PasswordHash = string(hash)
	user.ResetToken = nil
	user.ResetTokenExpires = nil

	if err := s.repo.User().Update(ctx, nil, user); err != nil {
		return err
	}

	s.logger.Info("password reset", "user_id", user.ID)
	return nil
}

// ParseToken validates a JWT and returns its claims. Used by the auth
// middleware on every authenticated request.
func (s *authService) ParseToken(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil {
		return nil, NewAuthError("invalid token")
	}
	if !token.Valid {
		return nil, NewAuthError("invalid token")
	}
	return claims, nil
}

func (s *authService) issueToken(user *models.User) (string, error) {
	now := time.Now().UTC()
	claims := TokenClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *authService) publishResetRequested(ctx context.Context, user *models.User) {
	err := s.publisher.Publish(ctx, events.EventTypePasswordResetRequested, map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	if err != nil {
		s.logger.Warn("failed to publish reset event", "user_id", user.ID, "error", err)
	}
}
