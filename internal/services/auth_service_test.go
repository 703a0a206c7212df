package services

import (
	"context"
	"testing"
	"time"

	"github.com/examcore/exam-service/internal/events"
	"github.com/examcore/exam-service/internal/mail"
	"github.com/examcore/exam-service/internal/models"
)

func newAuthService(t *testing.T) (AuthService, *events.MockEventPublisher) {
	t.Helper()
	repo := newTestRepo(t)
	publisher := events.NewMockEventPublisher()
	service := NewAuthService(repo, testLogger(), newTestValidator(), publisher, mail.NewNoopMailer(testLogger()), testAuthConfig())
	return service, publisher
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	service, _ := newAuthService(t)

	t.Run("creates student by default", func(t *testing.T) {
		user, err := service.Register(ctx, &RegisterRequest{
			FullName: "Dana Smith",
			Email:    "Dana@Example.com",
			Password: "s3cret-pass",
		})
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		if user.Role != models.RoleStudent {
			t.Errorf("expected student role, got %q", user.Role)
		}
		if user.Email != "dana@example.com" {
			t.Errorf("email should be normalized, got %q", user.Email)
		}
		if user.UserName != user.Email {
			t.Errorf("username should mirror email, got %q", user.UserName)
		}
		if user.PasswordHash == "s3cret-pass" {
			t.Error("password must not be stored in plain text")
		}
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		_, err := service.Register(ctx, &RegisterRequest{
			FullName: "Dana Clone",
			Email:    "dana@example.com",
			Password: "another-pass",
		})
		if !IsConflictError(err) {
			t.Errorf("expected conflict error, got %v", err)
		}
	})

	t.Run("short password rejected", func(t *testing.T) {
		_, err := service.Register(ctx, &RegisterRequest{
			FullName: "Shorty",
			Email:    "short@example.com",
			Password: "tiny",
		})
		if err == nil {
			t.Fatal("expected validation failure for short password")
		}
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	service, _ := newAuthService(t)

	if _, err := service.Register(ctx, &RegisterRequest{
		FullName: "Sam Admin", Email: "admin@example.com", Password: "admin-pass-1", Role: "admin",
	}); err != nil {
		t.Fatalf("register admin: %v", err)
	}
	if _, err := service.Register(ctx, &RegisterRequest{
		FullName: "Sal Student", Email: "student@example.com", Password: "student-pass-1",
	}); err != nil {
		t.Fatalf("register student: %v", err)
	}

	t.Run("admin lands on admin dashboard", func(t *testing.T) {
		result, err := service.Login(ctx, "admin@example.com", "admin-pass-1")
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		if result.RedirectPath != "/admin-dashboard" {
			t.Errorf("expected admin redirect, got %q", result.RedirectPath)
		}

		claims, err := service.ParseToken(result.Token)
		if err != nil {
			t.Fatalf("parse issued token: %v", err)
		}
		if claims.Role != "admin" || claims.UserID != result.User.ID {
			t.Errorf("claims do not match user: %+v", claims)
		}
	})

	t.Run("student lands on user dashboard", func(t *testing.T) {
		result, err := service.Login(ctx, "student@example.com", "student-pass-1")
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		if result.RedirectPath != "/user-dashboard" {
			t.Errorf("expected student redirect, got %q", result.RedirectPath)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := service.Login(ctx, "student@example.com", "wrong-pass")
		if !IsAuthError(err) {
			t.Errorf("expected auth error, got %v", err)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := service.Login(ctx, "ghost@example.com", "whatever-pass")
		if !IsAuthError(err) {
			t.Errorf("expected auth error, got %v", err)
		}
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		if _, err := service.ParseToken("not-a-token"); !IsAuthError(err) {
			t.Errorf("expected auth error, got %v", err)
		}
	})
}

func TestAuthService_PasswordReset(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	publisher := events.NewMockEventPublisher()
	service := NewAuthService(repo, testLogger(), newTestValidator(), publisher, mail.NewNoopMailer(testLogger()), testAuthConfig())

	if _, err := service.Register(ctx, &RegisterRequest{
		FullName: "Riley Reset", Email: "riley@example.com", Password: "original-pass",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	t.Run("unknown email", func(t *testing.T) {
		_, err := service.ForgotPassword(ctx, &ForgotPasswordRequest{Email: "nobody@example.com"})
		if !IsNotFoundError(err) {
			t.Errorf("expected not found error, got %v", err)
		}
	})

	t.Run("full reset flow", func(t *testing.T) {
		publisher.ClearEvents()

		result, err := service.ForgotPassword(ctx, &ForgotPasswordRequest{Email: "riley@example.com"})
		if err != nil {
			t.Fatalf("forgot password: %v", err)
		}
		if result.Token == "" {
			t.Fatal("dev mode should return the reset token")
		}

		published := publisher.GetPublishedEvents()
		if len(published) != 1 || published[0].Type != events.EventTypePasswordResetRequested {
			t.Errorf("expected one reset event, got %+v", published)
		}

		err = service.ResetPassword(ctx, &ResetPasswordRequest{
			Email:       "riley@example.com",
			Token:       result.Token,
			NewPassword: "brand-new-pass",
		})
		if err != nil {
			t.Fatalf("reset password: %v", err)
		}

		if _, err := service.Login(ctx, "riley@example.com", "original-pass"); !IsAuthError(err) {
			t.Errorf("old password should no longer work, got %v", err)
		}
		if _, err := service.Login(ctx, "riley@example.com", "brand-new-pass"); err != nil {
			t.Errorf("new password should work, got %v", err)
		}
	})

	t.Run("wrong token rejected", func(t *testing.T) {
		if _, err := service.ForgotPassword(ctx, &ForgotPasswordRequest{Email: "riley@example.com"}); err != nil {
			t.Fatalf("forgot password: %v", err)
		}
		err := service.ResetPassword(ctx, &ResetPasswordRequest{
			Email:       "riley@example.com",
			Token:       "bogus-token",
			NewPassword: "whatever-pass",
		})
		if !IsValidationError(err) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("expired token rejected", func(t *testing.T) {
		result, err := service.ForgotPassword(ctx, &ForgotPasswordRequest{Email: "riley@example.com"})
		if err != nil {
			t.Fatalf("forgot password: %v", err)
		}

		user, err := repo.User().GetByEmail(ctx, nil, "riley@example.com")
		if err != nil {
			t.Fatalf("load user: %v", err)
		}
		past := time.Now().UTC().Add(-time.Minute)
		user.ResetTokenExpires = &past
		if err := repo.User().Update(ctx, nil, user); err != nil {
			t.Fatalf("expire token: %v", err)
		}

		err = service.ResetPassword(ctx, &ResetPasswordRequest{
			Email:       "riley@example.com",
			Token:       result.Token,
			NewPassword: "too-late-pass",
		})
		if !IsValidationError(err) {
			t.Errorf("expected validation error for expired token, got %v", err)
		}
	})
}
