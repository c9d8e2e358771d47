package auth

import (
	"context"
	"fmt"
	"testing"

	"github.com/vichar-ai/vichar-backend/internal/credits"
	"github.com/vichar-ai/vichar-backend/internal/users"
	pkgAuth "github.com/vichar-ai/vichar-backend/pkg/auth"
	"github.com/vichar-ai/vichar-backend/pkg/config"
	pkgerrors "github.com/vichar-ai/vichar-backend/pkg/errors"
)

type fakeSessionManager struct {
	generated int
	revoked   []string
	rotateErr error
}

func (f *fakeSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	f.generated++
	return fmt.Sprintf("refresh-%s", accessID), nil
}

func (f *fakeSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	if f.rotateErr != nil {
		return "", "", f.rotateErr
	}
	return "new-access-id", "new-refresh-token", nil
}

func (f *fakeSessionManager) Revoke(ctx context.Context, accessID string) error {
	f.revoked = append(f.revoked, accessID)
	return nil
}

func testAuthService(t *testing.T) (Service, *fakeSessionManager, credits.Service) {
	t.Helper()
	creditSvc, err := credits.NewService(credits.ServiceParams{
		Store:       credits.NewMemoryStore(),
		SignupGrant: 100,
	})
	if err != nil {
		t.Fatalf("credit service: %v", err)
	}

	sessions := &fakeSessionManager{}
	svc, err := NewService(ServiceParams{
		UserRepo:       users.NewMemoryRepository(),
		Credits:        creditSvc,
		SessionManager: sessions,
		JWTConfig: config.JWTConfig{
			Secret:            "test-secret",
			Issuer:            "vichar-test",
			ExpirationMinutes: 15,
		},
		PasswordConfig: config.PasswordConfig{
			ArgonMemoryKB:    64,
			ArgonTime:        1,
			ArgonParallelism: 1,
			ArgonSaltLen:     16,
			ArgonKeyLen:      32,
		},
	})
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}
	return svc, sessions, creditSvc
}

func TestRegisterGrantsSignupCredits(t *testing.T) {
	svc, _, creditSvc := testAuthService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, RegisterRequest{
		Email:       "Player@Example.com",
		Password:    "knight-to-f3",
		DisplayName: "Player",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.Credits != 100 {
		t.Fatalf("expected 100 signup credits, got %d", resp.Credits)
	}
	if resp.User.Email != "player@example.com" {
		t.Fatalf("expected normalized email, got %q", resp.User.Email)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected token pair")
	}

	balance, err := creditSvc.Balance(ctx, resp.User.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Credits != 100 {
		t.Fatalf("expected persisted balance of 100, got %d", balance.Credits)
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	svc, _, _ := testAuthService(t)
	ctx := context.Background()

	req := RegisterRequest{Email: "dup@example.com", Password: "knight-to-f3"}
	if _, err := svc.Register(ctx, req); err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err := svc.Register(ctx, req)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestLoginSuccessAndFailure(t *testing.T) {
	svc, _, _ := testAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterRequest{Email: "login@example.com", Password: "knight-to-f3"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	resp, err := svc.Login(ctx, LoginRequest{Email: "login@example.com", Password: "knight-to-f3"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.User.LastLoginAt == nil {
		t.Fatal("expected last login timestamp")
	}

	_, err = svc.Login(ctx, LoginRequest{Email: "login@example.com", Password: "wrong"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for bad password, got %v", err)
	}

	_, err = svc.Login(ctx, LoginRequest{Email: "ghost@example.com", Password: "whatever"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for unknown user, got %v", err)
	}
}

func TestRefreshRotatesTokens(t *testing.T) {
	svc, _, _ := testAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterRequest{Email: "refresh@example.com", Password: "knight-to-f3"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	pair, err := svc.Refresh(ctx, RefreshRequest{
		AccessToken:  registered.AccessToken,
		RefreshToken: registered.RefreshToken,
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken != "new-refresh-token" {
		t.Fatalf("unexpected pair %+v", pair)
	}

	claims, err := pkgAuth.ParseAccessToken(config.JWTConfig{
		Secret: "test-secret",
		Issuer: "vichar-test",
	}, pair.AccessToken)
	if err != nil {
		t.Fatalf("parse refreshed token: %v", err)
	}
	if claims.UserID != registered.User.ID {
		t.Fatalf("refreshed token must keep the user identity")
	}
	if claims.ID != "new-access-id" {
		t.Fatalf("expected rotated jti, got %q", claims.ID)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, sessions, _ := testAuthService(t)

	if err := svc.Logout(context.Background(), "access-1"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != "access-1" {
		t.Fatalf("expected revoked access-1, got %v", sessions.revoked)
	}
}
