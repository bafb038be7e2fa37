package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	domainauth "renta/internal/domain/auth"
	"renta/internal/infra/security"
	"renta/internal/infra/storage/memory"
)

func newTestService() *Service {
	return &Service{
		Users:      memory.NewUserRepository(),
		Sessions:   memory.NewSessionStore(),
		Passwords:  security.BcryptHasher{},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: time.Hour,
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterParams{
		Email:    "  Alice@Example.COM ",
		Name:     "Alice",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if registered.User.Email != "alice@example.com" {
		t.Errorf("email not normalized: %q", registered.User.Email)
	}
	if registered.Token == "" {
		t.Error("no session token issued")
	}

	login, err := svc.Login(ctx, LoginParams{Email: "alice@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if login.User.ID != registered.User.ID {
		t.Errorf("login resolved a different user")
	}
	if login.Token == registered.Token {
		t.Error("login reused the registration token")
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc := newTestService()
	_, err := svc.Register(context.Background(), RegisterParams{
		Email:    "bob@example.com",
		Name:     "Bob",
		Password: "short",
	})
	if !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("err: %v, want ErrPasswordTooShort", err)
	}
}

func TestLoginFailures(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	if _, err := svc.Register(ctx, RegisterParams{
		Email:    "carol@example.com",
		Name:     "Carol",
		Password: "password1",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginParams{Email: "carol@example.com", Password: "password2"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("err: %v", err)
		}
	})
	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginParams{Email: "nobody@example.com", Password: "password1"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("err: %v", err)
		}
	})
}

func TestResolveTokenAndLogout(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	registered, err := svc.Register(ctx, RegisterParams{
		Email:    "dave@example.com",
		Name:     "Dave",
		Password: "password1",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	resolved, err := svc.ResolveToken(ctx, registered.Token)
	if err != nil {
		t.Fatalf("ResolveToken: %v", err)
	}
	if resolved.User.ID != registered.User.ID {
		t.Errorf("resolved wrong user")
	}

	if err := svc.Logout(ctx, registered.Token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.ResolveToken(ctx, registered.Token); !errors.Is(err, domainauth.ErrSessionNotFound) {
		t.Fatalf("after logout: %v, want ErrSessionNotFound", err)
	}
}

func TestBlockedUserLosesSessions(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	registered, err := svc.Register(ctx, RegisterParams{
		Email:    "eve@example.com",
		Name:     "Eve",
		Password: "password1",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	user, err := svc.Users.ByID(ctx, registered.User.ID)
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	user.Blocked = true
	if err := svc.Users.Save(ctx, user); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := svc.Login(ctx, LoginParams{Email: "eve@example.com", Password: "password1"}); !errors.Is(err, ErrUserBlocked) {
		t.Fatalf("Login while blocked: %v", err)
	}
	if _, err := svc.ResolveToken(ctx, registered.Token); !errors.Is(err, ErrUserBlocked) {
		t.Fatalf("ResolveToken while blocked: %v", err)
	}
	// The blocked resolve drops the remaining sessions.
	if _, err := svc.Sessions.Get(ctx, domainauth.Token(registered.Token)); !errors.Is(err, domainauth.ErrSessionNotFound) {
		t.Fatalf("session should be gone: %v", err)
	}
}

func TestRevokeAll(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	registered, err := svc.Register(ctx, RegisterParams{
		Email:    "frank@example.com",
		Name:     "Frank",
		Password: "password1",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Login(ctx, LoginParams{Email: "frank@example.com", Password: "password1"}); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := svc.RevokeAll(ctx, string(registered.User.ID)); err != nil {
		t.Fatalf("RevokeAll: %v", err)
	}
	if _, err := svc.ResolveToken(ctx, registered.Token); !errors.Is(err, domainauth.ErrSessionNotFound) {
		t.Fatalf("after revoke: %v", err)
	}
}
