package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	redrepo "github.com/ViceKink/vice-kink-backend/internal/repo/redis"
	authsvc "github.com/ViceKink/vice-kink-backend/internal/services/auth"
)

type userStoreStub struct {
	byEmail map[string]authsvc.UserRecord
	nextID  int64
}

func newUserStoreStub() *userStoreStub {
	return &userStoreStub{byEmail: map[string]authsvc.UserRecord{}}
}

func (s *userStoreStub) GetByEmail(_ context.Context, email string) (authsvc.UserRecord, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return authsvc.UserRecord{}, authsvc.ErrUserNotFound
	}
	return user, nil
}

func (s *userStoreStub) Create(_ context.Context, email, passwordHash, displayName string) (authsvc.UserRecord, error) {
	s.nextID++
	user := authsvc.UserRecord{
		ID:           s.nextID,
		Email:        email,
		PasswordHash: passwordHash,
		DisplayName:  displayName,
		Role:         "user",
	}
	s.byEmail[email] = user
	return user, nil
}

func TestRegisterAndLogin(t *testing.T) {
	svc, cleanup := newAuthServiceForTest(t)
	defer cleanup()

	ctx := context.Background()
	registered, err := svc.Register(ctx, "Dana@Example.com", "s3cret-password", "Dana")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if registered.Me.ID <= 0 {
		t.Fatalf("expected a user id, got %d", registered.Me.ID)
	}

	if _, err := svc.Register(ctx, "dana@example.com", "another-password", "Dana"); !errors.Is(err, authsvc.ErrEmailTaken) {
		t.Fatalf("duplicate email must be rejected, got %v", err)
	}

	logged, err := svc.Login(ctx, "dana@example.com", "s3cret-password")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if logged.Me.ID != registered.Me.ID {
		t.Fatalf("login must resolve the registered user")
	}

	if _, err := svc.Login(ctx, "dana@example.com", "wrong-password"); !errors.Is(err, authsvc.ErrInvalidCredentials) {
		t.Fatalf("wrong password must be rejected, got %v", err)
	}
}

func TestRefreshRotation(t *testing.T) {
	svc, cleanup := newAuthServiceForTest(t)
	defer cleanup()

	ctx := context.Background()
	loginRes, err := svc.Register(ctx, "user@example.com", "s3cret-password", "User")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	refreshRes, err := svc.Refresh(ctx, loginRes.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if refreshRes.RefreshToken == loginRes.RefreshToken {
		t.Fatalf("refresh token was not rotated")
	}

	if _, err := svc.Refresh(ctx, loginRes.RefreshToken); !errors.Is(err, authsvc.ErrUnauthorized) {
		t.Fatalf("old refresh token should be unauthorized, got err=%v", err)
	}

	if _, err := svc.ValidateAccessToken(ctx, refreshRes.AccessToken); err != nil {
		t.Fatalf("new access token validation failed: %v", err)
	}
}

func TestLogoutInvalidatesSession(t *testing.T) {
	svc, cleanup := newAuthServiceForTest(t)
	defer cleanup()

	ctx := context.Background()
	loginRes, err := svc.Register(ctx, "user@example.com", "s3cret-password", "User")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	claims, err := svc.ValidateAccessToken(ctx, loginRes.AccessToken)
	if err != nil {
		t.Fatalf("validate access token before logout: %v", err)
	}

	if err := svc.Logout(ctx, claims.SID); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if _, err := svc.ValidateAccessToken(ctx, loginRes.AccessToken); !errors.Is(err, authsvc.ErrUnauthorized) {
		t.Fatalf("access token should be unauthorized after logout, got err=%v", err)
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := authsvc.HashPassword("s3cret-password")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	if !authsvc.VerifyPassword("s3cret-password", hash) {
		t.Fatalf("correct password must verify")
	}
	if authsvc.VerifyPassword("wrong-password", hash) {
		t.Fatalf("wrong password must not verify")
	}

	second, err := authsvc.HashPassword("s3cret-password")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if second == hash {
		t.Fatalf("hashes must be salted")
	}
}

func newAuthServiceForTest(t *testing.T) (*authsvc.Service, func()) {
	t.Helper()

	mini, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}

	client := goredis.NewClient(&goredis.Options{Addr: mini.Addr()})
	repo := redrepo.NewSessionRepo(client)
	jwtManager := authsvc.NewJWTManager("test-secret", 15*time.Minute)
	svc := authsvc.NewService(jwtManager, repo, newUserStoreStub(), 45*24*time.Hour)

	cleanup := func() {
		_ = client.Close()
		mini.Close()
	}
	return svc, cleanup
}
