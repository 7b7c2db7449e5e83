package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/internal/activity"
	pkgAuth "github.com/angelmondragon/shopfront-backend/pkg/auth"
	"github.com/angelmondragon/shopfront-backend/pkg/auth/session"
	"github.com/angelmondragon/shopfront-backend/pkg/config"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/security"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "shopfront",
		ExpirationMinutes: 30,
	}
}

func TestServiceLoginStaffRole(t *testing.T) {
	password := "staff-secret"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "staff@example.com",
		PasswordHash: mustHashPassword(t, password),
		IsActive:     true,
		IsStaff:      true,
	}
	cfg := testJWTConfig()
	svc, sessions, recorder := buildTestService(t, user, cfg)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:     "  STAFF@example.com ",
		Password:  password,
		IPAddress: "10.1.1.1",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Role != enums.UserRoleStaff {
		t.Fatalf("expected staff role claim, got %s", claims.Role)
	}
	if resp.RefreshToken == "" || sessions.generated[claims.ID] != user.ID {
		t.Fatalf("expected refresh session keyed by jti %s", claims.ID)
	}
	if resp.User == nil || resp.User.LastLoginAt == nil {
		t.Fatalf("expected last login to be set on response user")
	}
	if resp.ExpiresIn != 1800 || resp.TokenType != "Bearer" {
		t.Fatalf("unexpected token metadata %+v", resp)
	}
	if len(recorder.entries) != 1 || recorder.entries[0].Type != enums.ActivityLogin || recorder.entries[0].IPAddress != "10.1.1.1" {
		t.Fatalf("expected login activity, got %+v", recorder.entries)
	}
}

func TestServiceLoginRejectsInactiveAndWrongPassword(t *testing.T) {
	password := "secret-pass"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "inactive@example.com",
		PasswordHash: mustHashPassword(t, password),
	}
	svc, _, _ := buildTestService(t, user, testJWTConfig())

	_, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: password})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for inactive user, got %v", err)
	}

	user.IsActive = true
	_, err = svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "nope"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for wrong password, got %v", err)
	}

	_, err = svc.Login(context.Background(), LoginRequest{Email: "missing@example.com", Password: password})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for unknown email, got %v", err)
	}
}

func TestServiceRefreshRotatesSession(t *testing.T) {
	password := "refresh-pass"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "refresh@example.com",
		PasswordHash: mustHashPassword(t, password),
		IsActive:     true,
	}
	cfg := testJWTConfig()
	svc, sessions, _ := buildTestService(t, user, cfg)

	login, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: password})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	refreshed, err := svc.Refresh(context.Background(), RefreshRequest{AccessToken: login.AccessToken, RefreshToken: login.RefreshToken})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.AccessToken == login.AccessToken || refreshed.RefreshToken == login.RefreshToken {
		t.Fatalf("expected rotated tokens")
	}

	_, err = svc.Refresh(context.Background(), RefreshRequest{AccessToken: login.AccessToken, RefreshToken: login.RefreshToken})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected reused refresh token to fail, got %v", err)
	}
	if len(sessions.generated) != 1 {
		t.Fatalf("expected exactly one live session, got %d", len(sessions.generated))
	}
}

func TestServiceLogoutRevokes(t *testing.T) {
	user := &models.User{ID: uuid.New(), IsActive: true}
	svc, sessions, recorder := buildTestService(t, user, testJWTConfig())
	sessions.generated["jti-1"] = user.ID

	if err := svc.Logout(context.Background(), user.ID, "jti-1"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok := sessions.generated["jti-1"]; ok {
		t.Fatalf("expected session revoked")
	}
	if len(recorder.entries) != 1 || recorder.entries[0].Type != enums.ActivityLogout {
		t.Fatalf("expected logout activity, got %+v", recorder.entries)
	}
	if err := svc.Logout(context.Background(), user.ID, ""); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized without jti, got %v", err)
	}
}

func buildTestService(t *testing.T, user *models.User, jwtCfg config.JWTConfig) (Service, *stubSessionManager, *recordingActivity) {
	t.Helper()
	sessions := &stubSessionManager{generated: map[string]uuid.UUID{}, tokens: map[string]string{}}
	recorder := &recordingActivity{}
	svc, err := NewService(ServiceParams{
		UserRepo:       &stubUserRepo{user: user},
		SessionManager: sessions,
		Activity:       recorder,
		JWTConfig:      jwtCfg,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, sessions, recorder
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

type stubUserRepo struct {
	user *models.User
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return nil
}

type stubSessionManager struct {
	generated map[string]uuid.UUID
	tokens    map[string]string
	counter   int
}

func (s *stubSessionManager) Generate(ctx context.Context, accessID string, userID uuid.UUID) (string, error) {
	s.counter++
	token := "refresh-" + accessID
	s.generated[accessID] = userID
	s.tokens[accessID] = token
	return token, nil
}

func (s *stubSessionManager) Rotate(ctx context.Context, oldAccessID string, userID uuid.UUID, provided string) (string, string, error) {
	owner, ok := s.generated[oldAccessID]
	if !ok || owner != userID || s.tokens[oldAccessID] != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(s.generated, oldAccessID)
	delete(s.tokens, oldAccessID)
	newID := session.NewAccessID()
	token, _ := s.Generate(ctx, newID, userID)
	return newID, token, nil
}

func (s *stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	delete(s.generated, accessID)
	delete(s.tokens, accessID)
	return nil
}

type recordingActivity struct {
	entries []activity.Entry
}

func (r *recordingActivity) Record(ctx context.Context, entry activity.Entry) {
	r.entries = append(r.entries, entry)
}
