package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/treyarte/messagely/internal/apperror"
	"github.com/treyarte/messagely/internal/auth"
	"github.com/treyarte/messagely/internal/model"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeUserRepo is an in-memory implementation of repository.UserRepository.
// Using a fake (not a mock framework) keeps tests dependency-free and easy
// to read — you can see exactly what the fake does.
type fakeUserRepo struct {
	users map[string]*model.User // keyed by username
	// set to a non-nil error to simulate a database failure
	createErr error
	getErr    error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, exists := f.users[user.Username]; exists {
		return apperror.DuplicateUsername(user.Username)
	}
	now := time.Now()
	user.JoinAt = now
	user.LastLoginAt = now
	copied := *user
	f.users[user.Username] = &copied
	return nil
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[username]
	if !ok {
		return nil, apperror.NotFound("user", username)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) List(ctx context.Context) ([]model.PublicUser, error) {
	out := []model.PublicUser{}
	for _, u := range f.users {
		out = append(out, u.Public())
	}
	return out, nil
}

func (f *fakeUserRepo) UpdateLastLogin(ctx context.Context, username string, at time.Time) error {
	u, ok := f.users[username]
	if !ok {
		return apperror.NotFound("user", username)
	}
	u.LastLoginAt = at
	return nil
}

// newTestAuthService returns an AuthService wired with fake dependencies.
// The TokenService uses a short secret and the PasswordService the minimum
// bcrypt cost, suitable for tests only.
func newTestAuthService(t *testing.T, repo *fakeUserRepo) *AuthService {
	t.Helper()

	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!", 0)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	ps := auth.NewPasswordServiceForTest()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAuthService(repo, ts, ps, logger)
}

func registerAlice(t *testing.T, svc *AuthService) *AuthResult {
	t.Helper()
	result, err := svc.Register(context.Background(), RegisterRequest{
		Username:  "alice",
		Password:  "secret123",
		FirstName: "Alice",
		LastName:  "Anderson",
		Phone:     "+14155550101",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return result
}

// =========================================================================
// REGISTER TESTS
// =========================================================================

func TestRegister(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	result := registerAlice(t, svc)

	if result.Token == "" {
		t.Error("Register() returned no token")
	}
	if result.User.Username != "alice" {
		t.Errorf("Username = %q, want %q", result.User.Username, "alice")
	}
	if result.User.JoinAt.IsZero() || result.User.LastLoginAt.IsZero() {
		t.Error("Register() did not stamp join/last-login timestamps")
	}
	if result.User.Password == "secret123" {
		t.Error("Register() stored the plaintext password")
	}
	if !strings.HasPrefix(result.User.Password, "$2a$") {
		t.Errorf("stored password %q is not a bcrypt hash", result.User.Password)
	}
}

// The profile must never leak the hash through serialization, whatever
// shape a handler puts it in.
func TestRegister_ProfileJSONExcludesHash(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	result := registerAlice(t, svc)

	raw, err := json.Marshal(result.User)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if strings.Contains(string(raw), result.User.Password) {
		t.Errorf("serialized profile contains the hash: %s", raw)
	}
	if strings.Contains(strings.ToLower(string(raw)), "password") {
		t.Errorf("serialized profile has a password field: %s", raw)
	}
}

func TestRegister_MissingPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	_, err := svc.Register(context.Background(), RegisterRequest{Username: "alice"})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Register() error = %v, want ErrValidation", err)
	}
}

func TestRegister_MissingUsername(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	_, err := svc.Register(context.Background(), RegisterRequest{Password: "secret123"})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Register() error = %v, want ErrValidation", err)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	registerAlice(t, svc)

	// Same username, entirely different profile — still a duplicate
	_, err := svc.Register(context.Background(), RegisterRequest{
		Username: "alice",
		Password: "different-password",
		Phone:    "+14155550999",
	})
	if !errors.Is(err, apperror.ErrDuplicate) {
		t.Errorf("Register() error = %v, want ErrDuplicate", err)
	}
}

// =========================================================================
// AUTHENTICATE TESTS
// =========================================================================

func TestAuthenticate(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)
	registerAlice(t, svc)

	tests := []struct {
		name     string
		username string
		password string
		want     bool
	}{
		{"valid credentials", "alice", "secret123", true},
		{"wrong password", "alice", "nope", false},
		{"unknown user", "nobody", "secret123", false},
		{"empty password", "alice", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Authenticate(context.Background(), tt.username, tt.password)
			if err != nil {
				t.Fatalf("Authenticate() error = %v — bad credentials must not error", err)
			}
			if got != tt.want {
				t.Errorf("Authenticate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAuthenticate_InfrastructureFailure(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)
	repo.getErr = fmt.Errorf("db is on fire")

	if _, err := svc.Authenticate(context.Background(), "alice", "secret123"); err == nil {
		t.Fatal("Authenticate() should surface infrastructure errors")
	}
}

// =========================================================================
// LOGIN TESTS
// =========================================================================

func TestLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)
	registered := registerAlice(t, svc)

	before := registered.User.LastLoginAt
	time.Sleep(5 * time.Millisecond)

	result, err := svc.Login(context.Background(), "alice", "secret123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.Token == "" {
		t.Error("Login() returned no token")
	}
	if !result.User.LastLoginAt.After(before) {
		t.Error("Login() did not advance last_login_at")
	}
}

func TestLogin_MissingFields(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	for _, pair := range [][2]string{{"", "pw"}, {"alice", ""}, {"", ""}} {
		_, err := svc.Login(context.Background(), pair[0], pair[1])
		if !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("Login(%q, %q) error = %v, want ErrValidation", pair[0], pair[1], err)
		}
	}
}

// The enumeration-hygiene property: an unknown user and a wrong password
// must produce the exact same error.
func TestLogin_InvalidCredentialsIndistinguishable(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)
	registerAlice(t, svc)

	_, errWrongPassword := svc.Login(context.Background(), "alice", "wrong")
	_, errUnknownUser := svc.Login(context.Background(), "mallory", "wrong")

	if !errors.Is(errWrongPassword, apperror.ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredentials", errWrongPassword)
	}
	if !errors.Is(errUnknownUser, apperror.ErrInvalidCredentials) {
		t.Errorf("unknown user error = %v, want ErrInvalidCredentials", errUnknownUser)
	}
	if errWrongPassword.Error() != errUnknownUser.Error() {
		t.Errorf("messages differ: %q vs %q — username enumeration leak",
			errWrongPassword.Error(), errUnknownUser.Error())
	}
}

func TestLogin_TokenCarriesUsername(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)
	registerAlice(t, svc)

	result, err := svc.Login(context.Background(), "alice", "secret123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	ts, _ := auth.NewTokenService("test-secret-at-least-16-chars!!", 0)
	username, err := ts.Validate(result.Token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if username != "alice" {
		t.Errorf("token subject = %q, want %q", username, "alice")
	}
}
