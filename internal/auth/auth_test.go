package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/cotisations/internal/models"
)

type memoryUsers struct {
	byName map[string]*models.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byName: make(map[string]*models.User)}
}

func (m *memoryUsers) CreateUser(_ context.Context, user *models.User) error {
	m.byName[user.Username] = user
	return nil
}

func (m *memoryUsers) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	u, ok := m.byName[username]
	if !ok {
		return nil, fmt.Errorf("user %q: %w", username, models.ErrNotFound)
	}
	return u, nil
}

func (m *memoryUsers) UpdateUserPassword(_ context.Context, id, hash string) error {
	for _, u := range m.byName {
		if u.ID == id {
			u.PasswordHash = hash
			return nil
		}
	}
	return models.ErrNotFound
}

func newTestAuthenticator() *PasswordAuthenticator {
	a := NewPasswordAuthenticator(newMemoryUsers())
	a.cost = bcrypt.MinCost
	return a
}

func TestPasswordAuthenticator(t *testing.T) {
	ctx := context.Background()
	a := newTestAuthenticator()

	if _, err := a.Register(ctx, "tresorier", "short"); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("Register weak password: got %v, want ErrWeakPassword", err)
	}

	user, err := a.Register(ctx, "tresorier", "admin123")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.ID == "" || user.PasswordHash == "admin123" {
		t.Errorf("Register stored an unusable user: %+v", user)
	}

	if _, err := a.Register(ctx, "tresorier", "another-pass"); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("Register duplicate: got %v, want ErrUsernameTaken", err)
	}

	tests := []struct {
		name     string
		username string
		password string
		wantErr  bool
	}{
		{name: "correct password", username: "tresorier", password: "admin123"},
		{name: "wrong password", username: "tresorier", password: "admin124", wantErr: true},
		{name: "unknown user", username: "secretaire", password: "admin123", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Authenticate(ctx, tt.username, tt.password)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidCredentials) {
					t.Errorf("got %v, want ErrInvalidCredentials", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Authenticate failed: %v", err)
			}
		})
	}

	if err := a.SetCredential(ctx, "tresorier", "nouveau-mdp"); err != nil {
		t.Fatalf("SetCredential failed: %v", err)
	}
	if _, err := a.Authenticate(ctx, "tresorier", "admin123"); err == nil {
		t.Error("old password still accepted after SetCredential")
	}
	if _, err := a.Authenticate(ctx, "tresorier", "nouveau-mdp"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
	if err := a.SetCredential(ctx, "inconnu", "nouveau-mdp"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("SetCredential unknown user: got %v, want ErrNotFound", err)
	}
}

func TestJWTManager(t *testing.T) {
	m := NewJWTManager("test-secret-key", time.Hour)
	user := &models.User{ID: "u-1", Username: "tresorier"}

	token, err := m.Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.UserID != "u-1" || claims.Username != "tresorier" || claims.Issuer != Issuer {
		t.Errorf("claims = %+v", claims)
	}

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID:   "u-1",
		Username: "tresorier",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	foreignToken, err := foreign.SignedString([]byte("test-secret-key"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	if _, err := m.Validate(foreignToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign issuer: got %v, want ErrInvalidToken", err)
	}

	other := NewJWTManager("other-secret-key", time.Hour)
	if _, err := other.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign signature: got %v, want ErrInvalidToken", err)
	}

	expired := NewJWTManager("test-secret-key", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := expired.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token: got %v, want ErrInvalidToken", err)
	}

	if _, err := m.Validate("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage token: got %v, want ErrInvalidToken", err)
	}
}
