package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-secret-at-least-32-bytes-long!"))
	userID := uuid.New()

	token, err := issuer.Issue(userID, PurposeAccess, time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	got, err := issuer.Verify(token, PurposeAccess)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if got != userID {
		t.Errorf("Verify() user = %v, want %v", got, userID)
	}
}

func TestTokenPurposeMismatch(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-secret-at-least-32-bytes-long!"))

	token, err := issuer.Issue(uuid.New(), PurposeReset, time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	// A reset token must not authenticate API requests.
	if _, err := issuer.Verify(token, PurposeAccess); !errors.Is(err, ErrWrongPurpose) {
		t.Errorf("Verify() error = %v, want ErrWrongPurpose", err)
	}
}

func TestTokenExpired(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-secret-at-least-32-bytes-long!"))

	token, err := issuer.Issue(uuid.New(), PurposeAccess, time.Minute)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	// Move the verifier's clock past the expiry.
	issuer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	if _, err := issuer.Verify(token, PurposeAccess); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Verify() error = %v, want ErrTokenExpired", err)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-secret-at-least-32-bytes-long!"))
	other := NewTokenIssuer([]byte("a-different-secret-also-32-bytes!!!"))

	token, err := issuer.Issue(uuid.New(), PurposeAccess, time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, err := other.Verify(token, PurposeAccess); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("Verify() error = %v, want ErrTokenInvalid", err)
	}
}

func TestTokenGarbage(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-secret-at-least-32-bytes-long!"))

	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"not a jwt", "hello world"},
		{"truncated", "eyJhbGciOiJIUzI1NiJ9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := issuer.Verify(tt.raw, PurposeAccess); !errors.Is(err, ErrTokenInvalid) {
				t.Errorf("Verify(%q) error = %v, want ErrTokenInvalid", tt.raw, err)
			}
		})
	}
}

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"valid", "correct horse battery staple", nil},
		{"minimum length", "12345678", nil},
		{"too short", "1234567", ErrPasswordTooShort},
		{"empty", "", ErrPasswordTooShort},
		{"at bcrypt limit", strings.Repeat("a", 72), nil},
		{"over bcrypt limit", strings.Repeat("a", 73), ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("HashPassword() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("HashPassword() error = %v", err)
			}
			if !CheckPassword(hash, tt.password) {
				t.Error("CheckPassword() = false for matching password")
			}
			if CheckPassword(hash, tt.password+"x") {
				t.Error("CheckPassword() = true for wrong password")
			}
		})
	}
}
