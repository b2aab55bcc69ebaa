package credential

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/99designs/keyring"
)

func TestLookupAndStore(t *testing.T) {
	ring := keyring.NewArrayKeyring(nil)

	if _, err := Lookup(ring, "me@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	if err := Store(ring, "me@example.com", "s3cret"); err != nil {
		t.Fatalf("Store() error: %v", err)
	}

	got, err := Lookup(ring, "me@example.com")
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if got != "s3cret" {
		t.Errorf("Lookup() = %q, want %q", got, "s3cret")
	}
}

func TestResolverOrder(t *testing.T) {
	ring := keyring.NewArrayKeyring([]keyring.Item{{Key: "me@example.com", Data: []byte("from-ring")}})
	openRing := func() (keyring.Keyring, error) { return ring, nil }

	tests := []struct {
		name     string
		resolver Resolver
		expected string
		wantErr  bool
	}{
		{
			name: "Explicit wins",
			resolver: Resolver{
				Explicit:   "from-flag",
				UseKeyring: true,
				OpenRing:   openRing,
				Getenv:     func(string) string { return "from-env" },
			},
			expected: "from-flag",
		},
		{
			name: "Environment before keyring",
			resolver: Resolver{
				UseKeyring: true,
				OpenRing:   openRing,
				Getenv:     func(string) string { return "from-env" },
			},
			expected: "from-env",
		},
		{
			name: "Keyring last",
			resolver: Resolver{
				UseKeyring: true,
				OpenRing:   openRing,
				Getenv:     func(string) string { return "" },
			},
			expected: "from-ring",
		},
		{
			name: "Keyring disabled",
			resolver: Resolver{
				OpenRing: openRing,
				Getenv:   func(string) string { return "" },
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.resolver.Password("me@example.com")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Password() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("Password() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	if err := LoadEnvFile(""); err != nil {
		t.Errorf("Expected no error for empty path, got %v", err)
	}
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("Expected no error for missing file, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte(PasswordEnv+"=from-dotenv\n"), 0o600); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}
	t.Setenv(PasswordEnv, "")
	_ = os.Unsetenv(PasswordEnv)

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile() error: %v", err)
	}
	if got := os.Getenv(PasswordEnv); got != "from-dotenv" {
		t.Errorf("Expected %s=from-dotenv, got %q", PasswordEnv, got)
	}
}
