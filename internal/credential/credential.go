package credential

import (
	"errors"
	"fmt"
	"os"

	"github.com/99designs/keyring"
	"github.com/joho/godotenv"
)

const serviceName = "mailfetch"

// PasswordEnv is the environment variable read for the mailbox password
const PasswordEnv = "MAILFETCH_PASSWORD"

// ErrNotFound is returned when no source holds a password for the user
var ErrNotFound = errors.New("credential not found")

// Open returns the OS keyring used to store mailbox passwords
func Open() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/mailfetch/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("mailfetch-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Lookup reads the password stored for user
func Lookup(ring keyring.Keyring, user string) (string, error) {
	item, err := ring.Get(user)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, user)
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", user, err)
	}
	return string(item.Data), nil
}

// Store saves the password for user
func Store(ring keyring.Keyring, user, password string) error {
	err := ring.Set(keyring.Item{
		Key:   user,
		Data:  []byte(password),
		Label: serviceName + " " + user,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", user, err)
	}
	return nil
}

// LoadEnvFile loads variables from a dotenv file without overriding ones already set.
// A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Resolver finds the mailbox password from, in order: an explicit value, the environment and the keyring
type Resolver struct {
	Explicit   string
	UseKeyring bool
	OpenRing   func() (keyring.Keyring, error)
	Getenv     func(string) string
}

// Password returns the first non-empty password for user
func (r Resolver) Password(user string) (string, error) {
	if r.Explicit != "" {
		return r.Explicit, nil
	}

	getenv := r.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if pw := getenv(PasswordEnv); pw != "" {
		return pw, nil
	}

	if !r.UseKeyring {
		return "", ErrNotFound
	}

	open := r.OpenRing
	if open == nil {
		open = Open
	}
	ring, err := open()
	if err != nil {
		return "", err
	}
	return Lookup(ring, user)
}
