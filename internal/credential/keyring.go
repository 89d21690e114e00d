package credential

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/99designs/keyring"
)

const serviceName = "taskboard"

// Well-known credential keys.
const (
	KeyDatabaseURL   = "database-url"
	KeyIMAPPassword  = "imap-password"
	KeyRedisPassword = "redis-password"
)

// open is replaced in tests with an in-memory keyring.
var open = openKeyring

// SourceKey returns the keyring key holding the secret of the given kind
// (KeyIMAPPassword, KeyRedisPassword) for one configured source.
func SourceKey(kind, sourceID string) string {
	if sourceID == "" {
		return kind
	}
	return kind + "-" + sourceID
}

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	home, _ := os.UserHomeDir()
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  filepath.Join(home, ".config", "taskboard", "credentials"),
		FilePasswordFunc:         keyring.FixedStringPrompt("taskboard-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get retrieves a credential value by key from the system keyring.
func Get(key string) (string, error) {
	ring, err := open()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a credential value by key in the system keyring.
func Set(key string, value string) error {
	ring, err := open()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: "taskboard " + key,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key from the system keyring.
func Delete(key string) error {
	ring, err := open()
	if err != nil {
		return err
	}

	err = ring.Remove(key)
	if err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}

// Resolve returns value when it is non-empty, otherwise the keyring entry
// for key. A missing keyring entry yields "" and no error.
func Resolve(value, key string) (string, error) {
	if value != "" {
		return value, nil
	}
	v, err := Get(key)
	if err != nil {
		if isNotFound(err) {
			return "", nil
		}
		return "", err
	}
	return v, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, keyring.ErrKeyNotFound)
}
