package credential

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/99designs/keyring"
)

const serviceName = "mailcompose"

// ErrNotFound is returned when no password is stored for an identity.
var ErrNotFound = errors.New("credential not found")

// Source looks up the transport password of an identity.
type Source interface {
	Password(identityID string) (string, error)
}

// Keyring reads identity passwords from the system keyring. An
// environment variable MAILCOMPOSE_PASSWORD_<ID> takes precedence so
// headless sessions work without a keyring daemon.
type Keyring struct {
	open func() (keyring.Keyring, error)
}

// NewKeyring returns a Source backed by the system keyring.
func NewKeyring() *Keyring {
	return &Keyring{open: openKeyring}
}

// SMTPKey is the keyring key holding the password of an identity.
func SMTPKey(identityID string) string {
	return "smtp-" + identityID
}

// Password implements Source.
func (k *Keyring) Password(identityID string) (string, error) {
	if v, ok := os.LookupEnv(envKey(identityID)); ok {
		return v, nil
	}

	ring, err := k.open()
	if err != nil {
		return "", err
	}
	item, err := ring.Get(SMTPKey(identityID))
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("password for identity %q: %w", identityID, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("getting password for identity %q: %w", identityID, err)
	}
	return string(item.Data), nil
}

func envKey(identityID string) string {
	id := strings.ToUpper(identityID)
	id = strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, id)
	return "MAILCOMPOSE_PASSWORD_" + id
}

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/mailcompose/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("mailcompose-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Set stores the password of an identity in the system keyring.
func Set(identityID, password string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:   SMTPKey(identityID),
		Label: "mailcompose " + identityID,
		Data:  []byte(password),
	})
	if err != nil {
		return fmt.Errorf("setting password for identity %q: %w", identityID, err)
	}

	return nil
}

// Delete removes the password of an identity from the system keyring.
func Delete(identityID string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Remove(SMTPKey(identityID))
	if err != nil {
		return fmt.Errorf("deleting password for identity %q: %w", identityID, err)
	}

	return nil
}

// Static is a Source backed by a map, for tests.
type Static map[string]string

// Password implements Source.
func (s Static) Password(identityID string) (string, error) {
	p, ok := s[identityID]
	if !ok {
		return "", fmt.Errorf("password for identity %q: %w", identityID, ErrNotFound)
	}
	return p, nil
}
