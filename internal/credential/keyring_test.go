package credential

import (
	"errors"
	"testing"

	"github.com/99designs/keyring"
)

func TestPasswordFromKeyring(t *testing.T) {
	ring := keyring.NewArrayKeyring([]keyring.Item{
		{Key: SMTPKey("work"), Data: []byte("s3cret")},
	})
	k := &Keyring{open: func() (keyring.Keyring, error) { return ring, nil }}

	got, err := k.Password("work")
	if err != nil {
		t.Fatalf("Password: %v", err)
	}
	if got != "s3cret" {
		t.Fatalf("expected s3cret, got %q", got)
	}

	if _, err := k.Password("home"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPasswordFromEnvironment(t *testing.T) {
	t.Setenv("MAILCOMPOSE_PASSWORD_MY_WORK", "from-env")
	k := &Keyring{open: func() (keyring.Keyring, error) {
		t.Fatalf("keyring opened although the environment had the password")
		return nil, nil
	}}

	got, err := k.Password("my-work")
	if err != nil || got != "from-env" {
		t.Fatalf("Password = %q, %v", got, err)
	}
}

func TestStatic(t *testing.T) {
	s := Static{"a": "pw"}
	if p, err := s.Password("a"); err != nil || p != "pw" {
		t.Fatalf("Password = %q, %v", p, err)
	}
	if _, err := s.Password("b"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
