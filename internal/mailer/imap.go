package mailer

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// IMAPConfig holds the IMAP settings used to store drafts.
type IMAPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Mailbox  string
}

// IMAPDrafts stores drafts in an IMAP mailbox.
type IMAPDrafts struct {
	cfg IMAPConfig
}

// NewIMAPDrafts creates a draft store for cfg.
func NewIMAPDrafts(cfg IMAPConfig) *IMAPDrafts {
	return &IMAPDrafts{cfg: cfg}
}

// Mailbox returns the target mailbox name.
func (d *IMAPDrafts) Mailbox() string { return d.cfg.Mailbox }

// Connect establishes a connection to the IMAP server and authenticates.
// Port 993 uses implicit TLS, anything else STARTTLS. The caller is
// responsible for calling Logout on the returned client.
func (d *IMAPDrafts) Connect(_ context.Context) (*imapclient.Client, error) {
	addr := net.JoinHostPort(d.cfg.Host, strconv.Itoa(d.cfg.Port))

	var client *imapclient.Client
	var err error

	if d.cfg.Port == 993 {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(d.cfg.Username, d.cfg.Password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, &AuthError{
			Identity: d.cfg.Username,
			Message:  fmt.Sprintf("IMAP login: %v", err),
		}
	}

	return client, nil
}

// Append uploads raw as a draft, flagged \Draft and \Seen.
func (d *IMAPDrafts) Append(ctx context.Context, raw []byte) error {
	client, err := d.Connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Logout().Wait() }()

	cmd := client.Append(d.cfg.Mailbox, int64(len(raw)), &imap.AppendOptions{
		Flags: []imap.Flag{imap.FlagDraft, imap.FlagSeen},
		Time:  time.Now(),
	})
	if _, err := cmd.Write(raw); err != nil {
		return fmt.Errorf("writing draft to %s: %w", d.cfg.Mailbox, err)
	}
	if err := cmd.Close(); err != nil {
		return fmt.Errorf("closing draft upload: %w", err)
	}
	if _, err := cmd.Wait(); err != nil {
		return fmt.Errorf("appending draft to %s: %w", d.cfg.Mailbox, err)
	}
	return nil
}
