package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Identity is a sender the user can compose as.
type Identity struct {
	// ID is the unique identifier for this identity. It also keys the
	// transport password in the system keyring.
	ID string `mapstructure:"id" yaml:"id"`

	// Name and Email form the From header.
	Name  string `mapstructure:"name" yaml:"name"`
	Email string `mapstructure:"email" yaml:"email"`

	ReplyTo string `mapstructure:"reply_to" yaml:"reply_to"`

	// AutoCc and AutoBcc are comma separated addresses added to every
	// message sent with this identity.
	AutoCc  string `mapstructure:"auto_cc" yaml:"auto_cc"`
	AutoBcc string `mapstructure:"auto_bcc" yaml:"auto_bcc"`

	// ComposeHTML sends a sanitized HTML alternative next to the plain
	// text body.
	ComposeHTML bool `mapstructure:"compose_html" yaml:"compose_html"`

	// News marks an identity that posts to newsgroups.
	News bool `mapstructure:"news" yaml:"news"`

	Username string `mapstructure:"username" yaml:"username"`

	SMTPHost string `mapstructure:"smtp_host" yaml:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port" yaml:"smtp_port"`
	SMTPTLS  bool   `mapstructure:"smtp_tls" yaml:"smtp_tls"`

	IMAPHost string `mapstructure:"imap_host" yaml:"imap_host"`
	IMAPPort int    `mapstructure:"imap_port" yaml:"imap_port"`

	DraftsMailbox string `mapstructure:"drafts_mailbox" yaml:"drafts_mailbox"`
}

// From renders the identity as a From header value.
func (id Identity) From() string {
	if strings.TrimSpace(id.Name) == "" {
		return id.Email
	}
	return fmt.Sprintf("%s <%s>", id.Name, id.Email)
}

// ComposeConfig holds composer behaviour.
type ComposeConfig struct {
	// OtherHeaders are extra addressing rows such as "X-Priority".
	OtherHeaders []string `mapstructure:"other_headers" yaml:"other_headers"`

	// DefaultRows lists rows revealed when a message is opened, in
	// addition to To.
	DefaultRows []string `mapstructure:"default_rows" yaml:"default_rows"`

	Locale string `mapstructure:"locale" yaml:"locale"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme               string `mapstructure:"theme" yaml:"theme"`
	AutosaveIntervalSec int    `mapstructure:"autosave_interval_sec" yaml:"autosave_interval_sec"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Identities []Identity    `mapstructure:"identities" yaml:"identities"`
	Compose    ComposeConfig `mapstructure:"compose" yaml:"compose"`
	Display    DisplayConfig `mapstructure:"display" yaml:"display"`
}

// Identity returns the identity with the given ID.
func (c *AppConfig) Identity(id string) (Identity, bool) {
	for _, ident := range c.Identities {
		if ident.ID == id {
			return ident, true
		}
	}
	return Identity{}, false
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/mailcompose/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "mailcompose", "config.yaml")
}

// DefaultDataDir returns the directory holding the database and log file.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "mailcompose")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Identities: []Identity{},
		Compose: ComposeConfig{
			Locale: "en",
		},
		Display: DisplayConfig{
			Theme:               "default",
			AutosaveIntervalSec: 30,
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("compose.locale", "en")
	v.SetDefault("display.theme", "default")
	v.SetDefault("display.autosave_interval_sec", 30)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	for i := range cfg.Identities {
		ident := &cfg.Identities[i]
		if ident.ID == "" {
			ident.ID = fmt.Sprintf("identity%d", i+1)
		}
		if ident.SMTPPort == 0 {
			ident.SMTPPort = 587
		}
		if ident.IMAPPort == 0 {
			ident.IMAPPort = 993
		}
		if ident.DraftsMailbox == "" {
			ident.DraftsMailbox = "Drafts"
		}
		if ident.Username == "" {
			ident.Username = ident.Email
		}
		if !ident.SMTPTLS {
			// Viper unmarshals missing bools as false; an absent key means
			// implicit TLS on port 465 only.
			key := fmt.Sprintf("identities.%d.smtp_tls", i)
			if !v.IsSet(key) && ident.SMTPPort == 465 {
				ident.SMTPTLS = true
			}
		}
	}
	if cfg.Display.AutosaveIntervalSec < 0 {
		cfg.Display.AutosaveIntervalSec = 0
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("identities", cfg.Identities)
	v.Set("compose", cfg.Compose)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
