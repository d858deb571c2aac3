package model

import (
	"fmt"
	"strings"
	"time"
)

// Contact is an address book entry offered as a completion in the
// recipient rows.
type Contact struct {
	ID       string `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Email    string `json:"email" db:"email"`
	Nickname string `json:"nickname" db:"nickname"`

	// UseCount is bumped every time a message is sent to the contact and
	// ranks completions.
	UseCount int `json:"use_count" db:"use_count"`

	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty" db:"last_used_at"`
}

// Mailbox renders the contact the way it is written into a header.
func (c Contact) Mailbox() string {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return c.Email
	}
	if strings.ContainsAny(name, `()<>[]:;@\,."`) {
		name = `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(name) + `"`
	}
	return fmt.Sprintf("%s <%s>", name, c.Email)
}
