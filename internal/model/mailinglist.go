package model

import "time"

// MailingList is a named group of addresses. Typing the list name in a
// mail row produces a single pill that expands to the members when the
// message is sent.
type MailingList struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	// Members are full addresses in list order, loaded from list_members.
	Members []string `json:"members" db:"-"`
}
