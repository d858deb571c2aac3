package model

import (
	"fmt"
	"strings"
)

// AddressEntry is the common interface for rows of the address book
// view. Both Contact and MailingList implement it.
type AddressEntry interface {
	GetID() string
	GetTitle() string
	GetDescription() string
	// Address is the text inserted into a recipient row.
	Address() string
	IsList() bool
}

// Contact implements AddressEntry.

func (c Contact) GetID() string { return c.ID }
func (c Contact) GetTitle() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Email
}
func (c Contact) GetDescription() string {
	if c.Nickname != "" {
		return fmt.Sprintf("%s (%s)", c.Email, c.Nickname)
	}
	return c.Email
}
func (c Contact) Address() string { return c.Mailbox() }
func (c Contact) IsList() bool    { return false }

// MailingList implements AddressEntry.

func (l MailingList) GetID() string    { return l.ID }
func (l MailingList) GetTitle() string { return l.Name }
func (l MailingList) GetDescription() string {
	if l.Description != "" {
		return l.Description
	}
	return strings.Join(l.Members, ", ")
}
func (l MailingList) Address() string { return l.Name }
func (l MailingList) IsList() bool    { return true }
