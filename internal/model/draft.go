package model

import "time"

// DraftHeader is one serialized addressing row of a draft.
type DraftHeader struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// Draft is a saved compose session.
type Draft struct {
	ID         string        `json:"id" db:"id"`
	IdentityID string        `json:"identity_id" db:"identity_id"`
	Subject    string        `json:"subject" db:"subject"`
	Body       string        `json:"body" db:"body"`
	NewsMode   bool          `json:"news_mode" db:"news_mode"`
	Headers    []DraftHeader `json:"headers" db:"-"`

	// Rows lists the kinds of rows that were visible, so a resumed draft
	// shows the same (possibly empty) rows.
	Rows []string `json:"rows" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Header returns the value stored for kind, or "".
func (d Draft) Header(kind string) string {
	for _, h := range d.Headers {
		if h.Kind == kind {
			return h.Value
		}
	}
	return ""
}
