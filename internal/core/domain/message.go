package domain

import "time"

// Message is a greeting shown on the index page.
type Message struct {
	ID        string    `json:"id,omitempty"`
	Text      string    `json:"message"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}
