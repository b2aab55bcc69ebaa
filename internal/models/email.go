package models

import "time"

// Email represents a normalized mailbox message.
// It is returned by value and carries no reference to the connection that produced it.
type Email struct {
	ID          string
	UID         uint32
	Sent        time.Time
	Source      string
	To          []string
	Cc          []string
	Subject     string
	Body        string
	Attachments []Attachment // nil when the backend does not report attachments
}

// Attachment describes one attachment part. Content is not kept.
type Attachment struct {
	Filename    string
	ContentType string
	Size        int64
}

// HasAttachments reports whether the backend reported at least one attachment
func (e Email) HasAttachments() bool {
	return len(e.Attachments) > 0
}
