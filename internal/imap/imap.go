package imap

import "github.com/emersion/go-imap"

// Client is the session used by the envelope-only backend. It is single use:
// Connect, Login, SelectMailbox, any number of FetchEnvelope calls, then Close.
type Client interface {
	Connect(server string) error
	Login(user, password string) error
	SelectMailbox(name string) (uint32, error)
	FetchEnvelope(seqNum uint32) (*imap.Message, error)
	Close() error
}
