package imap

import (
	"fmt"
	"net"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
)

// SecurePort is the IMAP-over-TLS port the standard client always dials
const SecurePort = "993"

type StandardClient struct {
	client *client.Client
	dial   func(addr string) (*client.Client, error)
}

// NewStandardClient creates a new StandardClient that dials IMAP over TLS.
// The transport's own default timeouts apply.
func NewStandardClient() *StandardClient {
	return &StandardClient{
		dial: func(addr string) (*client.Client, error) {
			return client.DialTLS(addr, nil)
		},
	}
}

// NewStandardClientWithDialer creates a StandardClient that opens its connection with dial instead of TLS
func NewStandardClientWithDialer(dial func(addr string) (*client.Client, error)) *StandardClient {
	return &StandardClient{dial: dial}
}

// Connect establishes a secure connection to the IMAP server on port 993. Any port in server is replaced.
func (c *StandardClient) Connect(server string) error {
	cl, err := c.dial(SecureAddr(server))
	if err != nil {
		return fmt.Errorf("IMAP connection error: %w", err)
	}
	c.client = cl
	return nil
}

// Login authenticates the user with the IMAP server using the provided username and password.
func (c *StandardClient) Login(user, password string) error {
	if c.client == nil {
		return fmt.Errorf("not connected")
	}
	return c.client.Login(user, password)
}

// SelectMailbox selects the specified mailbox read-write and returns the number of messages it holds.
func (c *StandardClient) SelectMailbox(name string) (uint32, error) {
	if c.client == nil {
		return 0, fmt.Errorf("not connected")
	}
	status, err := c.client.Select(name, false)
	if err != nil {
		return 0, err
	}
	return status.Messages, nil
}

// FetchEnvelope retrieves the envelope of the message at the given sequence number.
// The server parses the headers, so no local MIME parsing is involved.
func (c *StandardClient) FetchEnvelope(seqNum uint32) (*imap.Message, error) {
	if c.client == nil {
		return nil, fmt.Errorf("not connected")
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(seqNum)

	items := []imap.FetchItem{imap.FetchEnvelope}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)

	go func() {
		done <- c.client.Fetch(seqSet, items, messages)
	}()

	var msg *imap.Message
	for m := range messages {
		msg = m
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("error fetching message %d: %w", seqNum, err)
	}

	if msg == nil || msg.Envelope == nil {
		return nil, fmt.Errorf("no envelope retrieved for message %d", seqNum)
	}

	return msg, nil
}

// Close logs out from the IMAP server and closes the connection, also when LOGOUT fails.
// If there is no active connection, it simply returns nil.
func (c *StandardClient) Close() error {
	if c.client == nil {
		return nil
	}
	err := c.client.Logout()
	if err != nil {
		// Logout leaves the socket open on anything but an already-closed connection
		_ = c.client.Terminate()
	}
	c.client = nil
	return err
}

// SecureAddr pins server to the IMAP-over-TLS port
func SecureAddr(server string) string {
	host := server
	if h, _, err := net.SplitHostPort(server); err == nil {
		host = h
	}
	return net.JoinHostPort(host, SecurePort)
}
