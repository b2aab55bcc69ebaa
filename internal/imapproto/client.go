// Package imapproto is a thin layer over go-imap v2 for the search-and-bulk-fetch backend.
package imapproto

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// DefaultPort is used when the server address carries no port
const DefaultPort = "993"

type session interface {
	Login(username, password string) commandWaiter
	Logout() commandWaiter
	Close() error
	Select(mailbox string, options *imap.SelectOptions) selectWaiter
	UIDSearch(criteria *imap.SearchCriteria, options *imap.SearchOptions) searchWaiter
	Fetch(numSet imap.NumSet, options *imap.FetchOptions) fetchWaiter
}

type commandWaiter interface{ Wait() error }
type selectWaiter interface {
	Wait() (*imap.SelectData, error)
}
type searchWaiter interface {
	Wait() (*imap.SearchData, error)
}
type fetchWaiter interface {
	Collect() ([]*imapclient.FetchMessageBuffer, error)
	Close() error
}

// RawMessage is one message as returned by the bulk fetch
type RawMessage struct {
	UID uint32
	Raw []byte
}

// Client owns one IMAP connection. It is not safe for concurrent use.
type Client struct {
	session session
}

// Dial opens a TLS connection to server, adding port 993 when none is given
func Dial(server string) (*Client, error) {
	c, err := imapclient.DialTLS(WithDefaultPort(server), nil)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", server, err)
	}
	return NewClient(c), nil
}

// NewClient wraps an already connected go-imap v2 client
func NewClient(c *imapclient.Client) *Client {
	return &Client{session: &clientWrapper{Client: c}}
}

// Login authenticates with a plain LOGIN command
func (c *Client) Login(user, password string) error {
	if err := c.session.Login(user, password).Wait(); err != nil {
		return fmt.Errorf("login as %s: %w", user, err)
	}
	return nil
}

// SelectReadOnly opens the mailbox with EXAMINE semantics so flags are left untouched
func (c *Client) SelectReadOnly(mailbox string) error {
	if _, err := c.session.Select(mailbox, &imap.SelectOptions{ReadOnly: true}).Wait(); err != nil {
		return fmt.Errorf("selecting %s: %w", mailbox, err)
	}
	return nil
}

// SearchSince runs UID SEARCH SINCE on the calendar day of since
func (c *Client) SearchSince(since time.Time) ([]uint32, error) {
	data, err := c.session.UIDSearch(&imap.SearchCriteria{Since: since}, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching since %s: %w", since.Format("02-Jan-2006"), err)
	}

	uids := data.AllUIDs()
	out := make([]uint32, 0, len(uids))
	for _, uid := range uids {
		out = append(out, uint32(uid))
	}
	return out, nil
}

// FetchRaw downloads the full body of every UID in a single round trip.
// Messages come back in the order the server sent them.
func (c *Client) FetchRaw(uids []uint32) ([]RawMessage, error) {
	if len(uids) == 0 {
		return nil, nil
	}

	set := make([]imap.UID, 0, len(uids))
	for _, uid := range uids {
		set = append(set, imap.UID(uid))
	}

	section := &imap.FetchItemBodySection{Peek: true}
	opts := &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{section},
	}

	buffers, err := c.session.Fetch(imap.UIDSetNum(set...), opts).Collect()
	if err != nil {
		return nil, fmt.Errorf("fetching %d messages: %w", len(uids), err)
	}

	messages := make([]RawMessage, 0, len(buffers))
	for _, buf := range buffers {
		body := buf.FindBodySection(section)
		if body == nil {
			return nil, fmt.Errorf("server returned no body for UID %d", buf.UID)
		}
		messages = append(messages, RawMessage{
			UID: uint32(buf.UID),
			Raw: body,
		})
	}
	return messages, nil
}

// Close logs out and releases the connection. The socket is closed even when LOGOUT fails.
func (c *Client) Close() error {
	logoutErr := c.session.Logout().Wait()
	closeErr := c.session.Close()
	if errors.Is(closeErr, net.ErrClosed) {
		closeErr = nil
	}
	return errors.Join(logoutErr, closeErr)
}

// WithDefaultPort appends DefaultPort to server when it carries no port
func WithDefaultPort(server string) string {
	if _, _, err := net.SplitHostPort(server); err == nil {
		return server
	}
	return net.JoinHostPort(server, DefaultPort)
}

type clientWrapper struct{ *imapclient.Client }

func (w *clientWrapper) Login(username, password string) commandWaiter {
	return w.Client.Login(username, password)
}
func (w *clientWrapper) Logout() commandWaiter { return w.Client.Logout() }
func (w *clientWrapper) Select(mailbox string, options *imap.SelectOptions) selectWaiter {
	return w.Client.Select(mailbox, options)
}
func (w *clientWrapper) UIDSearch(criteria *imap.SearchCriteria, options *imap.SearchOptions) searchWaiter {
	return w.Client.UIDSearch(criteria, options)
}
func (w *clientWrapper) Fetch(numSet imap.NumSet, options *imap.FetchOptions) fetchWaiter {
	return w.Client.Fetch(numSet, options)
}
