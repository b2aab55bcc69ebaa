// Package fetcher retrieves a mailbox over IMAP and normalizes its messages into models.Email.
//
// Two backends implement MailboxFetcher:
//
//   - SdkMailboxFetcher walks the mailbox one sequence number at a time and asks the
//     server for the ENVELOPE only, so records carry the sender and subject and nothing else.
//   - ProtocolMailboxFetcher runs a server-side SINCE search, downloads every match in one
//     UID FETCH and parses the raw bytes locally, filling every field of the record.
//
// Neither backend keeps state between calls. Failures come back as *StageError.
package fetcher

import (
	"fmt"
	"math"
	"strings"
	"time"

	"mailfetch/internal/logging"
	"mailfetch/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MailboxFetcher fetches and normalizes the messages of one mailbox
type MailboxFetcher interface {
	// FetchEmailsSince connects to imapServer as user and returns the mailbox messages.
	// lastFetchedTS is in Unix seconds; how it filters depends on the backend.
	FetchEmailsSince(lastFetchedTS float64, imapServer, user, password string) ([]models.Email, error)
}

// Kind selects a backend
type Kind string

const (
	KindSDK      Kind = "sdk"
	KindProtocol Kind = "protocol"
)

// DefaultMailBox is the folder both backends select unless told otherwise
const DefaultMailBox = "INBOX"

// New constructs the backend named by kind
func New(kind Kind, opts ...Option) (MailboxFetcher, error) {
	switch Kind(strings.ToLower(string(kind))) {
	case KindSDK:
		return NewSdkMailboxFetcher(opts...), nil
	case KindProtocol:
		return NewProtocolMailboxFetcher(opts...), nil
	default:
		return nil, fmt.Errorf("unknown fetcher backend %q", kind)
	}
}

type options struct {
	mailbox      string
	pinnedServer string
	logger       *logrus.Logger
}

// Option customizes a backend
type Option func(*options)

// WithMailBox overrides the folder to read
func WithMailBox(name string) Option {
	return func(o *options) {
		if name != "" {
			o.mailbox = name
		}
	}
}

// WithPinnedServer makes the envelope backend ignore the imapServer argument and always dial host.
// The protocol backend ignores this option.
func WithPinnedServer(host string) Option {
	return func(o *options) {
		o.pinnedServer = host
	}
}

// WithLogger overrides the logger used for progress and error lines
func WithLogger(logger *logrus.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		mailbox: DefaultMailBox,
		logger:  logging.Log,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func callLogger(logger *logrus.Logger, backend Kind, server, user string) *logrus.Entry {
	return logger.WithFields(logrus.Fields{
		"fetch_id": uuid.New().String(),
		"backend":  string(backend),
		"server":   server,
		"user":     user,
	})
}

// MaxSearchTime is the latest date an IMAP SEARCH can carry; later timestamps are clamped to it
var MaxSearchTime = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

// TimestampToTime converts Unix seconds, possibly fractional, to a UTC time.
// Non-positive values and NaN map to the epoch, +Inf and values past MaxSearchTime to MaxSearchTime.
func TimestampToTime(ts float64) time.Time {
	if ts <= 0 || math.IsNaN(ts) {
		return time.Unix(0, 0).UTC()
	}
	if ts >= float64(MaxSearchTime.Unix()) {
		return MaxSearchTime
	}
	sec, frac := math.Modf(ts)
	return time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC()
}
