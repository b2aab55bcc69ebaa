package fetcher

import (
	"errors"
	"time"

	"mailfetch/internal/imapproto"
	"mailfetch/internal/mailparse"
	"mailfetch/internal/models"
)

type protocolSession interface {
	Login(user, password string) error
	SelectReadOnly(mailbox string) error
	SearchSince(since time.Time) ([]uint32, error)
	FetchRaw(uids []uint32) ([]imapproto.RawMessage, error)
	Close() error
}

// ProtocolMailboxFetcher searches the mailbox for messages dated on or after the day of
// lastFetchedTS, downloads all of them in one round trip and parses each into a fully
// populated Email. Results keep the order of the fetch response.
//
// All raw messages are held in memory at once. A message that fails to parse fails the
// whole call.
type ProtocolMailboxFetcher struct {
	opts options
	dial func(server string) (protocolSession, error)
}

// NewProtocolMailboxFetcher creates the search-and-parse backend over go-imap v2 and go-message
func NewProtocolMailboxFetcher(opts ...Option) *ProtocolMailboxFetcher {
	return &ProtocolMailboxFetcher{
		opts: buildOptions(opts),
		dial: func(server string) (protocolSession, error) {
			c, err := imapproto.Dial(server)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
	}
}

// FetchEmailsSince implements MailboxFetcher
func (f *ProtocolMailboxFetcher) FetchEmailsSince(lastFetchedTS float64, imapServer, user, password string) ([]models.Email, error) {
	locallog := callLogger(f.opts.logger, KindProtocol, imapServer, user)

	if imapServer == "" {
		return nil, stageErr(StageConnect, errors.New("no IMAP server given"))
	}

	session, err := f.dial(imapServer)
	if err != nil {
		locallog.WithError(err).Error("IMAP connection error")
		return nil, stageErr(StageConnect, err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			locallog.WithError(err).Warn("Error closing IMAP connection")
		}
	}()

	if err := session.Login(user, password); err != nil {
		locallog.WithError(err).Error("Login error")
		return nil, stageErr(StageLogin, err)
	}

	if err := session.SelectReadOnly(f.opts.mailbox); err != nil {
		locallog.WithError(err).Error("Folder selection error")
		return nil, stageErr(StageSelect, err)
	}

	since := TimestampToTime(lastFetchedTS)
	uids, err := session.SearchSince(since)
	if err != nil {
		locallog.WithError(err).Error("Search error")
		return nil, stageErr(StageSearch, err)
	}
	locallog.Infof("%d messages in %s since %s", len(uids), f.opts.mailbox, since.Format("02-Jan-2006"))

	if len(uids) == 0 {
		return []models.Email{}, nil
	}

	raws, err := session.FetchRaw(uids)
	if err != nil {
		locallog.WithError(err).Error("Fetch error")
		return nil, stageErr(StageFetch, err)
	}

	emails := make([]models.Email, 0, len(raws))
	for _, raw := range raws {
		email, err := mailparse.Parse(raw.UID, raw.Raw)
		if err != nil {
			locallog.WithError(err).Errorf("Error parsing message UID %d", raw.UID)
			return nil, stageErr(StageParse, err)
		}
		emails = append(emails, *email)
	}

	locallog.Infof("Fetched %d messages", len(emails))
	return emails, nil
}
