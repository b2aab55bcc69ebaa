package fetcher

import (
	"github.com/emersion/go-imap"

	imapclient "mailfetch/internal/imap"
	"mailfetch/internal/models"
)

// DefaultServer is dialed by the envelope backend when no server is given
const DefaultServer = "imap.mail.me.com"

// SdkMailboxFetcher reads every message of the mailbox one FETCH at a time and keeps
// only what the server-side ENVELOPE offers: sender and subject. To, Cc and Body stay
// empty, Attachments stays nil and Sent is the zero time.
//
// The lastFetchedTS argument is not applied; every message in the mailbox is returned.
// Any failure discards the messages fetched so far.
type SdkMailboxFetcher struct {
	opts      options
	newClient func() imapclient.Client
}

// NewSdkMailboxFetcher creates the envelope backend over go-imap v1
func NewSdkMailboxFetcher(opts ...Option) *SdkMailboxFetcher {
	return &SdkMailboxFetcher{
		opts: buildOptions(opts),
		newClient: func() imapclient.Client {
			return imapclient.NewStandardClient()
		},
	}
}

// FetchEmailsSince implements MailboxFetcher
func (f *SdkMailboxFetcher) FetchEmailsSince(lastFetchedTS float64, imapServer, user, password string) ([]models.Email, error) {
	server := f.target(imapServer)
	locallog := callLogger(f.opts.logger, KindSDK, server, user)

	client := f.newClient()

	abort := func(stage Stage, err error) ([]models.Email, error) {
		locallog.WithError(err).Errorf("IMAP %s error", stage)
		if stage != StageConnect {
			_ = client.Close()
		}
		return nil, stageErr(stage, err)
	}

	if err := client.Connect(server); err != nil {
		return abort(StageConnect, err)
	}
	locallog.Infof("Connected to %s", imapclient.SecureAddr(server))

	if err := client.Login(user, password); err != nil {
		return abort(StageLogin, err)
	}

	count, err := client.SelectMailbox(f.opts.mailbox)
	if err != nil {
		return abort(StageSelect, err)
	}
	locallog.Infof("%d messages in %s", count, f.opts.mailbox)

	if lastFetchedTS > 0 {
		locallog.Debugf("Last fetched timestamp %v is not applied by this backend", lastFetchedTS)
	}

	emails := make([]models.Email, 0, count)
	for seqNum := uint32(1); seqNum <= count; seqNum++ {
		msg, err := client.FetchEnvelope(seqNum)
		if err != nil {
			return abort(StageFetch, err)
		}
		email := envelopeToEmail(msg)
		locallog.Debugf("Fetched message %d from %s", seqNum, email.Source)
		emails = append(emails, email)
	}

	if err := client.Close(); err != nil {
		locallog.WithError(err).Error("IMAP disconnect error")
		return nil, stageErr(StageDisconnect, err)
	}

	locallog.Infof("Fetched %d messages", len(emails))
	return emails, nil
}

func (f *SdkMailboxFetcher) target(imapServer string) string {
	if f.opts.pinnedServer != "" {
		return f.opts.pinnedServer
	}
	if imapServer == "" {
		return DefaultServer
	}
	return imapServer
}

func envelopeToEmail(msg *imap.Message) models.Email {
	email := models.Email{UID: msg.SeqNum}
	env := msg.Envelope
	if env == nil {
		return email
	}

	email.Source = firstEnvelopeAddress(env.From)
	if email.Source == "" {
		email.Source = firstEnvelopeAddress(env.Sender)
	}

	// go-imap already decodes RFC 2047 words in the envelope subject
	email.Subject = env.Subject

	return email
}

func firstEnvelopeAddress(addrs []*imap.Address) string {
	for _, addr := range addrs {
		if addr == nil || addr.MailboxName == "" || addr.HostName == "" {
			continue
		}
		return addr.Address()
	}
	return ""
}
