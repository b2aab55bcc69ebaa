package imapproto

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/stretchr/testify/require"
)

func TestClientSearchAndFetchKeepServerOrder(t *testing.T) {
	s := &fakeSession{
		uids: []imap.UID{12, 11, 30},
		bodies: map[imap.UID][]byte{
			11: []byte("first"),
			12: []byte("second"),
			30: []byte("third"),
		},
	}
	c := &Client{session: s}

	require.NoError(t, c.Login("agent", "secret"))
	require.NoError(t, c.SelectReadOnly("INBOX"))
	require.True(t, s.selectOpts.ReadOnly)
	require.Equal(t, "INBOX", s.selected)

	since := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	uids, err := c.SearchSince(since)
	require.NoError(t, err)
	require.Equal(t, since, s.criteria.Since)
	require.ElementsMatch(t, []uint32{11, 12, 30}, uids)

	msgs, err := c.FetchRaw(uids)
	require.NoError(t, err)
	require.Equal(t, 1, s.fetchCalls)
	require.True(t, s.fetchOpts.UID)
	require.Len(t, s.fetchOpts.BodySection, 1)
	require.True(t, s.fetchOpts.BodySection[0].Peek)

	require.Len(t, msgs, 3)
	require.Equal(t, uint32(12), msgs[0].UID)
	require.Equal(t, []byte("second"), msgs[0].Raw)
	require.Equal(t, uint32(11), msgs[1].UID)
	require.Equal(t, uint32(30), msgs[2].UID)
}

func TestClientFetchRawEmptyDoesNotHitServer(t *testing.T) {
	s := &fakeSession{}
	c := &Client{session: s}

	msgs, err := c.FetchRaw(nil)
	require.NoError(t, err)
	require.Empty(t, msgs)
	require.Zero(t, s.fetchCalls)
}

func TestClientFetchRawMissingBody(t *testing.T) {
	s := &fakeSession{
		uids:   []imap.UID{5},
		bodies: map[imap.UID][]byte{},
	}
	c := &Client{session: s}

	_, err := c.FetchRaw([]uint32{5})
	require.ErrorContains(t, err, "no body for UID 5")
}

func TestClientErrorsAreWrapped(t *testing.T) {
	s := &fakeSession{
		loginErr:  errors.New("bad creds"),
		selectErr: errors.New("no mailbox"),
		searchErr: errors.New("search broke"),
		fetchErr:  errors.New("fetch broke"),
	}
	c := &Client{session: s}

	require.ErrorContains(t, c.Login("agent", "pw"), "login as agent")
	require.ErrorContains(t, c.SelectReadOnly("INBOX"), "selecting INBOX")

	_, err := c.SearchSince(time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC))
	require.ErrorContains(t, err, "01-Jan-2022")

	_, err = c.FetchRaw([]uint32{1})
	require.ErrorIs(t, err, s.fetchErr)
}

func TestClientCloseAlwaysClosesSocket(t *testing.T) {
	s := &fakeSession{logoutErr: errors.New("logout failed")}
	c := &Client{session: s}

	require.Error(t, c.Close())
	require.True(t, s.closed)

	s = &fakeSession{closeErr: net.ErrClosed}
	c = &Client{session: s}
	require.NoError(t, c.Close())
}

func TestWithDefaultPort(t *testing.T) {
	require.Equal(t, "imap.mail.me.com:993", WithDefaultPort("imap.mail.me.com"))
	require.Equal(t, "imap.example.com:1993", WithDefaultPort("imap.example.com:1993"))
}

type fakeSession struct {
	uids   []imap.UID
	bodies map[imap.UID][]byte

	loginErr  error
	selectErr error
	searchErr error
	fetchErr  error
	logoutErr error
	closeErr  error

	selected   string
	selectOpts *imap.SelectOptions
	criteria   *imap.SearchCriteria
	fetchOpts  *imap.FetchOptions
	fetchCalls int
	closed     bool
}

func (s *fakeSession) Login(_, _ string) commandWaiter { return &fakeCommand{err: s.loginErr} }
func (s *fakeSession) Logout() commandWaiter         { return &fakeCommand{err: s.logoutErr} }
func (s *fakeSession) Close() error {
	s.closed = true
	return s.closeErr
}
func (s *fakeSession) Select(mailbox string, options *imap.SelectOptions) selectWaiter {
	s.selected = mailbox
	s.selectOpts = options
	return &fakeSelect{err: s.selectErr}
}
func (s *fakeSession) UIDSearch(criteria *imap.SearchCriteria, _ *imap.SearchOptions) searchWaiter {
	s.criteria = criteria
	data := &imap.SearchData{All: imap.UIDSetNum(s.uids...)}
	return &fakeSearch{err: s.searchErr, data: data}
}
func (s *fakeSession) Fetch(_ imap.NumSet, options *imap.FetchOptions) fetchWaiter {
	s.fetchCalls++
	s.fetchOpts = options
	var bufs []*imapclient.FetchMessageBuffer
	if s.fetchErr == nil {
		for _, uid := range s.uids {
			buf := &imapclient.FetchMessageBuffer{SeqNum: uint32(uid), UID: uid}
			if body, ok := s.bodies[uid]; ok {
				buf.BodySection = []imapclient.FetchBodySectionBuffer{{
					Section: &imap.FetchItemBodySection{},
					Bytes:   append([]byte(nil), body...),
				}}
			}
			bufs = append(bufs, buf)
		}
	}
	return &fakeFetch{err: s.fetchErr, bufs: bufs}
}

type fakeCommand struct{ err error }

func (c *fakeCommand) Wait() error { return c.err }

type fakeSelect struct{ err error }

func (s *fakeSelect) Wait() (*imap.SelectData, error) { return &imap.SelectData{}, s.err }

type fakeSearch struct {
	err  error
	data *imap.SearchData
}

func (s *fakeSearch) Wait() (*imap.SearchData, error) { return s.data, s.err }

type fakeFetch struct {
	err  error
	bufs []*imapclient.FetchMessageBuffer
}

func (f *fakeFetch) Collect() ([]*imapclient.FetchMessageBuffer, error) { return f.bufs, f.err }
func (f *fakeFetch) Close() error                                       { return f.err }
