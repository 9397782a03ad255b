package mailstore

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"go.uber.org/zap"
)

// Client is the IMAP-backed message store. One Client serves one ingest
// run: dial, list, fetch, archive, close.
type Client struct {
	c   *imapclient.Client
	log *zap.SugaredLogger
}

// Dial connects over TLS and logs in.
func Dial(ctx context.Context, addr, username, password string, log *zap.SugaredLogger) (*Client, error) {
	if addr == "" {
		return nil, errors.New("imap addr is required")
	}
	if username == "" || password == "" {
		return nil, errors.New("imap username/password is required")
	}

	host := addr
	if i := strings.LastIndex(host, ":"); i >= 0 {
		host = host[:i]
	}

	c, err := imapclient.DialTLS(addr, &imapclient.Options{
		TLSConfig: &tls.Config{MinVersion: tls.VersionTLS12, ServerName: host},
	})
	if err != nil {
		return nil, fmt.Errorf("imap dial tls: %w", err)
	}

	// Best-effort close on context cancel.
	go func() {
		<-ctx.Done()
		_ = c.Close()
	}()

	if err := c.Login(username, password).Wait(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("imap login: %w", err)
	}

	return &Client{c: c, log: log}, nil
}

// List selects the mailbox and returns the UIDs of unseen messages
// matching the criteria, newest first.
func (cl *Client) List(ctx context.Context, q Criteria) ([]ID, error) {
	mailbox := q.Mailbox
	if mailbox == "" {
		mailbox = "INBOX"
	}
	if _, err := cl.c.Select(mailbox, &imap.SelectOptions{ReadOnly: false}).Wait(); err != nil {
		return nil, fmt.Errorf("imap select %q: %w", mailbox, err)
	}

	data, err := cl.c.UIDSearch(searchCriteria(q), nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("imap uid search: %w", err)
	}

	uids := data.AllUIDs()
	out := make([]ID, 0, len(uids))
	for i := len(uids) - 1; i >= 0; i-- {
		out = append(out, ID(uids[i]))
	}
	cl.log.Debugw("imap search", "mailbox", mailbox, "matched", len(out))
	return out, nil
}

// Fetch retrieves and decodes one full message using BODY.PEEK[] so the
// fetch itself never flags it \Seen.
func (cl *Client) Fetch(ctx context.Context, id ID) (Message, error) {
	bodyAll := &imap.FetchItemBodySection{
		Specifier: imap.PartSpecifierNone,
		Peek:      true,
	}
	cmd := cl.c.Fetch(imap.UIDSetNum(imap.UID(id)), &imap.FetchOptions{
		UID:          true,
		Envelope:     true,
		InternalDate: true,
		BodySection:  []*imap.FetchItemBodySection{bodyAll},
	})

	msgData := cmd.Next()
	if msgData == nil {
		_ = cmd.Close()
		return Message{}, fmt.Errorf("imap fetch uid %d: no data", id)
	}
	buf, err := msgData.Collect()
	if err != nil {
		_ = cmd.Close()
		return Message{}, fmt.Errorf("imap fetch collect: %w", err)
	}

	m := Message{ID: id}
	if buf.Envelope != nil {
		m.Subject = buf.Envelope.Subject
		m.From = joinAddrs(buf.Envelope.From)
		m.Received = buf.Envelope.Date
	}

	var raw []byte
	if b := buf.FindBodySection(bodyAll); b != nil {
		raw = append([]byte(nil), b...)
	}
	d := decodeRFC822(raw)
	m.HTMLBody = d.HTML
	m.TextBody = d.Text
	if m.Subject == "" {
		m.Subject = d.Subject
	}
	if m.From == "" {
		m.From = d.From
	}

	// Received falls back from the Date header to the server's internal
	// date to the wall clock.
	if m.Received.IsZero() && !d.Date.IsZero() {
		m.Received = d.Date
	}
	if m.Received.IsZero() {
		m.Received = buf.InternalDate
	}
	if m.Received.IsZero() {
		m.Received = time.Now().UTC()
	}

	if err := cmd.Close(); err != nil {
		return Message{}, fmt.Errorf("imap fetch close: %w", err)
	}
	return m, nil
}

// Archive marks the given messages processed by setting \Seen.
func (cl *Client) Archive(ctx context.Context, ids []ID) error {
	if len(ids) == 0 {
		return nil
	}
	uids := make([]imap.UID, len(ids))
	for i, id := range ids {
		uids[i] = imap.UID(id)
	}
	cmd := cl.c.Store(imap.UIDSetNum(uids...), &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}, nil)
	if err := cmd.Close(); err != nil {
		return fmt.Errorf("imap store add seen: %w", err)
	}
	return nil
}

// Close logs out and drops the connection.
func (cl *Client) Close() {
	if cl == nil || cl.c == nil {
		return
	}
	if err := cl.c.Logout().Wait(); err != nil {
		cl.log.Warnw("imap logout", "err", err)
	}
	_ = cl.c.Close()
}

func searchCriteria(q Criteria) *imap.SearchCriteria {
	sc := &imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
	}
	if !q.Since.IsZero() {
		sc.Since = q.Since
	}
	if !q.Before.IsZero() {
		sc.Before = q.Before
	}

	if len(q.Senders) == 1 {
		sc.Header = fromHeader(q.Senders[0])
	} else if len(q.Senders) > 1 {
		// Fold the sender list into a chain of ORs.
		or := imap.SearchCriteria{Header: fromHeader(q.Senders[0])}
		for _, s := range q.Senders[1:] {
			or = imap.SearchCriteria{Or: [][2]imap.SearchCriteria{
				{or, {Header: fromHeader(s)}},
			}}
		}
		sc.Or = or.Or
	}
	return sc
}

func fromHeader(sender string) []imap.SearchCriteriaHeaderField {
	return []imap.SearchCriteriaHeaderField{{Key: "From", Value: sender}}
}

func joinAddrs(addrs []imap.Address) string {
	parts := make([]string, 0, len(addrs))
	for i := range addrs {
		a := &addrs[i]
		addr := strings.TrimSpace(a.Addr())
		if addr == "" {
			addr = strings.TrimSpace(a.Name)
		}
		if addr != "" {
			parts = append(parts, addr)
		}
	}
	return strings.Join(parts, ", ")
}
