package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"freightdesk/internal/features/notifications/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smtpSession records one conversation with the fake relay.
type smtpSession struct {
	mu    sync.Mutex
	from  string
	rcpts []string
	data  string
	cmds  []string
	done  chan struct{}
}

func (s *smtpSession) snapshot() (string, []string, string, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.from, s.rcpts, s.data, s.cmds
}

// startFakeSMTP serves a single SMTP conversation. Recipients containing
// "reject" are refused with 550.
func startFakeSMTP(t *testing.T) (string, int, *smtpSession) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	sess := &smtpSession{done: make(chan struct{})}
	go func() {
		defer close(sess.done)
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		tc := textproto.NewConn(conn)

		_ = tc.PrintfLine("220 fake.test ESMTP")
		for {
			line, err := tc.ReadLine()
			if err != nil {
				return
			}
			verb := strings.ToUpper(strings.SplitN(line, " ", 2)[0])
			sess.mu.Lock()
			sess.cmds = append(sess.cmds, verb)
			sess.mu.Unlock()

			switch {
			case verb == "EHLO" || verb == "HELO":
				_ = tc.PrintfLine("250-fake.test")
				_ = tc.PrintfLine("250 8BITMIME")
			case strings.HasPrefix(strings.ToUpper(line), "MAIL FROM:"):
				sess.mu.Lock()
				sess.from = addrOf(line)
				sess.mu.Unlock()
				_ = tc.PrintfLine("250 2.1.0 Ok")
			case strings.HasPrefix(strings.ToUpper(line), "RCPT TO:"):
				rcpt := addrOf(line)
				if strings.Contains(rcpt, "reject") {
					_ = tc.PrintfLine("550 5.1.1 <%s>: Recipient address rejected", rcpt)
					continue
				}
				sess.mu.Lock()
				sess.rcpts = append(sess.rcpts, rcpt)
				sess.mu.Unlock()
				_ = tc.PrintfLine("250 2.1.5 Ok")
			case verb == "DATA":
				_ = tc.PrintfLine("354 End data with <CR><LF>.<CR><LF>")
				b, err := tc.ReadDotBytes()
				if err != nil {
					return
				}
				sess.mu.Lock()
				sess.data = string(b)
				sess.mu.Unlock()
				_ = tc.PrintfLine("250 2.0.0 Ok: queued as ABC123")
			case verb == "RSET":
				_ = tc.PrintfLine("250 2.0.0 Ok")
			case verb == "QUIT":
				_ = tc.PrintfLine("221 2.0.0 Bye")
				return
			default:
				_ = tc.PrintfLine("502 5.5.2 Error: command not recognized")
			}
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port, sess
}

func addrOf(line string) string {
	start := strings.Index(line, "<")
	end := strings.Index(line, ">")
	if start < 0 || end < start {
		return ""
	}
	return line[start+1 : end]
}

func newTransport(t *testing.T, host string, port int) *SMTPTransport {
	t.Helper()
	tr, err := NewSMTPTransport(domain.MailConfig{SMTPHost: host, SMTPPort: port, SMTPTimeout: 5 * time.Second})
	require.NoError(t, err)
	return tr
}

func wait(t *testing.T, sess *smtpSession) {
	t.Helper()
	select {
	case <-sess.done:
	case <-time.After(5 * time.Second):
		t.Fatal("fake smtp server did not finish")
	}
}

func TestSMTPTransport_Deliver(t *testing.T) {
	host, port, sess := startFakeSMTP(t)
	tr := newTransport(t, host, port)

	msg := domain.Message{
		To:      []string{"ada@example.test", "grace@example.test"},
		Subject: "Shipment FF-1: Booked",
		Text:    "Your shipment is booked.",
		HTML:    "<p>Your shipment is <b>booked</b>.</p>",
	}
	res, err := tr.Deliver(context.Background(), "FreightDesk <desk@example.test>", msg)
	require.NoError(t, err)
	wait(t, sess)

	assert.True(t, res.OK)
	assert.Equal(t, "smtp", res.Mode)
	assert.Equal(t, []string{"ada@example.test", "grace@example.test"}, res.Accepted)
	assert.Empty(t, res.Rejected)
	assert.Equal(t, "250 2.0.0 Ok: queued as ABC123", res.Response)
	assert.True(t, strings.HasSuffix(res.MessageID, "@example.test>"))

	from, rcpts, data, _ := sess.snapshot()
	assert.Equal(t, "desk@example.test", from)
	assert.Equal(t, msg.To, rcpts)
	assert.Contains(t, data, "From: ")
	assert.Contains(t, data, "FreightDesk")
	assert.Contains(t, data, "<desk@example.test>")
	assert.Contains(t, data, "Subject: Shipment FF-1: Booked")
	assert.Contains(t, data, "Message-ID: "+res.MessageID)
	assert.Contains(t, data, "multipart/alternative")
	assert.Contains(t, data, "Your shipment is booked.")
}

func TestSMTPTransport_PartialRejection(t *testing.T) {
	host, port, sess := startFakeSMTP(t)
	tr := newTransport(t, host, port)

	res, err := tr.Deliver(context.Background(), "desk@example.test", domain.Message{
		To:      []string{"ada@example.test", "reject-me@example.test"},
		Subject: "Hi",
		Text:    "plain only",
	})
	require.NoError(t, err)
	wait(t, sess)

	assert.True(t, res.OK)
	assert.Equal(t, []string{"ada@example.test"}, res.Accepted)
	assert.Equal(t, []string{"reject-me@example.test"}, res.Rejected)

	_, _, data, _ := sess.snapshot()
	assert.Contains(t, strings.ToLower(data), "content-type: text/plain; charset=utf-8")
}

func TestSMTPTransport_AllRejected(t *testing.T) {
	host, port, sess := startFakeSMTP(t)
	tr := newTransport(t, host, port)

	res, err := tr.Deliver(context.Background(), "desk@example.test", domain.Message{
		To:      []string{"reject@example.test"},
		Subject: "Hi",
		Text:    "x",
	})
	require.NoError(t, err)
	wait(t, sess)

	assert.False(t, res.OK)
	assert.Empty(t, res.Accepted)
	assert.Equal(t, []string{"reject@example.test"}, res.Rejected)

	_, _, data, cmds := sess.snapshot()
	assert.Empty(t, data)
	assert.NotContains(t, cmds, "DATA")
	assert.Contains(t, cmds, "RSET")
}

func TestSMTPTransport_NotConfigured(t *testing.T) {
	_, err := NewSMTPTransport(domain.MailConfig{})
	assert.ErrorIs(t, err, domain.ErrNotConfigured)

	tr := newTransport(t, "127.0.0.1", 1)
	_, err = tr.Deliver(context.Background(), "", domain.Message{To: []string{"a@x.test"}, Subject: "s", Text: "t"})
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestSMTPTransport_DialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	tr := newTransport(t, "127.0.0.1", port)
	_, err = tr.Deliver(context.Background(), "desk@example.test", domain.Message{To: []string{"a@x.test"}, Subject: "s", Text: "t"})
	assert.ErrorContains(t, err, "dial smtp")
}

func TestBuildMessage(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	to := []string{"ada@example.test", "grace@example.test"}

	t.Run("TextOnly", func(t *testing.T) {
		raw, err := buildMessage("desk@example.test", "<id-1@example.test>", domain.Message{To: to, Subject: "Hi", Text: "plain body"}, now)
		require.NoError(t, err)
		data := string(raw)
		assert.Contains(t, data, "Message-ID: <id-1@example.test>")
		assert.Contains(t, data, "ada@example.test")
		assert.Contains(t, data, "grace@example.test")
		assert.Contains(t, strings.ToLower(data), "text/plain")
		assert.NotContains(t, data, "multipart/alternative")
		assert.Contains(t, data, "plain body")
	})

	t.Run("HTMLOnly", func(t *testing.T) {
		raw, err := buildMessage("desk@example.test", "<id-2@example.test>", domain.Message{To: to, Subject: "Hi", HTML: "<p>hi</p>"}, now)
		require.NoError(t, err)
		assert.Contains(t, strings.ToLower(string(raw)), "text/html")
		assert.NotContains(t, string(raw), "multipart/alternative")
	})

	t.Run("NonASCIISubject", func(t *testing.T) {
		raw, err := buildMessage("desk@example.test", "<id-3@example.test>", domain.Message{To: to, Subject: "Expédition livrée", Text: "x"}, now)
		require.NoError(t, err)
		assert.Contains(t, string(raw), "Subject: =?")
	})

	t.Run("InvalidSender", func(t *testing.T) {
		_, err := buildMessage("not an address", "<id-4@example.test>", domain.Message{To: to, Subject: "Hi", Text: "x"}, now)
		assert.Error(t, err)
	})
}

func TestConsoleTransport(t *testing.T) {
	tr := NewConsoleTransport()
	res, err := tr.Deliver(context.Background(), "desk@example.test", domain.Message{
		To: []string{"ada@example.test"}, Subject: "Hi", HTML: "<p>hi</p>",
	})
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, "console", res.Mode)
	assert.Equal(t, []string{"ada@example.test"}, res.Accepted)
	assert.NotEmpty(t, res.MessageID)

	res, err = tr.Deliver(context.Background(), "", domain.Message{To: []string{"ada@example.test"}, Subject: "Hi", Text: "hi"})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(res.MessageID, "@localhost>"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = tr.Deliver(ctx, "desk@example.test", domain.Message{To: []string{"a@x.test"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewTransport(t *testing.T) {
	tr, err := NewTransport(domain.MailConfig{Transport: domain.TransportConsole})
	require.NoError(t, err)
	assert.Equal(t, "console", tr.Name())

	tr, err = NewTransport(domain.MailConfig{Transport: domain.TransportSMTP, SMTPHost: "smtp.example.test"})
	require.NoError(t, err)
	assert.Equal(t, "smtp", tr.Name())

	tr, err = NewTransport(domain.MailConfig{Transport: domain.TransportSMTP})
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
	assert.Nil(t, tr)
}

type fakePublisher struct {
	queue string
	body  []byte
	err   error
}

func (f *fakePublisher) Publish(_ context.Context, queue string, body []byte) error {
	f.queue, f.body = queue, body
	return f.err
}

func TestQueueSender(t *testing.T) {
	pub := &fakePublisher{}
	s := NewQueueSender(pub, "mail-dispatch")

	res, err := s.Send(context.Background(), domain.Message{To: []string{" ada@example.test ", ""}, Subject: "Hi", Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, "queue", res.Mode)
	assert.Equal(t, "mail-dispatch", pub.queue)

	var job domain.Message
	require.NoError(t, json.Unmarshal(pub.body, &job))
	assert.Equal(t, []string{"ada@example.test"}, job.To)

	_, err = s.Send(context.Background(), domain.Message{Subject: "Hi", Text: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidMessage)

	pub.err = errors.New("channel closed")
	_, err = s.Send(context.Background(), domain.Message{To: []string{"a@x.test"}, Subject: "Hi", Text: "x"})
	assert.ErrorContains(t, err, "channel closed")
}
