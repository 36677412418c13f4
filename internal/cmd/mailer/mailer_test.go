package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"freightdesk/internal/features/notifications/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, msg domain.Message) (domain.Result, error) {
	args := m.Called(ctx, msg)
	return args.Get(0).(domain.Result), args.Error(1)
}

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestParseSend(t *testing.T) {
	sc, err := ParseSend(newFlagSet(), []string{
		"--to", "ana@example.com, ops@example.com",
		"--subject", "Booking confirmed",
		"--text", "See you at the yard",
		"--from", "desk@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ana@example.com", "ops@example.com"}, sc.Message.Recipients())
	assert.Equal(t, "Booking confirmed", sc.Message.Subject)
	assert.Equal(t, "See you at the yard", sc.Message.Text)
	assert.Equal(t, "desk@example.com", sc.Message.From)
	assert.NoError(t, sc.Message.Validate())
}

func TestParseSend_Errors(t *testing.T) {
	_, err := ParseSend(newFlagSet(), []string{"--nope"})
	assert.Error(t, err)

	_, err = ParseSend(newFlagSet(), []string{"--to", "a@example.com", "extra"})
	assert.ErrorContains(t, err, "unexpected arguments")
}

func TestSend_PrintsResult(t *testing.T) {
	sender := new(MockSender)
	msg := domain.Message{To: []string{"ana@example.com"}, Subject: "Hi", Text: "body"}
	sender.On("Send", mock.Anything, msg).Return(domain.Result{OK: true, Mode: "smtp", MessageID: "<1@example.com>", Accepted: msg.To}, nil)

	var out bytes.Buffer
	require.NoError(t, Send(context.Background(), sender, SendConfig{Message: msg}, &out))

	var res domain.Result
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.True(t, res.OK)
	assert.Equal(t, "<1@example.com>", res.MessageID)
	sender.AssertExpectations(t)
}

func TestSend_PartialRejectionStillPrints(t *testing.T) {
	sender := new(MockSender)
	rejected := &domain.MailError{Code: domain.CodeRecipientRejected, Rejected: []string{"bad@example.com"}}
	sender.On("Send", mock.Anything, mock.Anything).Return(domain.Result{Mode: "smtp", Rejected: []string{"bad@example.com"}}, rejected)

	var out bytes.Buffer
	err := Send(context.Background(), sender, SendConfig{Message: domain.Message{To: []string{"bad@example.com"}, Subject: "x", Text: "y"}}, &out)
	assert.ErrorIs(t, err, domain.ErrRecipientRejected)
	assert.Contains(t, out.String(), "bad@example.com")
}

func TestSend_ReadsHTMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "body.html")
	require.NoError(t, os.WriteFile(path, []byte("<p>Loaded</p>"), 0o600))

	sender := new(MockSender)
	sender.On("Send", mock.Anything, mock.MatchedBy(func(m domain.Message) bool {
		return m.HTML == "<p>Loaded</p>"
	})).Return(domain.Result{OK: true, Mode: "console"}, nil)

	err := Send(context.Background(), sender, SendConfig{
		Message:  domain.Message{To: []string{"a@example.com"}, Subject: "x"},
		HTMLFile: path,
	}, io.Discard)
	require.NoError(t, err)
	sender.AssertExpectations(t)
}

func TestSend_MissingHTMLFile(t *testing.T) {
	err := Send(context.Background(), new(MockSender), SendConfig{HTMLFile: filepath.Join(t.TempDir(), "missing.html")}, io.Discard)
	assert.ErrorContains(t, err, "read html file")
}

func TestRun_Usage(t *testing.T) {
	assert.ErrorIs(t, Run(context.Background(), nil, io.Discard), ErrUsage)
	assert.ErrorIs(t, Run(context.Background(), []string{"bogus"}, io.Discard), ErrUsage)
}

func TestWorker_RequiresQueue(t *testing.T) {
	err := Worker(context.Background(), Config{MailQueue: "mail-dispatch"})
	assert.ErrorContains(t, err, "RABBITMQ_URL")
}
