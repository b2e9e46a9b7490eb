package smtp

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
	msg  string
}

func newTestMailer(c *captured, err error) *mailer {
	return &mailer{
		host:     "smtp.example.com",
		port:     "587",
		from:     "EntHub <no-reply@enthub.local>",
		username: "user",
		password: "secret",
		send: func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			c.addr, c.auth, c.from, c.to, c.msg = addr, a, from, to, string(msg)
			return err
		},
	}
}

func TestSendHTML_BuildsMessage(t *testing.T) {
	var c captured
	m := newTestMailer(&c, nil)

	err := m.SendHTML(context.Background(), "a@b.com", "Hello", "<p>hi</p>")
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", c.addr)
	assert.NotNil(t, c.auth)
	assert.Equal(t, "no-reply@enthub.local", c.from)
	assert.Equal(t, []string{"a@b.com"}, c.to)
	assert.Contains(t, c.msg, "Subject: Hello\r\n")
	assert.Contains(t, c.msg, "Content-Type: text/html")
	assert.Contains(t, c.msg, "\r\n\r\n<p>hi</p>")
}

func TestSendHTML_PropagatesError(t *testing.T) {
	var c captured
	m := newTestMailer(&c, errors.New("550 rejected"))
	assert.Error(t, m.SendHTML(context.Background(), "a@b.com", "s", "b"))
}

func TestSendHTML_RejectsHeaderInjection(t *testing.T) {
	var c captured
	m := newTestMailer(&c, nil)
	err := m.SendHTML(context.Background(), "a@b.com\r\nBcc: x@y.com", "s", "b")
	assert.Error(t, err)
	assert.Empty(t, c.addr, "nothing sent")
}

func TestSendHTML_CancelledContext(t *testing.T) {
	var c captured
	m := newTestMailer(&c, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.SendHTML(ctx, "a@b.com", "s", "b"), context.Canceled)
}

func TestEnvelopeAddr(t *testing.T) {
	assert.Equal(t, "a@b.com", envelopeAddr("Name <a@b.com>"))
	assert.Equal(t, "a@b.com", envelopeAddr(" a@b.com "))
}
