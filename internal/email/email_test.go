package email

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	to, subject, html, text string
	calls                   int
	err                     error
}

func (r *recordingSender) Send(to, subject, html, text string) error {
	r.calls++
	r.to, r.subject, r.html, r.text = to, subject, html, text
	return r.err
}

func TestRenderPasswordChanged_EscapesHTML(t *testing.T) {
	html, text, err := RenderPasswordChanged(PasswordChangedVars{
		Name: "<b>Eve</b>", Login: "eve@x.com", Action: "reset", When: "2026-03-01 10:00 UTC",
	})
	require.NoError(t, err)
	assert.Contains(t, html, "&lt;b&gt;Eve&lt;/b&gt;")
	assert.Contains(t, text, "<b>Eve</b>")
	assert.Contains(t, text, "was reset on 2026-03-01 10:00 UTC")
}

func TestNotifier_PasswordChanged(t *testing.T) {
	rec := &recordingSender{}
	n := NewNotifier(rec)
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, n.PasswordChanged(context.Background(), "a@x.com", "", "changed", at))
	assert.Equal(t, 1, rec.calls)
	assert.Equal(t, "a@x.com", rec.to)
	assert.Equal(t, passwordChangedSubject, rec.subject)
	assert.Contains(t, rec.text, "Hi a@x.com")
	assert.Contains(t, rec.html, "2026-03-01 10:00 UTC")
}

func TestNotifier_NoRecipientIsNoop(t *testing.T) {
	rec := &recordingSender{}
	require.NoError(t, NewNotifier(rec).PasswordChanged(context.Background(), "", "x", "reset", time.Now()))
	assert.Zero(t, rec.calls)

	var nilNotifier *Notifier
	require.NoError(t, nilNotifier.PasswordChanged(context.Background(), "a@x.com", "", "reset", time.Now()))
}

func TestNotifier_PropagatesSendError(t *testing.T) {
	rec := &recordingSender{err: errors.New("dial tcp: refused")}
	err := NewNotifier(rec).PasswordChanged(context.Background(), "a@x.com", "A", "reset", time.Now())
	require.Error(t, err)
}

func TestNewNotifier_DefaultsToNoop(t *testing.T) {
	n := NewNotifier(nil)
	require.IsType(t, NoopSender{}, n.Sender)
	require.NoError(t, n.PasswordChanged(context.Background(), "a@x.com", "", "reset", time.Now()))
}

func TestSMTPSender_Message(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "smtp.local", From: "no-reply@x.com"})
	assert.Equal(t, 587, s.cfg.Port)
	assert.Equal(t, "auto", s.cfg.TLSMode)

	m := s.message("a@x.com", "subj", "<p>hi</p>", "hi")
	assert.Equal(t, []string{"no-reply@x.com"}, m.GetHeader("From"))
	assert.Equal(t, []string{"a@x.com"}, m.GetHeader("To"))

	d := NewSMTPSender(SMTPConfig{Host: "smtp.local", Port: 465, TLSMode: "ssl"}).dialer()
	assert.True(t, d.SSL)
}
