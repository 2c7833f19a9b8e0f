package email

import (
	"bytes"
	"context"
	"fmt"
	htmltpl "html/template"
	texttpl "text/template"
	"time"

	"github.com/dropDatabas3/procurauth/internal/observability/logger"
)

const passwordChangedSubject = "Your password was changed"

var (
	passwordChangedHTML = htmltpl.Must(htmltpl.New("password_changed_html").Parse(
		`<p>Hi {{.Name}},</p>
<p>The password for <strong>{{.Login}}</strong> was {{.Action}} on {{.When}}.</p>
<p>If this wasn't you, contact support right away.</p>
`))
	passwordChangedTXT = texttpl.Must(texttpl.New("password_changed_txt").Parse(
		`Hi {{.Name}},

The password for {{.Login}} was {{.Action}} on {{.When}}.

If this wasn't you, contact support right away.
`))
)

// PasswordChangedVars son las variables del aviso.
type PasswordChangedVars struct {
	Name   string
	Login  string
	Action string // "reset" | "changed"
	When   string
}

// RenderPasswordChanged arma el cuerpo html + txt.
func RenderPasswordChanged(v PasswordChangedVars) (html, text string, err error) {
	var hb, tb bytes.Buffer
	if err := passwordChangedHTML.Execute(&hb, v); err != nil {
		return "", "", fmt.Errorf("render html: %w", err)
	}
	if err := passwordChangedTXT.Execute(&tb, v); err != nil {
		return "", "", fmt.Errorf("render txt: %w", err)
	}
	return hb.String(), tb.String(), nil
}

// Notifier encapsula los avisos al usuario.
type Notifier struct {
	Sender Sender
}

func NewNotifier(s Sender) *Notifier {
	if s == nil {
		s = NoopSender{}
	}
	return &Notifier{Sender: s}
}

// PasswordChanged avisa a `to` que su contraseña cambió. Sin destinatario no hace nada.
func (n *Notifier) PasswordChanged(ctx context.Context, to, name, action string, at time.Time) error {
	if n == nil || to == "" {
		return nil
	}
	if name == "" {
		name = to
	}
	html, text, err := RenderPasswordChanged(PasswordChangedVars{
		Name:   name,
		Login:  to,
		Action: action,
		When:   at.UTC().Format("2006-01-02 15:04 MST"),
	})
	if err != nil {
		return err
	}
	if err := n.Sender.Send(to, passwordChangedSubject, html, text); err != nil {
		logger.From(ctx).Warn("password changed notice failed", logger.Component("email"), logger.Err(err))
		return err
	}
	return nil
}
