// Package mail is the outbound notification sender. Delivery is fire and
// forget: callers log failures and move on, nothing is retried here.
package mail

import (
	"gopkg.in/gomail.v2"
)

type Opts struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func New(o Opts) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(o.Host, o.Port, o.Username, o.Password),
		from:   o.From,
	}
}

// Send delivers one message to all recipients as BCC so community members
// don't see each other's addresses.
func (m *Mailer) Send(to []string, subject, body string) error {
	if len(to) == 0 {
		return nil
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", m.from)
	msg.SetHeader("Bcc", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return m.dialer.DialAndSend(msg)
}

// Discard is a no-op sender for environments without SMTP configured.
type Discard struct{}

func (Discard) Send([]string, string, string) error { return nil }
