package identitystub

import (
	"sync"
	"time"
)

// MailKind names the emails the stub would send.
type MailKind string

const (
	MailPasswordReset MailKind = "password_reset"
	MailMagicLink     MailKind = "magic_link"
	MailConfirmation  MailKind = "email_confirmation"
)

// Mail is a message the stub would have sent. Tests read tokens from here.
type Mail struct {
	Kind        MailKind
	To          string
	Token       string
	RedirectURL string
	SentAt      time.Time
}

// Outbox records mails in send order.
type Outbox struct {
	mu    sync.Mutex
	mails []Mail
}

func (o *Outbox) add(m Mail) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.mails = append(o.mails, m)
}

// All returns every recorded mail.
func (o *Outbox) All() []Mail {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Mail(nil), o.mails...)
}

// Last returns the most recent mail of kind sent to to.
func (o *Outbox) Last(kind MailKind, to string) (Mail, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.mails) - 1; i >= 0; i-- {
		m := o.mails[i]
		if m.Kind == kind && emailKey(m.To) == emailKey(to) {
			return m, true
		}
	}
	return Mail{}, false
}
