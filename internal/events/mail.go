package events

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"

	"github.com/go-mail/mail/v2"
)

const mailTemplate = `
{{define "subject"}}High priority task {{.Action}}: {{.Title}}{{end}}

{{define "plainBody"}}A high priority task was {{.Action | lower}}.

Task: #{{.TaskID}} {{.Title}}
Assigned user: #{{.UserID}}
{{end}}
`

const mailSendAttempts = 3

var mailTemplates = template.Must(template.New("mail").
	Funcs(template.FuncMap{"lower": lowerAction}).
	Parse(mailTemplate))

func lowerAction(a Action) string {
	switch a {
	case ActionCreated:
		return "created"
	case ActionUpdated:
		return "updated"
	default:
		return string(a)
	}
}

// Sender is implemented by *mail.Dialer.
type Sender interface {
	DialAndSend(m ...*mail.Message) error
}

type MailListener struct {
	sender    Sender
	from      string
	recipient string
}

func NewMailListener(sender Sender, from, recipient string) *MailListener {
	return &MailListener{
		sender:    sender,
		from:      from,
		recipient: recipient,
	}
}

// NewSMTPSender returns a dialer whose connect and write deadline is timeout.
func NewSMTPSender(host string, port int, username, password string, timeout time.Duration) Sender {
	d := mail.NewDialer(host, port, username, password)
	d.Timeout = timeout
	return d
}

// HandleHighPriorityTaskChanged sends the notification, retrying failed
// sends until the attempts run out or ctx is done.
func (l *MailListener) HandleHighPriorityTaskChanged(ctx context.Context, event HighPriorityTaskChanged) error {
	var subject bytes.Buffer
	err := mailTemplates.ExecuteTemplate(&subject, "subject", event)
	if err != nil {
		return err
	}
	var body bytes.Buffer
	err = mailTemplates.ExecuteTemplate(&body, "plainBody", event)
	if err != nil {
		return err
	}

	msg := mail.NewMessage()
	msg.SetHeader("To", l.recipient)
	msg.SetHeader("From", l.from)
	msg.SetHeader("Subject", subject.String())
	msg.SetBody("text/plain", body.String())

	for i := 0; i < mailSendAttempts; i++ {
		err = l.sender.DialAndSend(msg)
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %w", ctxErr, err)
		}
	}
	return err
}
