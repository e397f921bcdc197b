package mailer

import (
	"context"
	"io"

	"gopkg.in/gomail.v2"

	"github.com/ralovishna/money-manager-api/internal/config"
)

// SMTPSender delivers mail through an SMTP relay.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender builds a sender from mail settings.
func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.dialer.DialAndSend(buildMessage(s.from, msg))
}

func buildMessage(from string, msg Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	if msg.ID != "" {
		m.SetHeader("X-Message-Id", msg.ID)
	}
	m.SetBody("text/html", msg.HTMLBody)

	if a := msg.Attachment; a != nil {
		contentType := a.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		data := a.Data
		m.Attach(a.Filename,
			gomail.SetHeader(map[string][]string{"Content-Type": {contentType}}),
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
		)
	}
	return m
}
