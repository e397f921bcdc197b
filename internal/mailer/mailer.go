// Package mailer delivers outbound email, either directly over SMTP or
// through an AMQP queue drained by the worker process.
package mailer

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ralovishna/money-manager-api/internal/config"
)

// Attachment is a single file attached to a message.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// Message is an HTML email addressed to one recipient.
type Message struct {
	ID         string      `json:"id"`
	To         string      `json:"to"`
	Subject    string      `json:"subject"`
	HTMLBody   string      `json:"html_body"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

// ErrInvalidMessage is returned for messages missing a recipient or subject.
var ErrInvalidMessage = errors.New("mailer: message requires recipient and subject")

// Validate checks the minimum a transport needs.
func (m Message) Validate() error {
	if strings.TrimSpace(m.To) == "" || strings.TrimSpace(m.Subject) == "" {
		return ErrInvalidMessage
	}
	if m.Attachment != nil && m.Attachment.Filename == "" {
		return errors.New("mailer: attachment requires a filename")
	}
	return nil
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SendRecorder observes send outcomes, e.g. for metrics.
type SendRecorder interface {
	RecordMailSend(transport, outcome string)
}

// Instrumented wraps a sender, assigns message ids and records outcomes.
type Instrumented struct {
	next      Sender
	transport string
	recorder  SendRecorder
	logger    *zap.Logger
}

// NewInstrumented decorates next. recorder may be nil.
func NewInstrumented(next Sender, transport string, recorder SendRecorder, logger *zap.Logger) *Instrumented {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Instrumented{next: next, transport: transport, recorder: recorder, logger: logger}
}

func (s *Instrumented) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		s.record("invalid")
		return err
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if err := s.next.Send(ctx, msg); err != nil {
		s.record("failed")
		s.logger.Error("mail send failed",
			zap.String("transport", s.transport),
			zap.String("message_id", msg.ID),
			zap.Error(err))
		return err
	}
	s.record("sent")
	s.logger.Debug("mail sent",
		zap.String("transport", s.transport),
		zap.String("message_id", msg.ID),
		zap.String("subject", msg.Subject))
	return nil
}

func (s *Instrumented) record(outcome string) {
	if s.recorder != nil {
		s.recorder.RecordMailSend(s.transport, outcome)
	}
}

// NewDeliverySender returns the sender that talks to the mail server: SMTP
// when a host is configured, otherwise a sender that only logs.
func NewDeliverySender(cfg config.MailConfig, recorder SendRecorder, logger *zap.Logger) Sender {
	if cfg.Host == "" {
		logger.Warn("SMTP_HOST not provided; outbound mail will only be logged")
		return NewInstrumented(NewLogSender(logger), "log", recorder, logger)
	}
	return NewInstrumented(NewSMTPSender(cfg), "smtp", recorder, logger)
}

// NewSender returns the sender used by the API process. With AMQP configured
// mail is queued for the worker; otherwise it is delivered inline. The
// returned close function releases any broker connection.
func NewSender(cfg *config.Config, recorder SendRecorder, logger *zap.Logger) (Sender, func(), error) {
	if cfg.AMQP.URL == "" {
		return NewDeliverySender(cfg.Mail, recorder, logger), func() {}, nil
	}
	queue, err := NewQueue(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.Queue, logger)
	if err != nil {
		return nil, nil, err
	}
	return NewInstrumented(queue, "amqp", recorder, logger), func() { _ = queue.Close() }, nil
}
