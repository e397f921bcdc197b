package mailer

import (
	"context"

	"go.uber.org/zap"
)

// LogSender writes messages to the log instead of sending them.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender constructs a LogSender.
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	fields := []zap.Field{
		zap.String("message_id", msg.ID),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("body_bytes", len(msg.HTMLBody)),
	}
	if msg.Attachment != nil {
		fields = append(fields,
			zap.String("attachment", msg.Attachment.Filename),
			zap.Int("attachment_bytes", len(msg.Attachment.Data)))
	}
	s.logger.Info("mail not sent: no SMTP relay configured", fields...)
	return nil
}
