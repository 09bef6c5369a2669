package messaging

import (
	"context"

	"github.com/wolfman30/clinic-receptionist/pkg/logging"
)

// LogSender writes outbound messages to the log instead of sending them.
// Used in development when no Twilio credentials are configured.
type LogSender struct {
	logger *logging.Logger
}

// NewLogSender creates a log-only sender.
func NewLogSender(logger *logging.Logger) *LogSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogSender{logger: logger}
}

// SendSMS logs the message and reports success.
func (s *LogSender) SendSMS(ctx context.Context, to, body string) error {
	s.logger.Info("sms (log only)", "to", to, "body", body)
	return nil
}
