package notification

import (
	"context"

	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/logging"
)

// Message is one HTML email to a single recipient
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer is the mail transport port
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the log instead of sending them
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, msg Message) error {
	logging.Info("mail not sent (log driver)", map[string]interface{}{
		"to":      msg.To,
		"subject": msg.Subject,
		"bytes":   len(msg.HTML),
	})
	return nil
}
