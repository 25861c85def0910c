package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/hourbank/timebank/internal/core/domain"
)

// LogNotifier writes notifications to the log instead of sending them.
// Used when no SMTP host is configured.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (l *LogNotifier) Notify(_ context.Context, n domain.Notification) error {
	l.log.Info().
		Str("notification_id", n.ID).
		Str("to", n.To).
		Str("subject", n.Subject).
		Str("body", n.Body).
		Msg("notification")
	return nil
}
