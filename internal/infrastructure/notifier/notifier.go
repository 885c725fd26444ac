package notifier

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/gotoUSA/django-shopping-mall-sub001/internal/domain"
)

// LogNotifier writes expiring-point notices to the log. It is the provided
// channel; mail or push delivery implements usecase.Notifier the same way.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a new LogNotifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// NotifyExpiring logs one notice per account bundle.
func (n *LogNotifier) NotifyExpiring(ctx context.Context, accountID string, entries []*domain.Entry, total int64) error {
	evt := n.logger.Info().
		Str("account_id", accountID).
		Int("entries", len(entries)).
		Int64("points", total)

	if len(entries) > 0 && entries[0].ExpiresAt != nil {
		evt = evt.Time("first_expiry", *entries[0].ExpiresAt)
	}

	evt.Msg("EXPIRY NOTICE")
	return nil
}
