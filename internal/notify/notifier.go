// Package notify carries crossing changes to the downstream notification
// collaborator. Delivery (push, email) lives outside this engine; the
// default implementation only logs.
package notify

import (
	"context"
	"log/slog"

	"github.com/aruiz/crossedpaths/backend/internal/domain"
)

// Notifier is told whenever a pair's crossing count changes.
type Notifier interface {
	CrossingChanged(ctx context.Context, record domain.CrossingRecord)
}

// LogNotifier writes crossing changes to the structured log.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier constructs a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// CrossingChanged implements Notifier.
func (n *LogNotifier) CrossingChanged(_ context.Context, record domain.CrossingRecord) {
	n.logger.Debug("crossing updated",
		"userA", record.UserAID,
		"userB", record.UserBID,
		"venueKey", record.VenueKey,
		"crossCount", record.CrossCount,
	)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

// CrossingChanged implements Notifier.
func (NopNotifier) CrossingChanged(context.Context, domain.CrossingRecord) {}
