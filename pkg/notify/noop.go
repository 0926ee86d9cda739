package notify

import (
	"context"
	"log/slog"

	"github.com/donaldgifford/constructorio-go/pkg/logger"
)

// NoOpNotifier logs and discards events. It is used when the host has not
// registered a notifier.
type NoOpNotifier struct {
	log *slog.Logger
}

// NewNoOpNotifier returns a notifier that logs discarded events at debug.
func NewNoOpNotifier(log *slog.Logger) *NoOpNotifier {
	return &NoOpNotifier{log: logger.OrDiscard(log)}
}

// Notify logs and discards ev.
func (n *NoOpNotifier) Notify(_ context.Context, ev Event) error {
	n.log.Debug("notification discarded (no notifier configured)",
		"event", ev.Name,
		"term", ev.Term,
	)
	return nil
}
