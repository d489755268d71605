package notify

import (
	"context"

	"github.com/okian/skilltier/pkg/logger"
)

// LogNotifier renders messages and writes them to the log instead of sending.
type LogNotifier struct {
	log logger.Logger
}

var _ Notifier = (*LogNotifier)(nil)

// NewLogNotifier returns a notifier that logs each rendered message.
func NewLogNotifier(l logger.Logger) *LogNotifier {
	if l == nil {
		l = logger.NewNop()
	}
	return &LogNotifier{log: l.Named("notify")}
}

// NotifyWelcome logs the welcome message.
func (n *LogNotifier) NotifyWelcome(ctx context.Context, to Recipient) error {
	msg, err := WelcomeMessage(to)
	if err != nil {
		return err
	}
	n.emit(ctx, msg)
	return nil
}

// NotifyTierAssigned logs the tier result message.
func (n *LogNotifier) NotifyTierAssigned(ctx context.Context, to Recipient, tier int, tierName string) error {
	msg, err := TierAssignedMessage(to, tier, tierName)
	if err != nil {
		return err
	}
	n.emit(ctx, msg)
	return nil
}

func (n *LogNotifier) emit(ctx context.Context, msg Message) {
	n.log.Info(ctx, "notification",
		logger.String("to", msg.To),
		logger.String("subject", msg.Subject),
	)
}
