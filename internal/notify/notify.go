// Package notify dispatches policy change alerts over email and webhooks.
// Delivery is best-effort: channel failures are logged and counted, never
// returned, and the dispatcher reports only whether any channel succeeded.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/Varshith-Kola/PolicyDiff/internal/metrics"
	"github.com/Varshith-Kola/PolicyDiff/internal/monitor"
)

var severityColors = map[monitor.Severity]string{
	monitor.SeverityInformational: "#3B82F6",
	monitor.SeverityConcerning:    "#F59E0B",
	monitor.SeverityActionNeeded:  "#EF4444",
}

var severityEmoji = map[monitor.Severity]string{
	monitor.SeverityInformational: "ℹ️",
	monitor.SeverityConcerning:    "⚠️",
	monitor.SeverityActionNeeded:  "🚨",
}

// Channel delivers one alert over one transport.
type Channel interface {
	Name() string
	// MinSeverity is the lowest severity this channel wants to receive.
	MinSeverity() monitor.Severity
	Deliver(ctx context.Context, alert monitor.Alert) error
}

// Dispatcher implements monitor.Notifier by fanning an alert out to every
// configured channel at or above its severity threshold.
type Dispatcher struct {
	channels []Channel
	logger   *zap.Logger
}

// NewDispatcher builds a dispatcher over the given channels.
func NewDispatcher(logger *zap.Logger, channels ...Channel) *Dispatcher {
	return &Dispatcher{channels: channels, logger: logger}
}

// Send delivers the alert on all eligible channels and reports whether at
// least one delivery succeeded.
func (d *Dispatcher) Send(ctx context.Context, alert monitor.Alert) bool {
	anyOK := false
	for _, ch := range d.channels {
		if !alert.Severity.AtLeast(ch.MinSeverity()) {
			d.logger.Debug("alert below channel threshold",
				zap.String("channel", ch.Name()),
				zap.String("severity", string(alert.Severity)))
			continue
		}
		err := ch.Deliver(ctx, alert)
		metrics.ObserveNotification(ch.Name(), err == nil)
		if err != nil {
			d.logger.Error("alert delivery failed",
				zap.String("channel", ch.Name()),
				zap.Int64("policy_id", alert.PolicyID),
				zap.Error(err))
			continue
		}
		anyOK = true
		d.logger.Info("alert delivered",
			zap.String("channel", ch.Name()),
			zap.Int64("policy_id", alert.PolicyID),
			zap.String("severity", string(alert.Severity)))
	}
	if !anyOK {
		d.logger.Info("no notification channel succeeded",
			zap.Int64("policy_id", alert.PolicyID),
			zap.String("policy", alert.PolicyName))
	}
	return anyOK
}
