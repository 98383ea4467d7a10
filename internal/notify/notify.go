// Package notify delivers operational alerts about a scraping run. Delivery is best effort:
// a failed alert is logged and never interrupts scraping.
package notify

import (
	"context"

	"github.com/fortuna/ncaa-boxscores/internal/ncaa"
	"go.uber.org/zap"
)

// Severity of an alert.
type Severity string

const (
	SeverityError     Severity = "ERROR"
	SeverityWarning   Severity = "WARNING"
	SeverityInfo      Severity = "INFO"
	SeveritySuccess   Severity = "SUCCESS"
	SeverityGameError Severity = "GAME_ERROR"
)

// Alert is one notification. Context fields are optional.
type Alert struct {
	Message  string        `json:"message"`
	Severity Severity      `json:"severity"`
	Division ncaa.Division `json:"division,omitempty"`
	Gender   ncaa.Gender   `json:"gender,omitempty"`
	Date     string        `json:"date,omitempty"`
	GameLink string        `json:"game_link,omitempty"`
}

// NewAlert builds an alert scoped to a scrape target.
func NewAlert(severity Severity, t ncaa.Target, message string) Alert {
	return Alert{
		Message:  message,
		Severity: severity,
		Division: t.Division,
		Gender:   t.Gender,
		Date:     t.Date.String(),
	}
}

// Notifier accepts alerts without reporting failure to the caller.
type Notifier interface {
	Notify(ctx context.Context, alert Alert)
}

// Sender is a delivery backend.
type Sender interface {
	Send(ctx context.Context, alert Alert) error
}

// Nop discards alerts.
type Nop struct{}

func (Nop) Notify(context.Context, Alert) {}

type logged struct {
	name   string
	sender Sender
	logger *zap.Logger
}

// Logged adapts a Sender to a Notifier that logs delivery failures.
func Logged(name string, sender Sender, logger *zap.Logger) Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &logged{name: name, sender: sender, logger: logger.Named("notify")}
}

func (l *logged) Notify(ctx context.Context, alert Alert) {
	if err := l.sender.Send(ctx, alert); err != nil {
		l.logger.Warn("alert delivery failed",
			zap.String("backend", l.name),
			zap.String("severity", string(alert.Severity)),
			zap.Error(err),
		)
	}
}

// Multi fans alerts out to every notifier in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, alert Alert) {
	for _, n := range m {
		n.Notify(ctx, alert)
	}
}

// Combine returns Nop, the only notifier, or a Multi, skipping nil entries.
func Combine(notifiers ...Notifier) Notifier {
	var out Multi
	for _, n := range notifiers {
		if n != nil {
			out = append(out, n)
		}
	}
	switch len(out) {
	case 0:
		return Nop{}
	case 1:
		return out[0]
	}
	return out
}
