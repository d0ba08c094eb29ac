package workflow

import (
	"github.com/dtsgroup/bizreg_backend/config"
	"github.com/sirupsen/logrus"
)

type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationError   NotificationKind = "error"
)

// Notifier is the fire-and-forget sink for operation outcomes. The
// orchestrator never consumes a return value from it.
type Notifier interface {
	Notify(kind NotificationKind, title string, message string)
}

type logNotifier struct{}

func (logNotifier) Notify(kind NotificationKind, title string, message string) {
	logger := config.GetLogger()
	fields := logrus.Fields{
		"kind":  string(kind),
		"title": title,
	}
	if kind == NotificationError {
		logger.WithFields(fields).Error(message)
		return
	}
	logger.WithFields(fields).Info(message)
}

var notifier Notifier = logNotifier{}

// SetNotifier swaps the sink (tests, or a push-channel implementation).
func SetNotifier(n Notifier) {
	if n == nil {
		notifier = logNotifier{}
		return
	}
	notifier = n
}

func notify(kind NotificationKind, title string, message string) {
	notifier.Notify(kind, title, message)
}
