package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-intake/internal/service"
)

// StartNotificationWorker subscribes the notification service to ticket
// lifecycle events. Delivery happens on the dispatching goroutine; there
// is no background loop to stop on shutdown.
func StartNotificationWorker(notificationService *service.NotificationService, logger *zap.Logger) {
	if notificationService == nil {
		logger.Debug("notification worker disabled; no service configured")
		return
	}
	notificationService.RegisterHandlers()
	logger.Info("notification worker started")
}
