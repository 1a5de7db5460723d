package worker

import (
	"github.com/spec-kit/facility-tickets/internal/service"
)

// StartNotificationWorker registers notification handlers on the
// dispatcher. Delivery itself runs on the dispatcher's goroutines.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
