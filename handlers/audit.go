package handlers

import (
	"github.com/visra-dev/visrabackend/models"
	"github.com/visra-dev/visrabackend/repository"
)

// recordActivity writes one audit row. Audit failures are swallowed; they
// must never block the request that triggered them.
func recordActivity(logs repository.ActivityLogRepository, userID uint, action, details, status string) {
	if logs == nil {
		return
	}
	_ = logs.Insert(&models.ActivityLog{
		UserID:  userID,
		Action:  action,
		Details: details,
		Status:  status,
	})
}
