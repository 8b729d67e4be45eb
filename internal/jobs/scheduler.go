package job

import (
	"github.com/robfig/cron"
)

const (
	TokenRefreshSchedule = "@every 00h10m00s"
	MaintenanceSchedule  = "@every 00h15m00s"
)

// Register adds every periodic job to c. duePostSchedule comes from config.
func Register(c *cron.Cron, duePostSchedule string, duePosts *DuePostJob, tokens *TokenRefreshJob, maintenance *MaintenanceJob) error {
	if err := c.AddFunc(duePostSchedule, duePosts.ProcessDuePosts); err != nil {
		return err
	}
	if err := c.AddFunc(TokenRefreshSchedule, tokens.RefreshTokens); err != nil {
		return err
	}
	return c.AddFunc(MaintenanceSchedule, maintenance.Sweep)
}
