package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/maheshrc27/igpublisher/internal/service"
)

type TokenRefreshJob struct {
	accounts service.AccountService
	timeout  time.Duration
}

func NewTokenRefreshJob(accounts service.AccountService) *TokenRefreshJob {
	return &TokenRefreshJob{
		accounts: accounts,
		timeout:  5 * time.Minute,
	}
}

// RefreshTokens extends Instagram tokens close to expiry and marks lapsed
// accounts EXPIRED.
func (c *TokenRefreshJob) RefreshTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	result, err := c.accounts.RefreshExpiring(ctx)
	if err != nil {
		slog.Info(err.Error())
		return
	}
	if result.Refreshed+result.Expired+result.Failed > 0 {
		slog.Info("token refresh finished",
			"refreshed", result.Refreshed,
			"expired", result.Expired,
			"failed", result.Failed,
		)
	}
}
