package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/maheshrc27/igpublisher/internal/service"
)

// MaintenanceJob sweeps rows that no request path cleans up. Each step runs
// even if an earlier one failed.
type MaintenanceJob struct {
	states    service.OAuthStateStore
	tracker   service.ContainerTracker
	processor service.PostProcessor
}

func NewMaintenanceJob(states service.OAuthStateStore, tracker service.ContainerTracker, processor service.PostProcessor) *MaintenanceJob {
	return &MaintenanceJob{
		states:    states,
		tracker:   tracker,
		processor: processor,
	}
}

func (m *MaintenanceJob) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if n, err := m.states.PurgeExpired(ctx); err != nil {
		slog.Info(err.Error())
	} else if n > 0 {
		slog.Info("purged oauth states", "count", n)
	}

	if n, err := m.tracker.ExpireStale(ctx); err != nil {
		slog.Info(err.Error())
	} else if n > 0 {
		slog.Info("expired media containers", "count", n)
	}

	if n, err := m.processor.FailStuck(ctx); err != nil {
		slog.Info(err.Error())
	} else if n > 0 {
		slog.Info("failed stuck posts", "count", n)
	}
}
