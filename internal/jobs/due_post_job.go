package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/maheshrc27/igpublisher/internal/service"
)

// DuePostJob is the cron trigger of the post processor. Ticks that fire
// while a previous run is still going are dropped.
type DuePostJob struct {
	processor service.PostProcessor
	timeout   time.Duration
	running   sync.Mutex
}

func NewDuePostJob(processor service.PostProcessor, timeout time.Duration) *DuePostJob {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &DuePostJob{
		processor: processor,
		timeout:   timeout,
	}
}

func (j *DuePostJob) ProcessDuePosts() {
	if !j.running.TryLock() {
		slog.Info("due post run still in progress, skipping tick")
		return
	}
	defer j.running.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if _, err := j.processor.Run(ctx); err != nil {
		slog.Info(err.Error())
	}
}
