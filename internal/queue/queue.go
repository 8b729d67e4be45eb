package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Scheduler enqueues a delayed publish task per post. The task id includes
// the scheduled instant so a rescheduled post gets a fresh task while a
// duplicate request for the same slot is dropped.
type Scheduler struct {
	client enqueuer
}

func NewScheduler(client *asynq.Client) *Scheduler {
	return &Scheduler{client: client}
}

func (s *Scheduler) SchedulePublish(ctx context.Context, postID uuid.UUID, at time.Time) error {
	taskPayload, err := json.Marshal(PublishPostPayload{PostID: postID})
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypePublishPost, taskPayload)

	_, err = s.client.EnqueueContext(ctx, task,
		asynq.ProcessAt(at),
		asynq.MaxRetry(0),
		asynq.TaskID(taskID(postID, at)),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return err
	}

	slog.Info("publish task scheduled", "post_id", postID, "process_at", at)
	return nil
}

func taskID(postID uuid.UUID, at time.Time) string {
	return fmt.Sprintf("%s:%d", postID, at.Unix())
}
