package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// HandlePublishPostTask runs the publish pipeline for the post in the task.
// Publish failures are recorded on the post itself, so the task never asks
// asynq for a retry.
func (q *Queue) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if payload.PostID == uuid.Nil {
		return fmt.Errorf("%w: missing post id", asynq.SkipRetry)
	}

	outcome, err := q.processor.ProcessOne(ctx, payload.PostID)
	if err != nil {
		slog.Info("publish task finished with error", "post_id", payload.PostID, "outcome", outcome, "error", err)
		return nil
	}
	slog.Info("publish task finished", "post_id", payload.PostID, "outcome", outcome)
	return nil
}

// Register attaches the task handlers to mux.
func (q *Queue) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskTypePublishPost, q.HandlePublishPostTask)
}
