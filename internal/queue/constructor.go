package queue

import (
	"github.com/google/uuid"
	"github.com/maheshrc27/igpublisher/internal/service"
)

// Queue consumes publish tasks and hands them to the post processor.
type Queue struct {
	processor service.PostProcessor
}

func NewQueue(processor service.PostProcessor) *Queue {
	return &Queue{
		processor: processor,
	}
}

const TaskTypePublishPost = "post:publish"

type PublishPostPayload struct {
	PostID uuid.UUID `json:"post_id"`
}
