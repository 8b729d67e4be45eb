package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/maheshrc27/igpublisher/internal/models"
	"github.com/maheshrc27/igpublisher/internal/repository"
	"github.com/maheshrc27/igpublisher/internal/transfer"
	"github.com/sethvargo/go-retry"
)

// ContainerTracker follows Instagram media containers from creation until
// they are ready to publish or dead.
type ContainerTracker interface {
	Create(ctx context.Context, post *models.Post, account *models.SocialAccount, externalID string, carouselItem bool) (*models.MediaContainer, error)
	Poll(ctx context.Context, c *models.MediaContainer, accessToken string) error
	WaitReady(ctx context.Context, c *models.MediaContainer, accessToken string) error
	ExpireStale(ctx context.Context) (int64, error)
}

type containerTracker struct {
	repo     repository.MediaContainerRepository
	ig       InstagramService
	interval time.Duration
	attempts int
	now      Clock
}

func NewContainerTracker(
	repo repository.MediaContainerRepository,
	ig InstagramService,
	interval time.Duration,
	attempts int,
	now Clock) ContainerTracker {
	if now == nil {
		now = systemClock
	}
	if attempts < 1 {
		attempts = 1
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &containerTracker{
		repo:     repo,
		ig:       ig,
		interval: interval,
		attempts: attempts,
		now:      now,
	}
}

func (t *containerTracker) Create(ctx context.Context, post *models.Post, account *models.SocialAccount, externalID string, carouselItem bool) (*models.MediaContainer, error) {
	c := models.NewMediaContainer(post.ID, account.ID, externalID, carouselItem, t.now())
	if err := t.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Poll refreshes the container status from the Graph API and persists it.
func (t *containerTracker) Poll(ctx context.Context, c *models.MediaContainer, accessToken string) error {
	now := t.now()

	if c.Status.Terminal() {
		return nil
	}
	if !now.Before(c.ExpiresAt) {
		c.Observe(models.ContainerStatusExpired, "", now)
		containerPollsTotal.WithLabelValues(string(c.Status)).Inc()
		return t.repo.UpdateStatus(ctx, c)
	}

	remote, err := t.ig.ContainerStatus(ctx, c.ExternalID, accessToken)
	if err != nil {
		return err
	}

	c.Observe(models.ParseRemoteStatus(remote.StatusCode), remote.Status, now)
	containerPollsTotal.WithLabelValues(string(c.Status)).Inc()
	return t.repo.UpdateStatus(ctx, c)
}

// WaitReady polls at a constant interval until the container is FINISHED.
func (t *containerTracker) WaitReady(ctx context.Context, c *models.MediaContainer, accessToken string) error {
	backoff := retry.WithMaxRetries(uint64(t.attempts-1), retry.NewConstant(t.interval))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := t.Poll(ctx, c, accessToken); err != nil {
			var graphErr *transfer.GraphError
			if errors.As(err, &graphErr) && graphErr.Transient {
				return retry.RetryableError(err)
			}
			return err
		}

		switch c.Status {
		case models.ContainerStatusFinished:
			return nil
		case models.ContainerStatusExpired:
			return models.ErrContainerExpired
		case models.ContainerStatusError:
			if c.StatusDetail != "" {
				return fmt.Errorf("%w: %s", models.ErrContainerFailed, c.StatusDetail)
			}
			return models.ErrContainerFailed
		default:
			return retry.RetryableError(models.ErrContainerNotReady)
		}
	})
}

func (t *containerTracker) ExpireStale(ctx context.Context) (int64, error) {
	return t.repo.ExpireStale(ctx, t.now())
}
