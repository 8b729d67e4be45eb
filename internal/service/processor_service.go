package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	config "github.com/maheshrc27/igpublisher/configs"
	"github.com/maheshrc27/igpublisher/internal/models"
	"github.com/maheshrc27/igpublisher/internal/repository"
	"github.com/maheshrc27/igpublisher/internal/transfer"
)

type Outcome string

const (
	OutcomePublished Outcome = "published"
	OutcomeFailed    Outcome = "failed"
	// OutcomeSkipped means another worker owns the post or it is not due.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeDeferred leaves the post PENDING for a later tick.
	OutcomeDeferred Outcome = "deferred"
)

// StuckAfter is how long a post may stay PROCESSING before it is failed.
const StuckAfter = 30 * time.Minute

type BatchResult struct {
	Processed int      `json:"processed"`
	Published int      `json:"published"`
	Failed    int      `json:"failed"`
	Skipped   int      `json:"skipped"`
	Deferred  int      `json:"deferred"`
	Errors    []string `json:"errors,omitempty"`
}

func (r *BatchResult) add(outcome Outcome, err error) {
	r.Processed++
	switch outcome {
	case OutcomePublished:
		r.Published++
	case OutcomeFailed:
		r.Failed++
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeDeferred:
		r.Deferred++
	}
	if err != nil {
		r.Errors = append(r.Errors, err.Error())
	}
}

// PostProcessor publishes posts whose scheduled time has come.
type PostProcessor interface {
	Run(ctx context.Context) (BatchResult, error)
	ProcessOne(ctx context.Context, postID uuid.UUID) (Outcome, error)
	FailStuck(ctx context.Context) (int64, error)
}

type postProcessor struct {
	pr       repository.PostRepository
	sa       repository.SocialAccountRepository
	accounts AccountService
	tracker  ContainerTracker
	ig       InstagramService
	cfg      config.Processor
	now      Clock
}

func NewPostProcessor(
	pr repository.PostRepository,
	sa repository.SocialAccountRepository,
	accounts AccountService,
	tracker ContainerTracker,
	ig InstagramService,
	cfg config.Processor,
	now Clock) PostProcessor {
	if now == nil {
		now = systemClock
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &postProcessor{
		pr:       pr,
		sa:       sa,
		accounts: accounts,
		tracker:  tracker,
		ig:       ig,
		cfg:      cfg,
		now:      now,
	}
}

// Run processes one batch of due posts. Posts are independent: one failing
// never stops the others.
func (p *postProcessor) Run(ctx context.Context) (BatchResult, error) {
	posts, err := p.pr.ListDue(ctx, p.now(), p.cfg.BatchSize)
	if err != nil {
		return BatchResult{}, err
	}

	var (
		result BatchResult
		mu     sync.Mutex
		wg     sync.WaitGroup
	)
	semaphore := make(chan struct{}, p.cfg.Concurrency)

	for _, post := range posts {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(id uuid.UUID) {
			defer wg.Done()
			defer func() { <-semaphore }()

			outcome, err := p.ProcessOne(ctx, id)
			if err != nil {
				slog.Info("post processing error", "post_id", id, "outcome", outcome, "error", err)
			}

			mu.Lock()
			result.add(outcome, err)
			mu.Unlock()
		}(post.ID)
	}

	wg.Wait()

	if len(posts) > 0 {
		slog.Info("due posts processed",
			"processed", result.Processed,
			"published", result.Published,
			"failed", result.Failed,
			"skipped", result.Skipped,
			"deferred", result.Deferred,
		)
	}
	return result, nil
}

// ProcessOne runs the publish pipeline for a single post. The PENDING to
// PROCESSING claim is a conditional update, so concurrent triggers for the
// same post publish it at most once.
func (p *postProcessor) ProcessOne(ctx context.Context, postID uuid.UUID) (outcome Outcome, err error) {
	defer func() {
		postsProcessedTotal.WithLabelValues(string(outcome)).Inc()
	}()

	post, err := p.pr.GetByID(ctx, postID)
	if errors.Is(err, models.ErrNotFound) {
		return OutcomeSkipped, nil
	}
	if err != nil {
		return OutcomeSkipped, err
	}

	now := p.now()
	if !post.Due(now) {
		return OutcomeSkipped, nil
	}

	account, err := p.sa.GetByID(ctx, post.AccountID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return OutcomeSkipped, err
	}
	if account == nil || !account.CanPublish(now) {
		return p.claimAndFail(ctx, post, models.ErrAccountUnavailable.Error())
	}

	accessToken, err := p.accounts.AccessToken(account)
	if err != nil {
		return p.claimAndFail(ctx, post, "unable to decrypt access token")
	}

	if limit, err := p.ig.PublishingLimit(ctx, account.AccountID, accessToken); err != nil {
		slog.Info("publishing limit unavailable", "account_id", account.ID, "error", err)
	} else if limit.Exhausted() {
		return OutcomeDeferred, nil
	}

	if err := p.claim(ctx, post.ID); err != nil {
		if errors.Is(err, models.ErrInvalidTransition) {
			return OutcomeSkipped, nil
		}
		return OutcomeSkipped, err
	}

	started := time.Now()
	mediaID, publishErr := p.publish(ctx, post, account, accessToken)

	// Final writes ignore cancellation of the trigger's context.
	writeCtx := context.WithoutCancel(ctx)
	if publishErr != nil {
		if err := p.pr.MarkFailed(writeCtx, post.ID, publishErr.Error()); err != nil {
			return OutcomeFailed, err
		}
		return OutcomeFailed, publishErr
	}

	if err := p.pr.MarkPublished(writeCtx, post.ID, mediaID, p.now()); err != nil {
		return OutcomePublished, err
	}
	publishDuration.Observe(time.Since(started).Seconds())
	slog.Info("post published", "post_id", post.ID, "media_id", mediaID)
	return OutcomePublished, nil
}

func (p *postProcessor) FailStuck(ctx context.Context) (int64, error) {
	return p.pr.FailStuck(ctx, p.now().Add(-StuckAfter), "processing interrupted")
}

func (p *postProcessor) claim(ctx context.Context, id uuid.UUID) error {
	return p.pr.Transition(ctx, id, models.PostStatusProcessing, models.PostStatusPending)
}

func (p *postProcessor) claimAndFail(ctx context.Context, post *models.Post, message string) (Outcome, error) {
	if err := p.claim(ctx, post.ID); err != nil {
		if errors.Is(err, models.ErrInvalidTransition) {
			return OutcomeSkipped, nil
		}
		return OutcomeSkipped, err
	}
	if err := p.pr.MarkFailed(context.WithoutCancel(ctx), post.ID, message); err != nil {
		return OutcomeFailed, err
	}
	return OutcomeFailed, errors.New(message)
}

// publish creates and awaits the media container(s) for the post, then
// publishes the top-level container. Carousel children go first.
func (p *postProcessor) publish(ctx context.Context, post *models.Post, account *models.SocialAccount, accessToken string) (string, error) {
	var req transfer.ContainerRequest

	switch post.MediaType {
	case models.MediaTypeImage:
		req = transfer.ContainerRequest{ImageURL: post.MediaURLs[0], Caption: post.Caption}
	case models.MediaTypeVideo, models.MediaTypeReels:
		req = transfer.ContainerRequest{VideoURL: post.MediaURLs[0], MediaType: "REELS", Caption: post.Caption}
	case models.MediaTypeCarousel:
		children := make([]string, 0, len(post.MediaURLs))
		for _, mediaURL := range post.MediaURLs {
			item := transfer.ContainerRequest{ImageURL: mediaURL, IsCarouselItem: true}
			if isVideoURL(mediaURL) {
				item = transfer.ContainerRequest{VideoURL: mediaURL, MediaType: "VIDEO", IsCarouselItem: true}
			}
			id, err := p.createAndWait(ctx, post, account, accessToken, item)
			if err != nil {
				return "", fmt.Errorf("carousel item: %w", err)
			}
			children = append(children, id)
		}
		req = transfer.ContainerRequest{MediaType: "CAROUSEL", Caption: post.Caption, Children: children}
	default:
		return "", fmt.Errorf("unsupported media type %q", post.MediaType)
	}

	creationID, err := p.createAndWait(ctx, post, account, accessToken, req)
	if err != nil {
		return "", err
	}

	return p.ig.Publish(ctx, account.AccountID, creationID, accessToken)
}

func (p *postProcessor) createAndWait(ctx context.Context, post *models.Post, account *models.SocialAccount, accessToken string, req transfer.ContainerRequest) (string, error) {
	externalID, err := p.ig.CreateContainer(ctx, account.AccountID, accessToken, req)
	if err != nil {
		return "", err
	}

	container, err := p.tracker.Create(ctx, post, account, externalID, req.IsCarouselItem)
	if err != nil {
		return "", err
	}

	if err := p.tracker.WaitReady(ctx, container, accessToken); err != nil {
		return "", err
	}
	return externalID, nil
}
