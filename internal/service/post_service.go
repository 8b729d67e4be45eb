package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	config "github.com/maheshrc27/igpublisher/configs"
	"github.com/maheshrc27/igpublisher/internal/models"
	"github.com/maheshrc27/igpublisher/internal/repository"
	"github.com/maheshrc27/igpublisher/internal/transfer"
)

// QuotaWindow is the half-width of the per-account posting window.
const QuotaWindow = 24 * time.Hour

// PublishScheduler arranges for a post to be processed at its scheduled time.
type PublishScheduler interface {
	SchedulePublish(ctx context.Context, postID uuid.UUID, at time.Time) error
}

type PostService interface {
	Create(ctx context.Context, p models.Principal, req *transfer.PostRequest) (*models.Post, error)
	Get(ctx context.Context, p models.Principal, id uuid.UUID) (*models.Post, error)
	List(ctx context.Context, p models.Principal, f repository.PostFilter) ([]*models.Post, error)
	Update(ctx context.Context, p models.Principal, id uuid.UUID, patch *transfer.PostPatch) (*models.Post, error)
	Cancel(ctx context.Context, p models.Principal, id uuid.UUID) (*models.Post, error)
	Delete(ctx context.Context, p models.Principal, id uuid.UUID) error
}

type postService struct {
	pr        repository.PostRepository
	accounts  AccountService
	scheduler PublishScheduler
	limits    config.Limits
	now       Clock
}

func NewPostService(
	pr repository.PostRepository,
	accounts AccountService,
	scheduler PublishScheduler,
	limits config.Limits,
	now Clock) PostService {
	if now == nil {
		now = systemClock
	}
	return &postService{
		pr:        pr,
		accounts:  accounts,
		scheduler: scheduler,
		limits:    limits,
		now:       now,
	}
}

func (s *postService) Create(ctx context.Context, p models.Principal, req *transfer.PostRequest) (*models.Post, error) {
	if p.UserID == "" {
		return nil, models.ErrUnauthorized
	}
	if req == nil {
		return nil, models.NewValidationError("", "request body is required")
	}

	accountID, err := parseAccountID(req.AccountID)
	if err != nil {
		return nil, err
	}

	tz := defaultTimezone(req.Timezone)
	scheduledFor, err := ParseScheduledFor(req.ScheduledFor, tz)
	if err != nil {
		return nil, err
	}

	draft := &PostDraft{
		Caption:      req.Caption,
		MediaURLs:    trimAll(req.MediaURLs),
		MediaType:    models.MediaType(strings.ToUpper(req.MediaType)),
		ScheduledFor: scheduledFor,
		Timezone:     tz,
	}

	now := s.now()
	if err := ValidatePostDraft(draft, s.limits, now); err != nil {
		return nil, err
	}
	if err := s.checkAccount(ctx, p, accountID, now); err != nil {
		return nil, err
	}
	if err := s.checkQuota(ctx, accountID, draft.ScheduledFor, uuid.Nil); err != nil {
		return nil, err
	}

	post := &models.Post{
		ID:           uuid.New(),
		UserID:       p.UserID,
		OrgID:        p.OrgID,
		AccountID:    accountID,
		Caption:      draft.Caption,
		MediaURLs:    pq.StringArray(draft.MediaURLs),
		MediaType:    draft.MediaType,
		ScheduledFor: draft.ScheduledFor,
		Timezone:     draft.Timezone,
		Status:       models.PostStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.pr.Create(ctx, post); err != nil {
		return nil, err
	}

	s.schedule(ctx, post)
	return post, nil
}

func (s *postService) Get(ctx context.Context, p models.Principal, id uuid.UUID) (*models.Post, error) {
	post, err := s.pr.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(p, post.UserID, post.OrgID); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *postService) List(ctx context.Context, p models.Principal, f repository.PostFilter) ([]*models.Post, error) {
	if p.UserID == "" {
		return nil, models.ErrUnauthorized
	}
	return s.pr.List(ctx, p, f)
}

// Update applies the patch to a PENDING post and re-runs every check a new
// post goes through.
func (s *postService) Update(ctx context.Context, p models.Principal, id uuid.UUID, patch *transfer.PostPatch) (*models.Post, error) {
	post, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if post.Status != models.PostStatusPending {
		return nil, models.ErrInvalidTransition
	}
	if patch == nil {
		return post, nil
	}

	if patch.AccountID != nil {
		accountID, err := parseAccountID(*patch.AccountID)
		if err != nil {
			return nil, err
		}
		post.AccountID = accountID
	}
	if patch.Caption != nil {
		post.Caption = *patch.Caption
	}
	if patch.MediaURLs != nil {
		post.MediaURLs = pq.StringArray(trimAll(*patch.MediaURLs))
	}
	if patch.MediaType != nil {
		post.MediaType = models.MediaType(strings.ToUpper(*patch.MediaType))
	}
	if patch.Timezone != nil {
		post.Timezone = defaultTimezone(*patch.Timezone)
	}
	previousSlot := post.ScheduledFor
	if patch.ScheduledFor != nil {
		scheduledFor, err := ParseScheduledFor(*patch.ScheduledFor, post.Timezone)
		if err != nil {
			return nil, err
		}
		post.ScheduledFor = scheduledFor
	}

	now := s.now()
	draft := &PostDraft{
		Caption:      post.Caption,
		MediaURLs:    post.MediaURLs,
		MediaType:    post.MediaType,
		ScheduledFor: post.ScheduledFor,
		Timezone:     post.Timezone,
	}
	if err := ValidatePostDraft(draft, s.limits, now); err != nil {
		return nil, err
	}
	if err := s.checkAccount(ctx, p, post.AccountID, now); err != nil {
		return nil, err
	}
	if err := s.checkQuota(ctx, post.AccountID, post.ScheduledFor, post.ID); err != nil {
		return nil, err
	}

	post.UpdatedAt = now
	if err := s.pr.UpdatePending(ctx, post); err != nil {
		return nil, err
	}

	if !post.ScheduledFor.Equal(previousSlot) {
		s.schedule(ctx, post)
	}
	return post, nil
}

func (s *postService) Cancel(ctx context.Context, p models.Principal, id uuid.UUID) (*models.Post, error) {
	post, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := post.Transition(models.PostStatusCancelled); err != nil {
		return nil, err
	}
	if err := s.pr.Transition(ctx, id, models.PostStatusCancelled, models.PostStatusPending, models.PostStatusFailed); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *postService) Delete(ctx context.Context, p models.Principal, id uuid.UUID) error {
	post, err := s.Get(ctx, p, id)
	if err != nil {
		return err
	}
	if !post.Status.Removable() {
		return models.ErrInvalidTransition
	}
	return s.pr.Remove(ctx, id)
}

// checkAccount requires the target account to belong to the caller and be
// able to publish.
func (s *postService) checkAccount(ctx context.Context, p models.Principal, accountID uuid.UUID, now time.Time) error {
	account, err := s.accounts.Get(ctx, p, accountID)
	if errors.Is(err, models.ErrNotFound) {
		return models.NewValidationError("account_id", "account not found")
	}
	if err != nil {
		return err
	}
	if !account.CanPublish(now) {
		return models.NewValidationError("account_id", "account cannot publish (status %s)", account.Status)
	}
	return nil
}

func (s *postService) checkQuota(ctx context.Context, accountID uuid.UUID, at time.Time, exclude uuid.UUID) error {
	count, err := s.pr.CountInWindow(ctx, accountID, at.Add(-QuotaWindow), at.Add(QuotaWindow), exclude)
	if err != nil {
		return err
	}
	if count >= s.limits.DailyPostLimit {
		return models.ErrRateLimited
	}
	return nil
}

// schedule enqueues the fast-path publish task. The cron sweep picks the post
// up anyway, so a failure here is only logged.
func (s *postService) schedule(ctx context.Context, post *models.Post) {
	if s.scheduler == nil {
		return
	}
	if err := s.scheduler.SchedulePublish(ctx, post.ID, post.ScheduledFor); err != nil {
		slog.Info("unable to enqueue publish task", "post_id", post.ID, "error", err)
	}
}

func parseAccountID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, models.NewValidationError("account_id", "must be a valid id")
	}
	return id, nil
}

func defaultTimezone(tz string) string {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return "UTC"
	}
	return tz
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.TrimSpace(v))
	}
	return out
}
