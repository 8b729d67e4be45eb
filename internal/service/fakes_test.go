package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/maheshrc27/igpublisher/internal/models"
	"github.com/maheshrc27/igpublisher/internal/repository"
	"github.com/maheshrc27/igpublisher/internal/transfer"
	"github.com/maheshrc27/igpublisher/pkg/utils"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func testCipher() *utils.TokenCipher {
	c, err := utils.NewTokenCipher([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		panic(err)
	}
	return c
}

// --- oauth states ---

type fakeStateRepo struct {
	mu     sync.Mutex
	states map[string]*models.OAuthState
}

func newFakeStateRepo() *fakeStateRepo {
	return &fakeStateRepo{states: map[string]*models.OAuthState{}}
}

func (r *fakeStateRepo) Create(_ context.Context, s *models.OAuthState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.states[s.State] = &cp
	return nil
}

func (r *fakeStateRepo) Consume(_ context.Context, state string, now time.Time) (*models.OAuthState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.states[state]
	if !ok {
		return nil, models.ErrStateNotFound
	}
	if err := s.MarkUsed(now); err != nil {
		return nil, err
	}
	cp := *s
	return &cp, nil
}

func (r *fakeStateRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, s := range r.states {
		if s.UsedAt != nil || !now.Before(s.ExpiresAt) {
			delete(r.states, k)
			n++
		}
	}
	return n, nil
}

// --- accounts ---

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*models.SocialAccount
	// posts, when set, mirrors the posts.account_id foreign key on Remove.
	posts *fakePostRepo
}

func newFakeAccountRepo(accounts ...*models.SocialAccount) *fakeAccountRepo {
	r := &fakeAccountRepo{accounts: map[uuid.UUID]*models.SocialAccount{}}
	for _, a := range accounts {
		r.accounts[a.ID] = a
	}
	return r
}

func (r *fakeAccountRepo) Upsert(_ context.Context, sa *models.SocialAccount) (*models.SocialAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if existing.Platform == sa.Platform && existing.AccountID == sa.AccountID &&
			existing.UserID == sa.UserID && existing.OrgID == sa.OrgID {
			existing.AccountName = sa.AccountName
			existing.AccountUsername = sa.AccountUsername
			existing.ProfilePicture = sa.ProfilePicture
			existing.AccessToken = sa.AccessToken
			existing.TokenExpiresAt = sa.TokenExpiresAt
			existing.Status = sa.Status
			cp := *existing
			return &cp, nil
		}
	}
	cp := *sa
	r.accounts[sa.ID] = &cp
	out := cp
	return &out, nil
}

func (r *fakeAccountRepo) GetByID(_ context.Context, id uuid.UUID) (*models.SocialAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAccountRepo) ListByOwner(_ context.Context, p models.Principal) ([]*models.SocialAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.SocialAccount{}
	for _, a := range r.accounts {
		if p.CanAccess(a.UserID, a.OrgID) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) ListExpiring(_ context.Context, platform string, before time.Time) ([]*models.SocialAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.SocialAccount{}
	for _, a := range r.accounts {
		if a.Platform == platform && a.Status == models.AccountStatusActive && a.TokenExpiresAt.Before(before) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) SetToken(_ context.Context, id uuid.UUID, accessToken string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return models.ErrNotFound
	}
	a.AccessToken = accessToken
	a.TokenExpiresAt = expiresAt
	a.Status = models.AccountStatusActive
	return nil
}

func (r *fakeAccountRepo) SetStatus(_ context.Context, id uuid.UUID, status models.AccountStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return models.ErrNotFound
	}
	a.Status = status
	return nil
}

func (r *fakeAccountRepo) Remove(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[id]; !ok {
		return models.ErrNotFound
	}
	if r.posts != nil {
		if err := r.posts.removeForAccount(id); err != nil {
			return err
		}
	}
	delete(r.accounts, id)
	return nil
}

func (r *fakeAccountRepo) get(id uuid.UUID) *models.SocialAccount {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accounts[id]
}

// --- posts ---

type fakePostRepo struct {
	mu    sync.Mutex
	posts map[uuid.UUID]*models.Post
}

func newFakePostRepo(posts ...*models.Post) *fakePostRepo {
	r := &fakePostRepo{posts: map[uuid.UUID]*models.Post{}}
	for _, p := range posts {
		r.posts[p.ID] = p
	}
	return r
}

func (r *fakePostRepo) Create(_ context.Context, p *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.posts[p.ID] = &cp
	return nil
}

func (r *fakePostRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePostRepo) List(_ context.Context, owner models.Principal, f repository.PostFilter) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Post{}
	for _, p := range r.posts {
		if !owner.CanAccess(p.UserID, p.OrgID) {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakePostRepo) UpdatePending(_ context.Context, p *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.posts[p.ID]
	if !ok || existing.Status != models.PostStatusPending {
		return models.ErrInvalidTransition
	}
	cp := *p
	cp.Status = existing.Status
	r.posts[p.ID] = &cp
	return nil
}

func (r *fakePostRepo) Transition(_ context.Context, id uuid.UUID, to models.PostStatus, from ...models.PostStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return models.ErrInvalidTransition
	}
	for _, f := range from {
		if p.Status == f && models.CanTransition(f, to) {
			p.Status = to
			return nil
		}
	}
	return models.ErrInvalidTransition
}

func (r *fakePostRepo) MarkPublished(_ context.Context, id uuid.UUID, mediaID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok || p.Status != models.PostStatusProcessing {
		return models.ErrInvalidTransition
	}
	p.Status = models.PostStatusPublished
	p.PublishedMediaID = mediaID
	p.PublishedAt = &at
	return nil
}

func (r *fakePostRepo) MarkFailed(_ context.Context, id uuid.UUID, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok || p.Status != models.PostStatusProcessing {
		return models.ErrInvalidTransition
	}
	p.Status = models.PostStatusFailed
	p.ErrorMessage = message
	return nil
}

func (r *fakePostRepo) ListDue(_ context.Context, now time.Time, limit int) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Post{}
	for _, p := range r.posts {
		if p.Due(now) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledFor.Before(out[j].ScheduledFor) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakePostRepo) CountInWindow(_ context.Context, accountID uuid.UUID, from, to time.Time, exclude uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.posts {
		if p.AccountID != accountID || p.ID == exclude {
			continue
		}
		switch p.Status {
		case models.PostStatusPending, models.PostStatusProcessing, models.PostStatusPublished:
		default:
			continue
		}
		if p.ScheduledFor.After(from) && p.ScheduledFor.Before(to) {
			n++
		}
	}
	return n, nil
}

func (r *fakePostRepo) FailStuck(_ context.Context, claimedBefore time.Time, message string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, p := range r.posts {
		if p.Status == models.PostStatusProcessing && p.UpdatedAt.Before(claimedBefore) {
			p.Status = models.PostStatusFailed
			p.ErrorMessage = message
			n++
		}
	}
	return n, nil
}

func (r *fakePostRepo) Remove(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok || !p.Status.Removable() {
		return models.ErrInvalidTransition
	}
	delete(r.posts, id)
	return nil
}

func (r *fakePostRepo) removeForAccount(accountID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.posts {
		if p.AccountID == accountID && !p.Status.Removable() {
			return models.ErrAccountHasPosts
		}
	}
	for id, p := range r.posts {
		if p.AccountID == accountID {
			delete(r.posts, id)
		}
	}
	return nil
}

func (r *fakePostRepo) get(id uuid.UUID) *models.Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *r.posts[id]
	return &cp
}

// --- containers ---

type fakeContainerRepo struct {
	mu         sync.Mutex
	containers map[uuid.UUID]*models.MediaContainer
	order      []uuid.UUID
}

func newFakeContainerRepo() *fakeContainerRepo {
	return &fakeContainerRepo{containers: map[uuid.UUID]*models.MediaContainer{}}
}

func (r *fakeContainerRepo) Create(_ context.Context, c *models.MediaContainer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.containers[c.ID] = &cp
	r.order = append(r.order, c.ID)
	return nil
}

func (r *fakeContainerRepo) GetByID(_ context.Context, id uuid.UUID) (*models.MediaContainer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.containers[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeContainerRepo) ListByPost(_ context.Context, postID uuid.UUID) ([]*models.MediaContainer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.MediaContainer{}
	for _, id := range r.order {
		if c := r.containers[id]; c.PostID == postID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeContainerRepo) UpdateStatus(_ context.Context, c *models.MediaContainer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.containers[c.ID]; !ok {
		return models.ErrNotFound
	}
	cp := *c
	r.containers[c.ID] = &cp
	return nil
}

func (r *fakeContainerRepo) ExpireStale(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, c := range r.containers {
		if !c.Status.Terminal() && !now.Before(c.ExpiresAt) {
			c.Status = models.ContainerStatusExpired
			n++
		}
	}
	return n, nil
}

// --- instagram ---

type fakeInstagram struct {
	mu sync.Mutex

	exchangeErr  error
	userInfo     *transfer.InstagramUserInfo
	refreshed    *transfer.InstagramToken
	refreshErr   error
	statuses     map[string][]string
	createErr    error
	publishErr   error
	limit        *transfer.PublishingLimit
	nextID       int
	created      []transfer.ContainerRequest
	published    []string
	exchangeCall int
}

func newFakeInstagram() *fakeInstagram {
	return &fakeInstagram{statuses: map[string][]string{}}
}

func (f *fakeInstagram) AuthCodeURL(state string) string {
	return "https://www.instagram.com/oauth/authorize?state=" + state
}

func (f *fakeInstagram) ExchangeCode(_ context.Context, code string) (*transfer.InstagramToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exchangeCall++
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return &transfer.InstagramToken{UserID: "17841400000", AccessToken: "long-" + code, ExpiresAt: testNow.Add(60 * 24 * time.Hour)}, nil
}

func (f *fakeInstagram) RefreshToken(_ context.Context, accessToken string) (*transfer.InstagramToken, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	if f.refreshed != nil {
		return f.refreshed, nil
	}
	return &transfer.InstagramToken{AccessToken: accessToken + "-refreshed", ExpiresAt: testNow.Add(60 * 24 * time.Hour)}, nil
}

func (f *fakeInstagram) UserInfo(_ context.Context, _ string) (*transfer.InstagramUserInfo, error) {
	if f.userInfo != nil {
		cp := *f.userInfo
		return &cp, nil
	}
	return &transfer.InstagramUserInfo{UserID: "17841400000", Username: "shop", Name: "Shop"}, nil
}

func (f *fakeInstagram) CreateContainer(_ context.Context, _, _ string, req transfer.ContainerRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.nextID++
	f.created = append(f.created, req)
	return fmt.Sprintf("c%d", f.nextID), nil
}

func (f *fakeInstagram) ContainerStatus(_ context.Context, containerID, _ string) (*transfer.ContainerStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seq := f.statuses[containerID]
	if len(seq) == 0 {
		return &transfer.ContainerStatus{ID: containerID, StatusCode: "FINISHED"}, nil
	}
	code := seq[0]
	if len(seq) > 1 {
		f.statuses[containerID] = seq[1:]
	}
	return &transfer.ContainerStatus{ID: containerID, StatusCode: code, Status: code}, nil
}

func (f *fakeInstagram) Publish(_ context.Context, _, creationID, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return "", f.publishErr
	}
	f.published = append(f.published, creationID)
	return "media-" + creationID, nil
}

func (f *fakeInstagram) PublishingLimit(_ context.Context, _, _ string) (*transfer.PublishingLimit, error) {
	if f.limit != nil {
		return f.limit, nil
	}
	return &transfer.PublishingLimit{}, nil
}

// --- scheduling ---

type fakeScheduler struct {
	mu    sync.Mutex
	calls map[uuid.UUID]time.Time
	err   error
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{calls: map[uuid.UUID]time.Time{}}
}

func (s *fakeScheduler) SchedulePublish(_ context.Context, postID uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[postID] = at
	return s.err
}

// --- fixtures ---

func activeAccount(owner models.Principal) *models.SocialAccount {
	sealed, err := testCipher().Encrypt("ig-token")
	if err != nil {
		panic(err)
	}
	return &models.SocialAccount{
		ID:             uuid.New(),
		UserID:         owner.UserID,
		OrgID:          owner.OrgID,
		Platform:       models.PlatformInstagram,
		AccountID:      "17841400000",
		AccessToken:    sealed,
		TokenExpiresAt: testNow.Add(30 * 24 * time.Hour),
		Status:         models.AccountStatusActive,
	}
}

func pendingPost(account *models.SocialAccount, mediaType models.MediaType, urls ...string) *models.Post {
	return &models.Post{
		ID:           uuid.New(),
		UserID:       account.UserID,
		OrgID:        account.OrgID,
		AccountID:    account.ID,
		Caption:      "launch day #go",
		MediaURLs:    urls,
		MediaType:    mediaType,
		ScheduledFor: testNow.Add(-time.Minute),
		Timezone:     "UTC",
		Status:       models.PostStatusPending,
		CreatedAt:    testNow.Add(-time.Hour),
		UpdatedAt:    testNow.Add(-time.Hour),
	}
}
