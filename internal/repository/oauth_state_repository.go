package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/maheshrc27/igpublisher/internal/models"
)

type OAuthStateRepository interface {
	Create(ctx context.Context, s *models.OAuthState) error
	Consume(ctx context.Context, state string, now time.Time) (*models.OAuthState, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type oauthStateRepository struct {
	db *sqlx.DB
}

func NewOAuthStateRepository(db *sqlx.DB) OAuthStateRepository {
	return &oauthStateRepository{db: db}
}

func (r *oauthStateRepository) Create(ctx context.Context, s *models.OAuthState) error {
	query := `
		INSERT INTO oauth_states (id, state, user_id, org_id, platform, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query, s.ID, s.State, s.UserID, s.OrgID, s.Platform, s.CreatedAt, s.ExpiresAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// Consume locks the state row, marks it used and returns it. The row lock
// makes concurrent callbacks carrying the same state resolve to one winner.
func (r *oauthStateRepository) Consume(ctx context.Context, state string, now time.Time) (*models.OAuthState, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer tx.Rollback()

	var s models.OAuthState
	selectQuery := `
		SELECT id, state, user_id, org_id, platform, created_at, expires_at, used_at
		FROM oauth_states
		WHERE state = $1
		FOR UPDATE
	`
	if err := tx.GetContext(ctx, &s, selectQuery, state); err != nil {
		if err = notFound(err); err == models.ErrNotFound {
			return nil, models.ErrStateNotFound
		}
		return nil, err
	}

	if err := s.MarkUsed(now); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE oauth_states SET used_at = $1 WHERE id = $2`, s.UsedAt, s.ID); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return &s, nil
}

func (r *oauthStateRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM oauth_states WHERE expires_at <= $1 OR used_at IS NOT NULL`, now)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return res.RowsAffected()
}
