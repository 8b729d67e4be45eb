package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/maheshrc27/igpublisher/internal/models"
)

const socialAccountColumns = `id, user_id, org_id, platform, account_id, account_name, account_username,
	profile_picture_url, access_token, token_expires_at, status, created_at, updated_at`

type SocialAccountRepository interface {
	Upsert(ctx context.Context, sa *models.SocialAccount) (*models.SocialAccount, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.SocialAccount, error)
	ListByOwner(ctx context.Context, p models.Principal) ([]*models.SocialAccount, error)
	ListExpiring(ctx context.Context, platform string, before time.Time) ([]*models.SocialAccount, error)
	SetToken(ctx context.Context, id uuid.UUID, accessToken string, expiresAt time.Time) error
	SetStatus(ctx context.Context, id uuid.UUID, status models.AccountStatus) error
	Remove(ctx context.Context, id uuid.UUID) error
}

type socialAccountRepository struct {
	db *sqlx.DB
}

func NewSocialAccountRepository(db *sqlx.DB) SocialAccountRepository {
	return &socialAccountRepository{db: db}
}

// Upsert inserts the account or refreshes the profile and token of the row
// already linked to the same owner. Reconnecting reactivates the account.
func (r *socialAccountRepository) Upsert(ctx context.Context, sa *models.SocialAccount) (*models.SocialAccount, error) {
	query := `
		INSERT INTO social_accounts (
			id, user_id, org_id, platform, account_id, account_name, account_username,
			profile_picture_url, access_token, token_expires_at, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (platform, account_id, user_id, org_id) DO UPDATE SET
			account_name = EXCLUDED.account_name,
			account_username = EXCLUDED.account_username,
			profile_picture_url = EXCLUDED.profile_picture_url,
			access_token = EXCLUDED.access_token,
			token_expires_at = EXCLUDED.token_expires_at,
			status = EXCLUDED.status,
			updated_at = NOW()
		RETURNING ` + socialAccountColumns

	var out models.SocialAccount
	err := r.db.GetContext(ctx, &out, query,
		sa.ID,
		sa.UserID,
		sa.OrgID,
		sa.Platform,
		sa.AccountID,
		sa.AccountName,
		sa.AccountUsername,
		sa.ProfilePicture,
		sa.AccessToken,
		sa.TokenExpiresAt,
		sa.Status,
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return &out, nil
}

func (r *socialAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.SocialAccount, error) {
	var sa models.SocialAccount
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE id = $1`
	if err := r.db.GetContext(ctx, &sa, query, id); err != nil {
		return nil, notFound(err)
	}
	return &sa, nil
}

func (r *socialAccountRepository) ListByOwner(ctx context.Context, p models.Principal) ([]*models.SocialAccount, error) {
	where, args := ownerClause(p, 1)
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE ` + where + ` ORDER BY created_at`

	accounts := []*models.SocialAccount{}
	if err := r.db.SelectContext(ctx, &accounts, query, args...); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return accounts, nil
}

// ListExpiring returns active accounts whose token expires before the given
// instant, including those already past expiry.
func (r *socialAccountRepository) ListExpiring(ctx context.Context, platform string, before time.Time) ([]*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + `
		FROM social_accounts
		WHERE platform = $1 AND status = $2 AND token_expires_at < $3
		ORDER BY token_expires_at`

	accounts := []*models.SocialAccount{}
	if err := r.db.SelectContext(ctx, &accounts, query, platform, models.AccountStatusActive, before); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return accounts, nil
}

func (r *socialAccountRepository) SetToken(ctx context.Context, id uuid.UUID, accessToken string, expiresAt time.Time) error {
	query := `
		UPDATE social_accounts
		SET access_token = $2, token_expires_at = $3, status = $4, updated_at = NOW()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, accessToken, expiresAt, models.AccountStatusActive)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return expectOne(res, models.ErrNotFound)
}

func (r *socialAccountRepository) SetStatus(ctx context.Context, id uuid.UUID, status models.AccountStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE social_accounts SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return expectOne(res, models.ErrNotFound)
}

// Remove deletes the account together with its PENDING, FAILED and CANCELLED
// posts. Accounts with published or publishing posts are refused with
// ErrAccountHasPosts; posts.account_id is ON DELETE RESTRICT, so a post claimed
// after the guard query also blocks the delete.
func (r *socialAccountRepository) Remove(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer tx.Rollback()

	kept := []models.PostStatus{models.PostStatusPublished, models.PostStatusProcessing}
	var count int
	guardQuery := `SELECT COUNT(*) FROM posts WHERE account_id = $1 AND status = ANY($2)`
	if err := tx.GetContext(ctx, &count, guardQuery, id, pq.Array(statusStrings(kept))); err != nil {
		slog.Info(err.Error())
		return err
	}
	if count > 0 {
		return models.ErrAccountHasPosts
	}

	postsQuery := `DELETE FROM posts WHERE account_id = $1 AND status = ANY($2)`
	if _, err := tx.ExecContext(ctx, postsQuery, id, pq.Array(statusStrings(models.RemovableStatuses))); err != nil {
		slog.Info(err.Error())
		return err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM social_accounts WHERE id = $1`, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
			return models.ErrAccountHasPosts
		}
		slog.Info(err.Error())
		return err
	}
	if err := expectOne(res, models.ErrNotFound); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
