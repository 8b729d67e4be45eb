package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/maheshrc27/igpublisher/internal/models"
)

// foreignKeyViolation is the postgres SQLSTATE for a failed FK check.
const foreignKeyViolation = "23503"

// ownerClause restricts a query to rows visible to the principal. Members of
// an organization see every row of that organization; users without one only
// see their personal rows. argPos is the placeholder index to use.
func ownerClause(p models.Principal, argPos int) (string, []any) {
	if p.OrgID != "" {
		return fmt.Sprintf("org_id = $%d", argPos), []any{p.OrgID}
	}
	return fmt.Sprintf("user_id = $%d AND org_id = ''", argPos), []any{p.UserID}
}

// notFound maps sql.ErrNoRows to models.ErrNotFound and logs anything else.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}
	slog.Info(err.Error())
	return err
}

func expectOne(res sql.Result, onZero error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected == 0 {
		return onZero
	}
	return nil
}
