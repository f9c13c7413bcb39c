package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hitoshi/lostfound/internal/model"
)

const findActiveSessionQuery = `
SELECT user_id, role, expires_at, created_at
FROM sessions
WHERE id = $1 AND expires_at > $2`

// PostgresSessionRepo は認証システムが書き込むsessionsテーブルを参照する。
type PostgresSessionRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresSessionRepo はPostgresSessionRepoを生成する。
func NewPostgresSessionRepo(db *sql.DB) *PostgresSessionRepo {
	return &PostgresSessionRepo{db: db, now: time.Now}
}

// FindByID は有効期限内のセッションを返す。存在しないか期限切れの場合は (nil, nil)。
func (r *PostgresSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	s := model.Session{ID: id}
	var role sql.NullString

	err := r.db.QueryRowContext(ctx, findActiveSessionQuery, id, r.now().UTC()).
		Scan(&s.UserID, &role, &s.ExpiresAt, &s.CreatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("セッション %q の取得に失敗しました: %w", id, err)
	}

	s.Role = model.Role(role.String)
	return &s, nil
}

var _ SessionRepository = (*PostgresSessionRepo)(nil)
