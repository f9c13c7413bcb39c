package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/lostfound/internal/model"
)

const matchColumns = `id, lost_item_id, found_item_id, score, status, created_at, updated_at`

// PostgresMatchRepo はPostgreSQLを使用したマッチリポジトリ。
type PostgresMatchRepo struct {
	db *sql.DB
}

// NewPostgresMatchRepo はPostgresMatchRepoを生成する。
func NewPostgresMatchRepo(db *sql.DB) *PostgresMatchRepo {
	return &PostgresMatchRepo{db: db}
}

func scanMatch(s rowScanner, extra ...any) (*model.MatchRecord, error) {
	rec := &model.MatchRecord{}
	var status string
	dest := append([]any{
		&rec.ID, &rec.LostItemID, &rec.FoundItemID, &rec.Score,
		&status, &rec.CreatedAt, &rec.UpdatedAt,
	}, extra...)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	rec.Status = model.MatchStatus(status)
	return rec, nil
}

// FindByID は指定IDのマッチを取得する。見つからない場合はnilを返す。
func (r *PostgresMatchRepo) FindByID(ctx context.Context, id int64) (*model.MatchRecord, error) {
	rec, err := scanMatch(r.db.QueryRowContext(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("マッチの取得に失敗しました: %w", err)
	}
	return rec, nil
}

// FindByPair は紛失届と拾得届の組でマッチを検索する。見つからない場合はnilを返す。
func (r *PostgresMatchRepo) FindByPair(ctx context.Context, lostItemID, foundItemID int64) (*model.MatchRecord, error) {
	rec, err := scanMatch(r.db.QueryRowContext(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE lost_item_id = $1 AND found_item_id = $2`,
		lostItemID, foundItemID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("組によるマッチの検索に失敗しました: %w", err)
	}
	return rec, nil
}

// Upsert は組に対するマッチを作成、または既存レコードのスコアを更新する。
// UNIQUE(lost_item_id, found_item_id)制約を利用したINSERT ON CONFLICTの1文で行うため、
// 同じ組への同時実行でもレコードは1件に収束する。
// xmax = 0 は挿入された行でのみ成立する。
func (r *PostgresMatchRepo) Upsert(ctx context.Context, lostItemID, foundItemID int64, score float64) (*model.MatchRecord, bool, error) {
	var created bool
	rec, err := scanMatch(r.db.QueryRowContext(ctx,
		`INSERT INTO matches (lost_item_id, found_item_id, score, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, now(), now())
		 ON CONFLICT (lost_item_id, found_item_id)
		 DO UPDATE SET score = EXCLUDED.score, updated_at = now()
		 RETURNING `+matchColumns+`, (xmax = 0) AS created`,
		lostItemID, foundItemID, score, string(model.MatchStatusPending),
	), &created)
	if err != nil {
		return nil, false, fmt.Errorf("マッチのUPSERTに失敗しました: %w", err)
	}
	return rec, created, nil
}

// UpdateStatus は現在の状態がfromの場合に限りtoへ遷移させる。
func (r *PostgresMatchRepo) UpdateStatus(ctx context.Context, id int64, from, to model.MatchStatus) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE matches SET status = $1, updated_at = now()
		 WHERE id = $2 AND status = $3`,
		string(to), id, string(from),
	)
	if err != nil {
		return false, fmt.Errorf("マッチ状態の更新に失敗しました: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("更新件数の取得に失敗しました: %w", err)
	}
	return n > 0, nil
}

// List は条件に合うマッチをcreated_at降順、id降順で取得する。
func (r *PostgresMatchRepo) List(ctx context.Context, filter model.MatchFilter) ([]*model.MatchRecord, error) {
	query := `SELECT ` + matchColumns + ` FROM matches`
	var args []any
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		query += fmt.Sprintf(" WHERE status = $%d", len(args))
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("マッチ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var recs []*model.MatchRecord
	for rows.Next() {
		rec, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("マッチの読み取りに失敗しました: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("マッチ一覧の取得中にエラーが発生しました: %w", err)
	}
	return recs, nil
}

// compile-time interface check
var _ MatchRepository = (*PostgresMatchRepo)(nil)
