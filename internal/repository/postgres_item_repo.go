package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/hitoshi/lostfound/internal/model"
)

const itemColumns = `id, type, title, description, location, occurred_on, reported_at, status, photo_url`

// PostgresItemRepo はPostgreSQLを使用した届出リポジトリ。
type PostgresItemRepo struct {
	db *sql.DB
}

// NewPostgresItemRepo はPostgresItemRepoを生成する。
func NewPostgresItemRepo(db *sql.DB) *PostgresItemRepo {
	return &PostgresItemRepo{db: db}
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(s rowScanner) (*model.Item, error) {
	item := &model.Item{}
	var itemType, status string
	var description, location, photoURL sql.NullString
	var occurredOn sql.NullTime

	if err := s.Scan(
		&item.ID, &itemType, &item.Title, &description, &location,
		&occurredOn, &item.ReportedAt, &status, &photoURL,
	); err != nil {
		return nil, err
	}

	item.Type = model.ItemType(itemType)
	item.Status = model.ItemStatus(status)
	item.Description = nullStringValue(description)
	item.Location = nullStringValue(location)
	item.PhotoURL = nullStringValue(photoURL)
	if occurredOn.Valid {
		item.OccurredOn = &occurredOn.Time
	}
	return item, nil
}

// FindByID は指定IDの届出を取得する。見つからない場合はnilを返す。
func (r *PostgresItemRepo) FindByID(ctx context.Context, id int64) (*model.Item, error) {
	item, err := scanItem(r.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("届出の取得に失敗しました: %w", err)
	}
	return item, nil
}

// FindByIDs は指定IDの届出をまとめて取得する。
func (r *PostgresItemRepo) FindByIDs(ctx context.Context, ids []int64) (map[int64]*model.Item, error) {
	result := make(map[int64]*model.Item, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("届出の一括取得に失敗しました: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("届出の読み取りに失敗しました: %w", err)
		}
		result[item.ID] = item
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("届出の一括取得中にエラーが発生しました: %w", err)
	}
	return result, nil
}

// List は条件に合う届出をreported_at降順、同時刻はid昇順で取得する。
func (r *PostgresItemRepo) List(ctx context.Context, filter model.ItemFilter) ([]*model.Item, error) {
	query, args := buildItemListQuery(filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("届出一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var items []*model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("届出の読み取りに失敗しました: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("届出一覧の取得中にエラーが発生しました: %w", err)
	}
	return items, nil
}

// buildItemListQuery はフィルタからSELECT文とパラメータを組み立てる。
func buildItemListQuery(filter model.ItemFilter) (string, []any) {
	var conds []string
	var args []any

	if filter.Type != nil {
		args = append(args, string(*filter.Type))
		conds = append(conds, fmt.Sprintf("type = $%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, pq.Array(statuses))
		conds = append(conds, fmt.Sprintf("status = ANY($%d)", len(args)))
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + itemColumns + ` FROM items`)
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	b.WriteString(" ORDER BY reported_at DESC, id ASC")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	return b.String(), args
}

// MarkMatched は2件の届出のうちopenのものをmatchedに更新する。
func (r *PostgresItemRepo) MarkMatched(ctx context.Context, lostItemID, foundItemID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE items SET status = $1, updated_at = now()
		 WHERE id IN ($2, $3) AND status = $4`,
		string(model.ItemStatusMatched), lostItemID, foundItemID, string(model.ItemStatusOpen),
	)
	if err != nil {
		return fmt.Errorf("届出状態の更新に失敗しました: %w", err)
	}
	return nil
}

// nullString は空文字列をsql.NullStringに変換する。
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue はsql.NullStringから文字列を取得する。
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// compile-time interface check
var (
	_ ItemRepository    = (*PostgresItemRepo)(nil)
	_ ItemStatusUpdater = (*PostgresItemRepo)(nil)
)
