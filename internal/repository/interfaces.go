// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/lostfound/internal/model"
)

// ItemRepository は届出データの参照インターフェース。
// 届出の作成・編集は届出管理側が所有するため、このサービスからは読み取りのみ行う。
type ItemRepository interface {
	// FindByID は指定IDの届出を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Item, error)

	// FindByIDs は指定IDの届出をまとめて取得する。存在しないIDはマップに含まれない。
	FindByIDs(ctx context.Context, ids []int64) (map[int64]*model.Item, error)

	// List は条件に合う届出をreported_at降順で取得する。
	List(ctx context.Context, filter model.ItemFilter) ([]*model.Item, error)
}

// ItemStatusUpdater はマッチ確定時の届出状態の更新インターフェース。
type ItemStatusUpdater interface {
	// MarkMatched は2件の届出をopenからmatchedに更新する。
	// open以外の届出は変更しない。何度呼び出しても結果は同じになる。
	MarkMatched(ctx context.Context, lostItemID, foundItemID int64) error
}

// MatchRepository はマッチレコードの永続化インターフェース。
type MatchRepository interface {
	// FindByID は指定IDのマッチを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.MatchRecord, error)

	// FindByPair は紛失届と拾得届の組でマッチを検索する。見つからない場合はnilを返す。
	FindByPair(ctx context.Context, lostItemID, foundItemID int64) (*model.MatchRecord, error)

	// Upsert は組に対するマッチを作成、または既存レコードのスコアを更新する。
	// 状態は変更しない。createdは新規作成された場合にtrueとなる。
	Upsert(ctx context.Context, lostItemID, foundItemID int64, score float64) (rec *model.MatchRecord, created bool, err error)

	// UpdateStatus は現在の状態がfromの場合に限りtoへ遷移させる。
	// 状態が一致せず更新されなかった場合はfalseを返す。
	UpdateStatus(ctx context.Context, id int64, from, to model.MatchStatus) (bool, error)

	// List は条件に合うマッチをcreated_at降順で取得する。
	List(ctx context.Context, filter model.MatchFilter) ([]*model.MatchRecord, error)
}

// SessionRepository はセッションデータの参照インターフェース。
// セッションは認証システムが発行する。
type SessionRepository interface {
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
}
