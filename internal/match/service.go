// Package match はマッチレコードのライフサイクル（登録・確定・却下・一覧）を管理する。
//
//	pending ──Confirm──▶ confirmed（両届出を matched に更新）
//	   └─────Dismiss──▶ dismissed
//
// 終端状態同士の遷移は行わない。終端状態への再要求は現在のレコードを返して成功とする。
package match

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/hitoshi/lostfound/internal/metrics"
	"github.com/hitoshi/lostfound/internal/model"
	"github.com/hitoshi/lostfound/internal/repository"
)

// 一覧取得の件数制限
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// MatchView は一覧表示用のマッチ。includeItems指定時は両届出を含む。
type MatchView struct {
	Record    *model.MatchRecord
	LostItem  *model.Item
	FoundItem *model.Item
}

// Service はマッチのライフサイクルを管理するサービス。
type Service struct {
	matchRepo     repository.MatchRepository
	itemRepo      repository.ItemRepository
	statusUpdater repository.ItemStatusUpdater
	metrics       metrics.MetricsCollector
	logger        *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	matchRepo repository.MatchRepository,
	itemRepo repository.ItemRepository,
	statusUpdater repository.ItemStatusUpdater,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Service {
	return &Service{
		matchRepo:     matchRepo,
		itemRepo:      itemRepo,
		statusUpdater: statusUpdater,
		metrics:       collector,
		logger:        logger,
	}
}

// Upsert は紛失届と拾得届の組に対するマッチを登録する。
// 既存の組の場合はスコアのみ更新し、状態は変更しない。createdは新規作成時にtrueとなる。
func (s *Service) Upsert(ctx context.Context, lostItemID, foundItemID int64, score float64) (*model.MatchRecord, bool, error) {
	if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 || score > 1 {
		return nil, false, model.NewInvalidScoreError(score)
	}

	if err := s.checkItem(ctx, lostItemID, model.ItemTypeLost); err != nil {
		return nil, false, err
	}
	if err := s.checkItem(ctx, foundItemID, model.ItemTypeFound); err != nil {
		return nil, false, err
	}

	rec, created, err := s.matchRepo.Upsert(ctx, lostItemID, foundItemID, score)
	if err != nil {
		return nil, false, fmt.Errorf("マッチの登録に失敗しました: %w", err)
	}

	s.metrics.RecordMatchUpsert(created)
	s.logger.Info("マッチを登録しました",
		slog.Int64("match_id", rec.ID),
		slog.Int64("lost_item_id", lostItemID),
		slog.Int64("found_item_id", foundItemID),
		slog.Float64("score", score),
		slog.Bool("created", created),
		slog.String("status", string(rec.Status)),
	)
	return rec, created, nil
}

// checkItem は届出の存在と種別を検証する。
func (s *Service) checkItem(ctx context.Context, id int64, want model.ItemType) error {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("届出の取得に失敗しました: %w", err)
	}
	if item == nil {
		return model.NewItemNotFoundError(id)
	}
	if item.Type != want {
		return model.NewInvalidItemTypeError(id, want)
	}
	return nil
}

// Get は指定IDのマッチを返す。
func (s *Service) Get(ctx context.Context, id int64) (*model.MatchRecord, error) {
	rec, err := s.matchRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("マッチの取得に失敗しました: %w", err)
	}
	if rec == nil {
		return nil, model.NewMatchNotFoundError(id)
	}
	return rec, nil
}

// Confirm はマッチを確定し、両届出の状態をmatchedに更新する。
// すでに確定済みの場合も届出の状態更新は再実行するため、
// 前回の状態更新が失敗していてもリトライで完了できる。
// 却下済みの場合は何もせず現在のレコードを返す。
func (s *Service) Confirm(ctx context.Context, id int64) (*model.MatchRecord, error) {
	rec, err := s.transition(ctx, id, model.MatchStatusConfirmed)
	if err != nil {
		return nil, err
	}
	if rec.Status != model.MatchStatusConfirmed {
		return rec, nil
	}

	if err := s.statusUpdater.MarkMatched(ctx, rec.LostItemID, rec.FoundItemID); err != nil {
		return nil, fmt.Errorf("届出状態の更新に失敗しました: %w", err)
	}
	return rec, nil
}

// Dismiss はマッチを却下する。届出の状態は変更しない。
// 確定済みの場合は何もせず現在のレコードを返す。
func (s *Service) Dismiss(ctx context.Context, id int64) (*model.MatchRecord, error) {
	return s.transition(ctx, id, model.MatchStatusDismissed)
}

// transition はpendingからtoへの条件付き遷移を行い、遷移後（または現在）のレコードを返す。
// 他のリクエストが先に遷移させた場合は最新のレコードを読み直して返す。
func (s *Service) transition(ctx context.Context, id int64, to model.MatchStatus) (*model.MatchRecord, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status.IsTerminal() {
		if rec.Status != to {
			s.logger.Info("終端状態のマッチへの遷移要求を無視しました",
				slog.Int64("match_id", id),
				slog.String("status", string(rec.Status)),
				slog.String("requested", string(to)),
			)
		}
		return rec, nil
	}

	applied, err := s.matchRepo.UpdateStatus(ctx, id, model.MatchStatusPending, to)
	if err != nil {
		return nil, fmt.Errorf("マッチ状態の更新に失敗しました: %w", err)
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if applied {
		s.metrics.RecordMatchTransition(string(to))
		s.logger.Info("マッチの状態を更新しました",
			slog.Int64("match_id", id),
			slog.String("status", string(to)),
		)
	}
	return current, nil
}

// List はマッチを新しい順に返す。includeItemsがtrueの場合は両届出を付与する。
func (s *Service) List(ctx context.Context, filter model.MatchFilter, includeItems bool) ([]MatchView, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, model.NewInvalidStatusError(string(*filter.Status))
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultListLimit
	}
	if filter.Limit > MaxListLimit {
		filter.Limit = MaxListLimit
	}

	recs, err := s.matchRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("マッチ一覧の取得に失敗しました: %w", err)
	}

	views := make([]MatchView, len(recs))
	for i, rec := range recs {
		views[i] = MatchView{Record: rec}
	}
	if !includeItems || len(recs) == 0 {
		return views, nil
	}

	ids := make([]int64, 0, len(recs)*2)
	seen := make(map[int64]bool, len(recs)*2)
	for _, rec := range recs {
		for _, id := range []int64{rec.LostItemID, rec.FoundItemID} {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	items, err := s.itemRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("届出の一括取得に失敗しました: %w", err)
	}
	for i := range views {
		views[i].LostItem = items[views[i].Record.LostItemID]
		views[i].FoundItem = items[views[i].Record.FoundItemID]
	}
	return views, nil
}
