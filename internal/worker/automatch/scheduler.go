// Package automatch は未解決の紛失届に対するマッチ候補を定期的に登録するワーカーを提供する。
package automatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hitoshi/lostfound/internal/metrics"
	"github.com/hitoshi/lostfound/internal/model"
	"github.com/hitoshi/lostfound/internal/repository"
	"github.com/hitoshi/lostfound/internal/suggest"
)

// 1件の紛失届あたりに登録する候補の上限。
const suggestionsPerItem = 3

// Suggester は基準届出に対する候補提案のインターフェース。
type Suggester interface {
	Suggest(ctx context.Context, req suggest.Request) ([]model.MatchCandidate, error)
}

// MatchUpserter はマッチ登録のインターフェース。
type MatchUpserter interface {
	Upsert(ctx context.Context, lostItemID, foundItemID int64, score float64) (*model.MatchRecord, bool, error)
}

// Config はスケジューラの設定。
type Config struct {
	MinScore       float64 // 登録対象とする最低スコア
	MaxConcurrency int     // 同時に処理する紛失届の数
	BatchSize      int     // 1サイクルで処理する紛失届の上限
}

// Scheduler は自動マッチングのスケジューリングと並列制御を行う。
// ティッカーごとに未解決の紛失届を取得し、semaphoreパターンで最大並列数を制御しながら
// 候補提案とマッチ登録を実行する。
type Scheduler struct {
	itemRepo  repository.ItemRepository
	suggester Suggester
	matches   MatchUpserter
	metrics   metrics.MetricsCollector
	logger    *slog.Logger
	cfg       Config
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
// MaxConcurrencyが0以下の場合は4、BatchSizeが0以下の場合は200を使用する。
func NewScheduler(
	itemRepo repository.ItemRepository,
	suggester Suggester,
	matches MatchUpserter,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	cfg Config,
) *Scheduler {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 4
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 200
	}
	return &Scheduler{
		itemRepo:  itemRepo,
		suggester: suggester,
		matches:   matches,
		metrics:   collector,
		logger:    logger,
		cfg:       cfg,
	}
}

// Start は指定間隔のティッカーでスケジューラを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("自動マッチングを開始しました",
		slog.Duration("interval", interval),
		slog.Int("max_concurrency", s.cfg.MaxConcurrency),
		slog.Float64("min_score", s.cfg.MinScore),
	)

	// 起動直後に1回実行
	s.runAndLog(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("自動マッチングを停止しました")
			return
		case <-ticker.C:
			s.runAndLog(ctx)
		}
	}
}

func (s *Scheduler) runAndLog(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("自動マッチングサイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}
}

// Result は1サイクルの実行結果。
type Result struct {
	Items    int // 処理した紛失届の数
	Upserted int // 登録または更新したマッチの数
	Failed   int // 失敗した紛失届の数
}

// RunOnce は未解決の紛失届を1回取得し、並列で候補提案とマッチ登録を実行する。
// 届出ごとのエラーはログに記録し、サイクルは継続する。
// 既存のマッチは状態を保持したままスコアのみ更新されるため、却下済みの組が復活することはない。
func (s *Scheduler) RunOnce(ctx context.Context) (Result, error) {
	start := time.Now()

	lostType := model.ItemTypeLost
	items, err := s.itemRepo.List(ctx, model.ItemFilter{
		Type:     &lostType,
		Statuses: []model.ItemStatus{model.ItemStatusOpen},
		Limit:    s.cfg.BatchSize,
	})
	if err != nil {
		return Result{}, fmt.Errorf("list open lost items: %w", err)
	}

	if len(items) == 0 {
		s.logger.Info("自動マッチングの対象はありません")
		return Result{}, nil
	}

	var upserted, failed atomic.Int64

	// semaphoreパターンで並列数を制御
	sem := make(chan struct{}, s.cfg.MaxConcurrency)
	var wg sync.WaitGroup

	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{} // semaphore取得（ブロック）

		go func(it *model.Item) {
			defer wg.Done()
			defer func() { <-sem }() // semaphore解放

			n, err := s.processItem(ctx, it)
			upserted.Add(int64(n))
			if err != nil {
				failed.Add(1)
				s.logger.Error("自動マッチングに失敗しました",
					slog.Int64("item_id", it.ID),
					slog.String("error", err.Error()),
				)
			}
		}(item)
	}

	wg.Wait()

	duration := time.Since(start)
	res := Result{Items: len(items), Upserted: int(upserted.Load()), Failed: int(failed.Load())}
	s.metrics.RecordAutoMatchRun(res.Upserted, res.Failed, duration)

	s.logger.Info("自動マッチングサイクルが完了しました",
		slog.Int("item_count", res.Items),
		slog.Int("upserted", res.Upserted),
		slog.Int("failed", res.Failed),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return res, ctx.Err()
}

// processItem は1件の紛失届に対する候補を登録し、登録できた件数を返す。
func (s *Scheduler) processItem(ctx context.Context, item *model.Item) (int, error) {
	id := item.ID
	minScore := s.cfg.MinScore
	candidates, err := s.suggester.Suggest(ctx, suggest.Request{
		ItemID:   &id,
		Limit:    suggestionsPerItem,
		MinScore: &minScore,
	})
	if err != nil {
		return 0, fmt.Errorf("suggest: %w", err)
	}

	n := 0
	for _, c := range candidates {
		if _, _, err := s.matches.Upsert(ctx, item.ID, c.Candidate.ID, c.Score); err != nil {
			return n, fmt.Errorf("upsert match with found item %d: %w", c.Candidate.ID, err)
		}
		n++
	}
	return n, nil
}
