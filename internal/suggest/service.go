// Package suggest は届出に対するマッチ候補の提案機能を提供する。
//
// キーワード検索と基準届出からの検索の2モードがあり、どちらも候補プールを
// スコア算出→閾値で除外→スコア降順ソート→件数制限の順で処理する。
package suggest

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hitoshi/lostfound/internal/metrics"
	"github.com/hitoshi/lostfound/internal/model"
	"github.com/hitoshi/lostfound/internal/repository"
	"github.com/hitoshi/lostfound/internal/similarity"
)

// Options は候補提案の件数・閾値・並列数の設定。
type Options struct {
	MinScore     float64 // 既定の最小スコア。リクエストで上書きできる
	DefaultLimit int
	MaxLimit     int
	PoolLimit    int // 1リクエストで評価する候補の上限
	Concurrency  int // スコア算出の最大並列数
}

// DefaultOptions はデフォルトの設定を返す。
func DefaultOptions() Options {
	return Options{
		MinScore:     0.5,
		DefaultLimit: 12,
		MaxLimit:     50,
		PoolLimit:    500,
		Concurrency:  8,
	}
}

// Request は候補提案の条件。ItemIDとQはどちらか一方のみを指定する。
type Request struct {
	ItemID   *int64
	Q        string
	Type     *model.ItemType // 検索する側の種別。候補はその反対側から選ぶ
	Location string
	Date     *time.Time
	Limit    int
	MinScore *float64
}

// Service は候補提案のサービス。
type Service struct {
	itemRepo repository.ItemRepository
	scorer   *similarity.Scorer
	metrics  metrics.MetricsCollector
	logger   *slog.Logger
	opts     Options
}

// NewService はServiceの新しいインスタンスを生成する。
// optsの0以下の値はDefaultOptionsの値で補う。
func NewService(
	itemRepo repository.ItemRepository,
	scorer *similarity.Scorer,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	opts Options,
) *Service {
	def := DefaultOptions()
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = def.DefaultLimit
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = def.MaxLimit
	}
	if opts.DefaultLimit > opts.MaxLimit {
		opts.DefaultLimit = opts.MaxLimit
	}
	if opts.PoolLimit <= 0 {
		opts.PoolLimit = def.PoolLimit
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = def.Concurrency
	}
	if opts.MinScore < 0 || opts.MinScore > 1 || math.IsNaN(opts.MinScore) {
		opts.MinScore = def.MinScore
	}
	return &Service{
		itemRepo: itemRepo,
		scorer:   scorer,
		metrics:  collector,
		logger:   logger,
		opts:     opts,
	}
}

// plan は検証済みリクエストから組み立てた検索計画。
type plan struct {
	mode      string
	query     similarity.Query
	filter    model.ItemFilter
	candType  *model.ItemType
	excludeID int64
	minScore  float64
	limit     int
}

// Suggest は条件に合うマッチ候補をスコア降順で返す。
// 候補が無い場合は空スライスを返し、エラーにはしない。
func (s *Service) Suggest(ctx context.Context, req Request) ([]model.MatchCandidate, error) {
	start := time.Now()

	p, err := s.buildPlan(ctx, req)
	if err != nil {
		return nil, err
	}

	pool, err := s.itemRepo.List(ctx, p.filter)
	if err != nil {
		return nil, fmt.Errorf("候補プールの取得に失敗しました: %w", err)
	}

	candidates, err := s.rank(ctx, p, pool)
	if err != nil {
		return nil, err
	}

	duration := time.Since(start)
	s.metrics.RecordSuggestion(p.mode, len(pool), len(candidates), duration)
	s.logger.Debug("候補提案が完了しました",
		slog.String("mode", p.mode),
		slog.Int("pool_size", len(pool)),
		slog.Int("returned", len(candidates)),
		slog.Float64("min_score", p.minScore),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return candidates, nil
}

// buildPlan はリクエストを検証し、モードに応じた検索計画を組み立てる。
func (s *Service) buildPlan(ctx context.Context, req Request) (*plan, error) {
	q := strings.TrimSpace(req.Q)
	hasItem := req.ItemID != nil
	if hasItem == (q != "") {
		return nil, model.NewInvalidQueryError("itemId と q はどちらか一方のみ指定してください")
	}

	minScore := s.opts.MinScore
	if req.MinScore != nil {
		v := *req.MinScore
		if math.IsNaN(v) || v < 0 || v > 1 {
			return nil, model.NewInvalidScoreError(v)
		}
		minScore = v
	}

	p := &plan{
		minScore: minScore,
		limit:    s.normalizeLimit(req.Limit),
		filter: model.ItemFilter{
			Statuses: []model.ItemStatus{model.ItemStatusOpen},
			Limit:    s.opts.PoolLimit,
		},
	}

	if !hasItem {
		p.mode = metrics.ModeKeyword
		p.query = similarity.Query{Text: q, Location: req.Location, Date: req.Date}
		if req.Type != nil {
			candType := req.Type.Opposite()
			p.candType = &candType
			p.filter.Type = &candType
		}
		return p, nil
	}

	base, err := s.itemRepo.FindByID(ctx, *req.ItemID)
	if err != nil {
		return nil, fmt.Errorf("基準届出の取得に失敗しました: %w", err)
	}
	if base == nil {
		return nil, model.NewItemNotFoundError(*req.ItemID)
	}

	opposite := base.Type.Opposite()
	if req.Type != nil && *req.Type != base.Type {
		return nil, model.NewInvalidRequestError(
			fmt.Sprintf("届出 %d は %s です（type=%s）", base.ID, base.Type, *req.Type))
	}

	p.mode = metrics.ModeBaseItem
	p.query = similarity.QueryFromItem(base)
	if loc := strings.TrimSpace(req.Location); loc != "" {
		p.query.Location = loc
	}
	if req.Date != nil {
		p.query.Date = req.Date
	}
	p.candType = &opposite
	p.filter.Type = &opposite
	p.excludeID = base.ID
	return p, nil
}

// normalizeLimit は0以下を既定値に、上限超過を上限に丸める。
func (s *Service) normalizeLimit(limit int) int {
	if limit <= 0 {
		return s.opts.DefaultLimit
	}
	if limit > s.opts.MaxLimit {
		return s.opts.MaxLimit
	}
	return limit
}

// eligible は候補として評価対象にするかを判定する。
func (p *plan) eligible(item *model.Item) bool {
	if item == nil || item.Status != model.ItemStatusOpen {
		return false
	}
	if p.excludeID != 0 && item.ID == p.excludeID {
		return false
	}
	if p.candType != nil && item.Type != *p.candType {
		return false
	}
	return true
}

// rank は候補プールのスコアを並列に算出し、閾値以上をソートして返す。
// semaphoreパターンで最大並列数を制御し、結果はインデックス位置に書き込む。
func (s *Service) rank(ctx context.Context, p *plan, pool []*model.Item) ([]model.MatchCandidate, error) {
	prepared := s.scorer.Prepare(p.query)
	scores := make([]float64, len(pool))

	sem := make(chan struct{}, s.opts.Concurrency)
	var wg sync.WaitGroup

dispatch:
	for i, item := range pool {
		if !p.eligible(item) {
			scores[i] = -1
			continue
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break dispatch
		}

		wg.Add(1)
		go func(i int, item *model.Item) {
			defer wg.Done()
			defer func() { <-sem }()
			scores[i] = prepared.Score(item)
		}(i, item)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates := make([]model.MatchCandidate, 0, len(pool))
	for i, item := range pool {
		if scores[i] < 0 || scores[i] < p.minScore {
			continue
		}
		candidates = append(candidates, model.MatchCandidate{Score: scores[i], Candidate: item})
	}

	sortCandidates(candidates)

	if len(candidates) > p.limit {
		candidates = candidates[:p.limit]
	}
	return candidates, nil
}

// sortCandidates はスコア降順、同点はreported_at降順、さらにID昇順で並べる。
func sortCandidates(c []model.MatchCandidate) {
	sort.SliceStable(c, func(i, j int) bool {
		a, b := c[i], c[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Candidate.ReportedAt.Equal(b.Candidate.ReportedAt) {
			return a.Candidate.ReportedAt.After(b.Candidate.ReportedAt)
		}
		return a.Candidate.ID < b.Candidate.ID
	})
}
