package similarity

import (
	"math"
	"time"

	"github.com/hitoshi/lostfound/internal/model"
)

// Query はスコア算出の基準となる検索条件。
// キーワード検索ではTextを、基準届出からの検索ではTitleとDescriptionを使う。
type Query struct {
	Text        string
	Title       string
	Description string
	Location    string
	Date        *time.Time
}

// QueryFromItem は届出から検索条件を組み立てる。
// 日付はOccurredOnを優先し、未設定の場合はReportedAtを使う。
func QueryFromItem(item *model.Item) Query {
	q := Query{
		Title:       item.Title,
		Description: item.Description,
		Location:    item.Location,
	}
	d := item.EventDate()
	if !d.IsZero() {
		q.Date = &d
	}
	return q
}

// Components はスコアの内訳。
type Components struct {
	Text     float64
	Location float64
	Date     float64
	Total    float64
}

// Scorer は3要素の加重和でマッチ度を算出する。
// 状態を持たないため、複数goroutineから同時に利用できる。
type Scorer struct {
	cfg Config
}

// New はScorerを生成する。設定が不正な場合はDefaultConfigを使う。
func New(cfg Config) *Scorer {
	if err := cfg.Validate(); err != nil {
		cfg = DefaultConfig()
	}
	return &Scorer{cfg: cfg}
}

// Config は使用中の設定を返す。
func (s *Scorer) Config() Config {
	return s.cfg
}

// Score はqとcandidateのマッチ度を[0,1]で返す。入力は変更しない。
func (s *Scorer) Score(q Query, candidate *model.Item) float64 {
	return s.Prepare(q).Score(candidate)
}

// Breakdown はスコアの内訳を返す。
func (s *Scorer) Breakdown(q Query, candidate *model.Item) Components {
	return s.Prepare(q).Breakdown(candidate)
}

// Prepare は検索条件のトークン化を1回だけ行ったPreparedQueryを返す。
// 同じ条件で多数の候補を評価する場合に使う。
func (s *Scorer) Prepare(q Query) *PreparedQuery {
	titleText := q.Title
	if titleText == "" {
		titleText = q.Text
	}
	return &PreparedQuery{
		scorer:   s,
		title:    tokenize(titleText),
		all:      tokenize(q.Title, q.Description, q.Text),
		location: normalizeLocation(q.Location),
		date:     q.Date,
	}
}

// PreparedQuery はトークン化済みの検索条件。生成後は不変。
type PreparedQuery struct {
	scorer   *Scorer
	title    tokenSet
	all      tokenSet
	location string
	date     *time.Time
}

// Score は候補のマッチ度を[0,1]で返す。
func (p *PreparedQuery) Score(candidate *model.Item) float64 {
	return p.Breakdown(candidate).Total
}

// Breakdown は候補に対するスコアの内訳を返す。
func (p *PreparedQuery) Breakdown(candidate *model.Item) Components {
	cfg := p.scorer.cfg

	c := Components{
		Text:     p.textScore(candidate),
		Location: p.scorer.locationScore(p.location, normalizeLocation(candidate.Location)),
		Date:     p.scorer.dateScore(p.date, candidate.EventDate()),
	}

	sum := cfg.TextWeight + cfg.LocationWeight + cfg.DateWeight
	total := (cfg.TextWeight*c.Text + cfg.LocationWeight*c.Location + cfg.DateWeight*c.Date) / sum
	c.Total = clamp01(total)
	return c
}

// textScore はタイトル同士の一致と、タイトル+本文全体の一致を重み付けして合算する。
// 本文側の項はタイトルの一致を下回らないため、無関係な本文が付いていても減点されない。
func (p *PreparedQuery) textScore(candidate *model.Item) float64 {
	cfg := p.scorer.cfg

	candTitle := tokenize(candidate.Title)
	candAll := union(candTitle, tokenize(candidate.Description))

	titleScore := overlap(p.title, candTitle)
	bodyScore := math.Max(titleScore, overlap(p.all, candAll))

	return (cfg.TitleWeight*titleScore + cfg.DescriptionWeight*bodyScore) /
		(cfg.TitleWeight + cfg.DescriptionWeight)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
