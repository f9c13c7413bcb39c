package handler

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/lostfound/internal/model"
	"github.com/hitoshi/lostfound/internal/suggest"
)

// SuggestionServiceInterface は候補提案ハンドラーが必要とするサービスインターフェース。
type SuggestionServiceInterface interface {
	Suggest(ctx context.Context, req suggest.Request) ([]model.MatchCandidate, error)
}

// SuggestionHandler は候補提案のHTTPハンドラー。
type SuggestionHandler struct {
	service SuggestionServiceInterface
}

// NewSuggestionHandler はSuggestionHandlerを生成する。
func NewSuggestionHandler(service SuggestionServiceInterface) *SuggestionHandler {
	return &SuggestionHandler{service: service}
}

// Suggest は条件に一致するマッチ候補を返す。
// GET /api/suggestions?itemId=&q=&type=&location=&date=YYYY-MM-DD&limit=&minScore=
func (h *SuggestionHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	req, err := parseSuggestionQuery(query)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if raw := query.Get("itemId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			handleServiceError(w, r, model.NewInvalidRequestError("itemId は正の整数で指定してください"))
			return
		}
		req.ItemID = &id
	}

	h.respond(w, r, req)
}

// SuggestForItem は指定した届出を基準にマッチ候補を返す。
// GET /api/items/{id}/suggestions?limit=&minScore=
func (h *SuggestionHandler) SuggestForItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		handleServiceError(w, r, model.NewInvalidRequestError("届出IDは正の整数で指定してください"))
		return
	}

	req, err := parseSuggestionQuery(r.URL.Query())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	req.ItemID = &id
	req.Q = ""

	h.respond(w, r, req)
}

func (h *SuggestionHandler) respond(w http.ResponseWriter, r *http.Request, req suggest.Request) {
	candidates, err := h.service.Suggest(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSuggestionResponses(candidates))
}

// parseSuggestionQuery はitemId以外のクエリパラメータを検証してRequestを組み立てる。
func parseSuggestionQuery(query url.Values) (suggest.Request, error) {
	req := suggest.Request{
		Q:        strings.TrimSpace(query.Get("q")),
		Location: strings.TrimSpace(query.Get("location")),
	}

	if raw := query.Get("type"); raw != "" {
		t, err := model.ParseItemType(raw)
		if err != nil {
			return req, model.NewInvalidTypeFilterError(raw)
		}
		req.Type = &t
	}

	if raw := query.Get("date"); raw != "" {
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			return req, model.NewInvalidRequestError("date は YYYY-MM-DD 形式で指定してください")
		}
		req.Date = &d
	}

	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return req, model.NewInvalidRequestError("limit は整数で指定してください")
		}
		req.Limit = limit
	}

	if raw := query.Get("minScore"); raw != "" {
		minScore, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return req, model.NewInvalidRequestError("minScore は0以上1以下の数値で指定してください")
		}
		req.MinScore = &minScore
	}

	return req, nil
}
