package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/lostfound/internal/match"
	"github.com/hitoshi/lostfound/internal/model"
)

// maxRequestBodySize はマッチ登録リクエストのボディ上限。
const maxRequestBodySize = 1 << 16

// MatchServiceInterface はマッチハンドラーが必要とするサービスインターフェース。
type MatchServiceInterface interface {
	Upsert(ctx context.Context, lostItemID, foundItemID int64, score float64) (*model.MatchRecord, bool, error)
	Get(ctx context.Context, id int64) (*model.MatchRecord, error)
	Confirm(ctx context.Context, id int64) (*model.MatchRecord, error)
	Dismiss(ctx context.Context, id int64) (*model.MatchRecord, error)
	List(ctx context.Context, filter model.MatchFilter, includeItems bool) ([]match.MatchView, error)
}

// MatchHandler はマッチ審査のHTTPハンドラー。
type MatchHandler struct {
	service MatchServiceInterface
}

// NewMatchHandler はMatchHandlerを生成する。
func NewMatchHandler(service MatchServiceInterface) *MatchHandler {
	return &MatchHandler{service: service}
}

// upsertMatchRequest はマッチ登録リクエストのボディ。
type upsertMatchRequest struct {
	LostItemID  *int64   `json:"lostItemId"`
	FoundItemID *int64   `json:"foundItemId"`
	Score       *float64 `json:"score"`
}

// ListMatches はマッチ一覧を返す。
// GET /api/matches?status=&limit=&includeItems=true
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var filter model.MatchFilter

	if raw := query.Get("status"); raw != "" {
		st, err := model.ParseMatchStatus(raw)
		if err != nil {
			handleServiceError(w, r, model.NewInvalidStatusError(raw))
			return
		}
		filter.Status = &st
	}

	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			handleServiceError(w, r, model.NewInvalidRequestError("limit は整数で指定してください"))
			return
		}
		filter.Limit = limit
	}

	includeItems := false
	if raw := query.Get("includeItems"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			handleServiceError(w, r, model.NewInvalidRequestError("includeItems は true または false で指定してください"))
			return
		}
		includeItems = v
	}

	views, err := h.service.List(r.Context(), filter, includeItems)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMatchViewResponses(views, includeItems))
}

// GetMatch はマッチを1件返す。
// GET /api/matches/{id}
func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := matchIDParam(w, r)
	if !ok {
		return
	}

	rec, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMatchRecordResponse(rec))
}

// UpsertMatch は紛失届と拾得届の組をマッチとして登録する。
// 新規作成時は201、既存の組のスコア更新時は200を返す。
// POST /api/matches
func (h *MatchHandler) UpsertMatch(w http.ResponseWriter, r *http.Request) {
	var body upsertMatchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	if err := dec.Decode(&body); err != nil {
		handleServiceError(w, r, model.NewInvalidRequestError("リクエストボディのJSONが不正です"))
		return
	}
	if body.LostItemID == nil || body.FoundItemID == nil || body.Score == nil {
		handleServiceError(w, r, model.NewInvalidRequestError("lostItemId、foundItemId、score は必須です"))
		return
	}

	rec, created, err := h.service.Upsert(r.Context(), *body.LostItemID, *body.FoundItemID, *body.Score)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, toMatchRecordResponse(rec))
}

// ConfirmMatch はマッチを確定する。
// POST /api/matches/{id}/confirm
func (h *MatchHandler) ConfirmMatch(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Confirm)
}

// DismissMatch はマッチを却下する。
// POST /api/matches/{id}/dismiss
func (h *MatchHandler) DismissMatch(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Dismiss)
}

func (h *MatchHandler) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context, int64) (*model.MatchRecord, error)) {
	id, ok := matchIDParam(w, r)
	if !ok {
		return
	}

	rec, err := fn(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMatchRecordResponse(rec))
}

// matchIDParam はURLパスのマッチIDを解析する。不正な場合はエラーレスポンスを書き込みfalseを返す。
func matchIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		handleServiceError(w, r, model.NewInvalidRequestError("マッチIDは正の整数で指定してください"))
		return 0, false
	}
	return id, true
}
