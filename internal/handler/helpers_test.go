package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/lostfound/internal/match"
	"github.com/hitoshi/lostfound/internal/model"
	"github.com/hitoshi/lostfound/internal/suggest"
)

// --- モック定義 ---

// mockSuggestionService はSuggestionServiceInterfaceのモック実装。
type mockSuggestionService struct {
	suggestFn func(ctx context.Context, req suggest.Request) ([]model.MatchCandidate, error)
}

func (m *mockSuggestionService) Suggest(ctx context.Context, req suggest.Request) ([]model.MatchCandidate, error) {
	if m.suggestFn != nil {
		return m.suggestFn(ctx, req)
	}
	return nil, nil
}

// mockMatchService はMatchServiceInterfaceのモック実装。
type mockMatchService struct {
	upsertFn  func(ctx context.Context, lostID, foundID int64, score float64) (*model.MatchRecord, bool, error)
	getFn     func(ctx context.Context, id int64) (*model.MatchRecord, error)
	confirmFn func(ctx context.Context, id int64) (*model.MatchRecord, error)
	dismissFn func(ctx context.Context, id int64) (*model.MatchRecord, error)
	listFn    func(ctx context.Context, filter model.MatchFilter, includeItems bool) ([]match.MatchView, error)
}

func (m *mockMatchService) Upsert(ctx context.Context, lostID, foundID int64, score float64) (*model.MatchRecord, bool, error) {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, lostID, foundID, score)
	}
	return nil, false, nil
}

func (m *mockMatchService) Get(ctx context.Context, id int64) (*model.MatchRecord, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, nil
}

func (m *mockMatchService) Confirm(ctx context.Context, id int64) (*model.MatchRecord, error) {
	if m.confirmFn != nil {
		return m.confirmFn(ctx, id)
	}
	return nil, nil
}

func (m *mockMatchService) Dismiss(ctx context.Context, id int64) (*model.MatchRecord, error) {
	if m.dismissFn != nil {
		return m.dismissFn(ctx, id)
	}
	return nil, nil
}

func (m *mockMatchService) List(ctx context.Context, filter model.MatchFilter, includeItems bool) ([]match.MatchView, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter, includeItems)
	}
	return nil, nil
}

// --- テストヘルパー ---

var testReportedAt = time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

func testItem(id int64, typ model.ItemType, title string) *model.Item {
	occurred := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	return &model.Item{
		ID:          id,
		Type:        typ,
		Title:       title,
		Description: "black, with a sticker",
		Location:    "Library",
		OccurredOn:  &occurred,
		ReportedAt:  testReportedAt,
		Status:      model.ItemStatusOpen,
	}
}

func testRecord(id int64, status model.MatchStatus) *model.MatchRecord {
	return &model.MatchRecord{
		ID: id, LostItemID: 1, FoundItemID: 2, Score: 0.8, Status: status,
		CreatedAt: testReportedAt, UpdatedAt: testReportedAt,
	}
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// parseAPIErrorResponse はレスポンスボディからAPIErrorレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}
