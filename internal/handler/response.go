package handler

import (
	"time"

	"github.com/hitoshi/lostfound/internal/match"
	"github.com/hitoshi/lostfound/internal/model"
)

// dateLayout は日付パラメータとoccurredOnの形式。
const dateLayout = "2006-01-02"

// --- レスポンス型 ---

// itemSummaryResponse は届出のサマリーレスポンス。
type itemSummaryResponse struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	OccurredOn  *string   `json:"occurredOn"`
	ReportedAt  time.Time `json:"reportedAt"`
	Status      string    `json:"status"`
	PhotoURL    string    `json:"photoUrl,omitempty"`
}

// suggestionResponse は候補提案の1件分。
type suggestionResponse struct {
	Score     float64             `json:"score"`
	Candidate itemSummaryResponse `json:"candidate"`
}

// matchRecordResponse はマッチレコードのレスポンス。
type matchRecordResponse struct {
	ID          int64     `json:"id"`
	LostItemID  int64     `json:"lostItemId"`
	FoundItemID int64     `json:"foundItemId"`
	Score       float64   `json:"score"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// matchViewResponse はマッチ一覧の1件分。includeItems指定時のみ届出を埋め込む。
type matchViewResponse struct {
	matchRecordResponse
	LostItem  *itemSummaryResponse `json:"lostItem,omitempty"`
	FoundItem *itemSummaryResponse `json:"foundItem,omitempty"`
}

func toItemSummaryResponse(item *model.Item) itemSummaryResponse {
	resp := itemSummaryResponse{
		ID:          item.ID,
		Type:        string(item.Type),
		Title:       item.Title,
		Description: item.Description,
		Location:    item.Location,
		ReportedAt:  item.ReportedAt,
		Status:      string(item.Status),
		PhotoURL:    item.PhotoURL,
	}
	if item.OccurredOn != nil {
		s := item.OccurredOn.Format(dateLayout)
		resp.OccurredOn = &s
	}
	return resp
}

func toSuggestionResponses(candidates []model.MatchCandidate) []suggestionResponse {
	results := make([]suggestionResponse, len(candidates))
	for i, c := range candidates {
		results[i] = suggestionResponse{
			Score:     c.Score,
			Candidate: toItemSummaryResponse(c.Candidate),
		}
	}
	return results
}

func toMatchRecordResponse(rec *model.MatchRecord) matchRecordResponse {
	return matchRecordResponse{
		ID:          rec.ID,
		LostItemID:  rec.LostItemID,
		FoundItemID: rec.FoundItemID,
		Score:       rec.Score,
		Status:      string(rec.Status),
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
}

func toMatchViewResponses(views []match.MatchView, includeItems bool) []matchViewResponse {
	results := make([]matchViewResponse, len(views))
	for i, v := range views {
		results[i] = matchViewResponse{matchRecordResponse: toMatchRecordResponse(v.Record)}
		if !includeItems {
			continue
		}
		if v.LostItem != nil {
			lost := toItemSummaryResponse(v.LostItem)
			results[i].LostItem = &lost
		}
		if v.FoundItem != nil {
			found := toItemSummaryResponse(v.FoundItem)
			results[i].FoundItem = &found
		}
	}
	return results
}
