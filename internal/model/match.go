package model

import (
	"fmt"
	"strings"
	"time"
)

// MatchStatus はマッチレコードの審査状態を表す。
//
//	pending ──confirm──▶ confirmed
//	   └─────dismiss──▶ dismissed
//
// confirmed と dismissed は終端状態で、pending に戻ることはない。
type MatchStatus string

const (
	// MatchStatusPending は審査待ち。作成時の初期状態。
	MatchStatusPending MatchStatus = "pending"
	// MatchStatusConfirmed はスタッフが同一物と確認した状態。
	MatchStatusConfirmed MatchStatus = "confirmed"
	// MatchStatusDismissed はスタッフが別物と判断した状態。
	MatchStatusDismissed MatchStatus = "dismissed"
)

// IsTerminal は終端状態かどうかを返す。
func (s MatchStatus) IsTerminal() bool {
	return s == MatchStatusConfirmed || s == MatchStatusDismissed
}

// Valid は定義済みの状態かどうかを返す。
func (s MatchStatus) Valid() bool {
	switch s {
	case MatchStatusPending, MatchStatusConfirmed, MatchStatusDismissed:
		return true
	}
	return false
}

// ParseMatchStatus は外部入力の状態文字列を検証して返す。
func ParseMatchStatus(s string) (MatchStatus, error) {
	st := MatchStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown match status: %q", s)
	}
	return st, nil
}

// MatchRecord は紛失届と拾得届の組に対する永続化済みマッチを表す。
// (LostItemID, FoundItemID) は自然キーで、組ごとに最大1件しか存在しない。
type MatchRecord struct {
	ID          int64
	LostItemID  int64
	FoundItemID int64
	Score       float64 // 作成/更新時点のスナップショット。再計算はしない
	Status      MatchStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MatchFilter はマッチ一覧の絞り込み条件。
type MatchFilter struct {
	Status *MatchStatus
	Limit  int
}

// MatchCandidate はスコアラーの出力で、永続化されない一時的な候補。
type MatchCandidate struct {
	Score     float64
	Candidate *Item
}
