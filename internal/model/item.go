package model

import (
	"fmt"
	"strings"
	"time"
)

// ItemType は届出の種別（紛失/拾得）を表す。作成後は変更されない。
type ItemType string

const (
	// ItemTypeLost は紛失届。
	ItemTypeLost ItemType = "lost"
	// ItemTypeFound は拾得届。
	ItemTypeFound ItemType = "found"
)

// Opposite はマッチング相手となる種別を返す。
func (t ItemType) Opposite() ItemType {
	if t == ItemTypeLost {
		return ItemTypeFound
	}
	return ItemTypeLost
}

// Valid は定義済みの種別かどうかを返す。
func (t ItemType) Valid() bool {
	return t == ItemTypeLost || t == ItemTypeFound
}

// ParseItemType は外部入力の種別文字列を検証して返す。
// 大文字小文字と前後の空白は無視する。
func ParseItemType(s string) (ItemType, error) {
	t := ItemType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown item type: %q", s)
	}
	return t, nil
}

// ItemStatus は届出のライフサイクル状態を表す。
// 状態の変更はクレーム・返却ワークフロー側が所有する。
type ItemStatus string

const (
	// ItemStatusOpen は未解決の届出。マッチング候補になるのはこの状態のみ。
	ItemStatusOpen ItemStatus = "open"
	// ItemStatusMatched はマッチ確定済みの届出。
	ItemStatusMatched ItemStatus = "matched"
	// ItemStatusClaimed は持ち主が引き取りを申請済みの届出。
	ItemStatusClaimed ItemStatus = "claimed"
	// ItemStatusClosed は返却・破棄などで完了した届出。
	ItemStatusClosed ItemStatus = "closed"
)

// Item は紛失または拾得の届出を表す。
// マッチングエンジンからは読み取り専用として扱う。
type Item struct {
	ID          int64
	Type        ItemType
	Title       string
	Description string
	Location    string     // 自由入力（統制語彙なし）
	OccurredOn  *time.Time // 紛失/拾得した日。届出日時とは別
	ReportedAt  time.Time
	Status      ItemStatus
	PhotoURL    string
}

// EventDate は日付比較に使う日付を返す。
// OccurredOnが未設定の場合はReportedAtで代用する。
func (i *Item) EventDate() time.Time {
	if i.OccurredOn != nil {
		return *i.OccurredOn
	}
	return i.ReportedAt
}

// ItemFilter は候補プール取得時の絞り込み条件。
type ItemFilter struct {
	Type     *ItemType    // nilの場合は全種別
	Statuses []ItemStatus // 空の場合は全状態
	Limit    int          // 0以下は無制限
}
