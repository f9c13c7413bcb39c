// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, not_found, auth, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// エラーカテゴリ
const (
	CategoryValidation = "validation"
	CategoryNotFound   = "not_found"
	CategoryAuth       = "auth"
	CategorySystem     = "system"
)

// 定義済みエラーコード
const (
	ErrCodeInvalidRequest  = "INVALID_REQUEST"
	ErrCodeInvalidQuery    = "INVALID_QUERY"
	ErrCodeInvalidItemType = "INVALID_ITEM_TYPE"
	ErrCodeInvalidScore    = "INVALID_SCORE"
	ErrCodeInvalidStatus   = "INVALID_STATUS"
	ErrCodeItemNotFound    = "ITEM_NOT_FOUND"
	ErrCodeMatchNotFound   = "MATCH_NOT_FOUND"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeRateLimited     = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// IsValidation はerrがバリデーションエラーかどうかを返す。
func IsValidation(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Category == CategoryValidation
}

// IsNotFound はerrが参照先未検出エラーかどうかを返す。
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Category == CategoryNotFound
}

// NewInvalidRequestError はリクエスト形式の不備を表すエラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: CategoryValidation,
		Action:   "リクエストの内容を確認してください。",
	}
}

// NewInvalidQueryError は検索条件（itemIdまたはq）が指定されていない場合のエラーを生成する。
func NewInvalidQueryError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidQuery,
		Message:  fmt.Sprintf("検索条件が不正です: %s", reason),
		Category: CategoryValidation,
		Action:   "itemId または q のどちらか一方を指定してください。",
	}
}

// NewInvalidItemTypeError は届出の種別が期待と異なる場合のエラーを生成する。
func NewInvalidItemTypeError(itemID int64, want ItemType) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidItemType,
		Message:  fmt.Sprintf("届出 %d は %s ではありません", itemID, want),
		Category: CategoryValidation,
		Action:   "lostItemId には紛失届、foundItemId には拾得届を指定してください。",
	}
}

// NewInvalidTypeFilterError は種別フィルタが不正な場合のエラーを生成する。
func NewInvalidTypeFilterError(value string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidItemType,
		Message:  fmt.Sprintf("無効な種別です: %s", value),
		Category: CategoryValidation,
		Action:   "type には lost または found を指定してください。",
	}
}

// NewInvalidScoreError はスコアが[0,1]の範囲外の場合のエラーを生成する。
func NewInvalidScoreError(score float64) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidScore,
		Message:  fmt.Sprintf("無効なスコアです: %v", score),
		Category: CategoryValidation,
		Action:   "スコアは0以上1以下の数値で指定してください。",
	}
}

// NewInvalidStatusError はマッチ状態の指定が不正な場合のエラーを生成する。
func NewInvalidStatusError(value string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidStatus,
		Message:  fmt.Sprintf("無効な状態です: %s", value),
		Category: CategoryValidation,
		Action:   "status には pending、confirmed、dismissed のいずれかを指定してください。",
	}
}

// NewItemNotFoundError は届出未検出エラーを生成する。
func NewItemNotFoundError(itemID int64) *APIError {
	return &APIError{
		Code:     ErrCodeItemNotFound,
		Message:  fmt.Sprintf("指定された届出が見つかりません: %d", itemID),
		Category: CategoryNotFound,
		Action:   "届出IDを確認してください。",
	}
}

// NewMatchNotFoundError はマッチ未検出エラーを生成する。
func NewMatchNotFoundError(matchID int64) *APIError {
	return &APIError{
		Code:     ErrCodeMatchNotFound,
		Message:  fmt.Sprintf("指定されたマッチが見つかりません: %d", matchID),
		Category: CategoryNotFound,
		Action:   "マッチIDを確認してください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: CategoryAuth,
		Action:   "ログインしてください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: CategoryAuth,
		Action:   "スタッフアカウントでログインしてください。",
	}
}

// NewRateLimitError はレート制限超過エラーを生成する。
func NewRateLimitError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "リクエストが多すぎます。",
		Category: CategorySystem,
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログのみに記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: CategorySystem,
		Action:   "しばらく待ってから再度お試しください。",
	}
}
