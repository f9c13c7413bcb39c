package model

import "time"

// Role は利用者の権限種別を表す。
type Role string

const (
	// RoleStudent は一般の学生ユーザー。
	RoleStudent Role = "student"
	// RoleAdmin はマッチの審査を行うスタッフ。
	RoleAdmin Role = "admin"
)

// Session は認証システムが発行したログインセッションを表す。
// このサービスからは参照のみ行う。
type Session struct {
	ID        string
	UserID    string
	Role      Role
	ExpiresAt time.Time
	CreatedAt time.Time
}
