// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの権限種別。
type Role string

const (
	// RoleUser は一般ユーザー。自分の倉庫のデータのみ参照できる。
	RoleUser Role = "user"
	// RoleAdmin は管理者。レポートでは倉庫を横断できる。
	RoleAdmin Role = "admin"
)

// User はサービス利用ユーザーを表す。
type User struct {
	ID           int64
	Username     string
	FullName     string
	PasswordHash string
	Warehouse    string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
}

// Principal は認証済みリクエストの主体を表す。
// 認証ミドルウェアが生成し、ハンドラーからサービス層へ明示的に渡される。
type Principal struct {
	UserID    int64
	Username  string
	Warehouse string
	Role      Role
}

// IsAdmin は管理者権限を持つかを返す。
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
