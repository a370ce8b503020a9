// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの権限ロールを表す。
type Role string

const (
	// RoleUser は一般ユーザー。
	RoleUser Role = "user"
	// RoleAdmin は物件とアカウントを管理できる管理者。
	RoleAdmin Role = "admin"
)

// User はサービス利用ユーザーを表す。
// PasswordHashはbcryptハッシュであり、APIレスポンスには含めない。
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin はユーザーが管理者ロールかどうかを返す。
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// AuthToken はBearerトークンによるログインセッションを表す。
// トークン本体は暗号的に安全なランダム値で、意味を持たない不透明文字列。
type AuthToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// BudgetRange は希望家賃の範囲を表す。
type BudgetRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Preferences はユーザーの物件検索条件を表す。
// 明示的な保存操作でのみ作成・更新される。
type Preferences struct {
	UserID       string
	Location     string
	Budget       BudgetRange
	PropertyType string
	MinBedrooms  int
	MinBathrooms int
	Features     []string
	UpdatedAt    time.Time
}

// Favorite はユーザーのお気に入り物件を表す。
type Favorite struct {
	UserID     string
	PropertyID string
	CreatedAt  time.Time
}
