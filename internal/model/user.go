// Package model はドメインモデルを定義する。
package model

import "time"

// User はストアの利用者アカウントを表す。
// ローカル登録（メール+パスワード）とGoogleログインの両方に対応する。
// PasswordHashはローカル登録ユーザーのみ、GoogleIDはGoogleログインユーザーのみ設定される。
// 初回のサインアップ/ログイン完了後は必ずどちらか一方が設定されている。
type User struct {
	ID             string
	Email          string
	PasswordHash   *string // Googleログインのみのユーザーでは未設定（nil）
	GoogleID       *string // ローカル登録のみのユーザーでは未設定（nil）
	Name           string
	Address        Address
	AddInfo        string
	Phone          []string
	IsAdmin        bool
	ProfileCreated bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Address はユーザーの配送先住所を表す。
type Address struct {
	Street string
	City   string
	State  string
}

// UserSummary は認証レスポンスでフロントエンドに返す最小限のユーザー情報。
// パスワードハッシュ等の内部情報は含まない。
type UserSummary struct {
	ID    string
	Email string
}

// Summary はUserからUserSummaryを生成する。
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Email: u.Email}
}

// GoogleProfile はGoogle OAuthプロバイダーから取得したプロフィール情報を表す。
type GoogleProfile struct {
	ProviderID string
	Email      string
	Name       string
}

// UserStat は管理者向けユーザー統計の1グループ分を表す。
// is_adminフラグごとのアカウント数を集計する。
type UserStat struct {
	IsAdmin bool
	Total   int
}
