// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// PasswordHashにはbcryptハッシュを保持し、平文パスワードは保存しない。
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Email        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session はユーザーのログインセッションを表す。
// IDはクライアントにCookieとして渡される不透明なトークン。
type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}
