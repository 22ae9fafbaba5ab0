// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// 外部IdP（Firebase）のUIDと1対1で紐付き、ロールはDB側で管理する。
type User struct {
	ID          string
	FirebaseUID string
	Email       string
	Name        string
	PhotoURL    string
	Role        Role
	LastLogin   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
