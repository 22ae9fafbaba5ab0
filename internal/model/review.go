package model

import "time"

// Review は顧客によるレビューを表す。
// 保険商品またはエージェントのいずれかに任意で紐付く。
// Ratingは1〜5の範囲でなければならない。
type Review struct {
	ID        string
	UserID    string
	UserName  string
	UserImage string
	Rating    int
	Message   string
	PolicyID  string
	AgentID   string
	CreatedAt time.Time
}
