package model

import "time"

// Blog はエージェントまたは管理者が執筆するブログ記事を表す。
// TotalVisitは記事詳細の取得ごとに増加する閲覧カウンタ。
type Blog struct {
	ID          string
	Title       string
	Content     string
	BlogImage   string
	AuthorID    string
	AuthorName  string
	PublishDate time.Time
	TotalVisit  int
	UpdatedAt   time.Time
}
