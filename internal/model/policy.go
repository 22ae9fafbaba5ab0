package model

import "time"

// Policy は保険商品の定義を表す。
// PurchaseCountは人気度の非正規化カウンタで、申込の承認時にのみ増加する。
type Policy struct {
	ID              string
	Title           string
	Category        string
	Description     string
	MinAge          int
	MaxAge          int
	CoverageMin     int64
	CoverageMax     int64
	DurationOptions []string
	BasePremiumRate float64
	PolicyImage     string
	PurchaseCount   int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
