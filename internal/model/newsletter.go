package model

import "time"

// NewsletterSubscriber はニュースレター購読者を表す。
// メールアドレスは一意でなければならない。
type NewsletterSubscriber struct {
	ID           string
	Name         string
	Email        string
	SubscribedAt time.Time
}
