package model

import "time"

// FAQ はよくある質問と回答を表す。
type FAQ struct {
	ID           string
	Question     string
	Answer       string
	HelpfulCount int
	CreatedAt    time.Time
}
