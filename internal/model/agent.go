package model

import "time"

// AgentStatus はエージェント登録申請・プロフィールの状態を表す。
type AgentStatus string

const (
	// AgentStatusPending は審査待ちの登録申請。
	AgentStatusPending AgentStatus = "pending"
	// AgentStatusApproved は承認済みエージェント。User.Role=agentの間のみ有効。
	AgentStatusApproved AgentStatus = "approved"
	// AgentStatusRejected は却下された登録申請。
	AgentStatusRejected AgentStatus = "rejected"
	// AgentStatusDemoted はロール降格により無効化されたエージェント。
	// 経験・専門分野は保持される。
	AgentStatusDemoted AgentStatus = "demoted"
)

// Agent はエージェントのプロフィール兼登録申請を表す。
// Userと1対1で紐付く。
type Agent struct {
	ID          string
	UserID      string
	Experience  string
	Specialties []string
	Motivation  string
	Status      AgentStatus
	Feedback    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
