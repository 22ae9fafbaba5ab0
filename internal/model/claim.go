package model

import "time"

// ClaimStatus は保険金請求の審査状態を表す。
type ClaimStatus string

const (
	// ClaimStatusPending は審査待ちの請求。
	ClaimStatusPending ClaimStatus = "Pending"
	// ClaimStatusApproved は承認された請求。
	ClaimStatusApproved ClaimStatus = "Approved"
	// ClaimStatusRejected は却下された請求。
	ClaimStatusRejected ClaimStatus = "Rejected"
)

// Valid はステータスが定義済みのいずれかであることを検証する。
func (s ClaimStatus) Valid() bool {
	switch s {
	case ClaimStatusPending, ClaimStatusApproved, ClaimStatusRejected:
		return true
	}
	return false
}

// Claim は承認済み申込に対する保険金請求を表す。
// 請求ステータスが変わるたびに、対応するApplicationのclaim_statusへ
// 一方向にミラーされる（請求側が信頼できる情報源）。
type Claim struct {
	ID            string
	UserID        string
	PolicyID      string
	ApplicationID string
	Reason        string
	Documents     []string
	Status        ClaimStatus
	SubmittedAt   time.Time
	UpdatedAt     time.Time
}
