package model

import (
	"encoding/json"
	"time"
)

// ApplicationStatus は保険申込の審査状態を表す。
type ApplicationStatus string

const (
	// ApplicationStatusPending は審査待ち。
	ApplicationStatusPending ApplicationStatus = "Pending"
	// ApplicationStatusApproved は承認済み。
	ApplicationStatusApproved ApplicationStatus = "Approved"
	// ApplicationStatusRejected は却下済み。
	ApplicationStatusRejected ApplicationStatus = "Rejected"
)

// Valid はステータスが定義済みのいずれかであることを検証する。
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationStatusPending, ApplicationStatusApproved, ApplicationStatusRejected:
		return true
	}
	return false
}

// CanTransitionTo は公開APIで許可される前方向の遷移かを判定する。
// 許可される遷移は Pending → Approved | Rejected のみで、後戻りはできない。
func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	return s == ApplicationStatusPending &&
		(next == ApplicationStatusApproved || next == ApplicationStatusRejected)
}

// PaymentStatus は申込に対する保険料の支払い状態を表す。
type PaymentStatus string

const (
	// PaymentStatusDue は未払い。
	PaymentStatusDue PaymentStatus = "Due"
	// PaymentStatusPaid は支払い済み。決済ブリッジのみが設定する。
	PaymentStatusPaid PaymentStatus = "Paid"
)

// ClaimStatusNone は請求が存在しない申込のclaim_status初期値。
const ClaimStatusNone = "No Claim"

// Application は顧客による保険商品の購入申込を表す。
// 個人情報・受取人情報・健康告知はスキーマレスなJSONとして保持する。
type Application struct {
	ID               string
	UserID           string
	PolicyID         string
	PersonalData     json.RawMessage
	NomineeData      json.RawMessage
	HealthDisclosure json.RawMessage
	Status           ApplicationStatus
	PaymentStatus    PaymentStatus
	ClaimStatus      string
	Feedback         string
	AssignedAgentID  string
	SubmittedAt      time.Time
	UpdatedAt        time.Time
}
