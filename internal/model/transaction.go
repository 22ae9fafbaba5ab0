package model

import "time"

// TransactionStatusSucceeded は決済ゲートウェイの成功ステータス。
// この値のコールバックを受けた場合のみ申込をPaidへ進める。
const TransactionStatusSucceeded = "succeeded"

// Transaction は決済ゲートウェイのコールバック結果として記録される取引を表す。
// TransactionIDはゲートウェイ側の取引IDで、一意制約により再送を冪等化する。
type Transaction struct {
	ID            string
	UserID        string
	PolicyID      string
	ApplicationID string
	TransactionID string
	Amount        int64
	Currency      string
	Status        string
	PaymentMethod string
	CreatedAt     time.Time
}
