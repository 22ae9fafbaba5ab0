// Package model はドメインモデルを定義する。
package model

// Role はユーザーの権限ロールを表す閉じた列挙型。
// 文字列比較のアドホックなロール判定を避け、ルーティング層の
// 許可リストチェックで使用する。
type Role string

const (
	// RoleCustomer は一般顧客。保険申込・支払い・請求を行う。
	RoleCustomer Role = "customer"
	// RoleAgent はエージェント。担当申込の審査とブログ執筆を行う。
	RoleAgent Role = "agent"
	// RoleAdmin は管理者。全リソースの管理を行う。
	RoleAdmin Role = "admin"
)

// Valid はロールが定義済みのいずれかであることを検証する。
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleAgent, RoleAdmin:
		return true
	}
	return false
}

// ParseRole は文字列からRoleを解析する。未定義の値の場合はfalseを返す。
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}
