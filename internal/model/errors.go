// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, policy, application, claim, payment, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized         = "UNAUTHORIZED"
	ErrCodeForbidden            = "FORBIDDEN"
	ErrCodeInvalidRequest       = "INVALID_REQUEST"
	ErrCodeInvalidRole          = "INVALID_ROLE"
	ErrCodeInvalidRating        = "INVALID_RATING"
	ErrCodeInvalidStatus        = "INVALID_STATUS"
	ErrCodeInvalidTransition    = "INVALID_STATUS_TRANSITION"
	ErrCodeInvalidAgent         = "INVALID_AGENT"
	ErrCodeUserNotFound         = "USER_NOT_FOUND"
	ErrCodePolicyNotFound       = "POLICY_NOT_FOUND"
	ErrCodeApplicationNotFound  = "APPLICATION_NOT_FOUND"
	ErrCodeClaimNotFound        = "CLAIM_NOT_FOUND"
	ErrCodeBlogNotFound         = "BLOG_NOT_FOUND"
	ErrCodeAgentAppNotFound     = "AGENT_APPLICATION_NOT_FOUND"
	ErrCodeNoApprovedPolicy     = "NO_APPROVED_POLICY"
	ErrCodeAlreadySubscribed    = "ALREADY_SUBSCRIBED"
	ErrCodeNotBlogAuthor        = "NOT_BLOG_AUTHOR"
	ErrCodePaymentIntentFailure = "PAYMENT_INTENT_FAILURE"
)

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewPolicyNotFoundError は保険商品が見つからない場合のエラーを生成する。
func NewPolicyNotFoundError(policyID string) *APIError {
	return &APIError{
		Code:     ErrCodePolicyNotFound,
		Message:  fmt.Sprintf("指定された保険商品が見つかりません: %s", policyID),
		Category: "policy",
		Action:   "保険商品IDを確認してください。",
	}
}

// NewApplicationNotFoundError は申込が見つからない場合のエラーを生成する。
func NewApplicationNotFoundError(applicationID string) *APIError {
	return &APIError{
		Code:     ErrCodeApplicationNotFound,
		Message:  fmt.Sprintf("指定された申込が見つかりません: %s", applicationID),
		Category: "application",
		Action:   "申込IDを確認してください。",
	}
}

// NewClaimNotFoundError は請求が見つからない場合のエラーを生成する。
func NewClaimNotFoundError(claimID string) *APIError {
	return &APIError{
		Code:     ErrCodeClaimNotFound,
		Message:  fmt.Sprintf("指定された請求が見つかりません: %s", claimID),
		Category: "claim",
		Action:   "請求IDを確認してください。",
	}
}

// NewBlogNotFoundError はブログ記事が見つからない場合のエラーを生成する。
func NewBlogNotFoundError(blogID string) *APIError {
	return &APIError{
		Code:     ErrCodeBlogNotFound,
		Message:  fmt.Sprintf("指定されたブログ記事が見つかりません: %s", blogID),
		Category: "validation",
		Action:   "記事IDを確認してください。",
	}
}

// NewAgentApplicationNotFoundError はエージェント登録申請が見つからない場合のエラーを生成する。
func NewAgentApplicationNotFoundError(agentID string) *APIError {
	return &APIError{
		Code:     ErrCodeAgentAppNotFound,
		Message:  fmt.Sprintf("指定されたエージェント登録申請が見つかりません: %s", agentID),
		Category: "validation",
		Action:   "申請IDを確認してください。",
	}
}

// NewInvalidRoleError は未定義のロールが指定された場合のエラーを生成する。
func NewInvalidRoleError(role string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRole,
		Message:  fmt.Sprintf("無効なロールです: %s", role),
		Category: "validation",
		Action:   "ロールには customer、agent、admin のいずれかを指定してください。",
	}
}

// NewInvalidRatingError は評価値が範囲外の場合のエラーを生成する。
func NewInvalidRatingError(rating int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRating,
		Message:  fmt.Sprintf("無効な評価値です: %d", rating),
		Category: "validation",
		Action:   "評価は1から5の範囲で指定してください。",
	}
}

// NewInvalidStatusError は未定義のステータスが指定された場合のエラーを生成する。
func NewInvalidStatusError(status string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidStatus,
		Message:  fmt.Sprintf("無効なステータスです: %s", status),
		Category: "validation",
		Action:   "指定可能なステータスを確認してください。",
	}
}

// NewInvalidTransitionError は許可されない状態遷移のエラーを生成する。
// 申込ステータスは Pending → Approved | Rejected の前方向にのみ進む。
func NewInvalidTransitionError(from, to string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidTransition,
		Message:  fmt.Sprintf("許可されないステータス遷移です: %s → %s", from, to),
		Category: "application",
		Action:   "審査済みの申込のステータスは変更できません。",
	}
}

// NewInvalidAgentError は割り当て先がエージェントでない場合のエラーを生成する。
func NewInvalidAgentError(agentID string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidAgent,
		Message:  fmt.Sprintf("無効なエージェントIDです: %s", agentID),
		Category: "application",
		Action:   "ロールがagentのユーザーIDを指定してください。",
	}
}

// NewNoApprovedPolicyError は承認済み申込が存在しない保険商品への請求エラーを生成する。
func NewNoApprovedPolicyError() *APIError {
	return &APIError{
		Code:     ErrCodeNoApprovedPolicy,
		Message:  "この保険商品に対する承認済みの申込が存在しません。",
		Category: "claim",
		Action:   "承認され購入済みの保険商品に対してのみ請求できます。",
	}
}

// NewAlreadySubscribedError はニュースレターの重複購読エラーを生成する。
func NewAlreadySubscribedError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadySubscribed,
		Message:  "このメールアドレスは既にニュースレターを購読しています。",
		Category: "validation",
		Action:   "別のメールアドレスを指定してください。",
	}
}

// NewNotBlogAuthorError はブログ記事の著者でも管理者でもないユーザーによる変更エラーを生成する。
func NewNotBlogAuthorError() *APIError {
	return &APIError{
		Code:     ErrCodeNotBlogAuthor,
		Message:  "この記事を変更する権限がありません。",
		Category: "auth",
		Action:   "自分が執筆した記事のみ変更できます。",
	}
}
