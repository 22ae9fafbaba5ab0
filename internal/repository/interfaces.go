// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/assuredlife/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByFirebaseUID はFirebase UIDでユーザーを検索する。見つからない場合はnilを返す。
	FindByFirebaseUID(ctx context.Context, firebaseUID string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// Upsert はFirebase UIDをキーにユーザーを作成または更新し、結果の行を返す。
	// 既存行にはemail・name・photo・last_loginを上書きし、新規行には
	// デフォルトロール（customer）を設定する。
	Upsert(ctx context.Context, user *model.User) (*model.User, error)

	// List は全ユーザーを返す。
	List(ctx context.Context) ([]*model.User, error)

	// UpdateRoleWithAgentCascade はユーザーのロールを更新し、対となるagentsレコードを
	// 同一トランザクションで連動更新する。agentへの昇格はstatus=approved、
	// agentからの降格はstatus=demoted（経験・専門分野は保持）、
	// それ以外のロールへの変更はagentsレコードを削除する。
	// ユーザーが存在しない場合はsql.ErrNoRowsを返す。
	UpdateRoleWithAgentCascade(ctx context.Context, id string, role model.Role) error

	// UpdateProfile は名前と（空でない場合のみ）写真URLを更新し、更新後の行を返す。
	// ユーザーが存在しない場合はnilを返す。
	UpdateProfile(ctx context.Context, id, name, photoURL string) (*model.User, error)

	// DeleteByID は指定IDのユーザーを削除する。存在しない場合はsql.ErrNoRowsを返す。
	DeleteByID(ctx context.Context, id string) error
}

// PolicyListFilter は保険商品一覧のフィルタ条件。
type PolicyListFilter struct {
	Category string // 空または"All"の場合は全カテゴリ
	Search   string // タイトルの部分一致（大文字小文字を区別しない）
	Page     int    // 1始まり
	Limit    int    // 0の場合はページネーションなしで全件
}

// PolicyRepository は保険商品データの永続化インターフェース。
type PolicyRepository interface {
	// FindByID は指定IDの保険商品を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Policy, error)

	// ListPopular は購入数の多い順に保険商品を返す。
	ListPopular(ctx context.Context, limit int) ([]*model.Policy, error)

	// List はフィルタ条件に一致する保険商品と総件数を返す。
	List(ctx context.Context, filter PolicyListFilter) ([]*model.Policy, int, error)

	// Create は保険商品を作成する。
	Create(ctx context.Context, policy *model.Policy) error

	// Update は保険商品を更新する。存在しない場合はsql.ErrNoRowsを返す。
	// purchase_countは更新対象に含まない。
	Update(ctx context.Context, policy *model.Policy) error

	// DeleteByID は指定IDの保険商品を削除する。存在しない場合はsql.ErrNoRowsを返す。
	DeleteByID(ctx context.Context, id string) error
}

// ApplicationWithDetails は申込に申込者・保険商品の表示情報を結合したビュー。
type ApplicationWithDetails struct {
	model.Application
	ApplicantName  string
	ApplicantEmail string
	PolicyTitle    string
}

// ApplicationRepository は保険申込データの永続化インターフェース。
type ApplicationRepository interface {
	// Create は申込を作成する。
	Create(ctx context.Context, app *model.Application) error

	// FindByID は指定IDの申込を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Application, error)

	// FindApprovedByUserAndPolicy はユーザーと保険商品に対する承認済み申込を検索する。
	// 見つからない場合はnilを返す。請求の前提条件チェックに使用する。
	FindApprovedByUserAndPolicy(ctx context.Context, userID, policyID string) (*model.Application, error)

	// ListAllWithDetails は全申込を申込者・保険商品情報付きで新しい順に返す。
	ListAllWithDetails(ctx context.Context) ([]ApplicationWithDetails, error)

	// ListByAgentWithDetails は指定エージェントに割り当てられた申込を返す。
	ListByAgentWithDetails(ctx context.Context, agentID string) ([]ApplicationWithDetails, error)

	// ListByUserWithDetails は指定ユーザーの申込を返す。
	ListByUserWithDetails(ctx context.Context, userID string) ([]ApplicationWithDetails, error)

	// Decide はPending状態の申込をApprovedまたはRejectedへ遷移させる。
	// Approvedへの遷移では同一トランザクション内で保険商品のpurchase_countを
	// ちょうど1回インクリメントする。対象がPendingでない（遷移競合を含む）場合は
	// sql.ErrNoRowsを返す。
	Decide(ctx context.Context, id string, status model.ApplicationStatus, feedback string) error

	// AssignAgent は申込に担当エージェントを割り当てる。再割り当ては上書きする。
	// 申込が存在しない場合はsql.ErrNoRowsを返す。
	AssignAgent(ctx context.Context, id, agentID string) error
}

// ClaimWithDetails は請求に保険商品・申込者の表示情報を結合したビュー。
type ClaimWithDetails struct {
	model.Claim
	PolicyTitle    string
	PolicyAmount   int64 // 補償上限額
	ApplicantName  string
	ApplicantEmail string
}

// ClaimRepository は保険金請求データの永続化インターフェース。
type ClaimRepository interface {
	// Create は請求を作成し、同一トランザクションで対応する申込の
	// claim_statusを請求ステータスへミラーする。
	Create(ctx context.Context, claim *model.Claim) error

	// FindByID は指定IDの請求を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Claim, error)

	// ListAllWithDetails は全請求を表示情報付きで新しい順に返す。
	ListAllWithDetails(ctx context.Context) ([]ClaimWithDetails, error)

	// ListByUserWithDetails は指定ユーザーの請求を返す。
	ListByUserWithDetails(ctx context.Context, userID string) ([]ClaimWithDetails, error)

	// UpdateStatus は請求ステータスを更新し、同一トランザクションで対応する申込の
	// claim_statusへ一方向ミラーする。請求が存在しない場合はsql.ErrNoRowsを返す。
	UpdateStatus(ctx context.Context, id string, status model.ClaimStatus) error
}

// TransactionWithDetails は取引にユーザー・保険商品の表示情報を結合したビュー。
type TransactionWithDetails struct {
	model.Transaction
	UserEmail   string
	PolicyTitle string
}

// TransactionRepository は決済取引データの永続化インターフェース。
type TransactionRepository interface {
	// Record は取引を記録する。transaction_idの一意制約により、記録済みの取引の
	// 再送は何も行わずfalseを返す（冪等）。successがtrueの場合は同一トランザクション内で
	// 申込をpayment_status=Paidへ進め、Pendingであればstatus=Approvedへ遷移させて
	// 保険商品のpurchase_countをインクリメントする。
	Record(ctx context.Context, txn *model.Transaction, success bool) (bool, error)

	// ListAllWithDetails は全取引を表示情報付きで新しい順に返す。
	ListAllWithDetails(ctx context.Context) ([]TransactionWithDetails, error)

	// ListByUserWithDetails は指定ユーザーの取引を返す。
	ListByUserWithDetails(ctx context.Context, userID string) ([]TransactionWithDetails, error)
}

// AgentWithUserInfo はエージェントにユーザーの表示情報を結合したビュー。
type AgentWithUserInfo struct {
	model.Agent
	Name     string
	PhotoURL string
	Email    string
}

// AgentRepository はエージェントデータの永続化インターフェース。
type AgentRepository interface {
	// FindByID は指定IDのエージェントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Agent, error)

	// Create はエージェント登録申請を作成する。
	Create(ctx context.Context, agent *model.Agent) error

	// ListByStatusWithUserInfo は指定ステータスのエージェントをユーザー情報付きで返す。
	// limitが0の場合は全件を返す。
	ListByStatusWithUserInfo(ctx context.Context, status model.AgentStatus, limit int) ([]AgentWithUserInfo, error)

	// Approve は登録申請を承認し、同一トランザクションで対応するユーザーの
	// ロールをagentへ更新する。申請が存在しない場合はsql.ErrNoRowsを返す。
	Approve(ctx context.Context, id string) error

	// Reject は登録申請を却下し、フィードバックを記録する。
	// 申請が存在しない場合はsql.ErrNoRowsを返す。
	Reject(ctx context.Context, id, feedback string) error
}

// BlogRepository はブログ記事データの永続化インターフェース。
type BlogRepository interface {
	// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Blog, error)

	// FindByIDIncrementVisit は指定IDの記事の閲覧数をインクリメントし、
	// 更新後の記事を返す。見つからない場合はnilを返す。
	FindByIDIncrementVisit(ctx context.Context, id string) (*model.Blog, error)

	// List はタイトル検索・ページネーション付きで記事と総件数を新しい順に返す。
	List(ctx context.Context, search string, page, limit int) ([]*model.Blog, int, error)

	// ListLatest は最新の記事を返す。
	ListLatest(ctx context.Context, limit int) ([]*model.Blog, error)

	// ListByAuthor は指定著者の記事を新しい順に返す。
	ListByAuthor(ctx context.Context, authorID string) ([]*model.Blog, error)

	// Create は記事を作成する。
	Create(ctx context.Context, blog *model.Blog) error

	// Update は記事のタイトル・本文・画像を更新する。存在しない場合はsql.ErrNoRowsを返す。
	Update(ctx context.Context, blog *model.Blog) error

	// DeleteByID は指定IDの記事を削除する。存在しない場合はsql.ErrNoRowsを返す。
	DeleteByID(ctx context.Context, id string) error
}

// ReviewRepository はレビューデータの永続化インターフェース。
type ReviewRepository interface {
	// ListLatest は最新のレビューを返す。
	ListLatest(ctx context.Context, limit int) ([]*model.Review, error)

	// Create はレビューを作成する。
	Create(ctx context.Context, review *model.Review) error
}

// FAQRepository はFAQデータの永続化インターフェース。
type FAQRepository interface {
	// List は全FAQを作成日の古い順に返す。
	List(ctx context.Context) ([]*model.FAQ, error)
}

// NewsletterRepository はニュースレター購読者データの永続化インターフェース。
type NewsletterRepository interface {
	// FindByEmail はメールアドレスで購読者を検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.NewsletterSubscriber, error)

	// Create は購読者を作成する。
	Create(ctx context.Context, sub *model.NewsletterSubscriber) error
}
