package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/assuredlife/internal/model"
)

// PostgresApplicationRepo はPostgreSQLを使用した保険申込リポジトリ。
type PostgresApplicationRepo struct {
	db *sql.DB
}

// NewPostgresApplicationRepo はPostgresApplicationRepoを生成する。
func NewPostgresApplicationRepo(db *sql.DB) *PostgresApplicationRepo {
	return &PostgresApplicationRepo{db: db}
}

const applicationColumns = `id, user_id, policy_id, personal_data, nominee_data, health_disclosure,
	        status, payment_status, claim_status, feedback, assigned_agent_id,
	        submitted_at, updated_at`

func scanApplicationRow(scan func(dest ...any) error, app *model.Application) error {
	var feedback, assignedAgentID sql.NullString
	err := scan(
		&app.ID, &app.UserID, &app.PolicyID,
		&app.PersonalData, &app.NomineeData, &app.HealthDisclosure,
		&app.Status, &app.PaymentStatus, &app.ClaimStatus,
		&feedback, &assignedAgentID,
		&app.SubmittedAt, &app.UpdatedAt,
	)
	if err != nil {
		return err
	}
	app.Feedback = nullStringValue(feedback)
	app.AssignedAgentID = nullStringValue(assignedAgentID)
	return nil
}

// Create は申込を作成する。
func (r *PostgresApplicationRepo) Create(ctx context.Context, app *model.Application) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO applications (id, user_id, policy_id, personal_data, nominee_data, health_disclosure,
		                           status, payment_status, claim_status, feedback, assigned_agent_id,
		                           submitted_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		app.ID, app.UserID, app.PolicyID,
		app.PersonalData, app.NomineeData, app.HealthDisclosure,
		app.Status, app.PaymentStatus, app.ClaimStatus,
		nullString(app.Feedback), nullString(app.AssignedAgentID),
		app.SubmittedAt, app.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("申込の作成に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDの申込を取得する。見つからない場合はnilを返す。
func (r *PostgresApplicationRepo) FindByID(ctx context.Context, id string) (*model.Application, error) {
	app := &model.Application{}
	row := r.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1`,
		id,
	)
	err := scanApplicationRow(row.Scan, app)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("申込の取得に失敗しました: %w", err)
	}
	return app, nil
}

// FindApprovedByUserAndPolicy はユーザーと保険商品に対する承認済み申込を検索する。
// 見つからない場合はnilを返す。
func (r *PostgresApplicationRepo) FindApprovedByUserAndPolicy(ctx context.Context, userID, policyID string) (*model.Application, error) {
	app := &model.Application{}
	row := r.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications
		 WHERE user_id = $1 AND policy_id = $2 AND status = $3
		 ORDER BY submitted_at DESC
		 LIMIT 1`,
		userID, policyID, model.ApplicationStatusApproved,
	)
	err := scanApplicationRow(row.Scan, app)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("承認済み申込の検索に失敗しました: %w", err)
	}
	return app, nil
}

const applicationDetailColumns = `a.id, a.user_id, a.policy_id, a.personal_data, a.nominee_data, a.health_disclosure,
	        a.status, a.payment_status, a.claim_status, a.feedback, a.assigned_agent_id,
	        a.submitted_at, a.updated_at,
	        u.name, u.email, p.title`

func (r *PostgresApplicationRepo) queryWithDetails(ctx context.Context, where string, args ...any) ([]ApplicationWithDetails, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+applicationDetailColumns+`
		 FROM applications a
		 INNER JOIN users u ON a.user_id = u.id
		 INNER JOIN policies p ON a.policy_id = p.id`+
			where+
			` ORDER BY a.submitted_at DESC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("申込一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var apps []ApplicationWithDetails
	for rows.Next() {
		var detail ApplicationWithDetails
		var feedback, assignedAgentID sql.NullString
		if err := rows.Scan(
			&detail.ID, &detail.UserID, &detail.PolicyID,
			&detail.PersonalData, &detail.NomineeData, &detail.HealthDisclosure,
			&detail.Status, &detail.PaymentStatus, &detail.ClaimStatus,
			&feedback, &assignedAgentID,
			&detail.SubmittedAt, &detail.UpdatedAt,
			&detail.ApplicantName, &detail.ApplicantEmail, &detail.PolicyTitle,
		); err != nil {
			return nil, fmt.Errorf("申込一覧の読み取りに失敗しました: %w", err)
		}
		detail.Feedback = nullStringValue(feedback)
		detail.AssignedAgentID = nullStringValue(assignedAgentID)
		apps = append(apps, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("申込一覧の走査に失敗しました: %w", err)
	}
	return apps, nil
}

// ListAllWithDetails は全申込を申込者・保険商品情報付きで新しい順に返す。
func (r *PostgresApplicationRepo) ListAllWithDetails(ctx context.Context) ([]ApplicationWithDetails, error) {
	return r.queryWithDetails(ctx, ``)
}

// ListByAgentWithDetails は指定エージェントに割り当てられた申込を返す。
func (r *PostgresApplicationRepo) ListByAgentWithDetails(ctx context.Context, agentID string) ([]ApplicationWithDetails, error) {
	return r.queryWithDetails(ctx, ` WHERE a.assigned_agent_id = $1`, agentID)
}

// ListByUserWithDetails は指定ユーザーの申込を返す。
func (r *PostgresApplicationRepo) ListByUserWithDetails(ctx context.Context, userID string) ([]ApplicationWithDetails, error) {
	return r.queryWithDetails(ctx, ` WHERE a.user_id = $1`, userID)
}

// Decide はPending状態の申込をApprovedまたはRejectedへ遷移させる。
// WHERE句でPendingを条件にすることで、同一申込への同時審査のうち
// 1つだけが成功する。Approvedへの遷移では同一トランザクション内で
// 保険商品のpurchase_countをちょうど1回インクリメントする。
func (r *PostgresApplicationRepo) Decide(ctx context.Context, id string, status model.ApplicationStatus, feedback string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	var policyID string
	err = tx.QueryRowContext(ctx,
		`UPDATE applications SET status = $2, feedback = $3, updated_at = now()
		 WHERE id = $1 AND status = $4
		 RETURNING policy_id`,
		id, status, nullString(feedback), model.ApplicationStatusPending,
	).Scan(&policyID)
	if err == sql.ErrNoRows {
		return sql.ErrNoRows
	}
	if err != nil {
		return fmt.Errorf("申込ステータスの更新に失敗しました: %w", err)
	}

	if status == model.ApplicationStatusApproved {
		_, err = tx.ExecContext(ctx,
			`UPDATE policies SET purchase_count = purchase_count + 1, updated_at = now() WHERE id = $1`,
			policyID,
		)
		if err != nil {
			return fmt.Errorf("購入数の更新に失敗しました: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// AssignAgent は申込に担当エージェントを割り当てる。再割り当ては上書きする。
func (r *PostgresApplicationRepo) AssignAgent(ctx context.Context, id, agentID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE applications SET assigned_agent_id = $2, updated_at = now() WHERE id = $1`,
		id, agentID,
	)
	if err != nil {
		return fmt.Errorf("担当エージェントの割り当てに失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新行数の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// compile-time interface check
var _ ApplicationRepository = (*PostgresApplicationRepo)(nil)
