package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/assuredlife/internal/model"
)

// PostgresClaimRepo はPostgreSQLを使用した保険金請求リポジトリ。
type PostgresClaimRepo struct {
	db *sql.DB
}

// NewPostgresClaimRepo はPostgresClaimRepoを生成する。
func NewPostgresClaimRepo(db *sql.DB) *PostgresClaimRepo {
	return &PostgresClaimRepo{db: db}
}

// Create は請求を作成し、同一トランザクションで対応する申込のclaim_statusを
// 請求ステータスへミラーする。
func (r *PostgresClaimRepo) Create(ctx context.Context, claim *model.Claim) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO claims (id, user_id, policy_id, application_id, reason, documents,
		                     status, submitted_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		claim.ID, claim.UserID, claim.PolicyID, claim.ApplicationID,
		claim.Reason, pq.Array(claim.Documents),
		claim.Status, claim.SubmittedAt, claim.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("請求の作成に失敗しました: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE applications SET claim_status = $2, updated_at = now() WHERE id = $1`,
		claim.ApplicationID, string(claim.Status),
	)
	if err != nil {
		return fmt.Errorf("申込の請求ステータスの更新に失敗しました: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDの請求を取得する。見つからない場合はnilを返す。
func (r *PostgresClaimRepo) FindByID(ctx context.Context, id string) (*model.Claim, error) {
	claim := &model.Claim{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, policy_id, application_id, reason, documents,
		        status, submitted_at, updated_at
		 FROM claims WHERE id = $1`,
		id,
	).Scan(
		&claim.ID, &claim.UserID, &claim.PolicyID, &claim.ApplicationID,
		&claim.Reason, pq.Array(&claim.Documents),
		&claim.Status, &claim.SubmittedAt, &claim.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("請求の取得に失敗しました: %w", err)
	}
	return claim, nil
}

func (r *PostgresClaimRepo) queryWithDetails(ctx context.Context, where string, args ...any) ([]ClaimWithDetails, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.user_id, c.policy_id, c.application_id, c.reason, c.documents,
		        c.status, c.submitted_at, c.updated_at,
		        p.title, p.coverage_max, u.name, u.email
		 FROM claims c
		 INNER JOIN policies p ON c.policy_id = p.id
		 INNER JOIN users u ON c.user_id = u.id`+
			where+
			` ORDER BY c.submitted_at DESC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("請求一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var claims []ClaimWithDetails
	for rows.Next() {
		var detail ClaimWithDetails
		if err := rows.Scan(
			&detail.ID, &detail.UserID, &detail.PolicyID, &detail.ApplicationID,
			&detail.Reason, pq.Array(&detail.Documents),
			&detail.Status, &detail.SubmittedAt, &detail.UpdatedAt,
			&detail.PolicyTitle, &detail.PolicyAmount,
			&detail.ApplicantName, &detail.ApplicantEmail,
		); err != nil {
			return nil, fmt.Errorf("請求一覧の読み取りに失敗しました: %w", err)
		}
		claims = append(claims, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("請求一覧の走査に失敗しました: %w", err)
	}
	return claims, nil
}

// ListAllWithDetails は全請求を表示情報付きで新しい順に返す。
func (r *PostgresClaimRepo) ListAllWithDetails(ctx context.Context) ([]ClaimWithDetails, error) {
	return r.queryWithDetails(ctx, ``)
}

// ListByUserWithDetails は指定ユーザーの請求を返す。
func (r *PostgresClaimRepo) ListByUserWithDetails(ctx context.Context, userID string) ([]ClaimWithDetails, error) {
	return r.queryWithDetails(ctx, ` WHERE c.user_id = $1`, userID)
}

// UpdateStatus は請求ステータスを更新し、同一トランザクションで対応する申込の
// claim_statusへミラーする。ミラーは常に請求から申込への一方向。
func (r *PostgresClaimRepo) UpdateStatus(ctx context.Context, id string, status model.ClaimStatus) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	var applicationID string
	err = tx.QueryRowContext(ctx,
		`UPDATE claims SET status = $2, updated_at = now()
		 WHERE id = $1
		 RETURNING application_id`,
		id, status,
	).Scan(&applicationID)
	if err == sql.ErrNoRows {
		return sql.ErrNoRows
	}
	if err != nil {
		return fmt.Errorf("請求ステータスの更新に失敗しました: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE applications SET claim_status = $2, updated_at = now() WHERE id = $1`,
		applicationID, string(status),
	)
	if err != nil {
		return fmt.Errorf("申込の請求ステータスの更新に失敗しました: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ClaimRepository = (*PostgresClaimRepo)(nil)
