package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/assuredlife/internal/model"
)

// PostgresAgentRepo はPostgreSQLを使用したエージェントリポジトリ。
type PostgresAgentRepo struct {
	db *sql.DB
}

// NewPostgresAgentRepo はPostgresAgentRepoを生成する。
func NewPostgresAgentRepo(db *sql.DB) *PostgresAgentRepo {
	return &PostgresAgentRepo{db: db}
}

// FindByID は指定IDのエージェントを取得する。見つからない場合はnilを返す。
func (r *PostgresAgentRepo) FindByID(ctx context.Context, id string) (*model.Agent, error) {
	agent := &model.Agent{}
	var motivation, feedback sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, experience, specialties, motivation, status, feedback, created_at, updated_at
		 FROM agents WHERE id = $1`,
		id,
	).Scan(
		&agent.ID, &agent.UserID, &agent.Experience, pq.Array(&agent.Specialties),
		&motivation, &agent.Status, &feedback, &agent.CreatedAt, &agent.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("エージェントの取得に失敗しました: %w", err)
	}
	agent.Motivation = nullStringValue(motivation)
	agent.Feedback = nullStringValue(feedback)
	return agent, nil
}

// Create はエージェント登録申請を作成する。
// 同一ユーザーによる再申請は既存行を上書きして審査待ちへ戻す。
func (r *PostgresAgentRepo) Create(ctx context.Context, agent *model.Agent) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO agents (id, user_id, experience, specialties, motivation, status, feedback, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (user_id) DO UPDATE SET
		    experience = EXCLUDED.experience,
		    specialties = EXCLUDED.specialties,
		    motivation = EXCLUDED.motivation,
		    status = EXCLUDED.status,
		    feedback = '',
		    updated_at = EXCLUDED.updated_at`,
		agent.ID, agent.UserID, agent.Experience, pq.Array(agent.Specialties),
		nullString(agent.Motivation), agent.Status, nullString(agent.Feedback),
		agent.CreatedAt, agent.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("エージェント登録申請の作成に失敗しました: %w", err)
	}
	return nil
}

// ListByStatusWithUserInfo は指定ステータスのエージェントをユーザー情報付きで返す。
// limitが0の場合は全件を返す。
func (r *PostgresAgentRepo) ListByStatusWithUserInfo(ctx context.Context, status model.AgentStatus, limit int) ([]AgentWithUserInfo, error) {
	query := `SELECT a.id, a.user_id, a.experience, a.specialties, a.motivation,
	                 a.status, a.feedback, a.created_at, a.updated_at,
	                 u.name, u.photo_url, u.email
	          FROM agents a
	          INNER JOIN users u ON a.user_id = u.id
	          WHERE a.status = $1
	          ORDER BY a.created_at DESC`
	args := []any{status}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("エージェント一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var agents []AgentWithUserInfo
	for rows.Next() {
		var detail AgentWithUserInfo
		var motivation, feedback, photoURL sql.NullString
		if err := rows.Scan(
			&detail.ID, &detail.UserID, &detail.Experience, pq.Array(&detail.Specialties),
			&motivation, &detail.Status, &feedback, &detail.CreatedAt, &detail.UpdatedAt,
			&detail.Name, &photoURL, &detail.Email,
		); err != nil {
			return nil, fmt.Errorf("エージェント一覧の読み取りに失敗しました: %w", err)
		}
		detail.Motivation = nullStringValue(motivation)
		detail.Feedback = nullStringValue(feedback)
		detail.PhotoURL = nullStringValue(photoURL)
		agents = append(agents, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("エージェント一覧の走査に失敗しました: %w", err)
	}
	return agents, nil
}

// Approve は登録申請を承認し、同一トランザクションで対応するユーザーのロールをagentへ更新する。
func (r *PostgresAgentRepo) Approve(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	var userID string
	err = tx.QueryRowContext(ctx,
		`UPDATE agents SET status = $2, feedback = '', updated_at = now()
		 WHERE id = $1
		 RETURNING user_id`,
		id, model.AgentStatusApproved,
	).Scan(&userID)
	if err == sql.ErrNoRows {
		return sql.ErrNoRows
	}
	if err != nil {
		return fmt.Errorf("エージェント登録申請の承認に失敗しました: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE users SET role = $2, updated_at = now() WHERE id = $1`,
		userID, model.RoleAgent,
	)
	if err != nil {
		return fmt.Errorf("ユーザーロールの更新に失敗しました: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// Reject は登録申請を却下し、フィードバックを記録する。
func (r *PostgresAgentRepo) Reject(ctx context.Context, id, feedback string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE agents SET status = $2, feedback = $3, updated_at = now() WHERE id = $1`,
		id, model.AgentStatusRejected, feedback,
	)
	if err != nil {
		return fmt.Errorf("エージェント登録申請の却下に失敗しました: %w", err)
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
var _ AgentRepository = (*PostgresAgentRepo)(nil)
