package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/assuredlife/internal/model"
)

// PostgresReviewRepo はPostgreSQLを使用したレビューリポジトリ。
type PostgresReviewRepo struct {
	db *sql.DB
}

// NewPostgresReviewRepo はPostgresReviewRepoを生成する。
func NewPostgresReviewRepo(db *sql.DB) *PostgresReviewRepo {
	return &PostgresReviewRepo{db: db}
}

// ListLatest は最新のレビューを投稿者情報付きで返す。
func (r *PostgresReviewRepo) ListLatest(ctx context.Context, limit int) ([]*model.Review, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT r.id, r.user_id, u.name, u.photo_url, r.rating, r.message,
		        r.policy_id, r.agent_id, r.created_at
		 FROM reviews r
		 INNER JOIN users u ON r.user_id = u.id
		 ORDER BY r.created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("レビュー一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var reviews []*model.Review
	for rows.Next() {
		review := &model.Review{}
		var photoURL, policyID, agentID sql.NullString
		if err := rows.Scan(
			&review.ID, &review.UserID, &review.UserName, &photoURL,
			&review.Rating, &review.Message,
			&policyID, &agentID, &review.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("レビューの読み取りに失敗しました: %w", err)
		}
		review.UserImage = nullStringValue(photoURL)
		review.PolicyID = nullStringValue(policyID)
		review.AgentID = nullStringValue(agentID)
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("レビュー一覧の走査に失敗しました: %w", err)
	}
	return reviews, nil
}

// Create はレビューを作成する。
func (r *PostgresReviewRepo) Create(ctx context.Context, review *model.Review) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reviews (id, user_id, rating, message, policy_id, agent_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		review.ID, review.UserID, review.Rating, review.Message,
		nullString(review.PolicyID), nullString(review.AgentID), review.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("レビューの作成に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ReviewRepository = (*PostgresReviewRepo)(nil)
