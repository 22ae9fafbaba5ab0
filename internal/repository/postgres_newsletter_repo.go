package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/assuredlife/internal/model"
)

// PostgresNewsletterRepo はPostgreSQLを使用したニュースレター購読者リポジトリ。
type PostgresNewsletterRepo struct {
	db *sql.DB
}

// NewPostgresNewsletterRepo はPostgresNewsletterRepoを生成する。
func NewPostgresNewsletterRepo(db *sql.DB) *PostgresNewsletterRepo {
	return &PostgresNewsletterRepo{db: db}
}

// FindByEmail はメールアドレスで購読者を検索する。見つからない場合はnilを返す。
func (r *PostgresNewsletterRepo) FindByEmail(ctx context.Context, email string) (*model.NewsletterSubscriber, error) {
	sub := &model.NewsletterSubscriber{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, subscribed_at FROM newsletter_subscribers WHERE email = $1`,
		email,
	).Scan(&sub.ID, &sub.Name, &sub.Email, &sub.SubscribedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("購読者の検索に失敗しました: %w", err)
	}
	return sub, nil
}

// Create は購読者を作成する。
func (r *PostgresNewsletterRepo) Create(ctx context.Context, sub *model.NewsletterSubscriber) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO newsletter_subscribers (id, name, email, subscribed_at)
		 VALUES ($1, $2, $3, $4)`,
		sub.ID, sub.Name, sub.Email, sub.SubscribedAt,
	)
	if err != nil {
		return fmt.Errorf("購読者の作成に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ NewsletterRepository = (*PostgresNewsletterRepo)(nil)
