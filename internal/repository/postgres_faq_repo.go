package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/assuredlife/internal/model"
)

// PostgresFAQRepo はPostgreSQLを使用したFAQリポジトリ。
type PostgresFAQRepo struct {
	db *sql.DB
}

// NewPostgresFAQRepo はPostgresFAQRepoを生成する。
func NewPostgresFAQRepo(db *sql.DB) *PostgresFAQRepo {
	return &PostgresFAQRepo{db: db}
}

// List は全FAQを作成日の古い順に返す。
func (r *PostgresFAQRepo) List(ctx context.Context) ([]*model.FAQ, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, question, answer, helpful_count, created_at
		 FROM faqs ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("FAQ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var faqs []*model.FAQ
	for rows.Next() {
		faq := &model.FAQ{}
		if err := rows.Scan(&faq.ID, &faq.Question, &faq.Answer, &faq.HelpfulCount, &faq.CreatedAt); err != nil {
			return nil, fmt.Errorf("FAQの読み取りに失敗しました: %w", err)
		}
		faqs = append(faqs, faq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("FAQ一覧の走査に失敗しました: %w", err)
	}
	return faqs, nil
}

// compile-time interface check
var _ FAQRepository = (*PostgresFAQRepo)(nil)
