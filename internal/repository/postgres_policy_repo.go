package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/assuredlife/internal/model"
)

// PostgresPolicyRepo はPostgreSQLを使用した保険商品リポジトリ。
type PostgresPolicyRepo struct {
	db *sql.DB
}

// NewPostgresPolicyRepo はPostgresPolicyRepoを生成する。
func NewPostgresPolicyRepo(db *sql.DB) *PostgresPolicyRepo {
	return &PostgresPolicyRepo{db: db}
}

const policyColumns = `id, title, category, description, min_age, max_age,
	        coverage_min, coverage_max, duration_options, base_premium_rate,
	        policy_image, purchase_count, created_at, updated_at`

func scanPolicyRow(scan func(dest ...any) error) (*model.Policy, error) {
	policy := &model.Policy{}
	var description, policyImage sql.NullString
	err := scan(
		&policy.ID, &policy.Title, &policy.Category, &description,
		&policy.MinAge, &policy.MaxAge,
		&policy.CoverageMin, &policy.CoverageMax,
		pq.Array(&policy.DurationOptions), &policy.BasePremiumRate,
		&policyImage, &policy.PurchaseCount,
		&policy.CreatedAt, &policy.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	policy.Description = nullStringValue(description)
	policy.PolicyImage = nullStringValue(policyImage)
	return policy, nil
}

// FindByID は指定IDの保険商品を取得する。見つからない場合はnilを返す。
func (r *PostgresPolicyRepo) FindByID(ctx context.Context, id string) (*model.Policy, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+policyColumns+` FROM policies WHERE id = $1`,
		id,
	)
	policy, err := scanPolicyRow(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("保険商品の取得に失敗しました: %w", err)
	}
	return policy, nil
}

// ListPopular は購入数の多い順に保険商品を返す。
func (r *PostgresPolicyRepo) ListPopular(ctx context.Context, limit int) ([]*model.Policy, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+policyColumns+` FROM policies
		 ORDER BY purchase_count DESC, created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("人気保険商品の取得に失敗しました: %w", err)
	}
	defer rows.Close()
	return collectPolicies(rows)
}

// List はフィルタ条件に一致する保険商品と総件数を返す。
// カテゴリは完全一致、検索語はタイトルの部分一致（大文字小文字を区別しない）で絞り込む。
// Limitが0の場合はページネーションせず全件を返す。
func (r *PostgresPolicyRepo) List(ctx context.Context, filter PolicyListFilter) ([]*model.Policy, int, error) {
	where := ` WHERE ($1 = '' OR category = $1) AND ($2 = '' OR title ILIKE '%' || $2 || '%')`

	category := filter.Category
	if category == "All" {
		category = ""
	}

	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM policies`+where,
		category, filter.Search,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("保険商品件数の取得に失敗しました: %w", err)
	}

	query := `SELECT ` + policyColumns + ` FROM policies` + where + ` ORDER BY created_at DESC`
	args := []any{category, filter.Search}
	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query += ` LIMIT $3 OFFSET $4`
		args = append(args, filter.Limit, (page-1)*filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("保険商品一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	policies, err := collectPolicies(rows)
	if err != nil {
		return nil, 0, err
	}
	return policies, total, nil
}

func collectPolicies(rows *sql.Rows) ([]*model.Policy, error) {
	var policies []*model.Policy
	for rows.Next() {
		policy, err := scanPolicyRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("保険商品の読み取りに失敗しました: %w", err)
		}
		policies = append(policies, policy)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("保険商品一覧の走査に失敗しました: %w", err)
	}
	return policies, nil
}

// Create は保険商品を作成する。
func (r *PostgresPolicyRepo) Create(ctx context.Context, policy *model.Policy) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO policies (id, title, category, description, min_age, max_age,
		                       coverage_min, coverage_max, duration_options, base_premium_rate,
		                       policy_image, purchase_count, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		policy.ID, policy.Title, policy.Category, nullString(policy.Description),
		policy.MinAge, policy.MaxAge,
		policy.CoverageMin, policy.CoverageMax,
		pq.Array(policy.DurationOptions), policy.BasePremiumRate,
		nullString(policy.PolicyImage), policy.PurchaseCount,
		policy.CreatedAt, policy.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("保険商品の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は保険商品を更新する。purchase_countは更新対象に含まない。
func (r *PostgresPolicyRepo) Update(ctx context.Context, policy *model.Policy) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE policies SET
		    title = $2, category = $3, description = $4,
		    min_age = $5, max_age = $6,
		    coverage_min = $7, coverage_max = $8,
		    duration_options = $9, base_premium_rate = $10,
		    policy_image = $11, updated_at = now()
		 WHERE id = $1`,
		policy.ID, policy.Title, policy.Category, nullString(policy.Description),
		policy.MinAge, policy.MaxAge,
		policy.CoverageMin, policy.CoverageMax,
		pq.Array(policy.DurationOptions), policy.BasePremiumRate,
		nullString(policy.PolicyImage),
	)
	if err != nil {
		return fmt.Errorf("保険商品の更新に失敗しました: %w", err)
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

// DeleteByID は指定IDの保険商品を削除する。
func (r *PostgresPolicyRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM policies WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("保険商品の削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除行数の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// compile-time interface check
var _ PolicyRepository = (*PostgresPolicyRepo)(nil)
