package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/assuredlife/internal/model"
)

// PostgresBlogRepo はPostgreSQLを使用したブログ記事リポジトリ。
type PostgresBlogRepo struct {
	db *sql.DB
}

// NewPostgresBlogRepo はPostgresBlogRepoを生成する。
func NewPostgresBlogRepo(db *sql.DB) *PostgresBlogRepo {
	return &PostgresBlogRepo{db: db}
}

const blogColumns = `b.id, b.title, b.content, b.blog_image, b.author_id, u.name,
	        b.publish_date, b.total_visit, b.updated_at`

const blogFrom = ` FROM blogs b INNER JOIN users u ON b.author_id = u.id`

func scanBlogRow(scan func(dest ...any) error) (*model.Blog, error) {
	blog := &model.Blog{}
	var blogImage sql.NullString
	err := scan(
		&blog.ID, &blog.Title, &blog.Content, &blogImage,
		&blog.AuthorID, &blog.AuthorName,
		&blog.PublishDate, &blog.TotalVisit, &blog.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	blog.BlogImage = nullStringValue(blogImage)
	return blog, nil
}

// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
func (r *PostgresBlogRepo) FindByID(ctx context.Context, id string) (*model.Blog, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+blogColumns+blogFrom+` WHERE b.id = $1`,
		id,
	)
	blog, err := scanBlogRow(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ブログ記事の取得に失敗しました: %w", err)
	}
	return blog, nil
}

// FindByIDIncrementVisit は指定IDの記事の閲覧数をインクリメントし、更新後の記事を返す。
// 見つからない場合はnilを返す。
func (r *PostgresBlogRepo) FindByIDIncrementVisit(ctx context.Context, id string) (*model.Blog, error) {
	row := r.db.QueryRowContext(ctx,
		`WITH visited AS (
		    UPDATE blogs SET total_visit = total_visit + 1 WHERE id = $1
		    RETURNING id, title, content, blog_image, author_id, publish_date, total_visit, updated_at
		 )
		 SELECT b.id, b.title, b.content, b.blog_image, b.author_id, u.name,
		        b.publish_date, b.total_visit, b.updated_at
		 FROM visited b INNER JOIN users u ON b.author_id = u.id`,
		id,
	)
	blog, err := scanBlogRow(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ブログ記事の取得に失敗しました: %w", err)
	}
	return blog, nil
}

// List はタイトル検索・ページネーション付きで記事と総件数を新しい順に返す。
// limitが0の場合はページネーションせず全件を返す。
func (r *PostgresBlogRepo) List(ctx context.Context, search string, page, limit int) ([]*model.Blog, int, error) {
	where := ` WHERE ($1 = '' OR b.title ILIKE '%' || $1 || '%')`

	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM blogs b`+where,
		search,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("ブログ記事件数の取得に失敗しました: %w", err)
	}

	query := `SELECT ` + blogColumns + blogFrom + where + ` ORDER BY b.publish_date DESC`
	args := []any{search}
	if limit > 0 {
		if page < 1 {
			page = 1
		}
		query += ` LIMIT $2 OFFSET $3`
		args = append(args, limit, (page-1)*limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ブログ記事一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	blogs, err := collectBlogs(rows)
	if err != nil {
		return nil, 0, err
	}
	return blogs, total, nil
}

// ListLatest は最新の記事を返す。
func (r *PostgresBlogRepo) ListLatest(ctx context.Context, limit int) ([]*model.Blog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+blogColumns+blogFrom+` ORDER BY b.publish_date DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("最新ブログ記事の取得に失敗しました: %w", err)
	}
	defer rows.Close()
	return collectBlogs(rows)
}

// ListByAuthor は指定著者の記事を新しい順に返す。
func (r *PostgresBlogRepo) ListByAuthor(ctx context.Context, authorID string) ([]*model.Blog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+blogColumns+blogFrom+` WHERE b.author_id = $1 ORDER BY b.publish_date DESC`,
		authorID,
	)
	if err != nil {
		return nil, fmt.Errorf("著者別ブログ記事の取得に失敗しました: %w", err)
	}
	defer rows.Close()
	return collectBlogs(rows)
}

func collectBlogs(rows *sql.Rows) ([]*model.Blog, error) {
	var blogs []*model.Blog
	for rows.Next() {
		blog, err := scanBlogRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("ブログ記事の読み取りに失敗しました: %w", err)
		}
		blogs = append(blogs, blog)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ブログ記事一覧の走査に失敗しました: %w", err)
	}
	return blogs, nil
}

// Create は記事を作成する。
func (r *PostgresBlogRepo) Create(ctx context.Context, blog *model.Blog) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO blogs (id, title, content, blog_image, author_id, publish_date, total_visit, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		blog.ID, blog.Title, blog.Content, nullString(blog.BlogImage),
		blog.AuthorID, blog.PublishDate, blog.TotalVisit, blog.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("ブログ記事の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は記事のタイトル・本文・画像を更新する。
func (r *PostgresBlogRepo) Update(ctx context.Context, blog *model.Blog) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE blogs SET title = $2, content = $3, blog_image = $4, updated_at = now()
		 WHERE id = $1`,
		blog.ID, blog.Title, blog.Content, nullString(blog.BlogImage),
	)
	if err != nil {
		return fmt.Errorf("ブログ記事の更新に失敗しました: %w", err)
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

// DeleteByID は指定IDの記事を削除する。
func (r *PostgresBlogRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM blogs WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("ブログ記事の削除に失敗しました: %w", err)
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
var _ BlogRepository = (*PostgresBlogRepo)(nil)
