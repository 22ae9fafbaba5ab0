package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/assuredlife/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

const userColumns = `id, firebase_uid, email, name, photo_url, role, last_login, created_at, updated_at`

func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	var photoURL sql.NullString
	err := row.Scan(
		&user.ID, &user.FirebaseUID, &user.Email, &user.Name,
		&photoURL, &user.Role, &user.LastLogin, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.PhotoURL = nullStringValue(photoURL)
	return user, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	return user, nil
}

// FindByFirebaseUID はFirebase UIDでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByFirebaseUID(ctx context.Context, firebaseUID string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE firebase_uid = $1`,
		firebaseUID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Firebase UIDによるユーザーの検索に失敗しました: %w", err)
	}
	return user, nil
}

// Create はユーザーを作成する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, firebase_uid, email, name, photo_url, role, last_login, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		user.ID, user.FirebaseUID, user.Email, user.Name,
		nullString(user.PhotoURL), user.Role, user.LastLogin,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}
	return nil
}

// Upsert はFirebase UIDをキーにユーザーを作成または更新し、結果の行を返す。
// 既存行のロールは変更しない。
func (r *PostgresUserRepo) Upsert(ctx context.Context, user *model.User) (*model.User, error) {
	saved, err := scanUser(r.db.QueryRowContext(ctx,
		`INSERT INTO users (id, firebase_uid, email, name, photo_url, role, last_login, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (firebase_uid) DO UPDATE SET
		    email = EXCLUDED.email,
		    name = EXCLUDED.name,
		    photo_url = EXCLUDED.photo_url,
		    last_login = EXCLUDED.last_login,
		    updated_at = EXCLUDED.updated_at
		 RETURNING `+userColumns,
		user.ID, user.FirebaseUID, user.Email, user.Name,
		nullString(user.PhotoURL), user.Role, user.LastLogin,
		user.CreatedAt, user.UpdatedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("ユーザーのupsertに失敗しました: %w", err)
	}
	return saved, nil
}

// List は全ユーザーを作成日の新しい順に返す。
func (r *PostgresUserRepo) List(ctx context.Context) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user := &model.User{}
		var photoURL sql.NullString
		if err := rows.Scan(
			&user.ID, &user.FirebaseUID, &user.Email, &user.Name,
			&photoURL, &user.Role, &user.LastLogin, &user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("ユーザー一覧の読み取りに失敗しました: %w", err)
		}
		user.PhotoURL = nullStringValue(photoURL)
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ユーザー一覧の走査に失敗しました: %w", err)
	}
	return users, nil
}

// UpdateRoleWithAgentCascade はユーザーのロールを更新し、agentsレコードを同一トランザクションで連動更新する。
func (r *PostgresUserRepo) UpdateRoleWithAgentCascade(ctx context.Context, id string, role model.Role) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE users SET role = $2, updated_at = now() WHERE id = $1`,
		id, role,
	)
	if err != nil {
		return fmt.Errorf("ロールの更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新行数の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}

	switch role {
	case model.RoleAgent:
		// agentsレコードがあれば承認済みへ、なければ空の実績で作成する
		_, err = tx.ExecContext(ctx,
			`INSERT INTO agents (id, user_id, experience, specialties, motivation, status, feedback, created_at, updated_at)
			 VALUES (gen_random_uuid(), $1, '', '{}', '', $2, '', now(), now())
			 ON CONFLICT (user_id) DO UPDATE SET
			    status = EXCLUDED.status,
			    updated_at = now()`,
			id, model.AgentStatusApproved,
		)
		if err != nil {
			return fmt.Errorf("エージェントレコードの連動更新に失敗しました: %w", err)
		}
	case model.RoleCustomer:
		// 降格時は実績情報を保持したままstatusのみ落とす
		_, err = tx.ExecContext(ctx,
			`UPDATE agents SET status = $2, updated_at = now() WHERE user_id = $1`,
			id, model.AgentStatusDemoted,
		)
		if err != nil {
			return fmt.Errorf("エージェントレコードの降格に失敗しました: %w", err)
		}
	default:
		_, err = tx.ExecContext(ctx,
			`DELETE FROM agents WHERE user_id = $1`,
			id,
		)
		if err != nil {
			return fmt.Errorf("エージェントレコードの削除に失敗しました: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// UpdateProfile は名前と（空でない場合のみ）写真URLを更新し、更新後の行を返す。
// ユーザーが存在しない場合はnilを返す。
func (r *PostgresUserRepo) UpdateProfile(ctx context.Context, id, name, photoURL string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`UPDATE users SET
		    name = $2,
		    photo_url = CASE WHEN $3 <> '' THEN $3 ELSE photo_url END,
		    updated_at = now()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, name, photoURL,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("プロフィールの更新に失敗しました: %w", err)
	}
	return user, nil
}

// DeleteByID は指定IDのユーザーを削除する。
// 関連するagents、applicationsはCASCADE削除される。
func (r *PostgresUserRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
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
var _ UserRepository = (*PostgresUserRepo)(nil)
