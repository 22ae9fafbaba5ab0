package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/assuredlife/internal/model"
)

// PostgresTransactionRepo はPostgreSQLを使用した決済取引リポジトリ。
type PostgresTransactionRepo struct {
	db *sql.DB
}

// NewPostgresTransactionRepo はPostgresTransactionRepoを生成する。
func NewPostgresTransactionRepo(db *sql.DB) *PostgresTransactionRepo {
	return &PostgresTransactionRepo{db: db}
}

// Record は取引を記録し、成功した決済であれば申込と保険商品を同一トランザクションで更新する。
// transaction_idの一意制約とON CONFLICT DO NOTHINGにより、同一コールバックの再送は
// 何も変更せずfalseを返す。副作用が初回の記録と同時にコミットされるため、
// 再送時にpurchase_countが二重に増えることはない。
func (r *PostgresTransactionRepo) Record(ctx context.Context, txn *model.Transaction, success bool) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, policy_id, application_id, transaction_id,
		                           amount, currency, status, payment_method, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (transaction_id) DO NOTHING`,
		txn.ID, txn.UserID, txn.PolicyID, txn.ApplicationID, txn.TransactionID,
		txn.Amount, txn.Currency, txn.Status, nullString(txn.PaymentMethod), txn.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("取引の記録に失敗しました: %w", err)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("挿入行数の取得に失敗しました: %w", err)
	}
	if inserted == 0 {
		// 記録済みの取引の再送
		return false, nil
	}

	if success {
		// 審査待ちであれば承認と支払い済みへ同時に進める
		approved, err := tx.ExecContext(ctx,
			`UPDATE applications SET status = $2, payment_status = $3, updated_at = now()
			 WHERE id = $1 AND status = $4`,
			txn.ApplicationID, model.ApplicationStatusApproved,
			model.PaymentStatusPaid, model.ApplicationStatusPending,
		)
		if err != nil {
			return false, fmt.Errorf("申込の承認に失敗しました: %w", err)
		}
		transitioned, err := approved.RowsAffected()
		if err != nil {
			return false, fmt.Errorf("更新行数の取得に失敗しました: %w", err)
		}

		if transitioned > 0 {
			// 購入数の加算はPendingからの遷移と同時にのみ行う
			_, err = tx.ExecContext(ctx,
				`UPDATE policies SET purchase_count = purchase_count + 1, updated_at = now() WHERE id = $1`,
				txn.PolicyID,
			)
			if err != nil {
				return false, fmt.Errorf("購入数の更新に失敗しました: %w", err)
			}
		} else {
			// 審査済みの申込は支払い状態のみ進める
			_, err = tx.ExecContext(ctx,
				`UPDATE applications SET payment_status = $2, updated_at = now() WHERE id = $1`,
				txn.ApplicationID, model.PaymentStatusPaid,
			)
			if err != nil {
				return false, fmt.Errorf("申込の支払い状態の更新に失敗しました: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return true, nil
}

func (r *PostgresTransactionRepo) queryWithDetails(ctx context.Context, where string, args ...any) ([]TransactionWithDetails, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.user_id, t.policy_id, t.application_id, t.transaction_id,
		        t.amount, t.currency, t.status, t.payment_method, t.created_at,
		        u.email, p.title
		 FROM transactions t
		 INNER JOIN users u ON t.user_id = u.id
		 INNER JOIN policies p ON t.policy_id = p.id`+
			where+
			` ORDER BY t.created_at DESC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("取引一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var txns []TransactionWithDetails
	for rows.Next() {
		var detail TransactionWithDetails
		var paymentMethod sql.NullString
		if err := rows.Scan(
			&detail.ID, &detail.UserID, &detail.PolicyID, &detail.ApplicationID,
			&detail.TransactionID, &detail.Amount, &detail.Currency, &detail.Status,
			&paymentMethod, &detail.CreatedAt,
			&detail.UserEmail, &detail.PolicyTitle,
		); err != nil {
			return nil, fmt.Errorf("取引一覧の読み取りに失敗しました: %w", err)
		}
		detail.PaymentMethod = nullStringValue(paymentMethod)
		txns = append(txns, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("取引一覧の走査に失敗しました: %w", err)
	}
	return txns, nil
}

// ListAllWithDetails は全取引を表示情報付きで新しい順に返す。
func (r *PostgresTransactionRepo) ListAllWithDetails(ctx context.Context) ([]TransactionWithDetails, error) {
	return r.queryWithDetails(ctx, ``)
}

// ListByUserWithDetails は指定ユーザーの取引を返す。
func (r *PostgresTransactionRepo) ListByUserWithDetails(ctx context.Context, userID string) ([]TransactionWithDetails, error) {
	return r.queryWithDetails(ctx, ` WHERE t.user_id = $1`, userID)
}

// compile-time interface check
var _ TransactionRepository = (*PostgresTransactionRepo)(nil)
