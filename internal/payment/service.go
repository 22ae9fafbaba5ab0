package payment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/assuredlife/internal/model"
	"github.com/hitoshi/assuredlife/internal/repository"
)

// DefaultCurrency はインテント作成時のデフォルト通貨。
const DefaultCurrency = "usd"

// Service は決済ブリッジのビジネスロジックを提供する。
// ゲートウェイとのやり取りと、決済結果の取引記録・申込への反映を担う。
type Service struct {
	provider IntentProvider
	txnRepo  repository.TransactionRepository
	appRepo  repository.ApplicationRepository
}

// NewService はServiceを生成する。
func NewService(
	provider IntentProvider,
	txnRepo repository.TransactionRepository,
	appRepo repository.ApplicationRepository,
) *Service {
	return &Service{provider: provider, txnRepo: txnRepo, appRepo: appRepo}
}

// CreateIntent は呼び出しユーザー自身の申込に対する決済インテントを作成し、
// クライアントシークレットを返す。申込が存在しないか他人のものであれば404相当。
func (s *Service) CreateIntent(ctx context.Context, userID, applicationID string, amount int64) (string, error) {
	app, err := s.appRepo.FindByID(ctx, applicationID)
	if err != nil {
		return "", fmt.Errorf("申込の取得に失敗しました: %w", err)
	}
	if app == nil || app.UserID != userID {
		return "", model.NewApplicationNotFoundError(applicationID)
	}

	secret, err := s.provider.CreateIntent(ctx, amount, DefaultCurrency)
	if err != nil {
		return "", fmt.Errorf("決済インテントの作成に失敗しました: %w", err)
	}
	return secret, nil
}

// RecordInput は決済結果の記録リクエスト。
type RecordInput struct {
	ApplicationID string
	TransactionID string
	Amount        int64
	Currency      string
	Status        string
	PaymentMethod string
}

// RecordResult は決済結果の記録レスポンス。
type RecordResult struct {
	Recorded bool // falseは記録済み取引の再送
	Success  bool
}

// Record はゲートウェイからの決済結果を記録する。
// ステータスが成功（"succeeded"）の場合のみ、申込を支払い済み・承認済みへ進める。
// 同一取引IDの再送は何も変更しない（冪等）。
func (s *Service) Record(ctx context.Context, userID string, input RecordInput) (*RecordResult, error) {
	app, err := s.appRepo.FindByID(ctx, input.ApplicationID)
	if err != nil {
		return nil, fmt.Errorf("申込の取得に失敗しました: %w", err)
	}
	if app == nil || app.UserID != userID {
		return nil, model.NewApplicationNotFoundError(input.ApplicationID)
	}

	currency := input.Currency
	if currency == "" {
		currency = DefaultCurrency
	}

	txn := &model.Transaction{
		ID:            uuid.New().String(),
		UserID:        userID,
		PolicyID:      app.PolicyID,
		ApplicationID: app.ID,
		TransactionID: input.TransactionID,
		Amount:        input.Amount,
		Currency:      currency,
		Status:        input.Status,
		PaymentMethod: input.PaymentMethod,
		CreatedAt:     time.Now(),
	}

	success := input.Status == model.TransactionStatusSucceeded
	recorded, err := s.txnRepo.Record(ctx, txn, success)
	if err != nil {
		return nil, fmt.Errorf("取引の記録に失敗しました: %w", err)
	}
	if !recorded {
		slog.Info("duplicate payment callback ignored",
			slog.String("transaction_id", input.TransactionID),
		)
	}

	return &RecordResult{Recorded: recorded, Success: success}, nil
}

// ListAll は全取引を表示情報付きで返す。
func (s *Service) ListAll(ctx context.Context) ([]repository.TransactionWithDetails, error) {
	txns, err := s.txnRepo.ListAllWithDetails(ctx)
	if err != nil {
		return nil, fmt.Errorf("取引一覧の取得に失敗しました: %w", err)
	}
	return txns, nil
}

// ListMine は呼び出しユーザー自身の取引を返す。
func (s *Service) ListMine(ctx context.Context, userID string) ([]repository.TransactionWithDetails, error) {
	txns, err := s.txnRepo.ListByUserWithDetails(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("取引一覧の取得に失敗しました: %w", err)
	}
	return txns, nil
}
