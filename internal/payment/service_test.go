package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/assuredlife/internal/model"
	"github.com/hitoshi/assuredlife/internal/repository"
)

// mockIntentProvider はIntentProviderのモック。
type mockIntentProvider struct {
	createIntentFunc func(ctx context.Context, amount int64, currency string) (string, error)
}

func (m *mockIntentProvider) CreateIntent(ctx context.Context, amount int64, currency string) (string, error) {
	return m.createIntentFunc(ctx, amount, currency)
}

// mockTransactionRepo はrepository.TransactionRepositoryのモック。
type mockTransactionRepo struct {
	recordFunc   func(ctx context.Context, txn *model.Transaction, success bool) (bool, error)
	listAllFunc  func(ctx context.Context) ([]repository.TransactionWithDetails, error)
	listMineFunc func(ctx context.Context, userID string) ([]repository.TransactionWithDetails, error)
}

func (m *mockTransactionRepo) Record(ctx context.Context, txn *model.Transaction, success bool) (bool, error) {
	return m.recordFunc(ctx, txn, success)
}

func (m *mockTransactionRepo) ListAllWithDetails(ctx context.Context) ([]repository.TransactionWithDetails, error) {
	return m.listAllFunc(ctx)
}

func (m *mockTransactionRepo) ListByUserWithDetails(ctx context.Context, userID string) ([]repository.TransactionWithDetails, error) {
	return m.listMineFunc(ctx, userID)
}

// mockApplicationRepo はrepository.ApplicationRepositoryのモック。
type mockApplicationRepo struct {
	findByIDFunc func(ctx context.Context, id string) (*model.Application, error)
}

func (m *mockApplicationRepo) Create(ctx context.Context, app *model.Application) error { return nil }

func (m *mockApplicationRepo) FindByID(ctx context.Context, id string) (*model.Application, error) {
	return m.findByIDFunc(ctx, id)
}

func (m *mockApplicationRepo) FindApprovedByUserAndPolicy(ctx context.Context, userID, policyID string) (*model.Application, error) {
	return nil, nil
}

func (m *mockApplicationRepo) ListAllWithDetails(ctx context.Context) ([]repository.ApplicationWithDetails, error) {
	return nil, nil
}

func (m *mockApplicationRepo) ListByAgentWithDetails(ctx context.Context, agentID string) ([]repository.ApplicationWithDetails, error) {
	return nil, nil
}

func (m *mockApplicationRepo) ListByUserWithDetails(ctx context.Context, userID string) ([]repository.ApplicationWithDetails, error) {
	return nil, nil
}

func (m *mockApplicationRepo) Decide(ctx context.Context, id string, status model.ApplicationStatus, feedback string) error {
	return nil
}

func (m *mockApplicationRepo) AssignAgent(ctx context.Context, id, agentID string) error {
	return nil
}

// 自分の申込に対するインテント作成が成功することを検証
func TestService_CreateIntent_Success(t *testing.T) {
	provider := &mockIntentProvider{
		createIntentFunc: func(ctx context.Context, amount int64, currency string) (string, error) {
			if amount != 5000 {
				t.Errorf("amount = %d, want 5000", amount)
			}
			if currency != DefaultCurrency {
				t.Errorf("currency = %q, want %q", currency, DefaultCurrency)
			}
			return "pi_secret_123", nil
		},
	}
	appRepo := &mockApplicationRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Application, error) {
			return &model.Application{ID: id, UserID: "user-1", PolicyID: "policy-1"}, nil
		},
	}
	svc := NewService(provider, &mockTransactionRepo{}, appRepo)

	secret, err := svc.CreateIntent(context.Background(), "user-1", "app-1", 5000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if secret != "pi_secret_123" {
		t.Errorf("secret = %q", secret)
	}
}

// 他人の申込に対するインテント作成が404相当で拒否されることを検証
func TestService_CreateIntent_ForeignApplication(t *testing.T) {
	appRepo := &mockApplicationRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Application, error) {
			return &model.Application{ID: id, UserID: "someone-else"}, nil
		},
	}
	svc := NewService(&mockIntentProvider{}, &mockTransactionRepo{}, appRepo)

	_, err := svc.CreateIntent(context.Background(), "user-1", "app-1", 5000)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeApplicationNotFound {
		t.Fatalf("err = %v, want APPLICATION_NOT_FOUND", err)
	}
}

// 成功ステータスの決済記録がsuccess=trueでリポジトリへ渡されることを検証
func TestService_Record_SucceededStatus(t *testing.T) {
	appRepo := &mockApplicationRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Application, error) {
			return &model.Application{ID: id, UserID: "user-1", PolicyID: "policy-1"}, nil
		},
	}
	txnRepo := &mockTransactionRepo{
		recordFunc: func(ctx context.Context, txn *model.Transaction, success bool) (bool, error) {
			if !success {
				t.Error("succeeded status should pass success=true")
			}
			if txn.PolicyID != "policy-1" {
				t.Errorf("policyID = %q, want policy-1", txn.PolicyID)
			}
			if txn.Currency != DefaultCurrency {
				t.Errorf("currency = %q, want default", txn.Currency)
			}
			return true, nil
		},
	}
	svc := NewService(&mockIntentProvider{}, txnRepo, appRepo)

	result, err := svc.Record(context.Background(), "user-1", RecordInput{
		ApplicationID: "app-1",
		TransactionID: "txn-1",
		Amount:        5000,
		Status:        model.TransactionStatusSucceeded,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Recorded || !result.Success {
		t.Errorf("result = %+v, want recorded and success", result)
	}
}

// 失敗ステータスの決済記録がsuccess=falseで渡されることを検証
func TestService_Record_FailedStatus(t *testing.T) {
	appRepo := &mockApplicationRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Application, error) {
			return &model.Application{ID: id, UserID: "user-1", PolicyID: "policy-1"}, nil
		},
	}
	txnRepo := &mockTransactionRepo{
		recordFunc: func(ctx context.Context, txn *model.Transaction, success bool) (bool, error) {
			if success {
				t.Error("failed status should pass success=false")
			}
			return true, nil
		},
	}
	svc := NewService(&mockIntentProvider{}, txnRepo, appRepo)

	result, err := svc.Record(context.Background(), "user-1", RecordInput{
		ApplicationID: "app-1",
		TransactionID: "txn-2",
		Status:        "requires_payment_method",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Error("expected success = false")
	}
}

// 記録済み取引の再送がRecorded=falseとなり副作用を起こさないことを検証
func TestService_Record_DuplicateReplay(t *testing.T) {
	appRepo := &mockApplicationRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Application, error) {
			return &model.Application{ID: id, UserID: "user-1", PolicyID: "policy-1"}, nil
		},
	}
	txnRepo := &mockTransactionRepo{
		recordFunc: func(ctx context.Context, txn *model.Transaction, success bool) (bool, error) {
			return false, nil
		},
	}
	svc := NewService(&mockIntentProvider{}, txnRepo, appRepo)

	result, err := svc.Record(context.Background(), "user-1", RecordInput{
		ApplicationID: "app-1",
		TransactionID: "txn-replayed",
		Status:        model.TransactionStatusSucceeded,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Recorded {
		t.Error("replay should not be recorded")
	}
}
