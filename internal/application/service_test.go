package application

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/assuredlife/internal/model"
	"github.com/hitoshi/assuredlife/internal/repository"
)

// mockApplicationRepo はrepository.ApplicationRepositoryのモック。
type mockApplicationRepo struct {
	createFunc       func(ctx context.Context, app *model.Application) error
	findByIDFunc     func(ctx context.Context, id string) (*model.Application, error)
	findApprovedFunc func(ctx context.Context, userID, policyID string) (*model.Application, error)
	listAllFunc      func(ctx context.Context) ([]repository.ApplicationWithDetails, error)
	listByAgentFunc  func(ctx context.Context, agentID string) ([]repository.ApplicationWithDetails, error)
	listByUserFunc   func(ctx context.Context, userID string) ([]repository.ApplicationWithDetails, error)
	decideFunc       func(ctx context.Context, id string, status model.ApplicationStatus, feedback string) error
	assignAgentFunc  func(ctx context.Context, id, agentID string) error
}

func (m *mockApplicationRepo) Create(ctx context.Context, app *model.Application) error {
	return m.createFunc(ctx, app)
}

func (m *mockApplicationRepo) FindByID(ctx context.Context, id string) (*model.Application, error) {
	return m.findByIDFunc(ctx, id)
}

func (m *mockApplicationRepo) FindApprovedByUserAndPolicy(ctx context.Context, userID, policyID string) (*model.Application, error) {
	return m.findApprovedFunc(ctx, userID, policyID)
}

func (m *mockApplicationRepo) ListAllWithDetails(ctx context.Context) ([]repository.ApplicationWithDetails, error) {
	return m.listAllFunc(ctx)
}

func (m *mockApplicationRepo) ListByAgentWithDetails(ctx context.Context, agentID string) ([]repository.ApplicationWithDetails, error) {
	return m.listByAgentFunc(ctx, agentID)
}

func (m *mockApplicationRepo) ListByUserWithDetails(ctx context.Context, userID string) ([]repository.ApplicationWithDetails, error) {
	return m.listByUserFunc(ctx, userID)
}

func (m *mockApplicationRepo) Decide(ctx context.Context, id string, status model.ApplicationStatus, feedback string) error {
	return m.decideFunc(ctx, id, status, feedback)
}

func (m *mockApplicationRepo) AssignAgent(ctx context.Context, id, agentID string) error {
	return m.assignAgentFunc(ctx, id, agentID)
}

// mockPolicyRepo はrepository.PolicyRepositoryのモック。
type mockPolicyRepo struct {
	findByIDFunc func(ctx context.Context, id string) (*model.Policy, error)
}

func (m *mockPolicyRepo) FindByID(ctx context.Context, id string) (*model.Policy, error) {
	return m.findByIDFunc(ctx, id)
}

func (m *mockPolicyRepo) ListPopular(ctx context.Context, limit int) ([]*model.Policy, error) {
	return nil, nil
}

func (m *mockPolicyRepo) List(ctx context.Context, filter repository.PolicyListFilter) ([]*model.Policy, int, error) {
	return nil, 0, nil
}

func (m *mockPolicyRepo) Create(ctx context.Context, policy *model.Policy) error { return nil }

func (m *mockPolicyRepo) Update(ctx context.Context, policy *model.Policy) error { return nil }

func (m *mockPolicyRepo) DeleteByID(ctx context.Context, id string) error { return nil }

// mockUserRepo はrepository.UserRepositoryのモック。
type mockUserRepo struct {
	findByIDFunc func(ctx context.Context, id string) (*model.User, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return m.findByIDFunc(ctx, id)
}

func (m *mockUserRepo) FindByFirebaseUID(ctx context.Context, firebaseUID string) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error { return nil }

func (m *mockUserRepo) Upsert(ctx context.Context, user *model.User) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) List(ctx context.Context) ([]*model.User, error) { return nil, nil }

func (m *mockUserRepo) UpdateRoleWithAgentCascade(ctx context.Context, id string, role model.Role) error {
	return nil
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, id, name, photoURL string) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) error { return nil }

// 申込提出が初期ステータスPending/Due/No Claimで作成されることを検証
func TestService_Submit_SetsInitialStatus(t *testing.T) {
	var created *model.Application
	appRepo := &mockApplicationRepo{
		createFunc: func(ctx context.Context, app *model.Application) error {
			created = app
			return nil
		},
	}
	policyRepo := &mockPolicyRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Policy, error) {
			return &model.Policy{ID: id, Title: "定期保険"}, nil
		},
	}
	svc := NewService(appRepo, policyRepo, &mockUserRepo{})

	app, err := svc.Submit(context.Background(), "user-1", SubmitInput{PolicyID: "policy-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil {
		t.Fatal("expected Create to be called")
	}
	if app.Status != model.ApplicationStatusPending {
		t.Errorf("status = %q, want Pending", app.Status)
	}
	if app.PaymentStatus != model.PaymentStatusDue {
		t.Errorf("payment status = %q, want Due", app.PaymentStatus)
	}
	if app.ClaimStatus != model.ClaimStatusNone {
		t.Errorf("claim status = %q, want %q", app.ClaimStatus, model.ClaimStatusNone)
	}
}

// 存在しない保険商品への申込が404相当で拒否されることを検証
func TestService_Submit_PolicyNotFound(t *testing.T) {
	policyRepo := &mockPolicyRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Policy, error) {
			return nil, nil
		},
	}
	svc := NewService(&mockApplicationRepo{}, policyRepo, &mockUserRepo{})

	_, err := svc.Submit(context.Background(), "user-1", SubmitInput{PolicyID: "missing"})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodePolicyNotFound {
		t.Fatalf("err = %v, want POLICY_NOT_FOUND", err)
	}
}

// PendingからApprovedへの審査が成功することを検証
func TestService_Decide_PendingToApproved(t *testing.T) {
	decided := false
	appRepo := &mockApplicationRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Application, error) {
			return &model.Application{ID: id, Status: model.ApplicationStatusPending}, nil
		},
		decideFunc: func(ctx context.Context, id string, status model.ApplicationStatus, feedback string) error {
			decided = true
			if status != model.ApplicationStatusApproved {
				t.Errorf("status = %q, want Approved", status)
			}
			return nil
		},
	}
	svc := NewService(appRepo, &mockPolicyRepo{}, &mockUserRepo{})

	if err := svc.Decide(context.Background(), "app-1", model.ApplicationStatusApproved, "OK"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decided {
		t.Error("expected Decide to be called")
	}
}

// 審査済み申込の再審査が遷移エラーで拒否されることを検証
func TestService_Decide_ForwardOnly(t *testing.T) {
	appRepo := &mockApplicationRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Application, error) {
			return &model.Application{ID: id, Status: model.ApplicationStatusApproved}, nil
		},
		decideFunc: func(ctx context.Context, id string, status model.ApplicationStatus, feedback string) error {
			t.Error("Decide should not be called for decided application")
			return nil
		},
	}
	svc := NewService(appRepo, &mockPolicyRepo{}, &mockUserRepo{})

	err := svc.Decide(context.Background(), "app-1", model.ApplicationStatusRejected, "")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidTransition {
		t.Fatalf("err = %v, want INVALID_STATUS_TRANSITION", err)
	}
}

// 未定義ステータスの審査が検証エラーで拒否されることを検証
func TestService_Decide_InvalidStatus(t *testing.T) {
	svc := NewService(&mockApplicationRepo{}, &mockPolicyRepo{}, &mockUserRepo{})

	err := svc.Decide(context.Background(), "app-1", model.ApplicationStatus("Cancelled"), "")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidStatus {
		t.Fatalf("err = %v, want INVALID_STATUS", err)
	}
}

// 同時審査で後行がsql.ErrNoRowsを受け取った場合に遷移エラーへ変換されることを検証
func TestService_Decide_ConcurrentLoser(t *testing.T) {
	appRepo := &mockApplicationRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Application, error) {
			return &model.Application{ID: id, Status: model.ApplicationStatusPending}, nil
		},
		decideFunc: func(ctx context.Context, id string, status model.ApplicationStatus, feedback string) error {
			return sql.ErrNoRows
		},
	}
	svc := NewService(appRepo, &mockPolicyRepo{}, &mockUserRepo{})

	err := svc.Decide(context.Background(), "app-1", model.ApplicationStatusApproved, "")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidTransition {
		t.Fatalf("err = %v, want INVALID_STATUS_TRANSITION", err)
	}
}

// 存在しない申込の審査が404相当で拒否されることを検証
func TestService_Decide_NotFound(t *testing.T) {
	appRepo := &mockApplicationRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Application, error) {
			return nil, nil
		},
	}
	svc := NewService(appRepo, &mockPolicyRepo{}, &mockUserRepo{})

	err := svc.Decide(context.Background(), "missing", model.ApplicationStatusApproved, "")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeApplicationNotFound {
		t.Fatalf("err = %v, want APPLICATION_NOT_FOUND", err)
	}
}

// エージェント以外のユーザーへの割り当てが拒否されることを検証
func TestService_AssignAgent_RejectsNonAgent(t *testing.T) {
	userRepo := &mockUserRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Role: model.RoleCustomer}, nil
		},
	}
	svc := NewService(&mockApplicationRepo{}, &mockPolicyRepo{}, userRepo)

	err := svc.AssignAgent(context.Background(), "app-1", "customer-1")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidAgent {
		t.Fatalf("err = %v, want INVALID_AGENT", err)
	}
}

// エージェントへの割り当てが成功し再割り当てが上書きされることを検証
func TestService_AssignAgent_Success(t *testing.T) {
	userRepo := &mockUserRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Role: model.RoleAgent}, nil
		},
	}
	assigned := ""
	appRepo := &mockApplicationRepo{
		assignAgentFunc: func(ctx context.Context, id, agentID string) error {
			assigned = agentID
			return nil
		},
	}
	svc := NewService(appRepo, &mockPolicyRepo{}, userRepo)

	if err := svc.AssignAgent(context.Background(), "app-1", "agent-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if assigned != "agent-1" {
		t.Errorf("assigned = %q, want agent-1", assigned)
	}
}

// 顧客が他人の申込を取得できないことを検証
func TestService_Get_CustomerOwnershipCheck(t *testing.T) {
	appRepo := &mockApplicationRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Application, error) {
			return &model.Application{ID: id, UserID: "owner", SubmittedAt: time.Now()}, nil
		},
	}
	svc := NewService(appRepo, &mockPolicyRepo{}, &mockUserRepo{})

	_, err := svc.Get(context.Background(), "intruder", model.RoleCustomer, "app-1")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeApplicationNotFound {
		t.Fatalf("err = %v, want APPLICATION_NOT_FOUND", err)
	}

	// 本人は取得できる
	app, err := svc.Get(context.Background(), "owner", model.RoleCustomer, "app-1")
	if err != nil || app == nil {
		t.Fatalf("owner should read own application: %v", err)
	}
}

// エージェントは担当申込のみ取得できることを検証
func TestService_Get_AgentAssignmentCheck(t *testing.T) {
	appRepo := &mockApplicationRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Application, error) {
			return &model.Application{ID: id, UserID: "owner", AssignedAgentID: "agent-1"}, nil
		},
	}
	svc := NewService(appRepo, &mockPolicyRepo{}, &mockUserRepo{})

	if _, err := svc.Get(context.Background(), "agent-1", model.RoleAgent, "app-1"); err != nil {
		t.Fatalf("assigned agent should read application: %v", err)
	}
	if _, err := svc.Get(context.Background(), "agent-2", model.RoleAgent, "app-1"); err == nil {
		t.Fatal("unassigned agent should not read application")
	}
}
