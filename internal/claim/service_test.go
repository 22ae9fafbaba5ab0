package claim

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/hitoshi/assuredlife/internal/model"
	"github.com/hitoshi/assuredlife/internal/repository"
)

// mockClaimRepo はrepository.ClaimRepositoryのモック。
type mockClaimRepo struct {
	createFunc       func(ctx context.Context, claim *model.Claim) error
	findByIDFunc     func(ctx context.Context, id string) (*model.Claim, error)
	listAllFunc      func(ctx context.Context) ([]repository.ClaimWithDetails, error)
	listByUserFunc   func(ctx context.Context, userID string) ([]repository.ClaimWithDetails, error)
	updateStatusFunc func(ctx context.Context, id string, status model.ClaimStatus) error
}

func (m *mockClaimRepo) Create(ctx context.Context, claim *model.Claim) error {
	return m.createFunc(ctx, claim)
}

func (m *mockClaimRepo) FindByID(ctx context.Context, id string) (*model.Claim, error) {
	return m.findByIDFunc(ctx, id)
}

func (m *mockClaimRepo) ListAllWithDetails(ctx context.Context) ([]repository.ClaimWithDetails, error) {
	return m.listAllFunc(ctx)
}

func (m *mockClaimRepo) ListByUserWithDetails(ctx context.Context, userID string) ([]repository.ClaimWithDetails, error) {
	return m.listByUserFunc(ctx, userID)
}

func (m *mockClaimRepo) UpdateStatus(ctx context.Context, id string, status model.ClaimStatus) error {
	return m.updateStatusFunc(ctx, id, status)
}

// mockApplicationRepo は承認済み申込の検索のみを使うモック。
type mockApplicationRepo struct {
	findApprovedFunc func(ctx context.Context, userID, policyID string) (*model.Application, error)
}

func (m *mockApplicationRepo) Create(ctx context.Context, app *model.Application) error { return nil }

func (m *mockApplicationRepo) FindByID(ctx context.Context, id string) (*model.Application, error) {
	return nil, nil
}

func (m *mockApplicationRepo) FindApprovedByUserAndPolicy(ctx context.Context, userID, policyID string) (*model.Application, error) {
	return m.findApprovedFunc(ctx, userID, policyID)
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

// 承認済み申込を持つユーザーの請求が受理されることを検証
func TestService_Submit_Success(t *testing.T) {
	appRepo := &mockApplicationRepo{
		findApprovedFunc: func(ctx context.Context, userID, policyID string) (*model.Application, error) {
			return &model.Application{ID: "app-1", UserID: userID, PolicyID: policyID}, nil
		},
	}
	var created *model.Claim
	claimRepo := &mockClaimRepo{
		createFunc: func(ctx context.Context, claim *model.Claim) error {
			created = claim
			return nil
		},
	}
	svc := NewService(claimRepo, appRepo)

	claim, err := svc.Submit(context.Background(), "user-1", SubmitInput{
		PolicyID: "policy-1",
		Reason:   "入院給付金の請求",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil {
		t.Fatal("expected Create to be called")
	}
	if claim.Status != model.ClaimStatusPending {
		t.Errorf("status = %q, want Pending", claim.Status)
	}
	if claim.ApplicationID != "app-1" {
		t.Errorf("applicationID = %q, want app-1", claim.ApplicationID)
	}
}

// 承認済み申込がない場合の請求が400相当で拒否され行が書かれないことを検証
func TestService_Submit_NoApprovedApplication(t *testing.T) {
	appRepo := &mockApplicationRepo{
		findApprovedFunc: func(ctx context.Context, userID, policyID string) (*model.Application, error) {
			return nil, nil
		},
	}
	claimRepo := &mockClaimRepo{
		createFunc: func(ctx context.Context, claim *model.Claim) error {
			t.Error("Create should not be called without approved application")
			return nil
		},
	}
	svc := NewService(claimRepo, appRepo)

	_, err := svc.Submit(context.Background(), "user-1", SubmitInput{PolicyID: "policy-1"})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeNoApprovedPolicy {
		t.Fatalf("err = %v, want NO_APPROVED_POLICY", err)
	}
}

// ステータス更新が成功することを検証
func TestService_UpdateStatus_Success(t *testing.T) {
	updated := model.ClaimStatus("")
	claimRepo := &mockClaimRepo{
		updateStatusFunc: func(ctx context.Context, id string, status model.ClaimStatus) error {
			updated = status
			return nil
		},
	}
	svc := NewService(claimRepo, &mockApplicationRepo{})

	if err := svc.UpdateStatus(context.Background(), "claim-1", model.ClaimStatusApproved); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated != model.ClaimStatusApproved {
		t.Errorf("status = %q, want Approved", updated)
	}
}

// 未定義ステータスの更新が検証エラーで拒否されることを検証
func TestService_UpdateStatus_InvalidStatus(t *testing.T) {
	svc := NewService(&mockClaimRepo{}, &mockApplicationRepo{})

	err := svc.UpdateStatus(context.Background(), "claim-1", model.ClaimStatus("Paid"))
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidStatus {
		t.Fatalf("err = %v, want INVALID_STATUS", err)
	}
}

// 存在しない請求の更新が404相当で拒否されることを検証
func TestService_UpdateStatus_NotFound(t *testing.T) {
	claimRepo := &mockClaimRepo{
		updateStatusFunc: func(ctx context.Context, id string, status model.ClaimStatus) error {
			return sql.ErrNoRows
		},
	}
	svc := NewService(claimRepo, &mockApplicationRepo{})

	err := svc.UpdateStatus(context.Background(), "missing", model.ClaimStatusRejected)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeClaimNotFound {
		t.Fatalf("err = %v, want CLAIM_NOT_FOUND", err)
	}
}
