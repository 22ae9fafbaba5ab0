// Package application は保険申込ライフサイクルのドメインロジックを提供する。
package application

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/assuredlife/internal/model"
	"github.com/hitoshi/assuredlife/internal/repository"
)

// Service は保険申込のライフサイクルを調停するサービス層。
// 提出・審査・担当割り当てのビジネスルールを一箇所に集約する。
type Service struct {
	appRepo    repository.ApplicationRepository
	policyRepo repository.PolicyRepository
	userRepo   repository.UserRepository
}

// NewService はServiceを生成する。
func NewService(
	appRepo repository.ApplicationRepository,
	policyRepo repository.PolicyRepository,
	userRepo repository.UserRepository,
) *Service {
	return &Service{appRepo: appRepo, policyRepo: policyRepo, userRepo: userRepo}
}

// SubmitInput は申込提出リクエスト。
type SubmitInput struct {
	PolicyID         string
	PersonalData     json.RawMessage
	NomineeData      json.RawMessage
	HealthDisclosure json.RawMessage
}

// Submit は顧客の申込を受理する。
// 初期状態は status=Pending、payment_status=Due、claim_status="No Claim"。
// 保険商品が存在しない場合は404相当のエラーを返す。
func (s *Service) Submit(ctx context.Context, userID string, input SubmitInput) (*model.Application, error) {
	policy, err := s.policyRepo.FindByID(ctx, input.PolicyID)
	if err != nil {
		return nil, fmt.Errorf("保険商品の取得に失敗しました: %w", err)
	}
	if policy == nil {
		return nil, model.NewPolicyNotFoundError(input.PolicyID)
	}

	now := time.Now()
	app := &model.Application{
		ID:               uuid.New().String(),
		UserID:           userID,
		PolicyID:         input.PolicyID,
		PersonalData:     input.PersonalData,
		NomineeData:      input.NomineeData,
		HealthDisclosure: input.HealthDisclosure,
		Status:           model.ApplicationStatusPending,
		PaymentStatus:    model.PaymentStatusDue,
		ClaimStatus:      model.ClaimStatusNone,
		SubmittedAt:      now,
		UpdatedAt:        now,
	}
	if err := s.appRepo.Create(ctx, app); err != nil {
		return nil, fmt.Errorf("申込の作成に失敗しました: %w", err)
	}

	slog.Info("application submitted",
		slog.String("application_id", app.ID),
		slog.String("user_id", userID),
		slog.String("policy_id", input.PolicyID),
	)
	return app, nil
}

// ListAll は全申込を申込者・保険商品情報付きで返す。
func (s *Service) ListAll(ctx context.Context) ([]repository.ApplicationWithDetails, error) {
	apps, err := s.appRepo.ListAllWithDetails(ctx)
	if err != nil {
		return nil, fmt.Errorf("申込一覧の取得に失敗しました: %w", err)
	}
	return apps, nil
}

// ListAssigned は指定エージェントに割り当てられた申込を返す。
func (s *Service) ListAssigned(ctx context.Context, agentID string) ([]repository.ApplicationWithDetails, error) {
	apps, err := s.appRepo.ListByAgentWithDetails(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("担当申込一覧の取得に失敗しました: %w", err)
	}
	return apps, nil
}

// ListMine は呼び出しユーザー自身の申込を返す。
func (s *Service) ListMine(ctx context.Context, userID string) ([]repository.ApplicationWithDetails, error) {
	apps, err := s.appRepo.ListByUserWithDetails(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("申込一覧の取得に失敗しました: %w", err)
	}
	return apps, nil
}

// Get は指定IDの申込を返す。
// 顧客は自分の申込のみ、エージェントは担当申込のみ閲覧できる。管理者は制限なし。
func (s *Service) Get(ctx context.Context, requesterID string, requesterRole model.Role, applicationID string) (*model.Application, error) {
	app, err := s.appRepo.FindByID(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("申込の取得に失敗しました: %w", err)
	}
	if app == nil {
		return nil, model.NewApplicationNotFoundError(applicationID)
	}

	switch requesterRole {
	case model.RoleAdmin:
	case model.RoleAgent:
		if app.AssignedAgentID != requesterID {
			return nil, model.NewApplicationNotFoundError(applicationID)
		}
	default:
		if app.UserID != requesterID {
			return nil, model.NewApplicationNotFoundError(applicationID)
		}
	}
	return app, nil
}

// Decide は申込をApprovedまたはRejectedへ遷移させる。
// 遷移はPendingからの前方向のみ許可される。Approvedへの遷移は
// 保険商品の購入数を同一トランザクションでちょうど1回加算する。
func (s *Service) Decide(ctx context.Context, applicationID string, status model.ApplicationStatus, feedback string) error {
	if !status.Valid() {
		return model.NewInvalidStatusError(string(status))
	}

	app, err := s.appRepo.FindByID(ctx, applicationID)
	if err != nil {
		return fmt.Errorf("申込の取得に失敗しました: %w", err)
	}
	if app == nil {
		return model.NewApplicationNotFoundError(applicationID)
	}
	if !app.Status.CanTransitionTo(status) {
		return model.NewInvalidTransitionError(string(app.Status), string(status))
	}

	err = s.appRepo.Decide(ctx, applicationID, status, feedback)
	if errors.Is(err, sql.ErrNoRows) {
		// 事前チェックの後に他の審査が先行した場合
		return model.NewInvalidTransitionError(string(app.Status), string(status))
	}
	if err != nil {
		return fmt.Errorf("申込の審査に失敗しました: %w", err)
	}

	slog.Info("application decided",
		slog.String("application_id", applicationID),
		slog.String("status", string(status)),
	)
	return nil
}

// AssignAgent は申込に担当エージェントを割り当てる。
// 割り当て先はロールがagentのユーザーでなければならない。再割り当ては上書きする。
func (s *Service) AssignAgent(ctx context.Context, applicationID, agentID string) error {
	agent, err := s.userRepo.FindByID(ctx, agentID)
	if err != nil {
		return fmt.Errorf("エージェントの取得に失敗しました: %w", err)
	}
	if agent == nil || agent.Role != model.RoleAgent {
		return model.NewInvalidAgentError(agentID)
	}

	err = s.appRepo.AssignAgent(ctx, applicationID, agentID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.NewApplicationNotFoundError(applicationID)
	}
	if err != nil {
		return fmt.Errorf("担当エージェントの割り当てに失敗しました: %w", err)
	}
	return nil
}
