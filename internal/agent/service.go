// Package agent はエージェント採用・掲載のドメインロジックを提供する。
package agent

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/assuredlife/internal/model"
	"github.com/hitoshi/assuredlife/internal/repository"
)

// FeaturedLimit はトップページに掲載するエージェント数。
const FeaturedLimit = 3

// Service はエージェント採用のサービス層。
// 登録申請の受理・審査と、承認済みエージェントの掲載を担う。
type Service struct {
	agentRepo repository.AgentRepository
}

// NewService はServiceを生成する。
func NewService(agentRepo repository.AgentRepository) *Service {
	return &Service{agentRepo: agentRepo}
}

// ApplyInput はエージェント登録申請リクエスト。
type ApplyInput struct {
	Experience  string
	Specialties []string
	Motivation  string
}

// Apply はエージェント登録申請を受理する。初期状態はpending。
// 同一ユーザーの再申請は既存の申請を上書きして審査待ちへ戻す。
func (s *Service) Apply(ctx context.Context, userID string, input ApplyInput) (*model.Agent, error) {
	now := time.Now()
	agent := &model.Agent{
		ID:          uuid.New().String(),
		UserID:      userID,
		Experience:  input.Experience,
		Specialties: input.Specialties,
		Motivation:  input.Motivation,
		Status:      model.AgentStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.agentRepo.Create(ctx, agent); err != nil {
		return nil, fmt.Errorf("登録申請の作成に失敗しました: %w", err)
	}

	slog.Info("agent application submitted",
		slog.String("agent_id", agent.ID),
		slog.String("user_id", userID),
	)
	return agent, nil
}

// ListFeatured はトップページ掲載用の承認済みエージェントを返す。
func (s *Service) ListFeatured(ctx context.Context) ([]repository.AgentWithUserInfo, error) {
	agents, err := s.agentRepo.ListByStatusWithUserInfo(ctx, model.AgentStatusApproved, FeaturedLimit)
	if err != nil {
		return nil, fmt.Errorf("掲載エージェントの取得に失敗しました: %w", err)
	}
	return agents, nil
}

// ListApproved は承認済みエージェントを全件返す。
func (s *Service) ListApproved(ctx context.Context) ([]repository.AgentWithUserInfo, error) {
	agents, err := s.agentRepo.ListByStatusWithUserInfo(ctx, model.AgentStatusApproved, 0)
	if err != nil {
		return nil, fmt.Errorf("承認済みエージェントの取得に失敗しました: %w", err)
	}
	return agents, nil
}

// ListPending は審査待ちの登録申請を返す。
func (s *Service) ListPending(ctx context.Context) ([]repository.AgentWithUserInfo, error) {
	agents, err := s.agentRepo.ListByStatusWithUserInfo(ctx, model.AgentStatusPending, 0)
	if err != nil {
		return nil, fmt.Errorf("審査待ち申請の取得に失敗しました: %w", err)
	}
	return agents, nil
}

// Approve は登録申請を承認する。
// 対応するユーザーのロールは同一トランザクションでagentへ更新される。
func (s *Service) Approve(ctx context.Context, agentID string) error {
	err := s.agentRepo.Approve(ctx, agentID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.NewAgentApplicationNotFoundError(agentID)
	}
	if err != nil {
		return fmt.Errorf("登録申請の承認に失敗しました: %w", err)
	}

	slog.Info("agent application approved", slog.String("agent_id", agentID))
	return nil
}

// Reject は登録申請を却下し、申請者向けのフィードバックを記録する。
func (s *Service) Reject(ctx context.Context, agentID, feedback string) error {
	err := s.agentRepo.Reject(ctx, agentID, feedback)
	if errors.Is(err, sql.ErrNoRows) {
		return model.NewAgentApplicationNotFoundError(agentID)
	}
	if err != nil {
		return fmt.Errorf("登録申請の却下に失敗しました: %w", err)
	}

	slog.Info("agent application rejected", slog.String("agent_id", agentID))
	return nil
}
