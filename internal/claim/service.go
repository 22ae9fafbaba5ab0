// Package claim は保険金請求のドメインロジックを提供する。
package claim

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

// Service は保険金請求のサービス層。
// 請求の前提条件チェックと、申込側claim_statusへのミラーを担う。
type Service struct {
	claimRepo repository.ClaimRepository
	appRepo   repository.ApplicationRepository
}

// NewService はServiceを生成する。
func NewService(claimRepo repository.ClaimRepository, appRepo repository.ApplicationRepository) *Service {
	return &Service{claimRepo: claimRepo, appRepo: appRepo}
}

// SubmitInput は請求提出リクエスト。
type SubmitInput struct {
	PolicyID  string
	Reason    string
	Documents []string
}

// Submit は保険金請求を受理する。
// 呼び出しユーザーがその保険商品に対する承認済み申込を持たない場合は
// 400相当のエラーを返し、行は一切書き込まれない。
func (s *Service) Submit(ctx context.Context, userID string, input SubmitInput) (*model.Claim, error) {
	app, err := s.appRepo.FindApprovedByUserAndPolicy(ctx, userID, input.PolicyID)
	if err != nil {
		return nil, fmt.Errorf("承認済み申込の検索に失敗しました: %w", err)
	}
	if app == nil {
		return nil, model.NewNoApprovedPolicyError()
	}

	now := time.Now()
	claim := &model.Claim{
		ID:            uuid.New().String(),
		UserID:        userID,
		PolicyID:      input.PolicyID,
		ApplicationID: app.ID,
		Reason:        input.Reason,
		Documents:     input.Documents,
		Status:        model.ClaimStatusPending,
		SubmittedAt:   now,
		UpdatedAt:     now,
	}
	if err := s.claimRepo.Create(ctx, claim); err != nil {
		return nil, fmt.Errorf("請求の作成に失敗しました: %w", err)
	}

	slog.Info("claim submitted",
		slog.String("claim_id", claim.ID),
		slog.String("user_id", userID),
		slog.String("application_id", app.ID),
	)
	return claim, nil
}

// ListAll は全請求を表示情報付きで返す。
func (s *Service) ListAll(ctx context.Context) ([]repository.ClaimWithDetails, error) {
	claims, err := s.claimRepo.ListAllWithDetails(ctx)
	if err != nil {
		return nil, fmt.Errorf("請求一覧の取得に失敗しました: %w", err)
	}
	return claims, nil
}

// ListMine は呼び出しユーザー自身の請求を返す。
func (s *Service) ListMine(ctx context.Context, userID string) ([]repository.ClaimWithDetails, error) {
	claims, err := s.claimRepo.ListByUserWithDetails(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("請求一覧の取得に失敗しました: %w", err)
	}
	return claims, nil
}

// UpdateStatus は請求ステータスを更新する。
// 更新は申込側claim_statusへ同一トランザクションでミラーされる。
func (s *Service) UpdateStatus(ctx context.Context, claimID string, status model.ClaimStatus) error {
	if !status.Valid() {
		return model.NewInvalidStatusError(string(status))
	}

	err := s.claimRepo.UpdateStatus(ctx, claimID, status)
	if errors.Is(err, sql.ErrNoRows) {
		return model.NewClaimNotFoundError(claimID)
	}
	if err != nil {
		return fmt.Errorf("請求ステータスの更新に失敗しました: %w", err)
	}

	slog.Info("claim status updated",
		slog.String("claim_id", claimID),
		slog.String("status", string(status)),
	)
	return nil
}
