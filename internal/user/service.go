// Package user はユーザー管理・プロフィールのドメインロジックを提供する。
package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/assuredlife/internal/model"
	"github.com/hitoshi/assuredlife/internal/repository"
)

// Service はユーザー管理のサービス層。
// 管理者向けの一覧・ロール変更・削除と、本人向けのプロフィール操作を提供する。
type Service struct {
	userRepo repository.UserRepository
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// List は全ユーザーを返す。
func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	return users, nil
}

// Get は指定IDのユーザーを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// UpdateRole はユーザーのロールを変更する。
// エージェントへの昇格・エージェントからの降格はagentsレコードへ
// 同一トランザクションで連動する。未定義のロールは400相当で拒否する。
func (s *Service) UpdateRole(ctx context.Context, id, roleName string) error {
	role, ok := model.ParseRole(roleName)
	if !ok {
		return model.NewInvalidRoleError(roleName)
	}

	err := s.userRepo.UpdateRoleWithAgentCascade(ctx, id, role)
	if errors.Is(err, sql.ErrNoRows) {
		return model.NewUserNotFoundError()
	}
	if err != nil {
		return fmt.Errorf("ロールの更新に失敗しました: %w", err)
	}

	slog.Info("user role updated",
		slog.String("user_id", id),
		slog.String("role", string(role)),
	)
	return nil
}

// Delete は指定IDのユーザーを削除する。
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.userRepo.DeleteByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.NewUserNotFoundError()
	}
	if err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}
	return nil
}

// UpdateProfile は本人のプロフィール（名前・写真）を更新して返す。
// 写真URLは空でない場合のみ上書きする。
func (s *Service) UpdateProfile(ctx context.Context, id, name, photoURL string) (*model.User, error) {
	user, err := s.userRepo.UpdateProfile(ctx, id, name, photoURL)
	if err != nil {
		return nil, fmt.Errorf("プロフィールの更新に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}
