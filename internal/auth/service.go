package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/assuredlife/internal/model"
	"github.com/hitoshi/assuredlife/internal/repository"
)

// ErrUnknownSubject はトークンは有効だがローカルユーザーが未登録であることを表す。
// 認証ミドルウェアはこれを401として扱う。
var ErrUnknownSubject = errors.New("認証済みユーザーが登録されていません")

// Service はIDトークン検証とユーザー登録のビジネスロジックを提供する。
type Service struct {
	verifier TokenVerifier
	userRepo repository.UserRepository
}

// NewService はServiceを生成する。
func NewService(verifier TokenVerifier, userRepo repository.UserRepository) *Service {
	return &Service{verifier: verifier, userRepo: userRepo}
}

// Authenticate はIDトークンを検証し、対応するローカルユーザーを返す。
// トークンが無効な場合、および有効でも未登録の場合はエラーを返す。
func (s *Service) Authenticate(ctx context.Context, idToken string) (*model.User, error) {
	identity, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("トークンの検証に失敗しました: %w", err)
	}

	user, err := s.userRepo.FindByFirebaseUID(ctx, identity.UID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if user == nil {
		return nil, ErrUnknownSubject
	}
	return user, nil
}

// Register はIDトークンを検証し、未登録であればローカルユーザーを作成する。
// 登録済みの場合は既存ユーザーをそのまま返す。戻り値のboolは新規作成を表す。
func (s *Service) Register(ctx context.Context, idToken, name, photoURL string) (*model.User, bool, error) {
	identity, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		return nil, false, fmt.Errorf("トークンの検証に失敗しました: %w", err)
	}

	existing, err := s.userRepo.FindByFirebaseUID(ctx, identity.UID)
	if err != nil {
		return nil, false, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	if name == "" {
		name = identity.Name
	}
	if photoURL == "" {
		photoURL = identity.Picture
	}

	now := time.Now()
	user := &model.User{
		ID:          uuid.New().String(),
		FirebaseUID: identity.UID,
		Email:       identity.Email,
		Name:        name,
		PhotoURL:    photoURL,
		Role:        model.RoleCustomer,
		LastLogin:   now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, false, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	slog.Info("new user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)
	return user, true, nil
}

// Upsert はIDトークンを検証し、ユーザーを作成または更新して返す。
// ソーシャルログインのたびに呼ばれ、email・name・photo・last_loginを
// IdP側の最新値で上書きする。新規作成時のロールはcustomer。
func (s *Service) Upsert(ctx context.Context, idToken string) (*model.User, error) {
	identity, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("トークンの検証に失敗しました: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:          uuid.New().String(),
		FirebaseUID: identity.UID,
		Email:       identity.Email,
		Name:        identity.Name,
		PhotoURL:    identity.Picture,
		Role:        model.RoleCustomer,
		LastLogin:   now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	saved, err := s.userRepo.Upsert(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("ユーザーのupsertに失敗しました: %w", err)
	}
	return saved, nil
}
