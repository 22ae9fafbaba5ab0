package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/assuredlife/internal/model"
)

// mockVerifier はTokenVerifierのモック。
type mockVerifier struct {
	verifyFunc func(ctx context.Context, idToken string) (*Identity, error)
}

func (m *mockVerifier) Verify(ctx context.Context, idToken string) (*Identity, error) {
	return m.verifyFunc(ctx, idToken)
}

// mockUserRepo はrepository.UserRepositoryのモック。
type mockUserRepo struct {
	findByIDFunc          func(ctx context.Context, id string) (*model.User, error)
	findByFirebaseUIDFunc func(ctx context.Context, firebaseUID string) (*model.User, error)
	createFunc            func(ctx context.Context, user *model.User) error
	upsertFunc            func(ctx context.Context, user *model.User) (*model.User, error)
	listFunc              func(ctx context.Context) ([]*model.User, error)
	updateRoleFunc        func(ctx context.Context, id string, role model.Role) error
	updateProfileFunc     func(ctx context.Context, id, name, photoURL string) (*model.User, error)
	deleteByIDFunc        func(ctx context.Context, id string) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return m.findByIDFunc(ctx, id)
}

func (m *mockUserRepo) FindByFirebaseUID(ctx context.Context, firebaseUID string) (*model.User, error) {
	return m.findByFirebaseUIDFunc(ctx, firebaseUID)
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	return m.createFunc(ctx, user)
}

func (m *mockUserRepo) Upsert(ctx context.Context, user *model.User) (*model.User, error) {
	return m.upsertFunc(ctx, user)
}

func (m *mockUserRepo) List(ctx context.Context) ([]*model.User, error) {
	return m.listFunc(ctx)
}

func (m *mockUserRepo) UpdateRoleWithAgentCascade(ctx context.Context, id string, role model.Role) error {
	return m.updateRoleFunc(ctx, id, role)
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, id, name, photoURL string) (*model.User, error) {
	return m.updateProfileFunc(ctx, id, name, photoURL)
}

func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) error {
	return m.deleteByIDFunc(ctx, id)
}

// 有効なトークンと登録済みユーザーで認証が成功することを検証
func TestService_Authenticate_Success(t *testing.T) {
	verifier := &mockVerifier{
		verifyFunc: func(ctx context.Context, idToken string) (*Identity, error) {
			return &Identity{UID: "firebase-1", Email: "taro@example.com"}, nil
		},
	}
	repo := &mockUserRepo{
		findByFirebaseUIDFunc: func(ctx context.Context, firebaseUID string) (*model.User, error) {
			if firebaseUID != "firebase-1" {
				t.Errorf("firebaseUID = %q, want %q", firebaseUID, "firebase-1")
			}
			return &model.User{ID: "user-1", FirebaseUID: firebaseUID, Role: model.RoleCustomer}, nil
		},
	}
	svc := NewService(verifier, repo)

	user, err := svc.Authenticate(context.Background(), "valid-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "user-1" {
		t.Errorf("user.ID = %q, want %q", user.ID, "user-1")
	}
}

// 無効なトークンで認証が失敗することを検証
func TestService_Authenticate_InvalidToken(t *testing.T) {
	verifier := &mockVerifier{
		verifyFunc: func(ctx context.Context, idToken string) (*Identity, error) {
			return nil, errors.New("token expired")
		},
	}
	svc := NewService(verifier, &mockUserRepo{})

	if _, err := svc.Authenticate(context.Background(), "expired-token"); err == nil {
		t.Fatal("expected error for invalid token")
	}
}

// 有効なトークンでも未登録の場合はErrUnknownSubjectを返すことを検証
func TestService_Authenticate_UnknownSubject(t *testing.T) {
	verifier := &mockVerifier{
		verifyFunc: func(ctx context.Context, idToken string) (*Identity, error) {
			return &Identity{UID: "firebase-unknown"}, nil
		},
	}
	repo := &mockUserRepo{
		findByFirebaseUIDFunc: func(ctx context.Context, firebaseUID string) (*model.User, error) {
			return nil, nil
		},
	}
	svc := NewService(verifier, repo)

	_, err := svc.Authenticate(context.Background(), "valid-token")
	if !errors.Is(err, ErrUnknownSubject) {
		t.Fatalf("err = %v, want ErrUnknownSubject", err)
	}
}

// 未登録ユーザーの登録がデフォルトロールcustomerで作成されることを検証
func TestService_Register_CreatesCustomer(t *testing.T) {
	verifier := &mockVerifier{
		verifyFunc: func(ctx context.Context, idToken string) (*Identity, error) {
			return &Identity{UID: "firebase-2", Email: "hanako@example.com", Name: "Hanako"}, nil
		},
	}
	var created *model.User
	repo := &mockUserRepo{
		findByFirebaseUIDFunc: func(ctx context.Context, firebaseUID string) (*model.User, error) {
			return nil, nil
		},
		createFunc: func(ctx context.Context, user *model.User) error {
			created = user
			return nil
		},
	}
	svc := NewService(verifier, repo)

	user, isNew, err := svc.Register(context.Background(), "valid-token", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !isNew {
		t.Error("expected isNew = true")
	}
	if created == nil {
		t.Fatal("expected Create to be called")
	}
	if user.Role != model.RoleCustomer {
		t.Errorf("role = %q, want %q", user.Role, model.RoleCustomer)
	}
	if user.Name != "Hanako" {
		t.Errorf("name = %q, want token claim fallback %q", user.Name, "Hanako")
	}
}

// 登録済みユーザーの再登録は既存行を返し新規作成しないことを検証
func TestService_Register_ExistingUser(t *testing.T) {
	verifier := &mockVerifier{
		verifyFunc: func(ctx context.Context, idToken string) (*Identity, error) {
			return &Identity{UID: "firebase-3"}, nil
		},
	}
	repo := &mockUserRepo{
		findByFirebaseUIDFunc: func(ctx context.Context, firebaseUID string) (*model.User, error) {
			return &model.User{ID: "user-3", FirebaseUID: firebaseUID, Role: model.RoleAgent}, nil
		},
		createFunc: func(ctx context.Context, user *model.User) error {
			t.Error("Create should not be called for existing user")
			return nil
		},
	}
	svc := NewService(verifier, repo)

	user, isNew, err := svc.Register(context.Background(), "valid-token", "ignored", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if isNew {
		t.Error("expected isNew = false")
	}
	// 既存ユーザーのロールは維持される
	if user.Role != model.RoleAgent {
		t.Errorf("role = %q, want %q", user.Role, model.RoleAgent)
	}
}

// UpsertがIdPの最新情報でリポジトリのupsertを呼ぶことを検証
func TestService_Upsert_PassesIdentityFields(t *testing.T) {
	verifier := &mockVerifier{
		verifyFunc: func(ctx context.Context, idToken string) (*Identity, error) {
			return &Identity{UID: "firebase-4", Email: "new@example.com", Name: "New Name", Picture: "https://example.com/p.png"}, nil
		},
	}
	repo := &mockUserRepo{
		upsertFunc: func(ctx context.Context, user *model.User) (*model.User, error) {
			if user.FirebaseUID != "firebase-4" {
				t.Errorf("firebaseUID = %q", user.FirebaseUID)
			}
			if user.Email != "new@example.com" || user.Name != "New Name" {
				t.Errorf("unexpected identity fields: %+v", user)
			}
			return user, nil
		},
	}
	svc := NewService(verifier, repo)

	if _, err := svc.Upsert(context.Background(), "valid-token"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
