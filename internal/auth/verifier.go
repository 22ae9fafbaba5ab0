// Package auth はIDトークン検証とユーザー登録のドメインロジックを提供する。
package auth

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// Identity はIdPが検証したトークンから取り出したユーザー情報を表す。
type Identity struct {
	UID     string
	Email   string
	Name    string
	Picture string
}

// TokenVerifier はIDトークンの検証インターフェース。
// 本番ではFirebase Admin SDK、テストではモックを差し込む。
type TokenVerifier interface {
	// Verify はIDトークンを検証し、トークンに含まれるユーザー情報を返す。
	// 無効・期限切れのトークンの場合はエラーを返す。
	Verify(ctx context.Context, idToken string) (*Identity, error)
}

// FirebaseVerifier はFirebase Admin SDKを使用したTokenVerifier実装。
type FirebaseVerifier struct {
	client *fbauth.Client
}

// NewFirebaseVerifier はサービスアカウントの認証情報JSONからFirebaseVerifierを生成する。
func NewFirebaseVerifier(ctx context.Context, credentialsJSON []byte) (*FirebaseVerifier, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsJSON(credentialsJSON))
	if err != nil {
		return nil, fmt.Errorf("Firebaseアプリの初期化に失敗しました: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("Firebase Authクライアントの初期化に失敗しました: %w", err)
	}
	return &FirebaseVerifier{client: client}, nil
}

// Verify はFirebaseのIDトークンを検証する。
func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*Identity, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("IDトークンの検証に失敗しました: %w", err)
	}

	identity := &Identity{UID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		identity.Email = email
	}
	if name, ok := token.Claims["name"].(string); ok {
		identity.Name = name
	}
	if picture, ok := token.Claims["picture"].(string); ok {
		identity.Picture = picture
	}
	return identity, nil
}

// compile-time interface check
var _ TokenVerifier = (*FirebaseVerifier)(nil)
