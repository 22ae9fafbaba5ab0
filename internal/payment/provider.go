// Package payment は決済ゲートウェイとの連携と取引記録のドメインロジックを提供する。
package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// IntentProvider は決済インテント作成のインターフェース。
// 本番ではStripe、テストではモックを差し込む。
type IntentProvider interface {
	// CreateIntent は決済インテントを作成し、クライアントシークレットを返す。
	// amountは通貨の最小単位（USDの場合はセント）。
	CreateIntent(ctx context.Context, amount int64, currency string) (string, error)
}

// StripeProvider はStripe PaymentIntentsを使用したIntentProvider実装。
type StripeProvider struct {
	api *client.API
}

// NewStripeProvider はシークレットキーからStripeProviderを生成する。
func NewStripeProvider(secretKey string) *StripeProvider {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeProvider{api: api}
}

// CreateIntent はStripeのPaymentIntentを作成する。
func (p *StripeProvider) CreateIntent(ctx context.Context, amount int64, currency string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amount),
		Currency:           stripe.String(currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx

	intent, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return "", fmt.Errorf("決済インテントの作成に失敗しました: %w", err)
	}
	return intent.ClientSecret, nil
}

// compile-time interface check
var _ IntentProvider = (*StripeProvider)(nil)
