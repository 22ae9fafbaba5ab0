package handler

import (
	"context"

	"github.com/hitoshi/assuredlife/internal/model"
	"github.com/hitoshi/assuredlife/internal/repository"
)

// PolicyServiceAdapterFromRepo は repository.PolicyRepository を PolicyServiceInterface に適合させるアダプタ。
// 保険商品はドメインルールを持たないCRUDのため、サービス層を挟まずリポジトリを直接公開する。
type PolicyServiceAdapterFromRepo struct {
	repo repository.PolicyRepository
}

// NewPolicyServiceAdapter は repository.PolicyRepository から PolicyServiceInterface を生成する。
func NewPolicyServiceAdapter(repo repository.PolicyRepository) PolicyServiceInterface {
	return &PolicyServiceAdapterFromRepo{repo: repo}
}

// Get は指定IDの保険商品を返す。
func (a *PolicyServiceAdapterFromRepo) Get(ctx context.Context, id string) (*model.Policy, error) {
	return a.repo.FindByID(ctx, id)
}

// List はフィルタ付きで保険商品一覧と総件数を返す。
func (a *PolicyServiceAdapterFromRepo) List(ctx context.Context, filter repository.PolicyListFilter) ([]*model.Policy, int, error) {
	return a.repo.List(ctx, filter)
}

// ListPopular は購入数の多い順に保険商品を返す。
func (a *PolicyServiceAdapterFromRepo) ListPopular(ctx context.Context, limit int) ([]*model.Policy, error) {
	return a.repo.ListPopular(ctx, limit)
}

// Create は保険商品を作成する。
func (a *PolicyServiceAdapterFromRepo) Create(ctx context.Context, policy *model.Policy) error {
	return a.repo.Create(ctx, policy)
}

// Update は保険商品を更新する。
func (a *PolicyServiceAdapterFromRepo) Update(ctx context.Context, policy *model.Policy) error {
	return a.repo.Update(ctx, policy)
}

// Delete は保険商品を削除する。
func (a *PolicyServiceAdapterFromRepo) Delete(ctx context.Context, id string) error {
	return a.repo.DeleteByID(ctx, id)
}

// ReviewServiceAdapterFromRepo は repository.ReviewRepository を ReviewServiceInterface に適合させるアダプタ。
type ReviewServiceAdapterFromRepo struct {
	repo repository.ReviewRepository
}

// NewReviewServiceAdapter は repository.ReviewRepository から ReviewServiceInterface を生成する。
func NewReviewServiceAdapter(repo repository.ReviewRepository) ReviewServiceInterface {
	return &ReviewServiceAdapterFromRepo{repo: repo}
}

// ListLatest は最新のレビューを返す。
func (a *ReviewServiceAdapterFromRepo) ListLatest(ctx context.Context, limit int) ([]*model.Review, error) {
	return a.repo.ListLatest(ctx, limit)
}

// Create はレビューを作成する。
func (a *ReviewServiceAdapterFromRepo) Create(ctx context.Context, review *model.Review) error {
	return a.repo.Create(ctx, review)
}

// FAQServiceAdapterFromRepo は repository.FAQRepository を FAQServiceInterface に適合させるアダプタ。
type FAQServiceAdapterFromRepo struct {
	repo repository.FAQRepository
}

// NewFAQServiceAdapter は repository.FAQRepository から FAQServiceInterface を生成する。
func NewFAQServiceAdapter(repo repository.FAQRepository) FAQServiceInterface {
	return &FAQServiceAdapterFromRepo{repo: repo}
}

// List は全FAQを返す。
func (a *FAQServiceAdapterFromRepo) List(ctx context.Context) ([]*model.FAQ, error) {
	return a.repo.List(ctx)
}

// NewsletterServiceAdapterFromRepo は repository.NewsletterRepository を NewsletterServiceInterface に適合させるアダプタ。
type NewsletterServiceAdapterFromRepo struct {
	repo repository.NewsletterRepository
}

// NewNewsletterServiceAdapter は repository.NewsletterRepository から NewsletterServiceInterface を生成する。
func NewNewsletterServiceAdapter(repo repository.NewsletterRepository) NewsletterServiceInterface {
	return &NewsletterServiceAdapterFromRepo{repo: repo}
}

// FindByEmail はメールアドレスで購読者を検索する。
func (a *NewsletterServiceAdapterFromRepo) FindByEmail(ctx context.Context, email string) (*model.NewsletterSubscriber, error) {
	return a.repo.FindByEmail(ctx, email)
}

// Create は購読者を作成する。
func (a *NewsletterServiceAdapterFromRepo) Create(ctx context.Context, sub *model.NewsletterSubscriber) error {
	return a.repo.Create(ctx, sub)
}

// --- compile-time interface checks ---

var _ PolicyServiceInterface = (*PolicyServiceAdapterFromRepo)(nil)
var _ ReviewServiceInterface = (*ReviewServiceAdapterFromRepo)(nil)
var _ FAQServiceInterface = (*FAQServiceAdapterFromRepo)(nil)
var _ NewsletterServiceInterface = (*NewsletterServiceAdapterFromRepo)(nil)
