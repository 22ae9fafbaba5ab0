package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/assuredlife/internal/middleware"
	"github.com/hitoshi/assuredlife/internal/model"
	"github.com/hitoshi/assuredlife/internal/payment"
	"github.com/hitoshi/assuredlife/internal/repository"
)

// PaymentServiceInterface は決済ハンドラーが必要とするサービスインターフェース。
type PaymentServiceInterface interface {
	// CreateIntent は決済インテントを作成しクライアントシークレットを返す。
	CreateIntent(ctx context.Context, userID, applicationID string, amount int64) (string, error)
	// Record はゲートウェイからの決済結果を記録する。再送は冪等。
	Record(ctx context.Context, userID string, input payment.RecordInput) (*payment.RecordResult, error)
	// ListAll は全取引を表示情報付きで返す。
	ListAll(ctx context.Context) ([]repository.TransactionWithDetails, error)
	// ListMine は呼び出しユーザー自身の取引を返す。
	ListMine(ctx context.Context, userID string) ([]repository.TransactionWithDetails, error)
}

// PaymentHandler は決済のHTTPハンドラー。
type PaymentHandler struct {
	service PaymentServiceInterface
}

// NewPaymentHandler はPaymentHandlerを生成する。
func NewPaymentHandler(service PaymentServiceInterface) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// createIntentRequest は決済インテント作成リクエストのボディ。
// 金額は通貨の最小単位（セント）で指定する。
type createIntentRequest struct {
	ApplicationID string `json:"application_id"`
	Amount        int64  `json:"amount"`
}

// createIntentResponse は決済インテント作成レスポンス。
type createIntentResponse struct {
	ClientSecret string `json:"client_secret"`
}

// recordPaymentRequest は決済結果記録リクエストのボディ。
type recordPaymentRequest struct {
	ApplicationID string `json:"application_id"`
	TransactionID string `json:"transaction_id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	Status        string `json:"status"`
	PaymentMethod string `json:"payment_method"`
}

// recordPaymentResponse は決済結果記録レスポンス。
type recordPaymentResponse struct {
	Recorded bool `json:"recorded"`
	Success  bool `json:"success"`
}

// transactionResponse は取引のAPIレスポンス。
type transactionResponse struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	PolicyID      string    `json:"policy_id"`
	ApplicationID string    `json:"application_id"`
	TransactionID string    `json:"transaction_id"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	PaymentMethod string    `json:"payment_method"`
	CreatedAt     time.Time `json:"created_at"`
	UserEmail     string    `json:"user_email,omitempty"`
	PolicyTitle   string    `json:"policy_title,omitempty"`
}

// CreateIntent は決済インテントの作成を処理する。
// POST /api/v1/payments/intent
func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	var req createIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}
	if req.Amount <= 0 {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeInvalidRequest,
			Message:  "金額は正の値でなければなりません。",
			Category: "validation",
			Action:   "金額を確認してください。",
		})
		return
	}

	secret, err := h.service.CreateIntent(r.Context(), userID, req.ApplicationID, req.Amount)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, createIntentResponse{ClientSecret: secret})
}

// RecordPayment は決済結果の記録を処理する。
// 同一取引IDの再送は何も変更せずrecorded=falseを返す。
// POST /api/v1/payments
func (h *PaymentHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	var req recordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}
	if req.TransactionID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeInvalidRequest,
			Message:  "取引IDが空です。",
			Category: "validation",
			Action:   "ゲートウェイから返された取引IDを指定してください。",
		})
		return
	}

	result, err := h.service.Record(r.Context(), userID, payment.RecordInput{
		ApplicationID: req.ApplicationID,
		TransactionID: req.TransactionID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Status:        req.Status,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, recordPaymentResponse{
		Recorded: result.Recorded,
		Success:  result.Success,
	})
}

// ListAllTransactions は全取引の一覧を返す。
// GET /api/v1/transactions
func (h *PaymentHandler) ListAllTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := h.service.ListAll(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponses(txns))
}

// ListMyTransactions は呼び出しユーザー自身の取引一覧を返す。
// GET /api/v1/transactions/mine
func (h *PaymentHandler) ListMyTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	txns, err := h.service.ListMine(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponses(txns))
}

func toTransactionResponses(txns []repository.TransactionWithDetails) []transactionResponse {
	responses := make([]transactionResponse, 0, len(txns))
	for _, t := range txns {
		responses = append(responses, transactionResponse{
			ID:            t.ID,
			UserID:        t.UserID,
			PolicyID:      t.PolicyID,
			ApplicationID: t.ApplicationID,
			TransactionID: t.TransactionID,
			Amount:        t.Amount,
			Currency:      t.Currency,
			Status:        t.Status,
			PaymentMethod: t.PaymentMethod,
			CreatedAt:     t.CreatedAt,
			UserEmail:     t.UserEmail,
			PolicyTitle:   t.PolicyTitle,
		})
	}
	return responses
}
