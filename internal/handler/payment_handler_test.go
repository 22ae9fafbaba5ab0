package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/assuredlife/internal/model"
	"github.com/hitoshi/assuredlife/internal/payment"
	"github.com/hitoshi/assuredlife/internal/repository"
)

// --- モック定義 ---

type mockPaymentService struct {
	createIntentFn func(ctx context.Context, userID, applicationID string, amount int64) (string, error)
	recordFn       func(ctx context.Context, userID string, input payment.RecordInput) (*payment.RecordResult, error)
	listAllFn      func(ctx context.Context) ([]repository.TransactionWithDetails, error)
	listMineFn     func(ctx context.Context, userID string) ([]repository.TransactionWithDetails, error)
}

func (m *mockPaymentService) CreateIntent(ctx context.Context, userID, applicationID string, amount int64) (string, error) {
	return m.createIntentFn(ctx, userID, applicationID, amount)
}

func (m *mockPaymentService) Record(ctx context.Context, userID string, input payment.RecordInput) (*payment.RecordResult, error) {
	return m.recordFn(ctx, userID, input)
}

func (m *mockPaymentService) ListAll(ctx context.Context) ([]repository.TransactionWithDetails, error) {
	return m.listAllFn(ctx)
}

func (m *mockPaymentService) ListMine(ctx context.Context, userID string) ([]repository.TransactionWithDetails, error) {
	return m.listMineFn(ctx, userID)
}

// --- テスト ---

func TestCreateIntent_Success_ReturnsClientSecret(t *testing.T) {
	svc := &mockPaymentService{
		createIntentFn: func(ctx context.Context, userID, applicationID string, amount int64) (string, error) {
			if amount != 12000 {
				t.Errorf("amount = %d", amount)
			}
			return "pi_secret_123", nil
		},
	}
	h := NewPaymentHandler(svc)

	body := strings.NewReader(`{"application_id": "app-1", "amount": 12000}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/intent", body)
	req = requestWithIdentity(req, "user-1", model.RoleCustomer)
	w := httptest.NewRecorder()

	h.CreateIntent(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp createIntentResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ClientSecret != "pi_secret_123" {
		t.Errorf("clientSecret = %q", resp.ClientSecret)
	}
}

func TestCreateIntent_NonPositiveAmount_Returns400(t *testing.T) {
	h := NewPaymentHandler(&mockPaymentService{})

	body := strings.NewReader(`{"application_id": "app-1", "amount": 0}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/intent", body)
	req = requestWithIdentity(req, "user-1", model.RoleCustomer)
	w := httptest.NewRecorder()

	h.CreateIntent(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestCreateIntent_ForeignApplication_Returns404(t *testing.T) {
	svc := &mockPaymentService{
		createIntentFn: func(ctx context.Context, userID, applicationID string, amount int64) (string, error) {
			return "", model.NewApplicationNotFoundError(applicationID)
		},
	}
	h := NewPaymentHandler(svc)

	body := strings.NewReader(`{"application_id": "someone-elses", "amount": 500}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/intent", body)
	req = requestWithIdentity(req, "user-1", model.RoleCustomer)
	w := httptest.NewRecorder()

	h.CreateIntent(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestRecordPayment_DuplicateReplay_ReportsNotRecorded(t *testing.T) {
	svc := &mockPaymentService{
		recordFn: func(ctx context.Context, userID string, input payment.RecordInput) (*payment.RecordResult, error) {
			return &payment.RecordResult{Recorded: false, Success: true}, nil
		},
	}
	h := NewPaymentHandler(svc)

	body := strings.NewReader(`{"application_id": "app-1", "transaction_id": "txn_1", "status": "succeeded"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", body)
	req = requestWithIdentity(req, "user-1", model.RoleCustomer)
	w := httptest.NewRecorder()

	h.RecordPayment(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp recordPaymentResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Recorded {
		t.Error("recorded should be false for a replayed transaction")
	}
}

func TestRecordPayment_EmptyTransactionID_Returns400(t *testing.T) {
	h := NewPaymentHandler(&mockPaymentService{})

	body := strings.NewReader(`{"application_id": "app-1", "transaction_id": ""}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", body)
	req = requestWithIdentity(req, "user-1", model.RoleCustomer)
	w := httptest.NewRecorder()

	h.RecordPayment(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
