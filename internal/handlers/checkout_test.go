package handlers

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
)

// fakeChecker answers CheckTransaction with a canned status, so webhook
// tests never reach the gateway.
type fakeChecker struct {
	status string
	txID   string
}

func (f fakeChecker) CheckTransaction(orderID string) (*coreapi.TransactionStatusResponse, *midtrans.Error) {
	return &coreapi.TransactionStatusResponse{
		OrderID:           orderID,
		TransactionID:     f.txID,
		TransactionStatus: f.status,
	}, nil
}

func orderRows(status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "buyer_id", "buyer_email", "status", "total_cents",
		"gateway_order_id", "gateway_tx_id", "friendly_id", "created_at", "updated_at",
	}).AddRow(
		"order-1", "buyer-1", "luna@example.com", status, 69800,
		"TB-1700000000-ab12cd34", nil, nil, time.Now(), time.Now(),
	)
}

func orderItemRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "order_id", "product_id", "product_type", "seller_id",
		"license_type", "title", "unit_cents",
	}).AddRow(
		"item-1", "order-1", "beat-1", "license", "prod-1",
		"pro", "Cumbia 92", 49900,
	).AddRow(
		"item-2", "order-1", "plan-pro", "plan", "",
		nil, "Plan Pro", 19900,
	)
}

func postNotification(r *gin.Engine) *httptest.ResponseRecorder {
	body := `{"order_id": "TB-1700000000-ab12cd34", "transaction_id": "tx-ab12", "transaction_status": "settlement"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/webhook/payment", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestHandlePaymentNotification(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("SettlesOnce", func(t *testing.T) {
		db, mock := newMockDB(t)
		h := &CheckoutHandler{DB: db, CoreClient: fakeChecker{status: "settlement", txID: "tx-ab12"}}

		r := gin.New()
		r.POST("/api/webhook/payment", h.HandlePaymentNotification)

		// First delivery: the pending order settles, the license item
		// becomes a sale with a sale_count bump, and the plan item
		// upgrades the buyer's tier.
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM orders WHERE gateway_order_id = $1`)).
			WithArgs("TB-1700000000-ab12cd34").
			WillReturnRows(orderRows("pending"))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM order_items WHERE order_id = $1`)).
			WithArgs("order-1").
			WillReturnRows(orderItemRows())
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE orders SET status = 'settled'").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO sales").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE beats SET sale_count").
			WithArgs("beat-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE profiles SET subscription_tier").
			WithArgs("pro", "buyer-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		if w := postNotification(r); w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}

		// Retry of the same notification: the order is already settled,
		// so it is acknowledged without writing anything.
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM orders WHERE gateway_order_id = $1`)).
			WithArgs("TB-1700000000-ab12cd34").
			WillReturnRows(orderRows("settled"))

		w := postNotification(r)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 on retry, got %d: %s", w.Code, w.Body.String())
		}
		if !strings.Contains(w.Body.String(), "duplicate") {
			t.Errorf("retry was not acknowledged as duplicate: %s", w.Body.String())
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})

	t.Run("IgnoresUnsettledStatus", func(t *testing.T) {
		db, mock := newMockDB(t)
		h := &CheckoutHandler{DB: db, CoreClient: fakeChecker{status: "pending", txID: "tx-ab12"}}

		r := gin.New()
		r.POST("/api/webhook/payment", h.HandlePaymentNotification)

		w := postNotification(r)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		if !strings.Contains(w.Body.String(), "not settled") {
			t.Errorf("unexpected body: %s", w.Body.String())
		}
		// No order may be touched before the gateway confirms settlement.
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestTruncateName(t *testing.T) {
	if got := truncateName("Cumbia 92"); got != "Cumbia 92" {
		t.Errorf("short name changed: %q", got)
	}

	// 60 runes of 'ñ': the cut must land on a rune boundary, never in the
	// middle of a multi-byte sequence.
	long := strings.Repeat("ñ", 60)
	got := truncateName(long)
	if !utf8.ValidString(got) {
		t.Fatalf("truncated name is not valid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 50 {
		t.Errorf("expected 50 runes, got %d", n)
	}
}
