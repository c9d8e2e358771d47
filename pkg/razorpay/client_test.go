package razorpay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vichar-ai/vichar-backend/pkg/config"
	pkgerrors "github.com/vichar-ai/vichar-backend/pkg/errors"
	"github.com/vichar-ai/vichar-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "razorpay-test", Output: io.Discard})
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(context.Background(), config.RazorpayConfig{
		KeyID:      "rzp_test_key",
		KeySecret:  "rzp_test_secret",
		BaseURL:    server.URL,
		Timeout:    5 * time.Second,
		MaxRetries: 2,
	}, testLogger())
	require.NoError(t, err)
	return client, server
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(context.Background(), config.RazorpayConfig{KeySecret: "s"}, testLogger())
	assert.Error(t, err)

	_, err = NewClient(context.Background(), config.RazorpayConfig{KeyID: "k"}, testLogger())
	assert.Error(t, err)
}

func TestCreateOrderSendsBasicAuthAndNotes(t *testing.T) {
	var gotUser, gotPass string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, _ = r.BasicAuth()
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/orders", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 19900, body["amount"])
		assert.Equal(t, "INR", body["currency"])

		json.NewEncoder(w).Encode(Order{
			ID:       "order_test_1",
			Amount:   19900,
			Currency: "INR",
			Status:   "created",
			Notes:    map[string]string{"user_id": "u-1", "type": "credits"},
		})
	}))

	order, err := client.CreateOrder(context.Background(), CreateOrderParams{
		AmountPaise: 19900,
		Receipt:     "rcpt-1",
		Notes:       map[string]string{"user_id": "u-1", "type": "credits"},
	})
	require.NoError(t, err)
	assert.Equal(t, "order_test_1", order.ID)
	assert.Equal(t, "u-1", order.Notes["user_id"])
	assert.Equal(t, "rzp_test_key", gotUser)
	assert.Equal(t, "rzp_test_secret", gotPass)
}

func TestCreateOrderRejectsNonPositiveAmount(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))
	_, err := client.CreateOrder(context.Background(), CreateOrderParams{AmountPaise: 0})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestFetchPaymentStatusAndCaptured(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/payments/pay_42", r.URL.Path)
		json.NewEncoder(w).Encode(Payment{
			ID:      "pay_42",
			OrderID: "order_test_1",
			Status:  PaymentStatusCaptured,
		})
	}))

	payment, err := client.FetchPayment(context.Background(), "pay_42")
	require.NoError(t, err)
	assert.True(t, payment.Captured())
}

func TestFetchOrderNotFoundMapsCode(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":{"code":"BAD_REQUEST_ERROR","description":"order does not exist"}}`)
	}))

	_, err := client.FetchOrder(context.Background(), "order_missing")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestCreateOrderDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := client.CreateOrder(context.Background(), CreateOrderParams{
		AmountPaise: 19900,
		Receipt:     "rcpt-1",
	})
	require.Error(t, err)
	// a second POST could mint a duplicate gateway order
	assert.EqualValues(t, 1, calls.Load())
}

func TestFetchPaymentRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(Payment{ID: "pay_7", Status: PaymentStatusCaptured})
	}))

	payment, err := client.FetchPayment(context.Background(), "pay_7")
	require.NoError(t, err)
	assert.Equal(t, "pay_7", payment.ID)
	assert.EqualValues(t, 2, calls.Load())
}
