package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/vichar-ai/vichar-backend/pkg/config"
	pkgerrors "github.com/vichar-ai/vichar-backend/pkg/errors"
	"github.com/vichar-ai/vichar-backend/pkg/logger"
)

// Payment status values reported by the gateway.
const (
	PaymentStatusCreated    = "created"
	PaymentStatusAuthorized = "authorized"
	PaymentStatusCaptured   = "captured"
	PaymentStatusFailed     = "failed"
	PaymentStatusRefunded   = "refunded"
)

var (
	errKeyIDRequired   = errors.New("razorpay key id is required")
	errKeySecretMissing = errors.New("razorpay key secret is required")
	errLoggerRequired   = errors.New("razorpay logger is required")
)

// Order is the gateway order object. Notes round-trip exactly as we create
// them, so all values are stored as strings.
type Order struct {
	ID        string            `json:"id"`
	Amount    int64             `json:"amount"`
	Currency  string            `json:"currency"`
	Receipt   string            `json:"receipt"`
	Status    string            `json:"status"`
	Notes     map[string]string `json:"notes"`
	CreatedAt int64             `json:"created_at"`
}

// Payment is the gateway payment object.
type Payment struct {
	ID               string            `json:"id"`
	OrderID          string            `json:"order_id"`
	Amount           int64             `json:"amount"`
	Currency         string            `json:"currency"`
	Status           string            `json:"status"`
	Method           string            `json:"method"`
	Email            string            `json:"email"`
	Contact          string            `json:"contact"`
	Notes            map[string]string `json:"notes"`
	ErrorCode        string            `json:"error_code"`
	ErrorDescription string            `json:"error_description"`
	CreatedAt        int64             `json:"created_at"`
}

// Captured reports whether the payment reached the captured state.
func (p *Payment) Captured() bool {
	return p != nil && p.Status == PaymentStatusCaptured
}

// CreateOrderParams are the fields we send when opening a gateway order.
type CreateOrderParams struct {
	AmountPaise int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

// Gateway is the order/payment surface the reconciler depends on.
type Gateway interface {
	CreateOrder(ctx context.Context, params CreateOrderParams) (*Order, error)
	FetchOrder(ctx context.Context, orderID string) (*Order, error)
	FetchPayment(ctx context.Context, paymentID string) (*Payment, error)
	KeyID() string
	KeySecret() string
}

// Client talks to the gateway REST API with basic auth, centralized logging,
// retry on transient failures, and error mapping.
type Client struct {
	httpClient *http.Client
	baseURL    string
	keyID      string
	keySecret  string
	maxRetries int
	logger     *logger.Logger
}

var _ Gateway = (*Client)(nil)

// NewClient validates credentials and builds the gateway wrapper.
func NewClient(ctx context.Context, cfg config.RazorpayConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" {
		return nil, errKeyIDRequired
	}
	keySecret := strings.TrimSpace(cfg.KeySecret)
	if keySecret == "" {
		return nil, errKeySecretMissing
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		keyID:      keyID,
		keySecret:  keySecret,
		maxRetries: cfg.MaxRetries,
		logger:     logg,
	}

	logg.Info(ctx, "razorpay client initialized")
	return c, nil
}

// KeyID returns the public key identifier sent to checkout clients.
func (c *Client) KeyID() string {
	if c == nil {
		return ""
	}
	return c.keyID
}

// KeySecret returns the signing secret used for signature verification.
func (c *Client) KeySecret() string {
	if c == nil {
		return ""
	}
	return c.keySecret
}

// CreateOrder opens a new order at the gateway.
func (c *Client) CreateOrder(ctx context.Context, params CreateOrderParams) (*Order, error) {
	if params.AmountPaise <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order amount must be positive")
	}
	currency := params.Currency
	if currency == "" {
		currency = "INR"
	}

	body := map[string]any{
		"amount":   params.AmountPaise,
		"currency": currency,
		"receipt":  params.Receipt,
	}
	if len(params.Notes) > 0 {
		body["notes"] = params.Notes
	}

	c.log(ctx, "request", "create_order", map[string]any{
		"amount":   params.AmountPaise,
		"currency": currency,
		"receipt":  params.Receipt,
	})

	// no retry here: order creation is not idempotent at the gateway, and a
	// transport failure after the request was sent could mint a duplicate
	var order Order
	if err := c.doOnce(ctx, http.MethodPost, "/orders", body, &order); err != nil {
		c.log(ctx, "error", "create_order", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "create_order", map[string]any{
		"order_id": order.ID,
		"status":   order.Status,
	})
	return &order, nil
}

// FetchOrder retrieves an order by its gateway identifier.
func (c *Client) FetchOrder(ctx context.Context, orderID string) (*Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	c.log(ctx, "request", "fetch_order", map[string]any{"order_id": orderID})

	var order Order
	if err := c.do(ctx, http.MethodGet, "/orders/"+orderID, nil, &order); err != nil {
		c.log(ctx, "error", "fetch_order", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "fetch_order", map[string]any{
		"order_id": order.ID,
		"status":   order.Status,
	})
	return &order, nil
}

// FetchPayment retrieves a payment by its gateway identifier.
func (c *Client) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}

	c.log(ctx, "request", "fetch_payment", map[string]any{"payment_id": paymentID})

	var payment Payment
	if err := c.do(ctx, http.MethodGet, "/payments/"+paymentID, nil, &payment); err != nil {
		c.log(ctx, "error", "fetch_payment", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "fetch_payment", map[string]any{
		"payment_id": payment.ID,
		"order_id":   payment.OrderID,
		"status":     payment.Status,
	})
	return &payment, nil
}

type apiErrorEnvelope struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	backoff := retry.WithMaxRetries(uint64(c.maxRetries), retry.NewExponential(200*time.Millisecond))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := c.doOnce(ctx, method, path, body, out)
		if err == nil {
			return nil
		}
		if typed := pkgerrors.As(err); typed != nil && pkgerrors.MetadataFor(typed.Code()).Retryable {
			return retry.RetryableError(err)
		}
		return err
	})
}

func (c *Client) doOnce(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding gateway request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building gateway request")
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling payment gateway")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading gateway response")
	}

	if resp.StatusCode >= 400 {
		return c.mapAPIError(resp.StatusCode, raw)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding gateway response")
		}
	}
	return nil
}

func (c *Client) mapAPIError(status int, raw []byte) error {
	var envelope apiErrorEnvelope
	_ = json.Unmarshal(raw, &envelope)
	description := envelope.Error.Description
	if description == "" {
		description = fmt.Sprintf("gateway returned status %d", status)
	}

	code := pkgerrors.CodeDependency
	switch {
	case status == http.StatusUnauthorized:
		code = pkgerrors.CodeUnauthorized
	case status == http.StatusNotFound:
		code = pkgerrors.CodeNotFound
	case status == http.StatusTooManyRequests:
		code = pkgerrors.CodeRateLimit
	case status >= 400 && status < 500:
		code = pkgerrors.CodeValidation
	}

	return pkgerrors.New(code, description).WithDetails(map[string]any{
		"gateway_code": envelope.Error.Code,
	})
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("razorpay %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("razorpay %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"secret", "token", "email", "contact", "card"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}
