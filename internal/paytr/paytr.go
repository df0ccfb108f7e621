// Package paytr isolates all knowledge of the PayTR hosted-payment wire
// format: token signing, basket encoding, currency unit conversion and
// callback verification. The rest of the system only ever sees kuruş.
package paytr

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/elmalimarket/elmali/internal/domain"
)

const (
	defaultBaseURL = "https://www.paytr.com"
	tokenPath      = "/odeme/api/get-token"
	paymentPath    = "/odeme/guvenli/"
)

// Config holds PayTR merchant credentials and endpoint settings.
type Config struct {
	MerchantID   string
	MerchantKey  string
	MerchantSalt string

	// BaseURL overrides the PayTR endpoint, used by tests.
	BaseURL string

	// OKURL and FailURL are the shopper redirect targets after the hosted
	// payment page completes.
	OKURL   string
	FailURL string

	// Timeout bounds the outbound get-token call. A timeout is reported as
	// EUNAVAILABLE (retryable), never as a payment failure.
	Timeout time.Duration

	// TimeoutLimit is the hosted page expiry in minutes, sent to PayTR.
	TimeoutLimit int

	TestMode bool
}

// CreatePaymentRequest is the adapter-facing view of an order about to be
// paid. All amounts are kuruş.
type CreatePaymentRequest struct {
	MerchantOID string // order number; PayTR echoes it back in the callback
	Email       string
	Name        string
	Address     string
	Phone       string
	UserIP      string
	AmountKurus int64
	Basket      []BasketItem
	Installment int // requested installment count; 1 disables installments
}

// BasketItem is one itemized basket row shown on the hosted page.
type BasketItem struct {
	Name       string
	PriceKurus int64
	Quantity   int32
}

// PaymentSession is the result of a successful get-token call.
type PaymentSession struct {
	Token      string
	PaymentURL string
}

// Gateway is the narrow seam between the order core and PayTR.
type Gateway interface {
	CreatePayment(ctx context.Context, req CreatePaymentRequest) (*PaymentSession, error)
	VerifyCallback(form url.Values) (*domain.PaymentOutcome, error)
}

// Client implements Gateway against the PayTR HTTP API.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a PayTR gateway client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.TimeoutLimit == 0 {
		cfg.TimeoutLimit = 30
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// ToKurus converts a lira amount to kuruş, the gateway's accounting unit.
func ToKurus(lira float64) int64 {
	return int64(math.Round(lira * 100))
}

// FormatLira renders a kuruş amount as a lira string ("149.90") for basket
// rows and display copy.
func FormatLira(kurus int64) string {
	return fmt.Sprintf("%d.%02d", kurus/100, kurus%100)
}

// tokenResponse is PayTR's get-token reply.
type tokenResponse struct {
	Status string `json:"status"`
	Token  string `json:"token"`
	Reason string `json:"reason"`
	ErrNo  string `json:"err_no"`
}

// CreatePayment initiates a hosted payment session and returns the redirect
// URL plus the opaque session token. Provider rejections preserve PayTR's
// error code; transport failures are retryable EUNAVAILABLE.
func (c *Client) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*PaymentSession, error) {
	const op = "paytr.create_payment"

	basket, err := encodeBasket(req.Basket)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to encode basket")
	}

	noInstallment := "0"
	maxInstallment := strconv.Itoa(req.Installment)
	if req.Installment <= 1 {
		noInstallment = "1"
		maxInstallment = "0"
	}
	testMode := "0"
	if c.cfg.TestMode {
		testMode = "1"
	}
	amount := strconv.FormatInt(req.AmountKurus, 10)

	form := url.Values{}
	form.Set("merchant_id", c.cfg.MerchantID)
	form.Set("user_ip", req.UserIP)
	form.Set("merchant_oid", req.MerchantOID)
	form.Set("email", req.Email)
	form.Set("payment_amount", amount)
	form.Set("paytr_token", c.sessionToken(req.UserIP, req.MerchantOID, req.Email, amount, basket, noInstallment, maxInstallment, testMode))
	form.Set("user_basket", basket)
	form.Set("debug_on", "0")
	form.Set("no_installment", noInstallment)
	form.Set("max_installment", maxInstallment)
	form.Set("user_name", req.Name)
	form.Set("user_address", req.Address)
	form.Set("user_phone", req.Phone)
	form.Set("merchant_ok_url", c.cfg.OKURL)
	form.Set("merchant_fail_url", c.cfg.FailURL)
	form.Set("timeout_limit", strconv.Itoa(c.cfg.TimeoutLimit))
	form.Set("currency", "TL")
	form.Set("test_mode", testMode)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, domain.Internal(err, op, "failed to build gateway request")
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	c.logger.Info("paytr: requesting payment token",
		"merchant_oid", req.MerchantOID,
		"amount_kurus", req.AmountKurus,
		"installment", req.Installment,
	)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return nil, domain.WrapError(err, domain.EUNAVAILABLE, op, "Ödeme sağlayıcısına ulaşılamadı, lütfen tekrar deneyin")
		}
		return nil, domain.WrapError(err, domain.EUNAVAILABLE, op, "Ödeme sağlayıcısına ulaşılamadı")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to read gateway response")
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("paytr: non-200 from get-token",
			"status", resp.StatusCode,
			"merchant_oid", req.MerchantOID,
		)
		return nil, domain.Errorf(domain.EUNAVAILABLE, op, "Ödeme sağlayıcısı geçici olarak hizmet veremiyor")
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, domain.Internal(err, op, "failed to decode gateway response")
	}

	if tr.Status != "success" {
		c.logger.Warn("paytr: token request rejected",
			"merchant_oid", req.MerchantOID,
			"err_no", tr.ErrNo,
			"reason", tr.Reason,
		)
		return nil, &domain.Error{
			Code:         domain.EPAYMENT,
			Op:           op,
			Message:      RemediationMessage(tr.ErrNo),
			ProviderCode: tr.ErrNo,
		}
	}

	return &PaymentSession{
		Token:      tr.Token,
		PaymentURL: c.cfg.BaseURL + paymentPath + tr.Token,
	}, nil
}

// VerifyCallback authenticates an inbound gateway callback. The hash is
// recomputed from the shared secret; anything that fails verification is
// rejected before any order mutation can happen.
func (c *Client) VerifyCallback(form url.Values) (*domain.PaymentOutcome, error) {
	const op = "paytr.verify_callback"

	oid := form.Get("merchant_oid")
	status := form.Get("status")
	totalAmount := form.Get("total_amount")
	hash := form.Get("hash")

	if oid == "" || status == "" || totalAmount == "" || hash == "" {
		return nil, domain.Invalid(op, "missing required callback fields")
	}

	expected := c.callbackHash(oid, status, totalAmount)
	if !hmac.Equal([]byte(hash), []byte(expected)) {
		c.logger.Warn("paytr: callback hash mismatch", "merchant_oid", oid)
		return nil, domain.Invalid(op, "callback hash verification failed")
	}

	amount, err := strconv.ParseInt(totalAmount, 10, 64)
	if err != nil {
		return nil, domain.Invalid(op, "malformed total_amount")
	}

	return &domain.PaymentOutcome{
		OrderRef:    oid,
		Paid:        status == "success",
		AmountKurus: amount,
		FailCode:    form.Get("failed_reason_code"),
		FailMessage: form.Get("failed_reason_msg"),
	}, nil
}

// sessionToken signs the get-token request.
// PayTR's contract: base64(HMAC-SHA256(concatenated fields + merchant_salt,
// merchant_key)).
func (c *Client) sessionToken(userIP, oid, email, amount, basket, noInstallment, maxInstallment, testMode string) string {
	data := c.cfg.MerchantID + userIP + oid + email + amount + basket +
		noInstallment + maxInstallment + "TL" + testMode
	return c.sign(data + c.cfg.MerchantSalt)
}

// callbackHash recomputes the signature PayTR attaches to callbacks.
func (c *Client) callbackHash(oid, status, totalAmount string) string {
	return c.sign(oid + c.cfg.MerchantSalt + status + totalAmount)
}

func (c *Client) sign(data string) string {
	mac := hmac.New(sha256.New, []byte(c.cfg.MerchantKey))
	mac.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// encodeBasket renders PayTR's user_basket field: base64 of a JSON array of
// [name, lira price, quantity] triples.
func encodeBasket(items []BasketItem) (string, error) {
	rows := make([][3]interface{}, len(items))
	for i, it := range items {
		rows[i] = [3]interface{}{it.Name, FormatLira(it.PriceKurus), it.Quantity}
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
