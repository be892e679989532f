// Package paymentprovider реализует клиент платёжного шлюза Paystack:
// создание транзакции, проверку её статуса и проверку подписи webhook.
package paymentprovider

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrGatewayRejected шлюз ответил отказом или неожиданным статусом.
var ErrGatewayRejected = errors.New("gateway rejected request")

// Client клиент Paystack.
type Client struct {
	secretKey  string
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт клиента с ограничением времени на каждый запрос.
func NewClient(secretKey, apiURL string, timeout time.Duration) *Client {
	if apiURL == "" {
		apiURL = "https://api.paystack.co"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		secretKey:  secretKey,
		apiURL:     strings.TrimRight(apiURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Configured сообщает, задан ли секретный ключ.
func (c *Client) Configured() bool {
	return c.secretKey != ""
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		buf = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %s: %s", ErrGatewayRejected, resp.Status, strings.TrimSpace(string(msg)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Initialize создаёт транзакцию и возвращает адрес страницы оплаты.
func (c *Client) Initialize(ctx context.Context, reqParams InitializeRequest) (*InitializeResponse, error) {
	const op = "paymentprovider.Initialize"
	req, err := c.newRequest(ctx, http.MethodPost, "/transaction/initialize", reqParams)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var resp InitializeResponse
	if err := c.do(req, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !resp.Status || resp.Data.AuthorizationURL == "" {
		return nil, fmt.Errorf("%s: %w: %s", op, ErrGatewayRejected, resp.Message)
	}
	return &resp, nil
}

// Verify запрашивает статус транзакции по reference.
func (c *Client) Verify(ctx context.Context, reference string) (*Transaction, error) {
	const op = "paymentprovider.Verify"
	req, err := c.newRequest(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var resp VerifyResponse
	if err := c.do(req, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !resp.Status {
		return nil, fmt.Errorf("%s: %w: %s", op, ErrGatewayRejected, resp.Message)
	}
	return &resp.Data, nil
}

// VerifySignature проверяет подпись webhook: HMAC-SHA512 тела запроса
// секретным ключом в hex, заголовок x-paystack-signature.
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}
