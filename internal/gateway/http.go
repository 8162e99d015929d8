package gateway

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/yolodolo42/erdwallet/internal/logging"
	"go.uber.org/zap"
)

const (
	DefaultTimeout  = 15 * time.Second
	defaultPageSize = 50
	maxErrorBody    = 4 << 10
)

// HTTPClient talks to the REST API of a network gateway.
type HTTPClient struct {
	baseURL  string
	client   *http.Client
	logger   *zap.Logger
	pageSize int
}

var _ Gateway = (*HTTPClient)(nil)

// NewHTTPClient creates a client for baseURL. A zero timeout uses DefaultTimeout.
func NewHTTPClient(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
		logger:   logging.OrNop(logger),
		pageSize: defaultPageSize,
	}
}

func (c *HTTPClient) GetAccount(ctx context.Context, address string) (AccountState, error) {
	var out AccountState
	err := c.do(ctx, "get account", http.MethodGet, "/accounts/"+url.PathEscape(address), nil, &out)
	if errors.Is(err, ErrNotFound) {
		c.logger.Debug("account unknown to gateway, using zero state", zap.String("address", address))
		return AccountState{Address: address, Balance: "0"}, nil
	}
	if err != nil {
		return AccountState{}, err
	}

	out.Address = address
	if out.Balance == "" {
		out.Balance = "0"
	}
	if _, ok := new(big.Int).SetString(out.Balance, 10); !ok {
		return AccountState{}, &Error{Op: "get account", Message: fmt.Sprintf("malformed balance %q", out.Balance)}
	}
	return out, nil
}

func (c *HTTPClient) GetTokenBalances(ctx context.Context, address string) ([]TokenBalance, error) {
	path := fmt.Sprintf("/accounts/%s/tokens?from=0&size=%d", url.PathEscape(address), c.pageSize)

	var out []TokenBalance
	err := c.do(ctx, "get tokens", http.MethodGet, path, nil, &out)
	if errors.Is(err, ErrNotFound) {
		return []TokenBalance{}, nil
	}
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []TokenBalance{}
	}
	return out, nil
}

func (c *HTTPClient) GetTransactions(ctx context.Context, address string) ([]Transaction, error) {
	path := fmt.Sprintf("/accounts/%s/transactions?from=0&size=%d", url.PathEscape(address), c.pageSize)

	var out []Transaction
	err := c.do(ctx, "get transactions", http.MethodGet, path, nil, &out)
	if errors.Is(err, ErrNotFound) {
		return []Transaction{}, nil
	}
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Transaction{}
	}

	slices.SortStableFunc(out, func(a, b Transaction) int {
		return cmp.Compare(b.Timestamp, a.Timestamp)
	})
	return out, nil
}

// submitResponse covers both the API shape ({"txHash"}) and the proxy
// shape ({"data":{"txHash"}}).
type submitResponse struct {
	TxHash string `json:"txHash"`
	Data   struct {
		TxHash string `json:"txHash"`
	} `json:"data"`
}

func (c *HTTPClient) SubmitTransaction(ctx context.Context, tx SignedTransaction) (string, error) {
	body, err := json.Marshal(tx)
	if err != nil {
		return "", fmt.Errorf("marshal transaction: %w", err)
	}

	var out submitResponse
	if err := c.do(ctx, "submit transaction", http.MethodPost, "/transactions", body, &out); err != nil {
		return "", err
	}

	hash := out.TxHash
	if hash == "" {
		hash = out.Data.TxHash
	}
	if hash == "" {
		return "", &Error{Op: "submit transaction", Message: "response carried no transaction hash"}
	}
	return hash, nil
}

// errorResponse is the error body shape used by the API and the proxy.
type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (c *HTTPClient) do(ctx context.Context, op, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("gateway request failed",
			zap.String("op", op),
			zap.String("path", path),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		if isTimeout(err) {
			return &Error{Op: op, Message: "request timed out", Err: ErrTimeout}
		}
		return &Error{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("gateway request",
		zap.String("op", op),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Op: op, StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if isTimeout(err) {
			return &Error{Op: op, Message: "request timed out", Err: ErrTimeout}
		}
		return &Error{Op: op, StatusCode: resp.StatusCode, Message: "malformed response", Err: err}
	}
	return nil
}

func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var er errorResponse
	if err := json.Unmarshal(raw, &er); err == nil {
		msg := er.Message
		if msg == "" {
			msg = er.Error
		}
		if msg != "" {
			return msg
		}
	}
	return strings.TrimSpace(string(raw))
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
