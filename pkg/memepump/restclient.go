package memepump

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// APIError is returned for non-2xx responses from the memepump server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("memepump api error (%d): %s", e.StatusCode, e.Message)
}

type RESTClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewRESTClient(baseURL string, timeout time.Duration) *RESTClient {
	return &RESTClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetCoins fetches the full coin catalogue.
func (c *RESTClient) GetCoins(ctx context.Context) ([]Coin, error) {
	var coins []Coin
	if err := c.do(ctx, http.MethodGet, "/coins", nil, &coins); err != nil {
		return nil, err
	}
	return coins, nil
}

// GetTrades fetches the recent trade history, most recent first.
func (c *RESTClient) GetTrades(ctx context.Context) ([]Trade, error) {
	var trades []Trade
	if err := c.do(ctx, http.MethodGet, "/trades", nil, &trades); err != nil {
		return nil, err
	}
	return trades, nil
}

// GetComments fetches the comment history of one coin.
func (c *RESTClient) GetComments(ctx context.Context, coinID string) ([]Comment, error) {
	if err := required("coinId", coinID); err != nil {
		return nil, err
	}
	var comments []Comment
	path := "/comments?coinId=" + url.QueryEscape(coinID)
	if err := c.do(ctx, http.MethodGet, path, nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (c *RESTClient) CreateCoin(ctx context.Context, req CreateCoinRequest) (*Coin, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var coin Coin
	if err := c.do(ctx, http.MethodPost, "/coins", req, &coin); err != nil {
		return nil, err
	}
	return &coin, nil
}

// ExecuteTrade submits a trade. Settlement happens on the server; the resulting
// state arrives over the stream as a "trade" event.
func (c *RESTClient) ExecuteTrade(ctx context.Context, req TradeRequest) (*Trade, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var trade Trade
	if err := c.do(ctx, http.MethodPost, "/trades", req, &trade); err != nil {
		return nil, err
	}
	return &trade, nil
}

func (c *RESTClient) PostComment(ctx context.Context, req CommentRequest) (*Comment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var comment Comment
	if err := c.do(ctx, http.MethodPost, "/comments", req, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (c *RESTClient) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var user User
	if err := c.do(ctx, http.MethodPost, "/users", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *RESTClient) Login(ctx context.Context, req LoginRequest) (*User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var user User
	if err := c.do(ctx, http.MethodPost, "/users/login", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *RESTClient) UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*User, error) {
	if err := required("id", id); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var user User
	if err := c.do(ctx, http.MethodPut, "/users/"+url.PathEscape(id), req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *RESTClient) GetUser(ctx context.Context, id string) (*User, error) {
	if err := required("id", id); err != nil {
		return nil, err
	}
	var user User
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(id), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *RESTClient) GetPortfolio(ctx context.Context, userID string) ([]PortfolioItem, error) {
	if err := required("id", userID); err != nil {
		return nil, err
	}
	var items []PortfolioItem
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID)+"/portfolio", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetWalletChallenge asks the server for a message proving ownership of address.
func (c *RESTClient) GetWalletChallenge(ctx context.Context, address string) (*WalletChallenge, error) {
	if err := required("address", address); err != nil {
		return nil, err
	}
	var ch WalletChallenge
	if err := c.do(ctx, http.MethodGet, "/wallet/verify?address="+url.QueryEscape(address), nil, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

func (c *RESTClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	// Construct the request with context for timeout/cancel support
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		msg := strings.TrimSpace(string(raw))
		var er errorResponse
		if json.Unmarshal(raw, &er) == nil && er.Error != "" {
			msg = er.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
