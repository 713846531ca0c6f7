package orderclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"wallet-ledger-service/config"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Client implements ports.OrderQuery against the order service's HTTP API.
// It is deliberately narrow: the only consumer is the refund-ratio rule,
// which needs nothing but a completed-order count.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// New creates an order-service client. cfg.Timeout bounds every request;
// the fraud scorer must not stall a refund on a slow collaborator.
func New(cfg config.OrdersConfig, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

type orderCountResponse struct {
	CustomerID      string `json:"customer_id"`
	CompletedOrders int64  `json:"completed_orders"`
}

// CompletedOrderCount fetches the number of completed orders for a customer.
func (c *Client) CompletedOrderCount(ctx context.Context, customerID uuid.UUID) (int64, error) {
	endpoint, err := url.JoinPath(c.baseURL, "api", "v1", "customers", customerID.String(), "order-count")
	if err != nil {
		return 0, fmt.Errorf("building order count url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("building order count request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("order count request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("order count request: unexpected status %d", resp.StatusCode)
	}

	var body orderCountResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decoding order count response: %w", err)
	}
	if body.CompletedOrders < 0 {
		return 0, fmt.Errorf("order count response: negative count %d", body.CompletedOrders)
	}

	return body.CompletedOrders, nil
}
