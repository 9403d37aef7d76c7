package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"kirana/internal/models"
)

// Sentinel errors for responses the caller handles specially.
var (
	// ErrUnauthorized means the bearer token was rejected; the session
	// layer treats this as session invalidation.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound means the requested order does not exist.
	ErrNotFound = errors.New("order not found")
)

// Client handles REST requests to the Kirana backend. All calls carry
// the bearer token supplied at construction.
type Client struct {
	httpClient *http.Client
	BaseURL    string
	token      string
}

// NewClient creates a backend API client.
func NewClient(baseURL, token string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Second * 10,
		},
		BaseURL: baseURL,
		token:   token,
	}
}

// envelope is the backend's standard response wrapper.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// Ping checks if the backend is up and running.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status code: %d", resp.StatusCode)
	}
	return nil
}

// ListOrders retrieves one page of orders matching the filter set,
// sorted newest first by the backend.
func (c *Client) ListOrders(ctx context.Context, f Filters) ([]models.Order, error) {
	url := c.BaseURL + "/orders"
	if q := f.Encode(); q != "" {
		url += "?" + q
	}

	var orders []models.Order
	if err := c.get(ctx, url, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrder retrieves a single order by its order number.
func (c *Client) GetOrder(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	if err := c.get(ctx, fmt.Sprintf("%s/orders/%s", c.BaseURL, orderNumber), &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateStatus applies a status transition to an order. Legality of
// the transition is the caller's responsibility; the backend rejects
// illegal moves as well.
func (c *Client) UpdateStatus(ctx context.Context, orderNumber string, status models.OrderStatus) error {
	body := map[string]string{"status": string(status)}
	return c.put(ctx, fmt.Sprintf("%s/orders/%s/status", c.BaseURL, orderNumber), body)
}

// CancelOrder moves an order to the terminal Cancelled state.
func (c *Client) CancelOrder(ctx context.Context, orderNumber string) error {
	return c.put(ctx, fmt.Sprintf("%s/orders/%s/cancel", c.BaseURL, orderNumber), nil)
}

// AssignPersonnel attaches a staff member to an order. Does not change
// the order's status.
func (c *Client) AssignPersonnel(ctx context.Context, orderNumber string, p models.Personnel) error {
	if p.Name == "" {
		return errors.New("personnel name is required")
	}
	if !models.ValidRole(p.Role) {
		return fmt.Errorf("invalid personnel role: %q", p.Role)
	}
	return c.put(ctx, fmt.Sprintf("%s/orders/%s/assign", c.BaseURL, orderNumber), p)
}

// get issues an authenticated GET and decodes the data envelope into out.
func (c *Client) get(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return json.Unmarshal(env.Data, out)
}

// put issues an authenticated PUT with an optional JSON body.
func (c *Client) put(ctx context.Context, url string, body interface{}) error {
	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		buf = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	return nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.httpClient.Do(req)
}

func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("backend returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
