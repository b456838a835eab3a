package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dinein-telegram/models"
)

// Client talks to the restaurant backend. The backend owns the menu,
// the order lifecycle, and the sandbox payment endpoint; this client is
// the only place its wire format is known.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// RejectionError is a non-2xx answer to an order submission. Detail is
// the backend's own reason and is shown to the diner verbatim.
type RejectionError struct {
	StatusCode int
	Detail     string
}

func (e *RejectionError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend rejected order (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("backend rejected order (status %d): %s", e.StatusCode, e.Detail)
}

// rawMenuItem matches a menu record as the backend sends it. The id may
// arrive under "_id" or "id" depending on the store behind the API.
type rawMenuItem struct {
	MongoID     string       `json:"_id"`
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Price       models.Paise `json:"price"`
	Category    string       `json:"category"`
	Description string       `json:"description"`
	ImageURL    string       `json:"image_url"`
	Available   *bool        `json:"is_available"`
}

// normalize unifies the two id forms and applies defaults so nothing
// downstream ever sees the raw shape.
func (r rawMenuItem) normalize() models.MenuItem {
	id := r.MongoID
	if id == "" {
		id = r.ID
	}
	available := true
	if r.Available != nil {
		available = *r.Available
	}
	return models.MenuItem{
		ID:          id,
		Name:        r.Name,
		Price:       r.Price,
		Category:    r.Category,
		Description: r.Description,
		ImageURL:    r.ImageURL,
		Available:   available,
	}
}

// GetMenu fetches and normalizes the menu list.
func (c *Client) GetMenu(ctx context.Context) ([]models.MenuItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/menu", nil)
	if err != nil {
		return nil, fmt.Errorf("build menu request: %w", err)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch menu: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read menu response: %w", err)
	}
	raw, err := decodeMenuPayload(body)
	if err != nil {
		return nil, err
	}
	items := make([]models.MenuItem, 0, len(raw))
	for _, r := range raw {
		items = append(items, r.normalize())
	}
	return items, nil
}

// decodeMenuPayload accepts both payload shapes the backend is known to
// produce: a bare array, or an object with an "items" field.
func decodeMenuPayload(body []byte) ([]rawMenuItem, error) {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []rawMenuItem
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("parse menu: %w", err)
		}
		return items, nil
	}
	var wrapper struct {
		Items []rawMenuItem `json:"items"`
	}
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return nil, fmt.Errorf("parse menu: %w", err)
	}
	return wrapper.Items, nil
}

// CreateOrder submits the order. A non-2xx status comes back as a
// *RejectionError carrying the backend's "detail" field.
func (c *Client) CreateOrder(ctx context.Context, sub models.OrderSubmission) (*models.CreatedOrder, error) {
	status, body, err := c.postJSON(ctx, "/api/order", sub)
	if err != nil {
		return nil, fmt.Errorf("submit order: %w", err)
	}
	if status < 200 || status >= 300 {
		var reason struct {
			Detail string `json:"detail"`
		}
		_ = json.Unmarshal(body, &reason)
		return nil, &RejectionError{StatusCode: status, Detail: reason.Detail}
	}
	var created models.CreatedOrder
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("parse order response: %w", err)
	}
	return &created, nil
}

// ConfirmMockPayment tells the sandbox payment endpoint the payment
// succeeded. The response is deliberately not inspected; only a
// transport failure is reported.
func (c *Client) ConfirmMockPayment(ctx context.Context, orderID string) error {
	payload := struct {
		OrderID string `json:"order_id"`
		Status  string `json:"status"`
	}{OrderID: orderID, Status: "succeeded"}
	if _, _, err := c.postJSON(ctx, "/api/payment/mock/confirm", payload); err != nil {
		return fmt.Errorf("confirm payment: %w", err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload interface{}) (int, []byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}
