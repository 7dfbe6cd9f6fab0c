// Package storeapi talks to the storefront backend: the catalog query
// service, the order creation service and the cart pricing service.
package storeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storefront-core/internal/model"
)

// Client handles storefront backend calls
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchCatalog runs a catalog query. query is the canonical query string,
// without the leading "?".
func (c *Client) FetchCatalog(ctx context.Context, query string) (*model.CatalogPage, error) {
	u := c.baseURL + "/products"
	if query != "" {
		u += "?" + query
	}
	var page model.CatalogPage
	if err := c.do(ctx, http.MethodGet, u, nil, nil, &page); err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	if page.Data == nil {
		page.Data = []model.Product{}
	}
	return &page, nil
}

// CreateOrder submits a checkout. The idempotency key lets the backend
// recognise a resubmission of the same attempt.
func (c *Client) CreateOrder(ctx context.Context, req model.OrderRequest, idempotencyKey string) (*model.OrderResult, error) {
	var out struct {
		model.OrderResult
		Data *model.OrderResult `json:"data"`
	}
	hdr := http.Header{}
	if idempotencyKey != "" {
		hdr.Set("Idempotency-Key", idempotencyKey)
	}
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/orders", hdr, req, &out); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	if out.Data != nil {
		return out.Data, nil
	}
	return &out.OrderResult, nil
}

// QuoteCart asks the cart pricing service for authoritative prices and the
// shipping charge.
func (c *Client) QuoteCart(ctx context.Context, lines []model.QuoteLine) (*model.PriceQuote, error) {
	body := struct {
		Items []model.QuoteLine `json:"items"`
	}{Items: lines}
	var quote model.PriceQuote
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/cart/price", nil, body, &quote); err != nil {
		return nil, fmt.Errorf("quote cart: %w", err)
	}
	return &quote, nil
}

// HealthCheck checks if the backend is reachable
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/health", nil, nil, nil); err != nil {
		return fmt.Errorf("storefront backend at %s: %w", c.baseURL, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, url string, hdr http.Header, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range hdr {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return newAPIError(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
