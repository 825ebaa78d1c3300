package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pirela/sistema-guia/internal/cache"
)

// ShopifyOrder mirrors the fields consumed from the Admin REST orders
// endpoint. Checkout-form data arrives as note_attributes.
type ShopifyOrder struct {
	ID             int64  `json:"id"`
	OrderNumber    int64  `json:"order_number"`
	Name           string `json:"name"`
	Note           string `json:"note"`
	NoteAttributes []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"note_attributes"`
	Customer *struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Phone     string `json:"phone"`
		Email     string `json:"email"`
	} `json:"customer"`
	ShippingAddress *struct {
		Address1 string `json:"address1"`
		Address2 string `json:"address2"`
		City     string `json:"city"`
		Province string `json:"province"`
	} `json:"shipping_address"`
	LineItems         []ShopifyLineItem `json:"line_items"`
	CurrentTotalPrice string            `json:"current_total_price"`
}

type ShopifyLineItem struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
	SKU      string `json:"sku"`
}

// NoteAttribute returns the value of a checkout note attribute, "" if absent.
func (o *ShopifyOrder) NoteAttribute(name string) string {
	for _, a := range o.NoteAttributes {
		if a.Name == name {
			return a.Value
		}
	}
	return ""
}

// ErrOrdenNoEncontrada signals the order number does not exist in the store.
var ErrOrdenNoEncontrada = fmt.Errorf("orden no encontrada en Shopify")

// ShopifyClient talks to the Shopify Admin REST API. Failures here never take
// down the core backend: the import endpoint is the only consumer.
type ShopifyClient struct {
	shop       string
	token      string
	apiVersion string
	httpClient *http.Client
}

func NewShopifyClient(shop, token, apiVersion string) *ShopifyClient {
	return &ShopifyClient{
		shop:       shop,
		token:      token,
		apiVersion: apiVersion,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// ObtenerOrden fetches one order by its customer-facing number ("#1234" or
// "1234").
func (c *ShopifyClient) ObtenerOrden(ctx context.Context, orderNumber string) (*ShopifyOrder, error) {
	clean := strings.TrimSpace(strings.TrimPrefix(orderNumber, "#"))
	endpoint := fmt.Sprintf("https://%s/admin/api/%s/orders.json?name=%s&status=any",
		c.shop, c.apiVersion, url.QueryEscape("#"+clean))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("shopify: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("shopify: unreachable: %w", err)
	}
	defer resp.Body.Close()

	// 429 se marca como rate-limit para que la caché lo reintente con backoff.
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("shopify: status 429: %w", cache.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("shopify: status %d", resp.StatusCode)
	}

	var payload struct {
		Orders []ShopifyOrder `json:"orders"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("shopify: decode response: %w", err)
	}
	if len(payload.Orders) == 0 {
		return nil, ErrOrdenNoEncontrada
	}
	return &payload.Orders[0], nil
}
