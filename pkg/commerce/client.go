package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/Roxxy17/storefront-gateway/pkg/errors"
)

const (
	defaultTimeout             = 15 * time.Second
	errorBodyReadLimit   int64 = 2048
	defaultOrderPageSize       = 20
)

var errBaseURLRequired = errors.New("commerce base URL is required")

// Client talks to the upstream commerce API that owns carts, orders and
// buyer addresses. The gateway never writes this state directly; every
// mutation goes through the upstream.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// NewClient builds the commerce client for the given base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return client, nil
}

// CartItem is one purchasable line in the buyer's cart.
type CartItem struct {
	ID               string
	ProductVariantID string
	OutletID         string
	OutletName       string
	Name             string
	ImageURL         string
	Quantity         int
	Price            decimal.Decimal
	OriginalPrice    *decimal.Decimal
	Stock            int
}

// CheckoutOrderRequest is one per-outlet order leg submitted at checkout.
type CheckoutOrderRequest struct {
	OutletID string   `json:"outlet_id"`
	ItemIDs  []string `json:"item_ids"`
}

// CreatedOrder identifies an order produced by a checkout call.
type CreatedOrder struct {
	ID       string
	Code     string
	OutletID string
}

// CheckoutResult is the upstream's answer to a successful checkout: the
// created orders, the shared payment group and the hosted payment page.
type CheckoutResult struct {
	PaymentGroupID string
	PaymentURL     string
	PaymentToken   string
	Orders         []CreatedOrder
}

// LegFailure reports one outlet order the upstream refused to create.
type LegFailure struct {
	OutletID string
	Message  string
}

// CheckoutError is returned when the upstream rejects a checkout. Legs
// carries per-outlet failures when the upstream reports them.
type CheckoutError struct {
	Message string
	Legs    []LegFailure
}

func (e *CheckoutError) Error() string {
	return e.Message
}

// OrderItem is a denormalized item snapshot inside an order.
type OrderItem struct {
	Name     string
	Quantity int
	Price    decimal.Decimal
	ImageURL string
}

// Order is one per-outlet order as the upstream reports it. Status and
// PickupStatus are raw strings; callers parse them with the total
// parsers in pkg/enums. Outlet coordinates arrive as optionally-absent
// strings and may be empty.
type Order struct {
	ID              string
	Code            string
	OutletID        string
	OutletName      string
	OutletLatitude  string
	OutletLongitude string
	Items           []OrderItem
	TotalAmount     decimal.Decimal
	PaymentMethod   string
	PaymentGroupID  *string
	Status          string
	PickupStatus    string
	CreatedAt       time.Time
}

// OrderPage is one page of the buyer's order history.
type OrderPage struct {
	Orders     []Order
	NextCursor string
}

// ListOrdersParams controls order history paging.
type ListOrdersParams struct {
	Cursor string
	Limit  int
}

// Address is one saved buyer address. Coordinates are optionally-absent
// strings, same as outlet coordinates.
type Address struct {
	ID        string
	Label     string
	IsDefault bool
	Latitude  string
	Longitude string
}

// GetCartItems fetches the buyer's cart.
func (c *Client) GetCartItems(ctx context.Context, token string) ([]CartItem, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "commerce client not configured")
	}

	var apiResp struct {
		Items []struct {
			ID               string           `json:"id"`
			ProductVariantID string           `json:"product_variant_id"`
			OutletID         string           `json:"outlet_id"`
			OutletName       string           `json:"outlet_name"`
			Name             string           `json:"name"`
			ImageURL         string           `json:"image_url"`
			Quantity         int              `json:"quantity"`
			Price            decimal.Decimal  `json:"price"`
			OriginalPrice    *decimal.Decimal `json:"original_price"`
			Stock            int              `json:"stock"`
		} `json:"items"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "carts", token, nil, &apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch cart")
	}

	items := make([]CartItem, 0, len(apiResp.Items))
	for _, item := range apiResp.Items {
		items = append(items, CartItem{
			ID:               item.ID,
			ProductVariantID: item.ProductVariantID,
			OutletID:         item.OutletID,
			OutletName:       item.OutletName,
			Name:             item.Name,
			ImageURL:         item.ImageURL,
			Quantity:         item.Quantity,
			Price:            item.Price,
			OriginalPrice:    item.OriginalPrice,
			Stock:            item.Stock,
		})
	}

	return items, nil
}

// Checkout submits one order leg per outlet and returns the created
// orders plus the hosted payment page. A rejected checkout surfaces as
// *CheckoutError so callers can report every failed leg.
func (c *Client) Checkout(ctx context.Context, token string, legs []CheckoutOrderRequest) (*CheckoutResult, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "commerce client not configured")
	}
	if len(legs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout requires at least one order")
	}

	payload, err := json.Marshal(struct {
		Orders []CheckoutOrderRequest `json:"orders"`
	}{Orders: legs})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal checkout request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL("orders/checkout"), bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build checkout request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	setAuth(httpReq, token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute checkout request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnprocessableEntity || resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusConflict {
		return nil, decodeCheckoutError(resp)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, upstreamFailure(resp, "checkout request failed")
	}

	var apiResp struct {
		PaymentGroupID string `json:"payment_group_id"`
		Payment        struct {
			RedirectURL string `json:"redirect_url"`
			Token       string `json:"token"`
		} `json:"payment"`
		Orders []struct {
			ID       string `json:"id"`
			Code     string `json:"code"`
			OutletID string `json:"outlet_id"`
		} `json:"orders"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode checkout response")
	}

	orders := make([]CreatedOrder, 0, len(apiResp.Orders))
	for _, order := range apiResp.Orders {
		orders = append(orders, CreatedOrder{ID: order.ID, Code: order.Code, OutletID: order.OutletID})
	}

	return &CheckoutResult{
		PaymentGroupID: apiResp.PaymentGroupID,
		PaymentURL:     apiResp.Payment.RedirectURL,
		PaymentToken:   apiResp.Payment.Token,
		Orders:         orders,
	}, nil
}

// GetOrders fetches a page of the buyer's order history, newest first.
func (c *Client) GetOrders(ctx context.Context, token string, params ListOrdersParams) (*OrderPage, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "commerce client not configured")
	}

	limit := params.Limit
	if limit <= 0 {
		limit = defaultOrderPageSize
	}
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	if params.Cursor != "" {
		query.Set("cursor", params.Cursor)
	}

	var apiResp struct {
		Orders     []orderPayload `json:"orders"`
		NextCursor string         `json:"next_cursor"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "orders?"+query.Encode(), token, nil, &apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch orders")
	}

	orders := make([]Order, 0, len(apiResp.Orders))
	for _, order := range apiResp.Orders {
		orders = append(orders, order.toOrder())
	}

	return &OrderPage{Orders: orders, NextCursor: apiResp.NextCursor}, nil
}

// GetOrderDetail fetches one order by id.
func (c *Client) GetOrderDetail(ctx context.Context, token, orderID string) (*Order, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "commerce client not configured")
	}
	trimmed := strings.TrimSpace(orderID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	var apiResp orderPayload
	err := c.doJSON(ctx, http.MethodGet, "orders/"+url.PathEscape(trimmed), token, nil, &apiResp)
	if err != nil {
		var upstream *pkgerrors.UpstreamError
		if errors.As(err, &upstream) && upstream.Status == http.StatusNotFound {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch order")
	}

	order := apiResp.toOrder()
	return &order, nil
}

// GetAddresses fetches the buyer's saved addresses.
func (c *Client) GetAddresses(ctx context.Context, token string) ([]Address, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "commerce client not configured")
	}

	var apiResp struct {
		Addresses []struct {
			ID        string `json:"id"`
			Label     string `json:"label"`
			IsDefault bool   `json:"is_default"`
			Latitude  string `json:"latitude"`
			Longitude string `json:"longitude"`
		} `json:"addresses"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "buyers/addresses", token, nil, &apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch addresses")
	}

	addresses := make([]Address, 0, len(apiResp.Addresses))
	for _, addr := range apiResp.Addresses {
		addresses = append(addresses, Address{
			ID:        addr.ID,
			Label:     addr.Label,
			IsDefault: addr.IsDefault,
			Latitude:  addr.Latitude,
			Longitude: addr.Longitude,
		})
	}

	return addresses, nil
}

type orderPayload struct {
	ID              string          `json:"id"`
	Code            string          `json:"code"`
	OutletID        string          `json:"outlet_id"`
	OutletName      string          `json:"outlet_name"`
	OutletLatitude  string          `json:"outlet_latitude"`
	OutletLongitude string          `json:"outlet_longitude"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PaymentMethod   string          `json:"payment_method"`
	PaymentGroupID  *string         `json:"payment_group_id"`
	Status          string          `json:"status"`
	PickupStatus    string          `json:"pickup_status"`
	CreatedAt       time.Time       `json:"created_at"`
	Items           []struct {
		Name     string          `json:"name"`
		Quantity int             `json:"quantity"`
		Price    decimal.Decimal `json:"price"`
		ImageURL string          `json:"image_url"`
	} `json:"items"`
}

func (p orderPayload) toOrder() Order {
	items := make([]OrderItem, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, OrderItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
			ImageURL: item.ImageURL,
		})
	}

	return Order{
		ID:              p.ID,
		Code:            p.Code,
		OutletID:        p.OutletID,
		OutletName:      p.OutletName,
		OutletLatitude:  p.OutletLatitude,
		OutletLongitude: p.OutletLongitude,
		Items:           items,
		TotalAmount:     p.TotalAmount,
		PaymentMethod:   p.PaymentMethod,
		PaymentGroupID:  p.PaymentGroupID,
		Status:          p.Status,
		PickupStatus:    p.PickupStatus,
		CreatedAt:       p.CreatedAt,
	}
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, body io.Reader, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), body)
	if err != nil {
		return fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	setAuth(httpReq, token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("execute %s %s request: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return upstreamFailure(resp, "")
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}

	return nil
}

func (c *Client) buildURL(path string) string {
	return fmt.Sprintf("%s/%s", c.baseURL, strings.TrimLeft(path, "/"))
}

func setAuth(req *http.Request, token string) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return
	}
	if !strings.HasPrefix(trimmed, "Bearer ") {
		trimmed = "Bearer " + trimmed
	}
	req.Header.Set("Authorization", trimmed)
}

func upstreamFailure(resp *http.Response, context string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
	message := strings.TrimSpace(string(raw))

	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Message != "" {
		message = parsed.Message
	}

	upstream := &pkgerrors.UpstreamError{Status: resp.StatusCode, Message: message}
	if context == "" {
		return upstream
	}
	return fmt.Errorf("%s: %w", context, upstream)
}

func decodeCheckoutError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))

	var parsed struct {
		Message  string `json:"message"`
		Failures []struct {
			OutletID string `json:"outlet_id"`
			Message  string `json:"message"`
		} `json:"failures"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil || parsed.Message == "" {
		message := strings.TrimSpace(string(raw))
		if message == "" {
			message = fmt.Sprintf("checkout rejected with status %d", resp.StatusCode)
		}
		return &CheckoutError{Message: message}
	}

	legs := make([]LegFailure, 0, len(parsed.Failures))
	for _, failure := range parsed.Failures {
		legs = append(legs, LegFailure{OutletID: failure.OutletID, Message: failure.Message})
	}

	return &CheckoutError{Message: parsed.Message, Legs: legs}
}
