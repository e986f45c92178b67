package client

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/desims/tokobangunansaya/internal/db"
	"github.com/desims/tokobangunansaya/internal/pos"
	"github.com/desims/tokobangunansaya/internal/receipt"
	"github.com/desims/tokobangunansaya/internal/report"
	"github.com/go-resty/resty/v2"
)

// Client is a resty-backed pos.Backend talking to a running server
type Client struct {
	httpClient *resty.Client
}

var _ pos.Backend = (*Client)(nil)

// apiError mirrors the server's error body
type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type sellRequest struct {
	Code     string `json:"code"`
	Quantity int64  `json:"quantity"`
}

// New builds a client for the server at baseURL, e.g. http://localhost:8080
func New(baseURL string) *Client {
	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(baseURL, "/")+"/api/v1").
		SetHeader("Accept", "application/json").
		SetTimeout(15 * time.Second)

	return &Client{httpClient: restyClient}
}

func (c *Client) AddItem(ctx context.Context, item pos.NewItem) (*db.Item, error) {
	result := new(db.Item)
	if err := c.do(ctx, http.MethodPost, "/items", item, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) ListItems(ctx context.Context) ([]db.ItemSummary, error) {
	items := []db.ItemSummary{}
	if err := c.do(ctx, http.MethodGet, "/items", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) Sell(ctx context.Context, code string, quantity int64) (*db.Sale, error) {
	result := new(db.Sale)
	if err := c.do(ctx, http.MethodPost, "/sales", sellRequest{Code: code, Quantity: quantity}, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) ListSales(ctx context.Context) ([]db.Sale, error) {
	sales := []db.Sale{}
	if err := c.do(ctx, http.MethodGet, "/sales", nil, &sales); err != nil {
		return nil, err
	}
	return sales, nil
}

func (c *Client) DailyRevenue(ctx context.Context) ([]report.DailyRevenue, error) {
	days := []report.DailyRevenue{}
	if err := c.do(ctx, http.MethodGet, "/reports/daily", nil, &days); err != nil {
		return nil, err
	}
	return days, nil
}

// Receipt downloads the PDF receipt of a sale
func (c *Client) Receipt(ctx context.Context, saleID uint) (*receipt.Document, error) {
	apiErr := new(apiError)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Accept", receipt.ContentType+", application/json").
		SetError(apiErr).
		Get(fmt.Sprintf("/sales/%d/receipt", saleID))
	if err != nil {
		return nil, fmt.Errorf("download receipt: %w", err)
	}
	if resp.IsError() {
		return nil, toError(resp, apiErr)
	}

	name := fmt.Sprintf("struk_%d.pdf", saleID)
	if _, params, err := mime.ParseMediaType(resp.Header().Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name = params["filename"]
	}
	return &receipt.Document{Name: name, Data: resp.Body()}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	apiErr := new(apiError)
	req := c.httpClient.R().
		SetContext(ctx).
		SetResult(result).
		SetError(apiErr)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		return toError(resp, apiErr)
	}
	return nil
}

func toError(resp *resty.Response, apiErr *apiError) error {
	if apiErr.Code == "" {
		return pos.ErrorFromCode(pos.CodeInternal, fmt.Sprintf("server answered %s", resp.Status()))
	}
	return pos.ErrorFromCode(apiErr.Code, apiErr.Error)
}
