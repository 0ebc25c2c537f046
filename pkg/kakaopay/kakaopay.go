package kakaopay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"groov/internal/domain"
)

// Client is the two-operation surface of the KakaoPay online payment API:
// reserve a transaction (ready), then confirm it (approve) with the one-time
// token the gateway hands the user on redirect.
type Client interface {
	Ready(ctx context.Context, req ReadyRequest) (*ReadyResponse, error)
	Approve(ctx context.Context, req ApproveRequest) (*ApproveResponse, error)
}

type ReadyRequest struct {
	OrderID  string
	UserID   string
	ItemName string
	Quantity int
	Amount   int
}

type ReadyResponse struct {
	TID            string `json:"tid"`
	NextRedirectPC string `json:"next_redirect_pc_url"`
	CreatedAt      string `json:"created_at"`
}

type ApproveRequest struct {
	TID     string
	OrderID string
	UserID  string
	PGToken string
}

type ApproveResponse struct {
	AID        string `json:"aid"`
	TID        string `json:"tid"`
	ApprovedAt string `json:"approved_at"`
}

// HTTPClient talks to the live gateway. BaseURL is configurable so tests can
// point it at a mock server.
type HTTPClient struct {
	baseURL         string
	cid             string
	secretKey       string
	redirectBaseURL string
	client          *http.Client
}

func NewHTTPClient(baseURL, cid, secretKey, redirectBaseURL string, timeout time.Duration) *HTTPClient {
	if baseURL == "" {
		baseURL = "https://open-api.kakaopay.com"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL:         baseURL,
		cid:             cid,
		secretKey:       secretKey,
		redirectBaseURL: redirectBaseURL,
		client:          &http.Client{Timeout: timeout},
	}
}

type readyPayload struct {
	CID            string `json:"cid"`
	PartnerOrderID string `json:"partner_order_id"`
	PartnerUserID  string `json:"partner_user_id"`
	ItemName       string `json:"item_name"`
	Quantity       int    `json:"quantity"`
	TotalAmount    int    `json:"total_amount"`
	TaxFreeAmount  int    `json:"tax_free_amount"`
	ApprovalURL    string `json:"approval_url"`
	CancelURL      string `json:"cancel_url"`
	FailURL        string `json:"fail_url"`
}

type approvePayload struct {
	CID            string `json:"cid"`
	TID            string `json:"tid"`
	PartnerOrderID string `json:"partner_order_id"`
	PartnerUserID  string `json:"partner_user_id"`
	PGToken        string `json:"pg_token"`
}

func (c *HTTPClient) Ready(ctx context.Context, req ReadyRequest) (*ReadyResponse, error) {
	payload := readyPayload{
		CID:            c.cid,
		PartnerOrderID: req.OrderID,
		PartnerUserID:  req.UserID,
		ItemName:       req.ItemName,
		Quantity:       req.Quantity,
		TotalAmount:    req.Amount,
		TaxFreeAmount:  domain.TaxFreeAmount,
		ApprovalURL:    c.redirectBaseURL + "/payment/success",
		CancelURL:      c.redirectBaseURL + "/payment/cancel",
		FailURL:        c.redirectBaseURL + "/payment/fail",
	}
	var out ReadyResponse
	if err := c.post(ctx, "/online/v1/payment/ready", payload, &out); err != nil {
		return nil, err
	}
	log.Printf("[kakaopay] ready order_id=%s tid=%s", req.OrderID, out.TID)
	return &out, nil
}

func (c *HTTPClient) Approve(ctx context.Context, req ApproveRequest) (*ApproveResponse, error) {
	payload := approvePayload{
		CID:            c.cid,
		TID:            req.TID,
		PartnerOrderID: req.OrderID,
		PartnerUserID:  req.UserID,
		PGToken:        req.PGToken,
	}
	var out ApproveResponse
	if err := c.post(ctx, "/online/v1/payment/approve", payload, &out); err != nil {
		return nil, err
	}
	log.Printf("[kakaopay] approve order_id=%s tid=%s", req.OrderID, req.TID)
	return &out, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "SECRET_KEY "+c.secretKey)
	resp, err := c.client.Do(httpReq)
	if err != nil {
		// timeouts and transport failures count as gateway failures, never success
		return &domain.GatewayError{StatusCode: 0, Body: []byte(err.Error())}
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &domain.GatewayError{StatusCode: resp.StatusCode, Body: respBody}
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("kakaopay %s: decode response: %w", path, err)
	}
	return nil
}
