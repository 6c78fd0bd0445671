package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/DanielPopoola/stripe-bridge/internal/application"
	"github.com/DanielPopoola/stripe-bridge/internal/config"
)

// maxPages bounds how many currency pages are followed.
const maxPages = 50

type HTTPLedgerClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewLedgerClient(cfg config.LedgerConfig) application.Ledger {
	return &HTTPLedgerClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.ConnTimeout,
		},
	}
}

func (c *HTTPLedgerClient) VerifyToken(ctx context.Context, token string) (*application.Identity, error) {
	endpoint := fmt.Sprintf("%s/auth/tokens/verify/", c.baseURL)
	resp, err := sendRequest[verifyTokenRequest, userResponse](c, ctx, http.MethodPost, endpoint, token, &verifyTokenRequest{Token: token})
	if err != nil {
		return nil, err
	}

	groups := make([]string, 0, len(resp.Groups))
	for _, g := range resp.Groups {
		groups = append(groups, g.Name)
	}

	return &application.Identity{
		ID:            resp.ID,
		Email:         resp.Email,
		Company:       resp.Company,
		Groups:        groups,
		EmailVerified: resp.Verification.Email,
	}, nil
}

// ListCurrencies follows the ledger's next links until the listing is exhausted.
func (c *HTTPLedgerClient) ListCurrencies(ctx context.Context, token string) ([]application.LedgerCurrency, error) {
	endpoint := fmt.Sprintf("%s/admin/currencies/", c.baseURL)

	var currencies []application.LedgerCurrency
	for range maxPages {
		resp, err := sendRequest[any, page[currencyResponse]](c, ctx, http.MethodGet, endpoint, token, nil)
		if err != nil {
			return nil, err
		}

		for _, cur := range resp.Results {
			currencies = append(currencies, application.LedgerCurrency{
				Code:         cur.Code,
				DisplayCode:  cur.DisplayCode,
				Description:  cur.Description,
				Symbol:       cur.Symbol,
				Unit:         cur.Unit,
				Divisibility: cur.Divisibility,
			})
		}

		if resp.Next == nil || *resp.Next == "" {
			return currencies, nil
		}
		next, err := c.resolve(*resp.Next)
		if err != nil {
			return nil, err
		}
		endpoint = next
	}

	return nil, fmt.Errorf("currency listing exceeded %d pages", maxPages)
}

func (c *HTTPLedgerClient) ListSubtypes(ctx context.Context, token string) ([]application.LedgerSubtype, error) {
	endpoint := fmt.Sprintf("%s/admin/subtypes/", c.baseURL)
	resp, err := sendRequest[any, []subtypeResponse](c, ctx, http.MethodGet, endpoint, token, nil)
	if err != nil {
		return nil, err
	}

	subtypes := make([]application.LedgerSubtype, 0, len(*resp))
	for _, s := range *resp {
		subtypes = append(subtypes, toSubtype(s))
	}
	return subtypes, nil
}

func (c *HTTPLedgerClient) CreateSubtype(ctx context.Context, token string, req application.CreateSubtypeRequest) (*application.LedgerSubtype, error) {
	endpoint := fmt.Sprintf("%s/admin/subtypes/", c.baseURL)
	body := subtypeRequest{Name: req.Name, TxType: req.TxType, Description: req.Description}
	resp, err := sendRequest[subtypeRequest, subtypeResponse](c, ctx, http.MethodPost, endpoint, token, &body)
	if err != nil {
		return nil, err
	}

	subtype := toSubtype(*resp)
	return &subtype, nil
}

func (c *HTTPLedgerClient) CreateTransactionCollection(ctx context.Context, token string, req application.TransactionCollectionRequest) (*application.TransactionCollection, error) {
	endpoint := fmt.Sprintf("%s/admin/transaction-collections/", c.baseURL)

	body := transactionCollectionRequest{
		Transactions: make([]transactionRequest, 0, len(req.Transactions)),
	}
	for _, tx := range req.Transactions {
		body.Transactions = append(body.Transactions, transactionRequest{
			User:     tx.User,
			Amount:   tx.Amount,
			Currency: tx.Currency,
			Status:   tx.Status,
			Subtype:  tx.Subtype,
			TxType:   tx.TxType,
			Metadata: tx.Metadata,
		})
	}

	resp, err := sendRequest[transactionCollectionRequest, transactionCollectionResponse](c, ctx, http.MethodPost, endpoint, token, &body)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(resp.Transactions))
	for _, tx := range resp.Transactions {
		ids = append(ids, tx.ID)
	}
	return &application.TransactionCollection{ID: resp.ID, Transactions: ids}, nil
}

// resolve accepts absolute next links as well as ones relative to the base URL.
func (c *HTTPLedgerClient) resolve(next string) (string, error) {
	base, err := url.Parse(c.baseURL + "/")
	if err != nil {
		return "", fmt.Errorf("parse ledger base url: %w", err)
	}
	ref, err := url.Parse(next)
	if err != nil {
		return "", fmt.Errorf("parse next link: %w", err)
	}
	return base.ResolveReference(ref).String(), nil
}

func toSubtype(s subtypeResponse) application.LedgerSubtype {
	return application.LedgerSubtype{
		ID:          s.ID.String(),
		Name:        s.Name,
		TxType:      s.TxType,
		Description: s.Description,
	}
}

func sendRequest[Req any, Resp any](c *HTTPLedgerClient, ctx context.Context, method, endpoint, token string, reqBody *Req) (*Resp, error) {
	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("error marshalling json: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	if reqBody != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Token "+token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeError(resp)
	}

	var ledgerResp envelope[Resp]
	if err := json.NewDecoder(resp.Body).Decode(&ledgerResp); err != nil {
		return nil, fmt.Errorf("error decoding json response: %w", err)
	}
	if ledgerResp.Status != "" && ledgerResp.Status != "success" {
		return nil, &application.LedgerError{
			Message:    ledgerResp.Message,
			StatusCode: resp.StatusCode,
		}
	}

	return &ledgerResp.Data, nil
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var errResp errorResponse
	message := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		message = errResp.Message
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	return &application.LedgerError{
		Message:    message,
		StatusCode: resp.StatusCode,
	}
}
