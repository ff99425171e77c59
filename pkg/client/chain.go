package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// GetAccount returns the native balance and nonce of address.
func (c *Client) GetAccount(ctx context.Context, address string) (*Account, error) {
	var resp Account
	if err := c.get(ctx, "/api/v1/accounts/"+url.PathEscape(address), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Send transfers amount wei of the native currency from the caller.
func (c *Client) Send(ctx context.Context, to, amount string) (*Receipt, error) {
	return c.submit(ctx, http.MethodPost, "/api/v1/accounts/transfers", map[string]string{"to": to, "amount": amount}, nil)
}

// Head returns the chain summary.
func (c *Client) Head(ctx context.Context) (*Head, error) {
	var resp Head
	if err := c.get(ctx, "/api/v1/chain/", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetTransaction returns a recorded transaction by hash.
func (c *Client) GetTransaction(ctx context.Context, hash string) (*Transaction, error) {
	var resp Transaction
	if err := c.get(ctx, "/api/v1/chain/transactions/"+url.PathEscape(hash), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListTransactions lists recorded transactions, newest first unless
// q.Ascending is set.
func (c *Client) ListTransactions(ctx context.Context, q TransactionQuery) (*TransactionList, error) {
	v := url.Values{}
	setQuery(v, "contract", q.Contract)
	setQuery(v, "method", q.Method)
	setQuery(v, "caller", q.Caller)
	setQuery(v, "status", q.Status)
	setQuery(v, "cursor", q.Cursor)
	if q.Ascending {
		v.Set("order", "asc")
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}

	var resp TransactionList
	if err := c.get(ctx, "/api/v1/chain/transactions", v, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListEvents lists recorded events in emission order.
func (c *Client) ListEvents(ctx context.Context, q EventQuery) (*EventList, error) {
	v := url.Values{}
	setQuery(v, "contract", q.Contract)
	setQuery(v, "name", q.Name)
	setQuery(v, "tx", q.TxHash)
	setQuery(v, "cursor", q.Cursor)
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}

	var resp EventList
	if err := c.get(ctx, "/api/v1/chain/events", v, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func setQuery(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

// Identity is the account the server resolves for this client's writes.
type Identity struct {
	Address string `json:"address"`
	Auth    string `json:"auth"`
	KeyName string `json:"keyName,omitempty"`
}

// WhoAmI returns the account writes from this client act for.
func (c *Client) WhoAmI(ctx context.Context) (*Identity, error) {
	var resp Identity
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/whoami", nil)
	if err != nil {
		return nil, err
	}
	if c.caller != "" {
		req.Header.Set(CallerHeader, c.caller)
	}
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
