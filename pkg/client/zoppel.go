package client

import (
	"context"
	"net/http"
	"net/url"
)

const zoppelPath = "/api/v1/zoppel"

// TokenInfo returns the Zoppel token summary.
func (c *Client) TokenInfo(ctx context.Context) (*TokenInfo, error) {
	var resp TokenInfo
	if err := c.get(ctx, zoppelPath+"/", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TokenBalance returns the token balance of account as a decimal string.
func (c *Client) TokenBalance(ctx context.Context, account string) (string, error) {
	var resp struct {
		Balance string `json:"balance"`
	}
	if err := c.get(ctx, zoppelPath+"/balances/"+url.PathEscape(account), nil, &resp); err != nil {
		return "", err
	}
	return resp.Balance, nil
}

// Allowance returns what spender may move on behalf of owner.
func (c *Client) Allowance(ctx context.Context, owner, spender string) (string, error) {
	var resp struct {
		Allowance string `json:"allowance"`
	}
	path := zoppelPath + "/allowances/" + url.PathEscape(owner) + "/" + url.PathEscape(spender)
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return "", err
	}
	return resp.Allowance, nil
}

// PermitNonce returns the next permit nonce of owner.
func (c *Client) PermitNonce(ctx context.Context, owner string) (uint64, error) {
	var resp struct {
		Nonce uint64 `json:"nonce"`
	}
	if err := c.get(ctx, zoppelPath+"/nonces/"+url.PathEscape(owner), nil, &resp); err != nil {
		return 0, err
	}
	return resp.Nonce, nil
}

// Transfer sends amount tokens from the caller to to.
func (c *Client) Transfer(ctx context.Context, to, amount string) (*Receipt, error) {
	return c.submit(ctx, http.MethodPost, zoppelPath+"/transfers", map[string]string{"to": to, "amount": amount}, nil)
}

// TransferFrom moves amount tokens from from to to using the caller's
// allowance.
func (c *Client) TransferFrom(ctx context.Context, from, to, amount string) (*Receipt, error) {
	return c.submit(ctx, http.MethodPost, zoppelPath+"/transfers/from",
		map[string]string{"from": from, "to": to, "amount": amount}, nil)
}

// Approve sets the allowance of spender over the caller's tokens.
func (c *Client) Approve(ctx context.Context, spender, amount string) (*Receipt, error) {
	return c.submit(ctx, http.MethodPost, zoppelPath+"/approvals", map[string]string{"spender": spender, "amount": amount}, nil)
}

// SubmitPermit relays a signed permit. Any caller may relay it.
func (c *Client) SubmitPermit(ctx context.Context, p Permit) (*Receipt, error) {
	return c.submit(ctx, http.MethodPost, zoppelPath+"/permits", p, nil)
}

// TransferOwnership hands the token ownership to newOwner.
func (c *Client) TransferOwnership(ctx context.Context, newOwner string) (*Receipt, error) {
	return c.submit(ctx, http.MethodPut, zoppelPath+"/owner", map[string]string{"newOwner": newOwner}, nil)
}

// RenounceOwnership leaves the token without an owner.
func (c *Client) RenounceOwnership(ctx context.Context) (*Receipt, error) {
	return c.submit(ctx, http.MethodDelete, zoppelPath+"/owner", nil, nil)
}
