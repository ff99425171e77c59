package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

const artifactsPath = "/api/v1/artifacts"

// CollectionInfo returns the artifact collection summary.
func (c *Client) CollectionInfo(ctx context.Context) (*CollectionInfo, error) {
	var resp CollectionInfo
	if err := c.get(ctx, artifactsPath+"/", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetArtifact returns a token by id.
func (c *Client) GetArtifact(ctx context.Context, id string) (*Artifact, error) {
	var resp Artifact
	if err := c.get(ctx, artifactsPath+"/tokens/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ArtifactByIndex returns the token at index of the global enumeration.
func (c *Client) ArtifactByIndex(ctx context.Context, index uint64) (*Artifact, error) {
	var resp Artifact
	q := url.Values{"index": {strconv.FormatUint(index, 10)}}
	if err := c.get(ctx, artifactsPath+"/tokens", q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListArtifacts returns the tokens of owner.
func (c *Client) ListArtifacts(ctx context.Context, owner string) (*OwnedArtifacts, error) {
	var resp OwnedArtifacts
	if err := c.get(ctx, artifactsPath+"/owners/"+url.PathEscape(owner)+"/tokens", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HasRole reports whether account holds role. Role is a name such as
// MINTER_ROLE or a 0x-prefixed hash.
func (c *Client) HasRole(ctx context.Context, role, account string) (bool, error) {
	var resp struct {
		HasRole bool `json:"hasRole"`
	}
	path := artifactsPath + "/roles/" + url.PathEscape(role) + "/" + url.PathEscape(account)
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return false, err
	}
	return resp.HasRole, nil
}

// SupportsInterface reports ERC-165 support for the 4-byte id.
func (c *Client) SupportsInterface(ctx context.Context, id string) (bool, error) {
	var resp struct {
		Supported bool `json:"supported"`
	}
	if err := c.get(ctx, artifactsPath+"/interfaces/"+url.PathEscape(id), nil, &resp); err != nil {
		return false, err
	}
	return resp.Supported, nil
}

// Mint creates a token for to and returns its id.
func (c *Client) Mint(ctx context.Context, to, uri string) (string, *Receipt, error) {
	var result struct {
		TokenID string `json:"tokenId"`
	}
	receipt, err := c.submit(ctx, http.MethodPost, artifactsPath+"/mint", map[string]string{"to": to, "uri": uri}, &result)
	if err != nil {
		return "", nil, err
	}
	return result.TokenID, receipt, nil
}

// BatchMint mints one token per recipient.
func (c *Client) BatchMint(ctx context.Context, to, uris []string) ([]string, *Receipt, error) {
	var result struct {
		TokenIDs []string `json:"tokenIds"`
	}
	body := map[string][]string{"to": to, "uris": uris}
	receipt, err := c.submit(ctx, http.MethodPost, artifactsPath+"/batch-mint", body, &result)
	if err != nil {
		return nil, nil, err
	}
	return result.TokenIDs, receipt, nil
}

// SetBaseURI replaces the prefix of every token URI.
func (c *Client) SetBaseURI(ctx context.Context, baseURI string) (*Receipt, error) {
	return c.submit(ctx, http.MethodPut, artifactsPath+"/base-uri", map[string]string{"baseUri": baseURI}, nil)
}

// ConcedeMinter grants the minter role to account and pays the stipend.
func (c *Client) ConcedeMinter(ctx context.Context, account string) (*Receipt, error) {
	return c.submit(ctx, http.MethodPost, artifactsPath+"/minters", map[string]string{"account": account}, nil)
}

// RevokeMinter removes the minter role from account.
func (c *Client) RevokeMinter(ctx context.Context, account string) (*Receipt, error) {
	return c.submit(ctx, http.MethodDelete, artifactsPath+"/minters/"+url.PathEscape(account), nil, nil)
}

// SetStipend changes the minter stipend in wei.
func (c *Client) SetStipend(ctx context.Context, amount string) (*Receipt, error) {
	return c.submit(ctx, http.MethodPut, artifactsPath+"/stipend", map[string]string{"amount": amount}, nil)
}

// FundCollection sends amount wei from the caller to the collection.
func (c *Client) FundCollection(ctx context.Context, amount string) (*Receipt, error) {
	return c.submit(ctx, http.MethodPost, artifactsPath+"/fund", map[string]string{"amount": amount}, nil)
}

// TransferArtifact moves a token. The caller needs the marketplace role.
func (c *Client) TransferArtifact(ctx context.Context, t ArtifactTransfer) (*Receipt, error) {
	return c.submit(ctx, http.MethodPost, artifactsPath+"/transfers", t, nil)
}

// ApproveArtifact lets to move a single token of the caller.
func (c *Client) ApproveArtifact(ctx context.Context, to, tokenID string) (*Receipt, error) {
	return c.submit(ctx, http.MethodPost, artifactsPath+"/approvals", map[string]string{"to": to, "tokenId": tokenID}, nil)
}

// SetOperator lets operator move every token of the caller.
func (c *Client) SetOperator(ctx context.Context, operator string, approved bool) (*Receipt, error) {
	body := struct {
		Operator string `json:"operator"`
		Approved bool   `json:"approved"`
	}{operator, approved}
	return c.submit(ctx, http.MethodPut, artifactsPath+"/operators", body, nil)
}

// GrantRole grants role to account.
func (c *Client) GrantRole(ctx context.Context, role, account string) (*Receipt, error) {
	return c.submit(ctx, http.MethodPost, artifactsPath+"/roles/grant", map[string]string{"role": role, "account": account}, nil)
}

// RevokeRole revokes role from account.
func (c *Client) RevokeRole(ctx context.Context, role, account string) (*Receipt, error) {
	return c.submit(ctx, http.MethodPost, artifactsPath+"/roles/revoke", map[string]string{"role": role, "account": account}, nil)
}

// RenounceRole drops role from the caller.
func (c *Client) RenounceRole(ctx context.Context, role string) (*Receipt, error) {
	return c.submit(ctx, http.MethodPost, artifactsPath+"/roles/renounce", map[string]string{"role": role}, nil)
}
