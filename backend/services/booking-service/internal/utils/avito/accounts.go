package avito

import (
	"context"
	"fmt"
	"net/http"
)

// GetSelf returns the account behind accessToken.
func (c *Client) GetSelf(ctx context.Context, accessToken string) (*Self, error) {
	var out Self
	if err := c.doRequest(ctx, accessToken, http.MethodGet, "/core/v1/accounts/self", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetItem looks up one listing of the given account.
func (c *Client) GetItem(ctx context.Context, accessToken string, userID, itemID int64) (*Item, error) {
	var out Item
	p := fmt.Sprintf("/core/v1/accounts/%d/items/%d/", userID, itemID)
	if err := c.doRequest(ctx, accessToken, http.MethodGet, p, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
