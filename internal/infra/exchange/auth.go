package exchange

import (
	"context"
	"net/http"
	"time"
)

// LoginUser is the account the backend returns on login.
type LoginUser struct {
	ID            string    `json:"id"`
	WalletAddress string    `json:"wallet_address"`
	UserLevel     string    `json:"user_level"`
	CreatedAt     time.Time `json:"created_at"`
}

// GetNonce requests a one-time login nonce for a wallet address.
func (c *Client) GetNonce(ctx context.Context, walletAddress string) (string, error) {
	var resp struct {
		Nonce string `json:"nonce"`
	}
	body := map[string]string{"wallet_address": walletAddress}
	if err := c.doRequest(ctx, "get_nonce", http.MethodPost, "/auth/nonce", nil, body, &resp); err != nil {
		return "", err
	}
	return resp.Nonce, nil
}

// Login exchanges a signed nonce for a bearer token. The token is installed
// on the client for subsequent authenticated requests.
func (c *Client) Login(ctx context.Context, walletAddress, signature string) (string, *LoginUser, error) {
	var resp struct {
		Token string    `json:"token"`
		User  LoginUser `json:"user"`
	}
	body := map[string]string{
		"wallet_address": walletAddress,
		"signature":      signature,
	}
	if err := c.doRequest(ctx, "login", http.MethodPost, "/auth/login", nil, body, &resp); err != nil {
		return "", nil, err
	}
	c.SetToken(resp.Token)
	return resp.Token, &resp.User, nil
}
