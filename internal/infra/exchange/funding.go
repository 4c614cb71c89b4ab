package exchange

import (
	"context"
	"net/http"

	"github.com/haodong0616/velocity-client/internal/domain"
)

// Authenticated deposit/withdraw surface plus chain reference data.

// SubmitDeposit registers a mined on-chain transfer for backend verification.
func (c *Client) SubmitDeposit(ctx context.Context, req domain.DepositRequest) error {
	return c.doRequest(ctx, "deposit", http.MethodPost, "/balances/deposit", nil, req, nil)
}

// SubmitWithdraw asks the backend to pay out to an external address.
func (c *Client) SubmitWithdraw(ctx context.Context, req domain.WithdrawRequest) error {
	return c.doRequest(ctx, "withdraw", http.MethodPost, "/balances/withdraw", nil, req, nil)
}

// GetDepositRecords lists the user's deposit records.
func (c *Client) GetDepositRecords(ctx context.Context) ([]domain.DepositRecord, error) {
	var records []domain.DepositRecord
	err := c.doRequest(ctx, "get_deposits", http.MethodGet, "/balances/deposits", nil, nil, &records)
	return records, err
}

// GetWithdrawRecords lists the user's withdrawal records.
func (c *Client) GetWithdrawRecords(ctx context.Context) ([]domain.WithdrawRecord, error) {
	var records []domain.WithdrawRecord
	err := c.doRequest(ctx, "get_withdraws", http.MethodGet, "/balances/withdraws", nil, nil, &records)
	return records, err
}

// GetChains fetches the supported chain configurations.
func (c *Client) GetChains(ctx context.Context) ([]domain.ChainConfig, error) {
	var chains []domain.ChainConfig
	err := c.doRequest(ctx, "get_chains", http.MethodGet, "/chains", nil, nil, &chains)
	return chains, err
}
