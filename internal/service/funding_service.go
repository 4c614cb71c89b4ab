package service

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/haodong0616/velocity-client/internal/domain"
	"github.com/haodong0616/velocity-client/internal/infra"
)

var withdrawAddressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// TransferStore is the local mirror of client-created deposit and withdraw
// records. It survives restarts so a deposit stuck between the chain and the
// backend is not lost.
type TransferStore interface {
	SaveDeposit(record *domain.DepositRecord) error
	GetOpenDeposits() ([]domain.DepositRecord, error)
	SaveWithdraw(record *domain.WithdrawRecord) error
	GetOpenWithdraws() ([]domain.WithdrawRecord, error)
}

// FundingService drives the deposit and withdrawal state machines. Deposits
// cross three trust boundaries in order: wallet signature, chain
// confirmation, backend verification. A failure on an earlier boundary must
// abort before the next one is touched.
type FundingService struct {
	api          domain.FundingAPI
	guard        *Session
	wallet       domain.WalletSigner
	store        TransferStore
	pollInterval time.Duration
	logger       *slog.Logger

	mu        sync.RWMutex
	deposits  map[string]domain.DepositRecord
	withdraws map[string]domain.WithdrawRecord
}

// NewFundingService creates the deposit/withdraw coordinator.
func NewFundingService(api domain.FundingAPI, guard *Session, wallet domain.WalletSigner, store TransferStore, pollInterval time.Duration) *FundingService {
	return &FundingService{
		api:          api,
		guard:        guard,
		wallet:       wallet,
		store:        store,
		pollInterval: pollInterval,
		logger:       slog.Default().With("module", "funding"),
		deposits:     make(map[string]domain.DepositRecord),
		withdraws:    make(map[string]domain.WithdrawRecord),
	}
}

// Deposit transfers tokens to the platform address on-chain, then registers
// the mined transaction with the backend. All guards run before the wallet
// is asked to sign anything. A backend failure after the transfer is mined
// is returned as PartialDepositError and the record stays in `submitted`;
// it is never retried automatically because the tokens already moved.
func (s *FundingService) Deposit(ctx context.Context, asset, amount string, chainID int64) (*domain.DepositRecord, error) {
	if err := s.guard.RequireAuth(); err != nil {
		return nil, err
	}
	if err := s.guard.RequireWallet(); err != nil {
		return nil, err
	}

	amt, err := decimal.NewFromString(amount)
	if err != nil || !amt.IsPositive() {
		return nil, domain.NewPreconditionError("amount", "must be a positive decimal")
	}

	cfg, err := s.guard.ChainByID(chainID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.RequireChain(ctx, chainID); err != nil {
		return nil, err
	}

	balance, err := s.wallet.TokenBalance(ctx, *cfg)
	if err != nil {
		return nil, domain.NewNetworkError("token balance", err)
	}
	if balance.LessThan(amt) {
		return nil, domain.NewPreconditionError("amount", "insufficient on-chain "+asset+" balance")
	}

	record := domain.DepositRecord{
		ID:        uuid.NewString(),
		Asset:     asset,
		Amount:    amt,
		Chain:     cfg.ChainName,
		ChainID:   chainID,
		Status:    domain.DepositStatusSigning,
		CreatedAt: time.Now(),
	}
	s.saveDeposit(&record)

	txHash, err := s.wallet.TransferToken(ctx, *cfg, amt)
	if err != nil {
		record.Status = domain.DepositStatusFailed
		s.saveDeposit(&record)
		if errors.Is(err, domain.ErrSignatureRejected) {
			return nil, domain.ErrSignatureRejected
		}
		return nil, err
	}

	// The transfer is mined from here on. Any later failure leaves the
	// record in `submitted` for manual follow-up.
	record.TxHash = txHash
	record.Status = domain.DepositStatusSubmitted
	s.saveDeposit(&record)

	req := domain.DepositRequest{
		Asset:   asset,
		Amount:  amt.String(),
		TxHash:  txHash,
		Chain:   cfg.ChainName,
		ChainID: chainID,
	}
	if err := s.api.SubmitDeposit(ctx, req); err != nil {
		s.logger.Error("deposit registration failed after mined transfer",
			slog.String("tx_hash", txHash), slog.Any("error", err))
		return &record, &domain.PartialDepositError{TxHash: txHash, Err: err}
	}

	record.Status = domain.DepositStatusPending
	s.saveDeposit(&record)
	return &record, nil
}

// Withdraw submits a withdrawal request. Nothing is signed locally; the
// backend performs the on-chain payout, so only format, amount and chain
// guards apply.
func (s *FundingService) Withdraw(ctx context.Context, asset, amount, address string, chainID int64) (*domain.WithdrawRecord, error) {
	if err := s.guard.RequireAuth(); err != nil {
		return nil, err
	}
	if !withdrawAddressPattern.MatchString(address) {
		return nil, domain.NewPreconditionError("address", "must be a 0x-prefixed 40-hex-digit address")
	}

	amt, err := decimal.NewFromString(amount)
	if err != nil || !amt.IsPositive() {
		return nil, domain.NewPreconditionError("amount", "must be a positive decimal")
	}

	cfg, err := s.guard.ChainByID(chainID)
	if err != nil {
		return nil, err
	}

	req := domain.WithdrawRequest{
		Asset:   asset,
		Amount:  amt.String(),
		Address: address,
		Chain:   cfg.ChainName,
		ChainID: chainID,
	}
	if err := s.api.SubmitWithdraw(ctx, req); err != nil {
		return nil, err
	}

	record := domain.WithdrawRecord{
		ID:        uuid.NewString(),
		Asset:     asset,
		Amount:    amt,
		Address:   address,
		Chain:     cfg.ChainName,
		ChainID:   chainID,
		Status:    domain.WithdrawStatusSubmitted,
		CreatedAt: time.Now(),
	}
	s.saveWithdraw(&record)
	return &record, nil
}

// Run polls the backend record lists and reconciles local records against
// them. Backend records are authoritative: terminal states are only ever
// learned here, never inferred.
func (s *FundingService) Run(ctx context.Context) {
	s.restore()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.guard.Authenticated() {
				s.reconcile(ctx)
			}
		}
	}
}

// restore reloads non-terminal records from the local mirror so that a
// deposit in `submitted` survives a restart.
func (s *FundingService) restore() {
	deposits, err := s.store.GetOpenDeposits()
	if err != nil {
		s.logger.Warn("restore deposits failed", slog.Any("error", err))
	}
	withdraws, err := s.store.GetOpenWithdraws()
	if err != nil {
		s.logger.Warn("restore withdraws failed", slog.Any("error", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range deposits {
		s.deposits[d.ID] = d
	}
	for _, w := range withdraws {
		s.withdraws[w.ID] = w
	}
}

func (s *FundingService) reconcile(ctx context.Context) {
	remote, err := s.api.GetDepositRecords(ctx)
	if err != nil {
		infra.GlobalMetrics.RecordPoll(false)
		s.logger.Warn("deposit record poll failed", slog.Any("error", err))
	} else {
		infra.GlobalMetrics.RecordPoll(true)
		s.reconcileDeposits(remote)
	}

	withdraws, err := s.api.GetWithdrawRecords(ctx)
	if err != nil {
		infra.GlobalMetrics.RecordPoll(false)
		s.logger.Warn("withdraw record poll failed", slog.Any("error", err))
		return
	}
	infra.GlobalMetrics.RecordPoll(true)
	s.reconcileWithdraws(withdraws)
}

// reconcileDeposits matches backend records to local ones by transaction
// hash. A deposit the backend knows about has cleared verification, so its
// status wins; deposits the backend does not list yet (still `signing` or
// `submitted`) are kept as-is.
func (s *FundingService) reconcileDeposits(remote []domain.DepositRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byHash := make(map[string]string, len(s.deposits))
	for id, d := range s.deposits {
		if d.TxHash != "" {
			byHash[d.TxHash] = id
		}
	}

	for _, r := range remote {
		id, ok := byHash[r.TxHash]
		if !ok {
			// Backend-side record with no local origin (another device,
			// or a cleared local mirror). Track it under its own id.
			s.deposits[r.ID] = r
			continue
		}
		local := s.deposits[id]
		if local.Status == r.Status {
			continue
		}
		local.Status = r.Status
		local.UpdatedAt = time.Now()
		s.deposits[id] = local
		if err := s.store.SaveDeposit(&local); err != nil {
			s.logger.Warn("persist deposit failed", slog.String("id", id), slog.Any("error", err))
		}
	}
}

func (s *FundingService) reconcileWithdraws(remote []domain.WithdrawRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Withdrawals carry no client-side hash; match on the tuple the client
	// submitted, oldest open record first.
	for _, r := range remote {
		matched := ""
		for id, w := range s.withdraws {
			if w.Asset == r.Asset && w.Address == r.Address && w.Amount.Equal(r.Amount) && !w.IsTerminal() {
				if matched == "" || s.withdraws[id].CreatedAt.Before(s.withdraws[matched].CreatedAt) {
					matched = id
				}
			}
		}
		if matched == "" {
			s.withdraws[r.ID] = r
			continue
		}
		local := s.withdraws[matched]
		if local.Status == r.Status && local.TxHash == r.TxHash {
			continue
		}
		local.Status = r.Status
		local.TxHash = r.TxHash
		local.UpdatedAt = time.Now()
		s.withdraws[matched] = local
		if err := s.store.SaveWithdraw(&local); err != nil {
			s.logger.Warn("persist withdraw failed", slog.String("id", matched), slog.Any("error", err))
		}
	}
}

func (s *FundingService) saveDeposit(record *domain.DepositRecord) {
	record.UpdatedAt = time.Now()
	s.mu.Lock()
	s.deposits[record.ID] = *record
	s.mu.Unlock()
	if err := s.store.SaveDeposit(record); err != nil {
		s.logger.Warn("persist deposit failed", slog.String("id", record.ID), slog.Any("error", err))
	}
}

func (s *FundingService) saveWithdraw(record *domain.WithdrawRecord) {
	record.UpdatedAt = time.Now()
	s.mu.Lock()
	s.withdraws[record.ID] = *record
	s.mu.Unlock()
	if err := s.store.SaveWithdraw(record); err != nil {
		s.logger.Warn("persist withdraw failed", slog.String("id", record.ID), slog.Any("error", err))
	}
}

// Deposits returns the tracked deposit records, newest first.
func (s *FundingService) Deposits() []domain.DepositRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.DepositRecord, 0, len(s.deposits))
	for _, d := range s.deposits {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Withdraws returns the tracked withdraw records, newest first.
func (s *FundingService) Withdraws() []domain.WithdrawRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.WithdrawRecord, 0, len(s.withdraws))
	for _, w := range s.withdraws {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
