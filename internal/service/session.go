package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/haodong0616/velocity-client/internal/domain"
	"github.com/haodong0616/velocity-client/internal/infra/exchange"
)

// tokenKey is where the bearer token is persisted between runs.
const tokenKey = "session.token"

// loginMessageFormat is the payload the backend expects the wallet to
// personal-sign. The nonce is single-use.
const loginMessageFormat = "登录到 Velocity Exchange\nNonce: %s"

// AuthAPI is the slice of the REST client the session needs.
type AuthAPI interface {
	GetNonce(ctx context.Context, walletAddress string) (string, error)
	Login(ctx context.Context, walletAddress, signature string) (string, *exchange.LoginUser, error)
	SetToken(token string)
}

// ChainAPI fetches chain reference data.
type ChainAPI interface {
	GetChains(ctx context.Context) ([]domain.ChainConfig, error)
}

// SessionStore persists the token and the chain-config cache locally.
type SessionStore interface {
	SaveConfig(key, value string) error
	GetConfig(key string) (string, error)
	DeleteConfig(key string) error
	ReplaceChainConfigs(chains []domain.ChainConfig) error
	GetChainConfigs() ([]domain.ChainConfig, error)
}

// Session is the cross-cutting guard: "wallet connected, correct chain,
// authenticated" as a precondition the coordinators consult before acting.
type Session struct {
	auth    AuthAPI
	chains  ChainAPI
	store   SessionStore
	wallet  domain.WalletSigner
	logger  *slog.Logger

	mu         sync.RWMutex
	token      string
	chainCache []domain.ChainConfig
}

// NewSession creates a session guard.
func NewSession(auth AuthAPI, chains ChainAPI, store SessionStore, wallet domain.WalletSigner) *Session {
	return &Session{
		auth:   auth,
		chains: chains,
		store:  store,
		wallet: wallet,
		logger: slog.Default().With("module", "session"),
	}
}

// Restore installs a previously persisted token, if any. The backend still
// decides whether it is valid; a stale token just produces 401s that surface
// as rejections.
func (s *Session) Restore() error {
	if s.store == nil {
		return nil
	}
	token, err := s.store.GetConfig(tokenKey)
	if err != nil {
		return err
	}
	if token == "" {
		return nil
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	s.auth.SetToken(token)
	s.logger.Info("session restored")
	return nil
}

// Login runs the signed-login flow: nonce, personal-sign, token exchange.
// A wallet-side signature rejection aborts without error noise.
func (s *Session) Login(ctx context.Context) error {
	if s.wallet == nil {
		return domain.ErrWalletNotConnected
	}

	address := strings.ToLower(s.wallet.Address())
	nonce, err := s.auth.GetNonce(ctx, address)
	if err != nil {
		return err
	}

	signature, err := s.wallet.SignLoginMessage(fmt.Sprintf(loginMessageFormat, nonce))
	if err != nil {
		return err
	}

	token, user, err := s.auth.Login(ctx, address, signature)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.SaveConfig(tokenKey, token); err != nil {
			s.logger.Warn("failed to persist token", slog.Any("error", err))
		}
	}

	s.logger.Info("logged in", slog.String("address", user.WalletAddress))
	return nil
}

// Logout drops the token locally.
func (s *Session) Logout() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	s.auth.SetToken("")
	if s.store != nil {
		if err := s.store.DeleteConfig(tokenKey); err != nil {
			s.logger.Warn("failed to clear token", slog.Any("error", err))
		}
	}
}

// Authenticated reports whether a login session exists.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// RequireAuth is the precondition gate for authenticated actions.
func (s *Session) RequireAuth() error {
	if !s.Authenticated() {
		return domain.ErrNotAuthenticated
	}
	return nil
}

// RequireWallet is the precondition gate for wallet actions.
func (s *Session) RequireWallet() error {
	if s.wallet == nil {
		return domain.ErrWalletNotConnected
	}
	return nil
}

// RequireChain checks that the wallet's active chain matches chainID.
func (s *Session) RequireChain(ctx context.Context, chainID int64) error {
	if err := s.RequireWallet(); err != nil {
		return err
	}
	active, err := s.wallet.ChainID(ctx)
	if err != nil {
		return err
	}
	if active != chainID {
		return fmt.Errorf("%w: active %d, want %d", domain.ErrChainMismatch, active, chainID)
	}
	return nil
}

// LoadChains fetches chain configs from the backend and caches them locally.
// When the fetch fails, the local cache serves as fallback.
func (s *Session) LoadChains(ctx context.Context) error {
	chains, err := s.chains.GetChains(ctx)
	if err != nil {
		s.logger.Warn("chain fetch failed, using cache", slog.Any("error", err))
		if s.store == nil {
			return err
		}
		cached, cacheErr := s.store.GetChainConfigs()
		if cacheErr != nil || len(cached) == 0 {
			return err
		}
		chains = cached
	} else if s.store != nil {
		if err := s.store.ReplaceChainConfigs(chains); err != nil {
			s.logger.Warn("failed to cache chains", slog.Any("error", err))
		}
	}

	s.mu.Lock()
	s.chainCache = chains
	s.mu.Unlock()
	return nil
}

// ChainByID returns the enabled chain config for a chain id.
func (s *Session) ChainByID(chainID int64) (*domain.ChainConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.chainCache {
		if s.chainCache[i].ChainID == chainID && s.chainCache[i].Enabled {
			cfg := s.chainCache[i]
			return &cfg, nil
		}
	}
	return nil, domain.ErrUnknownChain
}

// Chains returns all cached chain configs.
func (s *Session) Chains() []domain.ChainConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ChainConfig, len(s.chainCache))
	copy(out, s.chainCache)
	return out
}
