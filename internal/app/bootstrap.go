package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/haodong0616/velocity-client/internal/domain"
	"github.com/haodong0616/velocity-client/internal/infra"
	"github.com/haodong0616/velocity-client/internal/infra/exchange"
	"github.com/haodong0616/velocity-client/internal/infra/storage"
	"github.com/haodong0616/velocity-client/internal/service"
	"github.com/haodong0616/velocity-client/internal/wallet"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config     *infra.Config
	Storage    *storage.Storage
	Downloader *infra.IconDownloader

	Client  *exchange.Client
	Channel *exchange.Channel
	Wallet  *wallet.EthWallet

	Session *service.Session
	Market  *service.MarketService
	Orders  *service.OrderService
	Funding *service.FundingService
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization (config, logger, DB,
// transports, services).
func (b *Bootstrap) Initialize() error {
	slog.Info("🚀 Bootstrapping Velocity Client...")

	// 1. Load Config
	cfg, err := infra.LoadConfig("configs/config.yaml")
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Initialize Storage (DB)
	store, err := storage.NewStorage()
	if err != nil {
		return err
	}
	b.Storage = store
	slog.Info("✅ Database initialized")

	// 4. Initialize Icon Downloader
	downloader, err := infra.NewIconDownloader()
	if err != nil {
		return err
	}
	b.Downloader = downloader
	slog.Info("✅ Icon downloader ready")

	// 5. Transports: REST client and the singleton push channel.
	b.Client = exchange.NewClient(cfg.API.RestURL)
	b.Channel = exchange.NewChannel(cfg.API.WSURL, time.Duration(cfg.Intervals.ReconnectMS)*time.Millisecond)

	// 6. Wallet signer. The RPC endpoint is filled in once chain configs
	// are loaded.
	if cfg.Wallet.PrivateKey != "" {
		w, err := wallet.New(cfg.Wallet.PrivateKey, "")
		if err != nil {
			return err
		}
		b.Wallet = w
		slog.Info("✅ Wallet ready", slog.String("address", w.Address()))
	} else {
		slog.Warn("No wallet key configured, running read-only")
	}

	// 7. Services.
	var signer domain.WalletSigner
	if b.Wallet != nil {
		signer = b.Wallet
	}
	b.Session = service.NewSession(b.Client, b.Client, b.Storage, signer)
	b.Market = service.NewMarketService(b.Client, b.Channel, time.Duration(cfg.Intervals.TickerMS)*time.Millisecond)

	activeSymbol := ""
	if len(cfg.Symbols) > 0 {
		activeSymbol = cfg.Symbols[0]
	}
	b.Orders = service.NewOrderService(b.Client, b.Session, b.Market, activeSymbol, time.Duration(cfg.Intervals.OrdersMS)*time.Millisecond)
	b.Funding = service.NewFundingService(b.Client, b.Session, signer, b.Storage, time.Duration(cfg.Intervals.TransfersMS)*time.Millisecond)

	return nil
}

// SyncAssets synchronizes coin metadata and icons for the watched symbols
// in the background.
func (b *Bootstrap) SyncAssets(ctx context.Context) {
	slog.Info("🔄 Starting asset synchronization...")

	// Collect unique base assets from the watched symbols
	uniqueAssets := make(map[string]bool)
	for _, s := range b.Config.Symbols {
		if base, _, ok := domain.SplitSymbol(s); ok {
			uniqueAssets[base] = true
		}
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 5) // Limit concurrent downloads

	for asset := range uniqueAssets {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				return
			case semaphore <- struct{}{}: // Acquire
			}
			defer func() { <-semaphore }() // Release

			coin := &domain.CoinInfo{
				Symbol:    sym,
				Name:      sym, // Default to symbol until dynamic lookup
				IsActive:  true,
				UpdatedAt: time.Now(),
			}

			// Check if exists to preserve the icon path
			if existing, _ := b.Storage.GetCoin(sym); existing != nil {
				coin.IconPath = existing.IconPath
				coin.LastSyncedAt = existing.LastSyncedAt
			}

			if err := b.Storage.UpsertCoin(coin); err != nil {
				slog.Error("Failed to upsert coin", slog.String("symbol", sym), slog.Any("error", err))
			}

			path, err := b.Downloader.DownloadIcon(sym)
			if err != nil {
				slog.Warn("Failed to download icon", slog.String("symbol", sym), slog.Any("error", err))
			} else if path != "" {
				coin.IconPath = path
				coin.LastSyncedAt = time.Now()
				b.Storage.UpsertCoin(coin)
			}
		}(asset)
	}

	wg.Wait()
	slog.Info("✨ Asset synchronization completed")
}
