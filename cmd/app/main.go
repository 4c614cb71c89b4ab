package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/haodong0616/velocity-client/internal/app"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	// 1. Pprof Server (for performance profiling)
	go func() {
		// Localhost only for security
		slog.Info("🕵️ Pprof server started on localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("Pprof server failed", slog.Any("error", err))
		}
	}()

	// 2. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}

	// 3. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Background Asset Sync
	go bootstrap.SyncAssets(ctx)

	// 5. Session: restore a persisted token, load chain configs, point the
	// wallet at the first enabled chain.
	session := bootstrap.Session
	if err := session.Restore(); err != nil {
		slog.Warn("No restorable session", slog.Any("error", err))
	}
	if err := session.LoadChains(ctx); err != nil {
		slog.Warn("Chain config load failed", slog.Any("error", err))
	}
	if bootstrap.Wallet != nil {
		for _, chain := range session.Chains() {
			if chain.Enabled {
				bootstrap.Wallet.SwitchChain(chain.RpcURL)
				slog.InfoContext(ctx, "✅ Wallet chain selected",
					slog.String("chain", chain.ChainName), slog.Int64("chain_id", chain.ChainID))
				break
			}
		}
		if !session.Authenticated() {
			if err := session.Login(ctx); err != nil {
				slog.Error("Login failed", slog.Any("error", err))
			} else {
				slog.InfoContext(ctx, "✅ Logged in", slog.String("address", bootstrap.Wallet.Address()))
			}
		}
	}

	// 6. Push channel + market views
	if err := bootstrap.Channel.Connect(); err != nil {
		// The channel reconnects on its own; REST polling covers the gap.
		slog.Warn("Initial WS connect failed", slog.Any("error", err))
	}
	defer bootstrap.Channel.Disconnect()

	for _, symbol := range bootstrap.Config.Symbols {
		bootstrap.Market.Watch(ctx, symbol)
		slog.InfoContext(ctx, "✅ Watching market", slog.String("symbol", symbol))
	}

	// 7. Order and funding poll loops
	go bootstrap.Orders.Run(ctx)
	bootstrap.Orders.RequestRefresh()
	go bootstrap.Funding.Run(ctx)

	slog.InfoContext(ctx, "✨ Velocity Client fully operational. Press Ctrl+C to exit.")

	// Wait for shutdown signal
	<-ctx.Done()

	slog.InfoContext(ctx, "👋 Shutting down gracefully...")
}
