package service

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/haodong0616/velocity-client/internal/domain"
	"github.com/haodong0616/velocity-client/internal/event"
	"github.com/haodong0616/velocity-client/internal/infra"
	"github.com/haodong0616/velocity-client/internal/infra/exchange"
)

// tapeRetention is how many tape entries are kept per symbol, newest first.
const tapeRetention = 20

// PushChannel is the slice of the transport the reconciler needs.
type PushChannel interface {
	Subscribe(kind event.Kind, fn exchange.Handler) uint64
	Unsubscribe(kind event.Kind, id uint64)
}

// marketView is the authoritative in-memory view for one symbol. The two
// latches flip when the first push message for the stream arrives; from then
// on REST results for that stream are discarded, so a slow bootstrap response
// can never overwrite newer pushed state.
type marketView struct {
	book          domain.OrderBook
	trades        []domain.Trade
	ticker        *domain.Ticker
	bookLatched   bool
	tradesLatched bool

	bookSubID  uint64
	tradeSubID uint64
}

// MarketService merges REST snapshots and push updates into one consistent,
// per-symbol read model: order book, recent trades, ticker.
type MarketService struct {
	fetcher        domain.MarketFetcher
	channel        PushChannel
	tickerInterval time.Duration
	logger         *slog.Logger

	mu    sync.RWMutex
	views map[string]*marketView
}

// NewMarketService creates a reconciler over the given snapshot fetcher and
// push channel.
func NewMarketService(fetcher domain.MarketFetcher, channel PushChannel, tickerInterval time.Duration) *MarketService {
	return &MarketService{
		fetcher:        fetcher,
		channel:        channel,
		tickerInterval: tickerInterval,
		logger:         slog.Default().With("module", "market"),
		views:          make(map[string]*marketView),
	}
}

// Watch starts maintaining the view for a symbol: one REST bootstrap for book
// and tape, push subscriptions, and the ticker poll loop. Watching an
// already-watched symbol is a no-op.
func (s *MarketService) Watch(ctx context.Context, symbol string) {
	s.mu.Lock()
	if _, exists := s.views[symbol]; exists {
		s.mu.Unlock()
		return
	}
	view := &marketView{}
	view.bookSubID = s.channel.Subscribe(event.KindOrderBook, func(ev event.Event) {
		if ev.MarketSymbol() == symbol {
			s.applyBookPush(symbol, ev.(*event.OrderBookEvent).Book)
		}
	})
	view.tradeSubID = s.channel.Subscribe(event.KindTrade, func(ev event.Event) {
		if ev.MarketSymbol() == symbol {
			s.applyTradePush(symbol, ev.(*event.TradeEvent).Trade)
		}
	})
	s.views[symbol] = view
	s.mu.Unlock()

	go s.bootstrap(ctx, symbol)
	go s.pollTickerLoop(ctx, symbol)
}

// Unwatch stops consuming updates for a symbol. In-flight bootstrap fetches
// are allowed to complete; their results find no view and are discarded.
func (s *MarketService) Unwatch(symbol string) {
	s.mu.Lock()
	view, ok := s.views[symbol]
	if ok {
		delete(s.views, symbol)
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	s.channel.Unsubscribe(event.KindOrderBook, view.bookSubID)
	s.channel.Unsubscribe(event.KindTrade, view.tradeSubID)
}

// bootstrap issues the one-time REST snapshot fetch for book and tape.
// Results only land while the matching stream is still unlatched.
func (s *MarketService) bootstrap(ctx context.Context, symbol string) {
	if book, err := s.fetcher.GetOrderBook(ctx, symbol); err != nil {
		s.logger.Warn("book bootstrap failed", slog.String("symbol", symbol), slog.Any("error", err))
	} else {
		s.applyBookSnapshot(symbol, *book)
	}

	if trades, err := s.fetcher.GetRecentTrades(ctx, symbol); err != nil {
		s.logger.Warn("tape bootstrap failed", slog.String("symbol", symbol), slog.Any("error", err))
	} else {
		s.applyTradesSnapshot(symbol, trades)
	}
}

func (s *MarketService) pollTickerLoop(ctx context.Context, symbol string) {
	s.pollTicker(ctx, symbol)

	ticker := time.NewTicker(s.tickerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.RLock()
			_, watched := s.views[symbol]
			s.mu.RUnlock()
			if !watched {
				return
			}
			s.pollTicker(ctx, symbol)
		}
	}
}

// pollTicker replaces the ticker on success. A failed poll keeps the last
// good value visible; stale beats blank.
func (s *MarketService) pollTicker(ctx context.Context, symbol string) {
	t, err := s.fetcher.GetTicker(ctx, symbol)
	if err != nil {
		infra.GlobalMetrics.RecordPoll(false)
		s.logger.Warn("ticker poll failed", slog.String("symbol", symbol), slog.Any("error", err))
		return
	}
	infra.GlobalMetrics.RecordPoll(true)

	s.mu.Lock()
	if view, ok := s.views[symbol]; ok {
		view.ticker = t
	}
	s.mu.Unlock()
}

// applyBookPush replaces the book wholesale and latches the stream.
func (s *MarketService) applyBookPush(symbol string, book domain.OrderBook) {
	normalized := normalizeBook(book)
	s.mu.Lock()
	if view, ok := s.views[symbol]; ok {
		view.book = normalized
		view.bookLatched = true
	}
	s.mu.Unlock()
}

// applyBookSnapshot applies a REST bootstrap result, unless a push message
// already latched the stream.
func (s *MarketService) applyBookSnapshot(symbol string, book domain.OrderBook) {
	normalized := normalizeBook(book)
	s.mu.Lock()
	if view, ok := s.views[symbol]; ok && !view.bookLatched {
		view.book = normalized
	}
	s.mu.Unlock()
}

// applyTradePush prepends a pushed tape entry and latches the stream.
// Entries with an id already present are dropped: reconnection replay must
// not duplicate the tape.
func (s *MarketService) applyTradePush(symbol string, trade domain.Trade) {
	s.mu.Lock()
	defer s.mu.Unlock()
	view, ok := s.views[symbol]
	if !ok {
		return
	}
	view.tradesLatched = true

	if trade.ID != "" {
		for _, existing := range view.trades {
			if existing.ID == trade.ID {
				return
			}
		}
	}

	view.trades = append([]domain.Trade{trade}, view.trades...)
	if len(view.trades) > tapeRetention {
		view.trades = view.trades[:tapeRetention]
	}
}

func (s *MarketService) applyTradesSnapshot(symbol string, trades []domain.Trade) {
	if len(trades) > tapeRetention {
		trades = trades[:tapeRetention]
	}
	s.mu.Lock()
	if view, ok := s.views[symbol]; ok && !view.tradesLatched {
		view.trades = trades
	}
	s.mu.Unlock()
}

// OrderBook returns a copy of the current book for a symbol.
func (s *MarketService) OrderBook(symbol string) (domain.OrderBook, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	view, ok := s.views[symbol]
	if !ok {
		return domain.OrderBook{}, false
	}
	book := domain.OrderBook{Symbol: view.book.Symbol}
	book.Bids = append(book.Bids, view.book.Bids...)
	book.Asks = append(book.Asks, view.book.Asks...)
	return book, true
}

// Trades returns a copy of the current tape for a symbol, newest first.
func (s *MarketService) Trades(symbol string) []domain.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()
	view, ok := s.views[symbol]
	if !ok {
		return nil
	}
	trades := make([]domain.Trade, len(view.trades))
	copy(trades, view.trades)
	return trades
}

// Ticker returns the last good ticker for a symbol, if any poll succeeded.
func (s *MarketService) Ticker(symbol string) (domain.Ticker, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	view, ok := s.views[symbol]
	if !ok || view.ticker == nil {
		return domain.Ticker{}, false
	}
	return *view.ticker, true
}

// normalizeBook drops zero-quantity levels and enforces side ordering:
// bids descending, asks ascending.
func normalizeBook(book domain.OrderBook) domain.OrderBook {
	out := domain.OrderBook{Symbol: book.Symbol}
	for _, item := range book.Bids {
		if item.Quantity.IsPositive() {
			out.Bids = append(out.Bids, item)
		}
	}
	for _, item := range book.Asks {
		if item.Quantity.IsPositive() {
			out.Asks = append(out.Asks, item)
		}
	}
	sort.SliceStable(out.Bids, func(i, j int) bool {
		return out.Bids[i].Price.GreaterThan(out.Bids[j].Price)
	})
	sort.SliceStable(out.Asks, func(i, j int) bool {
		return out.Asks[i].Price.LessThan(out.Asks[j].Price)
	})
	return out
}
