// Package main runs a live paper-trading session: DexScreener feeds
// scored candidates into the engine, exits are evaluated against fresh
// prices, and closed trades flow into PostgreSQL with the raw tick
// stream going to ClickHouse.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"solana-paper-trader/internal/domain"
	"solana-paper-trader/internal/engine"
	"solana-paper-trader/internal/ledger"
	"solana-paper-trader/internal/marketdata"
	"solana-paper-trader/internal/observability"
	"solana-paper-trader/internal/storage"
	chstore "solana-paper-trader/internal/storage/clickhouse"
	"solana-paper-trader/internal/storage/migrations"
	pgstore "solana-paper-trader/internal/storage/postgres"
)

func main() {
	profileName := flag.String("profile", "normal", "Config profile: normal or turbo")
	startingEquity := flag.String("starting-equity", "500", "Starting equity in account currency")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string for the trade ledger (empty = in-memory only)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string for the tick stream (empty = disabled)")
	wsEndpoint := flag.String("ws-endpoint", "", "WebSocket price feed endpoint (empty = poll DexScreener)")
	dexURL := flag.String("dexscreener-url", "", "DexScreener base URL override")
	queries := flag.String("queries", "", "Comma-separated DexScreener search terms")
	priceTimeout := flag.Duration("price-timeout", engine.DefaultPriceTimeout, "Per-token price fetch timeout")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")
	flag.Parse()

	logger := log.New(os.Stdout, "[trader] ", log.LstdFlags)

	profile, err := domain.ProfileByName(*profileName)
	if err != nil {
		logger.Fatalf("Unknown profile %q", *profileName)
	}

	equity, err := decimal.NewFromString(*startingEquity)
	if err != nil || !equity.IsPositive() {
		logger.Fatalf("Invalid starting equity %q", *startingEquity)
	}

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		}
	}()

	if err := run(ctx, logger, profile, equity, runOptions{
		postgresDSN:   *postgresDSN,
		clickhouseDSN: *clickhouseDSN,
		wsEndpoint:    *wsEndpoint,
		dexURL:        *dexURL,
		queries:       *queries,
		priceTimeout:  *priceTimeout,
	}); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

type runOptions struct {
	postgresDSN   string
	clickhouseDSN string
	wsEndpoint    string
	dexURL        string
	queries       string
	priceTimeout  time.Duration
}

func run(ctx context.Context, logger *log.Logger, profile domain.ConfigProfile, equity decimal.Decimal, opts runOptions) error {
	screener := newScreener(opts)

	var prices marketdata.PriceSource = screener
	if opts.wsEndpoint != "" {
		feed, err := marketdata.NewWSFeed(ctx, opts.wsEndpoint, nil)
		if err != nil {
			return fmt.Errorf("connect price feed: %w", err)
		}
		defer feed.Close()
		prices = feed
		logger.Printf("Price feed: websocket %s", opts.wsEndpoint)
	} else {
		logger.Println("Price feed: DexScreener polling")
	}

	var tradeStore storage.ClosedTradeStore
	if opts.postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, opts.postgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return fmt.Errorf("run postgres migrations: %w", err)
		}
		tradeStore = pgstore.NewClosedTradeStore(pool)
		logger.Println("Trade ledger: postgres")
	} else {
		logger.Println("Trade ledger: in-memory only")
	}

	var tickStore storage.PriceTickStore
	if opts.clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, opts.clickhouseDSN)
		if err != nil {
			return fmt.Errorf("run clickhouse migrations: %w", err)
		}
		defer conn.Close()

		tickStore = chstore.NewPriceTickStore(conn)
		logger.Println("Tick stream: clickhouse")
	}

	led := ledger.New(ledger.Options{
		StartingEquity: equity,
		Logger:         logger,
	})

	eng, err := engine.New(engine.Options{
		Ledger:       led,
		Candidates:   screener,
		Prices:       prices,
		TradeStore:   tradeStore,
		TickStore:    tickStore,
		Profile:      profile,
		PriceTimeout: opts.priceTimeout,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	err = eng.Run(ctx)

	stats := led.Stats()
	logger.Printf("Session summary: %d trades, equity %s, daily pnl %s",
		stats.ClosedCount, stats.Equity.StringFixed(2), stats.DailyRealizedPnl.StringFixed(2))
	return err
}

func newScreener(opts runOptions) *marketdata.DexScreener {
	var dsOpts []marketdata.DexScreenerOption
	if opts.dexURL != "" {
		dsOpts = append(dsOpts, marketdata.WithBaseURL(opts.dexURL))
	}
	if opts.queries != "" {
		var terms []string
		for _, q := range strings.Split(opts.queries, ",") {
			if q = strings.TrimSpace(q); q != "" {
				terms = append(terms, q)
			}
		}
		if len(terms) > 0 {
			dsOpts = append(dsOpts, marketdata.WithQueries(terms...))
		}
	}
	return marketdata.NewDexScreener(dsOpts...)
}
