package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"

	"solana-paper-trader/internal/domain"
	"solana-paper-trader/internal/scoring"
)

// Default DexScreener client configuration.
const (
	DefaultBaseURL = "https://api.dexscreener.com"
	DefaultTimeout = 10 * time.Second
)

// DefaultQueries are the search terms scanned each cycle.
var DefaultQueries = []string{"solana", "raydium", "pump"}

// suspiciousWords filters obviously fake symbols before scoring.
var suspiciousWords = []string{"TEST", "FAKE", "SCAM"}

// DexScreener discovers and prices tokens through the public
// DexScreener search API. It implements both CandidateSource and
// PriceSource.
type DexScreener struct {
	baseURL string
	client  *http.Client
	queries []string
}

var (
	_ CandidateSource = (*DexScreener)(nil)
	_ PriceSource     = (*DexScreener)(nil)
)

// DexScreenerOption configures a DexScreener client.
type DexScreenerOption func(*DexScreener)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) DexScreenerOption {
	return func(d *DexScreener) {
		d.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(c *http.Client) DexScreenerOption {
	return func(d *DexScreener) {
		d.client = c
	}
}

// WithQueries sets the search terms used per scan.
func WithQueries(queries ...string) DexScreenerOption {
	return func(d *DexScreener) {
		d.queries = queries
	}
}

// NewDexScreener creates a DexScreener client.
func NewDexScreener(opts ...DexScreenerOption) *DexScreener {
	d := &DexScreener{
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: DefaultTimeout},
		queries: DefaultQueries,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Scan searches each configured query term and returns the merged,
// deduplicated candidate batch, scored and pre-filtered for
// tradeability. A failed query term is skipped; Scan fails only when
// every term fails.
func (d *DexScreener) Scan(ctx context.Context) ([]domain.Candidate, error) {
	byMint := make(map[string]domain.Candidate)
	var lastErr error
	failed := 0

	for _, q := range d.queries {
		pairs, err := d.search(ctx, q)
		if err != nil {
			lastErr = err
			failed++
			continue
		}
		for _, pair := range pairs {
			c, ok := candidateFromPair(pair)
			if !ok {
				continue
			}
			if _, dup := byMint[c.TokenID]; dup {
				continue
			}
			if !scoring.Tradeable(c) {
				continue
			}
			c.QualityScore = scoring.Score(c)
			byMint[c.TokenID] = c
		}
	}

	if failed == len(d.queries) && lastErr != nil {
		return nil, fmt.Errorf("scan: %w", lastErr)
	}

	out := make([]domain.Candidate, 0, len(byMint))
	for _, c := range byMint {
		out = append(out, c)
	}
	return out, nil
}

// CurrentPrice returns the freshest price for a token, or
// ErrPriceUnavailable when DexScreener knows no pair for it.
func (d *DexScreener) CurrentPrice(ctx context.Context, tokenID string) (decimal.Decimal, error) {
	var resp struct {
		Pairs []dexPair `json:"pairs"`
	}
	if err := d.get(ctx, "/latest/dex/tokens/"+url.PathEscape(tokenID), &resp); err != nil {
		return decimal.Zero, err
	}

	for _, pair := range resp.Pairs {
		price, err := decimal.NewFromString(pair.PriceUsd)
		if err != nil || !price.IsPositive() {
			continue
		}
		return price, nil
	}
	return decimal.Zero, fmt.Errorf("token %s: %w", tokenID, ErrPriceUnavailable)
}

func (d *DexScreener) search(ctx context.Context, query string) ([]dexPair, error) {
	var resp struct {
		Pairs []dexPair `json:"pairs"`
	}
	if err := d.get(ctx, "/latest/dex/search?q="+url.QueryEscape(query), &resp); err != nil {
		return nil, err
	}
	return resp.Pairs, nil
}

func (d *DexScreener) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// dexPair is the raw DexScreener pair payload.
type dexPair struct {
	ChainID   string `json:"chainId"`
	DexID     string `json:"dexId"`
	BaseToken struct {
		Address string `json:"address"`
		Symbol  string `json:"symbol"`
		Name    string `json:"name"`
	} `json:"baseToken"`
	PriceUsd  string  `json:"priceUsd"`
	Fdv       float64 `json:"fdv"`
	MarketCap float64 `json:"marketCap"`
	Liquidity struct {
		Usd float64 `json:"usd"`
	} `json:"liquidity"`
	Volume      map[string]float64 `json:"volume"`
	PriceChange map[string]float64 `json:"priceChange"`
	Txns        map[string]struct {
		Buys  int `json:"buys"`
		Sells int `json:"sells"`
	} `json:"txns"`
}

// candidateFromPair validates and converts a raw pair. Pairs off the
// Solana chain, with malformed mints, non-positive prices or
// suspicious symbols are dropped.
func candidateFromPair(pair dexPair) (domain.Candidate, bool) {
	if pair.ChainID != "solana" {
		return domain.Candidate{}, false
	}
	if !validMint(pair.BaseToken.Address) {
		return domain.Candidate{}, false
	}

	symbol := strings.ToUpper(pair.BaseToken.Symbol)
	for _, word := range suspiciousWords {
		if strings.Contains(symbol, word) {
			return domain.Candidate{}, false
		}
	}

	price, err := decimal.NewFromString(pair.PriceUsd)
	if err != nil || !price.IsPositive() {
		return domain.Candidate{}, false
	}

	marketCap := pair.Fdv
	if marketCap == 0 {
		marketCap = pair.MarketCap
	}

	txns := pair.Txns["h24"]
	return domain.Candidate{
		TokenID:        pair.BaseToken.Address,
		Symbol:         symbol,
		Name:           pair.BaseToken.Name,
		PriceAtScan:    price,
		MarketCap:      marketCap,
		Liquidity:      pair.Liquidity.Usd,
		Volume24h:      pair.Volume["h24"],
		PriceChange5m:  pair.PriceChange["m5"],
		PriceChange1h:  pair.PriceChange["h1"],
		PriceChange24h: pair.PriceChange["h24"],
		Txns24h:        txns.Buys + txns.Sells,
		SourceTag:      "DexScreener",
		Dex:            pair.DexID,
	}, true
}

// validMint checks the token id decodes as a 32-byte base58 key.
func validMint(address string) bool {
	raw, err := base58.Decode(address)
	return err == nil && len(raw) == 32
}
