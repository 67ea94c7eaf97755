package fetcher

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/gregor-nelson/spx/internal/calendar"
	"github.com/gregor-nelson/spx/internal/logging"
)

const (
	defaultBaseURL   = "https://api.polygon.io"
	defaultBatchSize = 250
	chainPathFmt     = "/v3/snapshot/options/%s"
	unifiedPath      = "/v3/snapshot"
)

// ProviderOptions parameterise the option-chain provider client.
type ProviderOptions struct {
	APIKey       string
	BaseURL      string
	Underlying   string
	Timeout      time.Duration
	BatchSize    int
	ContractKind string
	MinDTE       int
	MaxDTE       int
	MinMoneyness float64
	MaxMoneyness float64
}

// Provider fetches the option chain from a Polygon-shaped REST API: a chain
// discovery endpoint per expiration, then a unified snapshot endpoint that
// carries greeks, batched to the provider's per-request ticker limit.
type Provider struct {
	opts   ProviderOptions
	client *resty.Client
	logger zerolog.Logger
}

// NewProvider constructs a provider client.
func NewProvider(opts ProviderOptions, logger zerolog.Logger) *Provider {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.Underlying == "" {
		opts.Underlying = "SPX"
	}
	if opts.ContractKind == "" {
		opts.ContractKind = "put"
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(timeout).
		SetQueryParam("apiKey", opts.APIKey)

	return &Provider{
		opts:   opts,
		client: client,
		logger: logging.Component(logger, "provider"),
	}
}

type contractResult struct {
	Ticker  string `json:"ticker"`
	Details struct {
		Ticker         string  `json:"ticker"`
		StrikePrice    float64 `json:"strike_price"`
		ExpirationDate string  `json:"expiration_date"`
		ContractType   string  `json:"contract_type"`
	} `json:"details"`
	Session struct {
		Volume       *int64   `json:"volume"`
		Close        *float64 `json:"close"`
		High         *float64 `json:"high"`
		Low          *float64 `json:"low"`
		VWAP         *float64 `json:"vwap"`
		Transactions *int64   `json:"transactions"`
	} `json:"session"`
	Greeks struct {
		Delta *float64 `json:"delta"`
		Gamma *float64 `json:"gamma"`
		Theta *float64 `json:"theta"`
		Vega  *float64 `json:"vega"`
	} `json:"greeks"`
	OpenInterest      *int64   `json:"open_interest"`
	ImpliedVolatility *float64 `json:"implied_volatility"`
	UnderlyingAsset   struct {
		Value *float64 `json:"value"`
	} `json:"underlying_asset"`
	MarketStatus string `json:"market_status"`
}

type snapshotResponse struct {
	Results []contractResult `json:"results"`
	Status  string           `json:"status"`
	Error   string           `json:"error"`
}

// FetchChain captures the current chain state: spot discovery, contract
// discovery per target expiration filtered to the moneyness band, then a
// batched detail fetch.
func (p *Provider) FetchChain(ctx context.Context) (*ChainSnapshot, error) {
	if p.opts.APIKey == "" {
		return nil, errors.New("provider api key not configured")
	}

	spot, err := p.fetchSpotPrice(ctx)
	if err != nil {
		return nil, err
	}

	targets := calendar.TargetExpirations(calendar.Now(), p.opts.MinDTE, p.opts.MaxDTE)
	if len(targets) == 0 {
		return nil, errors.New("no expirations in target window")
	}

	minStrike := spot * p.opts.MinMoneyness
	maxStrike := spot * p.opts.MaxMoneyness

	var tickers []string
	var discoveryErrs []string
	for _, target := range targets {
		expStr := target.Date.Format("2006-01-02")
		found, discErr := p.discoverContracts(ctx, expStr, minStrike, maxStrike)
		if discErr != nil {
			discoveryErrs = append(discoveryErrs, fmt.Sprintf("%s: %v", expStr, discErr))
			continue
		}
		p.logger.Debug().Str("expiration", expStr).Int("dte", target.DTE).Int("contracts", len(found)).Msg("discovered contracts")
		tickers = append(tickers, found...)
	}

	if len(tickers) == 0 {
		if len(discoveryErrs) > 0 {
			return nil, fmt.Errorf("all expirations failed: %s", strings.Join(discoveryErrs, "; "))
		}
		// Nothing in range is a valid (empty) capture, not a failure.
		return &ChainSnapshot{UnderlyingPrice: decimal.NewFromFloat(spot)}, nil
	}

	results, err := p.fetchUnifiedBatched(ctx, tickers)
	if err != nil {
		return nil, err
	}

	contracts := make([]ContractData, 0, len(results))
	for _, res := range results {
		contract, convErr := toContractData(res)
		if convErr != nil {
			p.logger.Warn().Err(convErr).Str("ticker", res.Ticker).Msg("skipping malformed contract")
			continue
		}
		contracts = append(contracts, contract)
	}

	return &ChainSnapshot{
		UnderlyingPrice: decimal.NewFromFloat(spot),
		Contracts:       contracts,
	}, nil
}

// fetchSpotPrice discovers the underlying price through a sample contract,
// since the chain endpoint itself does not carry it.
func (p *Provider) fetchSpotPrice(ctx context.Context) (float64, error) {
	var chain snapshotResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"contract_type": p.opts.ContractKind,
			"limit":         "1",
			"order":         "asc",
			"sort":          "strike_price",
		}).
		SetResult(&chain).
		Get(fmt.Sprintf(chainPathFmt, p.opts.Underlying))
	if err != nil {
		return 0, fmt.Errorf("spot discovery request: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("spot discovery: %s", httpErrorDetail(resp, chain.Error))
	}
	if len(chain.Results) == 0 {
		return 0, fmt.Errorf("spot discovery: %w", ErrNoUnderlying)
	}

	sample := chain.Results[0].Details.Ticker
	if sample == "" {
		sample = chain.Results[0].Ticker
	}
	if sample == "" {
		return 0, fmt.Errorf("spot discovery returned no ticker: %w", ErrNoUnderlying)
	}

	var unified snapshotResponse
	resp, err = p.client.R().
		SetContext(ctx).
		SetQueryParam("ticker.any_of", sample).
		SetResult(&unified).
		Get(unifiedPath)
	if err != nil {
		return 0, fmt.Errorf("spot fetch request: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("spot fetch: %s", httpErrorDetail(resp, unified.Error))
	}
	if len(unified.Results) == 0 || unified.Results[0].UnderlyingAsset.Value == nil {
		return 0, ErrNoUnderlying
	}

	return *unified.Results[0].UnderlyingAsset.Value, nil
}

// discoverContracts lists tickers for one expiration inside the strike band.
func (p *Provider) discoverContracts(ctx context.Context, expiration string, minStrike, maxStrike float64) ([]string, error) {
	var chain snapshotResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"contract_type":    p.opts.ContractKind,
			"expiration_date":  expiration,
			"strike_price.gte": strconv.FormatFloat(minStrike, 'f', -1, 64),
			"strike_price.lte": strconv.FormatFloat(maxStrike, 'f', -1, 64),
			"limit":            strconv.Itoa(p.opts.BatchSize),
			"order":            "asc",
			"sort":             "strike_price",
		}).
		SetResult(&chain).
		Get(fmt.Sprintf(chainPathFmt, p.opts.Underlying))
	if err != nil {
		return nil, fmt.Errorf("chain discovery request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("chain discovery: %s", httpErrorDetail(resp, chain.Error))
	}

	tickers := make([]string, 0, len(chain.Results))
	for _, res := range chain.Results {
		ticker := res.Details.Ticker
		if ticker == "" {
			ticker = res.Ticker
		}
		if ticker != "" {
			tickers = append(tickers, ticker)
		}
	}
	return tickers, nil
}

// fetchUnifiedBatched pulls detailed contract data, respecting the
// provider's per-request ticker limit.
func (p *Provider) fetchUnifiedBatched(ctx context.Context, tickers []string) ([]contractResult, error) {
	all := make([]contractResult, 0, len(tickers))

	for start := 0; start < len(tickers); start += p.opts.BatchSize {
		end := start + p.opts.BatchSize
		if end > len(tickers) {
			end = len(tickers)
		}
		batch := tickers[start:end]

		var unified snapshotResponse
		resp, err := p.client.R().
			SetContext(ctx).
			SetQueryParam("ticker.any_of", strings.Join(batch, ",")).
			SetResult(&unified).
			Get(unifiedPath)
		if err != nil {
			return nil, fmt.Errorf("unified snapshot request: %w", err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("unified snapshot: %s", httpErrorDetail(resp, unified.Error))
		}

		all = append(all, unified.Results...)

		if end < len(tickers) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(500 * time.Millisecond):
				// pace batch requests
			}
		}
	}

	return all, nil
}

func toContractData(res contractResult) (ContractData, error) {
	ticker := res.Ticker
	if ticker == "" {
		ticker = res.Details.Ticker
	}
	if ticker == "" {
		return ContractData{}, errors.New("contract without ticker")
	}

	expiration, err := time.ParseInLocation("2006-01-02", res.Details.ExpirationDate, calendar.Location())
	if err != nil {
		return ContractData{}, fmt.Errorf("parse expiration %q: %w", res.Details.ExpirationDate, err)
	}

	contract := ContractData{
		Ticker:       ticker,
		Expiration:   expiration,
		Strike:       decimal.NewFromFloat(res.Details.StrikePrice),
		ContractKind: res.Details.ContractType,
		Volume:       res.Session.Volume,
		OpenInterest: res.OpenInterest,
		ClosePrice:   floatToDecimal(res.Session.Close),
		HighPrice:    floatToDecimal(res.Session.High),
		LowPrice:     floatToDecimal(res.Session.Low),
		VWAP:         floatToDecimal(res.Session.VWAP),
		Transactions: res.Session.Transactions,
		Delta:        res.Greeks.Delta,
		Gamma:        res.Greeks.Gamma,
		Theta:        res.Greeks.Theta,
		Vega:         res.Greeks.Vega,
		ImpliedVol:   res.ImpliedVolatility,
		MarketStatus: res.MarketStatus,
	}
	return contract, nil
}

func floatToDecimal(v *float64) *decimal.Decimal {
	if v == nil {
		return nil
	}
	d := decimal.NewFromFloat(*v)
	return &d
}

func httpErrorDetail(resp *resty.Response, apiErr string) string {
	if apiErr != "" {
		return fmt.Sprintf("provider error (%d): %s", resp.StatusCode(), apiErr)
	}
	body := strings.TrimSpace(string(resp.Body()))
	if body != "" && len(body) < 512 {
		return fmt.Sprintf("provider error (%d): %s", resp.StatusCode(), body)
	}
	return fmt.Sprintf("provider error (%d)", resp.StatusCode())
}

var _ ChainFetcher = (*Provider)(nil)
