package external

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const simplePricePath = "/simple/price"

// PriceSource is the part of the CoinGecko client the ingester depends on.
type PriceSource interface {
	SimplePrices(ctx context.Context, ids []string) (map[string]decimal.Decimal, error)
}

// CoinGeckoClient fetches spot prices from the CoinGecko REST API. The free
// tier is strict about request rates, so every call passes a limiter.
type CoinGeckoClient struct {
	client  *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter
}

var _ PriceSource = (*CoinGeckoClient)(nil)

func NewCoinGeckoClient(baseURL string, rateLimit float64, burst int, logger *zap.Logger) *CoinGeckoClient {
	if rateLimit <= 0 {
		rateLimit = 0.5
	}
	if burst <= 0 {
		burst = 1
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second)

	return &CoinGeckoClient{
		client:  client,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(rateLimit), burst),
	}
}

// SimplePrices fetches the current USD price for each CoinGecko id, e.g.
// {"bitcoin": 67000.12, "ethereum": 3400.55}. Ids absent from the response are
// omitted from the result; non-positive prices are rejected.
func (c *CoinGeckoClient) SimplePrices(ctx context.Context, ids []string) (map[string]decimal.Decimal, error) {
	if len(ids) == 0 {
		return map[string]decimal.Decimal{}, nil
	}

	var payload map[string]map[string]decimal.Decimal

	req := c.client.R().
		SetContext(ctx).
		SetQueryParam("ids", strings.Join(ids, ",")).
		SetQueryParam("vs_currencies", "usd").
		SetResult(&payload)

	if _, err := c.doRequest(ctx, http.MethodGet, simplePricePath, req); err != nil {
		return nil, fmt.Errorf("coingecko simple/price: %w", err)
	}

	out := make(map[string]decimal.Decimal, len(payload))
	for id, currencies := range payload {
		price, ok := currencies["usd"]
		if !ok {
			continue
		}
		if price.Sign() <= 0 {
			return nil, fmt.Errorf("invalid price for %s: %s", id, price)
		}
		out[id] = price
	}
	return out, nil
}

// doRequest executes the request with rate limiting and retries. 429 honours
// Retry-After; 5xx and transport errors back off exponentially.
func (c *CoinGeckoClient) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", c.client.BaseURL+url))
		resp, err = req.Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil
		}

		shouldRetry := false
		var retryAfter time.Duration

		if err == nil {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests {
				shouldRetry = true
				if seconds, err := strconv.Atoi(resp.Header().Get("Retry-After")); err == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 {
				shouldRetry = true
			}
		} else {
			// Network or other client-side errors
			shouldRetry = true
		}

		if !shouldRetry {
			return nil, fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
		}
		if err == nil {
			err = fmt.Errorf("HTTP %s", resp.Status())
		}

		if retryAfter == 0 {
			retryAfter = time.Duration(math.Pow(2, float64(i))) * time.Second
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}
