// internal/birdeye/client.go
package birdeye

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/raydium-sniper/internal/raydium"
)

const defaultBaseURL = "https://public-api.birdeye.so"

// ErrUnresolved means a price could not be established: either leg of the
// pair failed or timed out. Callers must abort the dependent action rather
// than substitute a stale or default value.
var ErrUnresolved = errors.New("price unresolved")

// priceResponse wraps GET /defi/price.
type priceResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Value float64 `json:"value"`
	} `json:"data"`
}

// securityResponse wraps GET /defi/token_security. Freezeable is a pointer:
// the API omits it for tokens it cannot classify.
type securityResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Freezeable         *bool   `json:"freezeable"`
		Top10HolderPercent float64 `json:"top10HolderPercent"`
	} `json:"data"`
}

// Client talks to the Birdeye public API. It is both the price oracle and
// the token-security heuristic source.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	priceTimeout time.Duration
	logger       *zap.Logger
}

// NewClient creates a Birdeye client. priceTimeout bounds the join on the
// two concurrent price legs of GetPrice.
func NewClient(apiKey string, priceTimeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		baseURL:      defaultBaseURL,
		apiKey:       apiKey,
		priceTimeout: priceTimeout,
		logger:       logger.Named("birdeye"),
	}
}

// WithBaseURL overrides the API host. Used by tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// GetPrice returns the token's price denominated in SOL. Both legs (token
// value and SOL value, each in USD) are fetched concurrently and joined
// with the configured timeout; if either leg fails the result is
// ErrUnresolved. No caching: every call is a fresh round trip.
func (c *Client) GetPrice(ctx context.Context, mint solana.PublicKey) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.priceTimeout)
	defer cancel()

	var tokenValue, solValue float64

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tokenValue, err = c.fetchUSDValue(ctx, mint)
		return err
	})
	g.Go(func() error {
		var err error
		solValue, err = c.fetchUSDValue(ctx, raydium.WSOLMint)
		return err
	})

	if err := g.Wait(); err != nil {
		c.logger.Warn("price leg failed",
			zap.String("mint", mint.String()),
			zap.Error(err))
		return 0, fmt.Errorf("%w: %s", ErrUnresolved, err)
	}

	if solValue == 0 {
		return 0, fmt.Errorf("%w: zero reference value", ErrUnresolved)
	}

	return tokenValue / solValue, nil
}

// fetchUSDValue returns a single token's USD value.
func (c *Client) fetchUSDValue(ctx context.Context, mint solana.PublicKey) (float64, error) {
	url := fmt.Sprintf("%s/defi/price?address=%s", c.baseURL, mint.String())

	var response priceResponse
	if err := c.doRequest(ctx, url, &response); err != nil {
		return 0, err
	}
	return response.Data.Value, nil
}

// CheckTokenSecurity reports whether the token passes the security
// heuristics: not freezeable and top-10 holder concentration below the
// threshold. Any transport or schema failure is a rejection, not a retry.
func (c *Client) CheckTokenSecurity(ctx context.Context, mint solana.PublicKey, maxTop10HolderPercent float64) (bool, error) {
	url := fmt.Sprintf("%s/defi/token_security?address=%s", c.baseURL, mint.String())

	var response securityResponse
	if err := c.doRequest(ctx, url, &response); err != nil {
		return false, fmt.Errorf("token security check: %w", err)
	}

	if response.Data.Freezeable != nil && *response.Data.Freezeable {
		c.logger.Info("token is freezeable", zap.String("mint", mint.String()))
		return false, nil
	}
	if response.Data.Top10HolderPercent >= maxTop10HolderPercent {
		c.logger.Info("holder concentration too high",
			zap.String("mint", mint.String()),
			zap.Float64("top10_holder_percent", response.Data.Top10HolderPercent))
		return false, nil
	}

	return true, nil
}

// doRequest executes a GET with the Birdeye auth headers and decodes the
// JSON response into out.
func (c *Client) doRequest(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-chain", "solana")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
