// internal/helius/client.go
package helius

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.helius.xyz"

// metadataRequest is the POST body of /v0/token-metadata.
type metadataRequest struct {
	MintAccounts    []string `json:"mintAccounts"`
	IncludeOffChain bool     `json:"includeOffChain"`
	DisableCache    bool     `json:"disableCache"`
}

// metadataItem is one entry of the response array. The nested pointers
// matter: the API omits whole sub-objects for unknown mints, and an absent
// isMutable must stay distinguishable from false.
type metadataItem struct {
	OnChainMetadata *struct {
		Metadata *struct {
			IsMutable *bool `json:"isMutable"`
		} `json:"metadata"`
	} `json:"onChainMetadata"`
}

// Client queries the Helius token-metadata API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *zap.Logger
}

// NewClient creates a Helius client.
func NewClient(apiKey string, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		logger:     logger.Named("helius"),
	}
}

// WithBaseURL overrides the API host. Used by tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// IsMetadataMutable reports whether the token's on-chain metadata is
// mutable. The answer is tri-state: nil means the API gave no definitive
// answer, and callers must treat that as inconclusive rather than coerce
// it to either boolean.
func (c *Client) IsMetadataMutable(ctx context.Context, mint solana.PublicKey) (*bool, error) {
	url := fmt.Sprintf("%s/v0/token-metadata?api-key=%s", c.baseURL, c.apiKey)

	payload, err := json.Marshal(metadataRequest{
		MintAccounts: []string{mint.String()},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
	}

	var items []metadataItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	for _, item := range items {
		if item.OnChainMetadata != nil && item.OnChainMetadata.Metadata != nil && item.OnChainMetadata.Metadata.IsMutable != nil {
			return item.OnChainMetadata.Metadata.IsMutable, nil
		}
	}

	c.logger.Debug("no definitive metadata answer", zap.String("mint", mint.String()))
	return nil, nil
}
