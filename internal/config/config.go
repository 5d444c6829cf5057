// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/viper"

	"github.com/rovshanmuradov/raydium-sniper/internal/raydium"
)

// QuoteToken is the resolved quote currency the agent trades with.
type QuoteToken struct {
	Symbol   string
	Mint     solana.PublicKey
	Decimals uint8
}

// ExitLevel is one tier of the automated sell ladder: when the gain
// reaches Threshold, sell Percentage percent of the original position.
type ExitLevel struct {
	Threshold  float64
	Percentage float64
}

type Config struct {
	RPCEndpoint string
	WSEndpoint  string

	PrivateKey    string
	BirdeyeAPIKey string
	HeliusAPIKey  string

	QuoteMint   string
	QuoteAmount float64
	MinPoolSize float64

	AutoSell       bool
	AutoSellDelay  time.Duration
	MaxSellRetries int
	SellRetryDelay time.Duration
	ExitLevelsRaw  string

	UseSnipeList             bool
	SnipeListPath            string
	SnipeListRefreshInterval time.Duration

	CheckMintRenounced     bool
	CheckFreezeRenounced   bool
	CheckMetadataImmutable bool
	CheckTokenSecurity     bool
	MaxTop10HolderPercent  float64
	PriceTimeout           time.Duration

	ComputeUnitLimit uint32
	ComputeUnitPrice uint64

	JournalPath    string
	TelegramToken  string
	TelegramChatID int64

	LogFile      string
	DebugLogging bool

	// Resolved fields, populated by Load.
	Quote          QuoteToken
	QuoteAmountRaw uint64
	MinPoolSizeRaw uint64
	ExitLevels     []ExitLevel
}

var supportedQuotes = map[string]QuoteToken{
	"WSOL": {
		Symbol:   "WSOL",
		Mint:     raydium.WSOLMint,
		Decimals: 9,
	},
	"USDC": {
		Symbol:   "USDC",
		Mint:     raydium.USDCMint,
		Decimals: 6,
	},
}

const (
	DefaultAutoSellDelay   = 20 * time.Second
	DefaultMaxSellRetries  = 5
	DefaultSellRetryDelay  = 3 * time.Second
	DefaultPriceTimeout    = 10 * time.Second
	DefaultRefreshInterval = 10 * time.Second

	// Compute budget values tuned for Raydium swaps.
	DefaultComputeUnitLimit = 101337
	DefaultComputeUnitPrice = 421197
)

// Load reads configuration from environment variables (SNIPER_ prefix).
// A .env file loaded before Load is the usual way to populate them.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SNIPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := map[string]interface{}{
		"quote_mint":                     "WSOL",
		"quote_amount":                   0.01,
		"min_pool_size":                  0.0,
		"auto_sell":                      true,
		"auto_sell_delay":                DefaultAutoSellDelay,
		"max_sell_retries":               DefaultMaxSellRetries,
		"sell_retry_delay":               DefaultSellRetryDelay,
		"exit_levels":                    "0.04:10",
		"use_snipe_list":                 false,
		"snipe_list_path":                "snipe-list.txt",
		"snipe_list_refresh_interval":    DefaultRefreshInterval,
		"check_if_mint_is_renounced":     true,
		"check_if_freeze_is_renounced":   true,
		"check_if_metadata_is_immutable": false,
		"check_token_security":           false,
		"max_top10_holder_percent":       0.91,
		"price_timeout":                  DefaultPriceTimeout,
		"compute_unit_limit":             DefaultComputeUnitLimit,
		"compute_unit_price":             DefaultComputeUnitPrice,
		"journal_path":                   "trades.db",
		"log_file":                       "sniper.log",
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// AutomaticEnv does not register keys; each has to be bound so Get
	// sees the environment override. Typed getters are used instead of
	// Unmarshal because every env value arrives as a string.
	keys := []string{
		"rpc_endpoint", "ws_endpoint", "private_key",
		"birdeye_api_key", "helius_api_key",
		"telegram_token", "telegram_chat_id",
		"debug_logging",
	}
	for key := range defaults {
		keys = append(keys, key)
	}
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	cfg := Config{
		RPCEndpoint:   v.GetString("rpc_endpoint"),
		WSEndpoint:    v.GetString("ws_endpoint"),
		PrivateKey:    v.GetString("private_key"),
		BirdeyeAPIKey: v.GetString("birdeye_api_key"),
		HeliusAPIKey:  v.GetString("helius_api_key"),

		QuoteMint:   v.GetString("quote_mint"),
		QuoteAmount: v.GetFloat64("quote_amount"),
		MinPoolSize: v.GetFloat64("min_pool_size"),

		AutoSell:       v.GetBool("auto_sell"),
		AutoSellDelay:  v.GetDuration("auto_sell_delay"),
		MaxSellRetries: v.GetInt("max_sell_retries"),
		SellRetryDelay: v.GetDuration("sell_retry_delay"),
		ExitLevelsRaw:  v.GetString("exit_levels"),

		UseSnipeList:             v.GetBool("use_snipe_list"),
		SnipeListPath:            v.GetString("snipe_list_path"),
		SnipeListRefreshInterval: v.GetDuration("snipe_list_refresh_interval"),

		CheckMintRenounced:     v.GetBool("check_if_mint_is_renounced"),
		CheckFreezeRenounced:   v.GetBool("check_if_freeze_is_renounced"),
		CheckMetadataImmutable: v.GetBool("check_if_metadata_is_immutable"),
		CheckTokenSecurity:     v.GetBool("check_token_security"),
		MaxTop10HolderPercent:  v.GetFloat64("max_top10_holder_percent"),
		PriceTimeout:           v.GetDuration("price_timeout"),

		ComputeUnitLimit: v.GetUint32("compute_unit_limit"),
		ComputeUnitPrice: v.GetUint64("compute_unit_price"),

		JournalPath:    v.GetString("journal_path"),
		TelegramToken:  v.GetString("telegram_token"),
		TelegramChatID: v.GetInt64("telegram_chat_id"),

		LogFile:      v.GetString("log_file"),
		DebugLogging: v.GetBool("debug_logging"),
	}

	if err := resolve(&cfg); err != nil {
		return nil, err
	}
	return &cfg, validate(&cfg)
}

func resolve(cfg *Config) error {
	quote, ok := supportedQuotes[strings.ToUpper(cfg.QuoteMint)]
	if !ok {
		return fmt.Errorf("unsupported quote mint %q: only WSOL and USDC are supported", cfg.QuoteMint)
	}
	cfg.Quote = quote
	cfg.QuoteAmountRaw = toRawAmount(cfg.QuoteAmount, quote.Decimals)
	cfg.MinPoolSizeRaw = toRawAmount(cfg.MinPoolSize, quote.Decimals)

	levels, err := ParseExitLevels(cfg.ExitLevelsRaw)
	if err != nil {
		return err
	}
	cfg.ExitLevels = levels
	return nil
}

func toRawAmount(amount float64, decimals uint8) uint64 {
	return uint64(math.Round(amount * math.Pow10(int(decimals))))
}

// ParseExitLevels parses a "threshold:percentage" comma-separated list,
// e.g. "0.04:10,0.10:25". Levels are returned in input order; the sell
// engine expects them ascending by threshold.
func ParseExitLevels(raw string) ([]ExitLevel, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.New("exit_levels is empty")
	}
	var levels []ExitLevel
	for _, pair := range strings.Split(raw, ",") {
		parts := strings.Split(strings.TrimSpace(pair), ":")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid exit level %q: want threshold:percentage", pair)
		}
		threshold, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid exit level threshold %q: %w", parts[0], err)
		}
		percentage, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid exit level percentage %q: %w", parts[1], err)
		}
		if threshold <= 0 {
			return nil, fmt.Errorf("exit level threshold must be positive, got %v", threshold)
		}
		if percentage <= 0 || percentage > 100 {
			return nil, fmt.Errorf("exit level percentage must be in (0, 100], got %v", percentage)
		}
		levels = append(levels, ExitLevel{Threshold: threshold, Percentage: percentage})
	}
	for i := 1; i < len(levels); i++ {
		if levels[i].Threshold <= levels[i-1].Threshold {
			return nil, errors.New("exit level thresholds must be strictly ascending")
		}
	}
	return levels, nil
}

func validate(cfg *Config) error {
	if cfg.RPCEndpoint == "" {
		return errors.New("missing rpc_endpoint")
	}
	if err := validateURL(cfg.RPCEndpoint, "http"); err != nil {
		return fmt.Errorf("invalid rpc_endpoint: %w", err)
	}
	if cfg.WSEndpoint == "" {
		return errors.New("missing ws_endpoint")
	}
	if err := validateURL(cfg.WSEndpoint, "ws"); err != nil {
		return fmt.Errorf("invalid ws_endpoint: %w", err)
	}
	if cfg.PrivateKey == "" {
		return errors.New("missing private_key")
	}
	if cfg.QuoteAmount <= 0 {
		return errors.New("quote_amount must be positive")
	}
	if cfg.MinPoolSize < 0 {
		return errors.New("min_pool_size must not be negative")
	}
	if cfg.MaxSellRetries < 0 {
		return errors.New("max_sell_retries must not be negative")
	}
	if cfg.MaxTop10HolderPercent <= 0 || cfg.MaxTop10HolderPercent > 1 {
		return errors.New("max_top10_holder_percent must be in (0, 1]")
	}
	if cfg.PriceTimeout <= 0 {
		return errors.New("price_timeout must be positive")
	}
	if cfg.CheckTokenSecurity && cfg.BirdeyeAPIKey == "" {
		return errors.New("check_token_security requires birdeye_api_key")
	}
	if cfg.CheckMetadataImmutable && cfg.HeliusAPIKey == "" {
		return errors.New("check_if_metadata_is_immutable requires helius_api_key")
	}
	if cfg.UseSnipeList && cfg.SnipeListPath == "" {
		return errors.New("use_snipe_list requires snipe_list_path")
	}
	return nil
}

func validateURL(rawURL, protocol string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return fmt.Errorf("URL scheme must start with %q", protocol)
	}
	return nil
}
