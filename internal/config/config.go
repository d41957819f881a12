// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/viper"

	"github.com/rovshanmuradov/launchpad-sdk/internal/dex/cpmm"
	"github.com/rovshanmuradov/launchpad-sdk/internal/dex/market"
	"github.com/rovshanmuradov/launchpad-sdk/internal/types"
	"github.com/rovshanmuradov/launchpad-sdk/internal/utils/logger"
)

type LogConfig struct {
	File        string `mapstructure:"file"`
	MaxSize     int    `mapstructure:"max_size"`
	MaxAge      int    `mapstructure:"max_age"`
	MaxBackups  int    `mapstructure:"max_backups"`
	Compress    bool   `mapstructure:"compress"`
	Development bool   `mapstructure:"development"`
	Pretty      bool   `mapstructure:"pretty"`
}

type Config struct {
	RPCURL             string `mapstructure:"rpc_url"`
	Commitment         string `mapstructure:"commitment"`
	ProgramID          string `mapstructure:"program_id"`
	CPMMProgramID      string `mapstructure:"cpmm_program_id"`
	CPMMAmmConfig      string `mapstructure:"cpmm_amm_config"`
	CPMMFeeReceiver    string `mapstructure:"cpmm_fee_receiver"`
	DefaultSlippageBps uint16 `mapstructure:"default_slippage_bps"`
	ComputeUnitPrice   uint64 `mapstructure:"compute_unit_price"`
	// Priority – профиль цены (low/medium/high/extreme), если compute_unit_price не задан
	Priority       string        `mapstructure:"priority"`
	VanitySuffix   string        `mapstructure:"vanity_suffix"`
	VanityAttempts int           `mapstructure:"vanity_attempts"`
	ConfirmTimeout time.Duration `mapstructure:"confirm_timeout"`
	Log            LogConfig     `mapstructure:"log"`
}

const (
	DefaultRPCURL         = "https://api.mainnet-beta.solana.com"
	DefaultCommitment     = "confirmed"
	DefaultConfirmTimeout = 60 * time.Second

	envPrefix = "LAUNCHPAD"
)

func setDefaults(v *viper.Viper) {
	logDefaults := logger.DefaultConfig()
	cpmmDefaults := cpmm.GetDefaultConfig()

	defaults := map[string]interface{}{
		"rpc_url":              DefaultRPCURL,
		"commitment":           DefaultCommitment,
		"program_id":           market.ProgramID.String(),
		"cpmm_program_id":      cpmmDefaults.ProgramID.String(),
		"cpmm_amm_config":      cpmmDefaults.AmmConfig.String(),
		"cpmm_fee_receiver":    cpmmDefaults.FeeReceiver.String(),
		"default_slippage_bps": types.DefaultSlippageBps,
		"compute_unit_price":   0,
		"priority":             string(types.PriorityNone),
		"vanity_suffix":        market.DefaultVanitySuffix,
		"vanity_attempts":      market.DefaultVanityAttempts,
		"confirm_timeout":      DefaultConfirmTimeout,
		"log.file":             logDefaults.LogFile,
		"log.max_size":         logDefaults.MaxSize,
		"log.max_age":          logDefaults.MaxAge,
		"log.max_backups":      logDefaults.MaxBackups,
		"log.compress":         logDefaults.Compress,
		"log.development":      logDefaults.Development,
		"log.pretty":           logDefaults.Pretty,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// LoadConfig читает конфигурацию из файла (JSON/YAML) и переменных окружения LAUNCHPAD_*.
// Пустой path – только значения по умолчанию и окружение.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	parsed, err := url.Parse(cfg.RPCURL)
	if err != nil || cfg.RPCURL == "" {
		return errors.New("invalid rpc_url")
	}
	if !strings.HasPrefix(parsed.Scheme, "http") {
		return errors.New("rpc_url must use http or https")
	}
	switch rpc.CommitmentType(cfg.Commitment) {
	case rpc.CommitmentProcessed, rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
	default:
		return fmt.Errorf("invalid commitment %q", cfg.Commitment)
	}
	if err := types.ValidateSlippageBps(cfg.DefaultSlippageBps); err != nil {
		return fmt.Errorf("invalid default_slippage_bps: %w", err)
	}
	if cfg.VanityAttempts <= 0 {
		return errors.New("invalid vanity_attempts")
	}
	if cfg.ConfirmTimeout <= 0 {
		return errors.New("invalid confirm_timeout")
	}
	_, err = cfg.MarketConfig()
	return err
}

// MarketConfig собирает market.Config из адресов конфигурации.
func (c *Config) MarketConfig() (market.Config, error) {
	out := market.GetDefaultConfig()

	keys := []struct {
		name  string
		value string
		dst   *solana.PublicKey
	}{
		{"program_id", c.ProgramID, &out.ProgramID},
		{"cpmm_program_id", c.CPMMProgramID, &out.CPMM.ProgramID},
		{"cpmm_amm_config", c.CPMMAmmConfig, &out.CPMM.AmmConfig},
		{"cpmm_fee_receiver", c.CPMMFeeReceiver, &out.CPMM.FeeReceiver},
	}
	for _, k := range keys {
		pk, err := solana.PublicKeyFromBase58(k.value)
		if err != nil {
			return market.Config{}, fmt.Errorf("invalid %s %q: %w", k.name, k.value, err)
		}
		*k.dst = pk
	}

	out.DefaultSlippageBps = c.DefaultSlippageBps
	out.ComputeUnitPrice = c.ComputeUnitPrice
	if out.ComputeUnitPrice == 0 {
		level, err := types.ParsePriorityLevel(c.Priority)
		if err != nil {
			return market.Config{}, err
		}
		out.ComputeUnitPrice = level.UnitPrice()
	}
	out.VanitySuffix = c.VanitySuffix
	out.VanityAttempts = c.VanityAttempts
	return out, out.Validate()
}

// LoggerConfig переводит секцию log в конфигурацию логгера.
func (c *Config) LoggerConfig() *logger.Config {
	return &logger.Config{
		LogFile:     c.Log.File,
		MaxSize:     c.Log.MaxSize,
		MaxAge:      c.Log.MaxAge,
		MaxBackups:  c.Log.MaxBackups,
		Compress:    c.Log.Compress,
		Development: c.Log.Development,
		Pretty:      c.Log.Pretty,
	}
}
