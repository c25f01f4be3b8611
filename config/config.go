package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultConfigDir = "config"
	DefaultDataDir   = "data"

	DefaultConfigFileName = "config.toml"
	DefaultKeyFileName    = "priv_key"
)

// VerifyConfig covers device attestation and the external verification
// service.
type VerifyConfig struct {
	AVSUrl         string   `mapstructure:"avs_url"`
	AVSApiKey      string   `mapstructure:"avs_api_key"`
	TrustedDevices []string `mapstructure:"trusted_devices"`
}

// EnrichConfig names the context collaborators. Empty URLs disable the
// corresponding lookup.
type EnrichConfig struct {
	GeocodeUrl        string `mapstructure:"geocode_url"`
	WeatherUrl        string `mapstructure:"weather_url"`
	WeatherCurrentUrl string `mapstructure:"weather_current_url"`
	NewsUrl           string `mapstructure:"news_url"`
	NewsApiKey        string `mapstructure:"news_api_key"`
	VisionUrl         string `mapstructure:"vision_url"`
	VisionApiKey      string `mapstructure:"vision_api_key"`
}

// PinningConfig covers the content-addressed storage service.
type PinningConfig struct {
	Url        string `mapstructure:"url"`
	Jwt        string `mapstructure:"jwt"`
	GatewayUrl string `mapstructure:"gateway_url"`
}

// HttpConfig bounds the outbound clients shared by every collaborator.
type HttpConfig struct {
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries uint64        `mapstructure:"max_retries"`
}

type Config struct {
	Home string `mapstructure:"-"`

	ChainId string `mapstructure:"chain_id"`
	Listen  string `mapstructure:"listen"`

	WatchDir string `mapstructure:"watch_dir"`

	BaseAmount          uint64 `mapstructure:"base_amount"`
	VotingWindowSeconds int64  `mapstructure:"voting_window_seconds"`

	Verify  VerifyConfig  `mapstructure:"verify"`
	Enrich  EnrichConfig  `mapstructure:"enrich"`
	Pinning PinningConfig `mapstructure:"pinning"`
	Http    HttpConfig    `mapstructure:"http"`
}

func DefaultConfig(home string) *Config {
	if len(home) == 0 {
		home = os.ExpandEnv("$HOME/.tars")
	}
	return &Config{
		Home:                home,
		ChainId:             "tars-dao",
		Listen:              "0.0.0.0:8547",
		WatchDir:            "",
		BaseAmount:          10,
		VotingWindowSeconds: 72 * 3600,
		Enrich: EnrichConfig{
			GeocodeUrl:        "https://nominatim.openstreetmap.org",
			WeatherUrl:        "https://archive-api.open-meteo.com",
			WeatherCurrentUrl: "https://api.open-meteo.com",
		},
		Pinning: PinningConfig{
			Url:        "https://api.pinata.cloud",
			GatewayUrl: "https://gateway.pinata.cloud/ipfs",
		},
		Http: HttpConfig{
			Timeout:    15 * time.Second,
			MaxRetries: 3,
		},
	}
}

func (c *Config) ConfigDir() string  { return filepath.Join(c.Home, DefaultConfigDir) }
func (c *Config) DataDir() string    { return filepath.Join(c.Home, DefaultDataDir) }
func (c *Config) ConfigFile() string { return filepath.Join(c.ConfigDir(), DefaultConfigFileName) }
func (c *Config) KeyFile() string    { return filepath.Join(c.ConfigDir(), DefaultKeyFileName) }
func (c *Config) LedgerFile() string { return filepath.Join(c.DataDir(), "ledger.db") }

func (c *Config) VotingWindow() time.Duration {
	return time.Duration(c.VotingWindowSeconds) * time.Second
}

func (c *Config) Validate() error {
	if len(c.ChainId) == 0 {
		return fmt.Errorf("chain_id must not be empty")
	}
	if c.VotingWindowSeconds <= 0 {
		return fmt.Errorf("voting_window_seconds must be positive")
	}
	if c.BaseAmount == 0 {
		return fmt.Errorf("base_amount must be positive")
	}
	return nil
}

// EnsureDirs creates the home layout.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.ConfigDir(), c.DataDir()} {
		if err := os.MkdirAll(dir, DefaultDirPerm); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// Load reads config.toml under home, layered over defaults.
func Load(home string) (*Config, error) {
	cfg := DefaultConfig(home)

	v := viper.New()
	v.SetConfigFile(cfg.ConfigFile())
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Home = home
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
