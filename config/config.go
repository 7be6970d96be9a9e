package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	API     APIConfig     `mapstructure:"api"`
	WS      WSConfig      `mapstructure:"ws"`
	Curve   CurveConfig   `mapstructure:"curve"`
	Wallet  WalletConfig  `mapstructure:"wallet"`
	Storage StorageConfig `mapstructure:"storage"`
	Sync    SyncConfig    `mapstructure:"sync"`
	View    ViewConfig    `mapstructure:"view"`
	Archive ArchiveConfig `mapstructure:"archive"`
	Log     LogConfig     `mapstructure:"log"`
}

type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type WSConfig struct {
	URL              string        `mapstructure:"url"`
	ReconnectDelay   time.Duration `mapstructure:"reconnect_delay"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
	PingInterval     time.Duration `mapstructure:"ping_interval"` // 0 disables keepalive pings
}

// CurveConfig parameterises the local bonding curve used for charts and estimates.
type CurveConfig struct {
	Type            string  `mapstructure:"type"` // "exponential", "linear" or "constant_product"
	BasePrice       float64 `mapstructure:"base_price"`
	K               float64 `mapstructure:"k"`
	Slope           float64 `mapstructure:"slope"`
	MaxSupply       float64 `mapstructure:"max_supply"`
	TargetMarketCap float64 `mapstructure:"target_market_cap"`
	Points          int     `mapstructure:"points"`
}

type WalletConfig struct {
	SolanaKeypair string        `mapstructure:"solana_keypair"` // path to a Solana CLI keypair file
	EVMRPCURL     string        `mapstructure:"evm_rpc_url"`    // EIP-1193 JSON-RPC bridge
	Timeout       time.Duration `mapstructure:"timeout"`
}

type StorageConfig struct {
	Path     string `mapstructure:"path"`
	InMemory bool   `mapstructure:"in_memory"`
}

type SyncConfig struct {
	ReconcileInterval time.Duration `mapstructure:"reconcile_interval"` // 0 disables
	BootstrapTimeout  time.Duration `mapstructure:"bootstrap_timeout"`
}

type ViewConfig struct {
	Listen string `mapstructure:"listen"` // empty disables the local view server
}

type ArchiveConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Env      string         `mapstructure:"env"` // "prod" reads credentials from SSM
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// Options defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8080/api/v1")
	v.SetDefault("api.timeout", 10*time.Second)

	v.SetDefault("ws.url", "ws://localhost:8080/ws")
	v.SetDefault("ws.reconnect_delay", 3*time.Second)
	v.SetDefault("ws.handshake_timeout", 10*time.Second)
	v.SetDefault("ws.ping_interval", time.Duration(0))

	v.SetDefault("curve.type", "exponential")
	v.SetDefault("curve.base_price", 0.00001)
	v.SetDefault("curve.k", 1e-9)
	v.SetDefault("curve.slope", 0.0)
	v.SetDefault("curve.max_supply", 1.2e9)
	v.SetDefault("curve.target_market_cap", 100000.0)
	v.SetDefault("curve.points", 101)

	v.SetDefault("wallet.timeout", 2*time.Minute)

	v.SetDefault("storage.path", defaultStoragePath())
	v.SetDefault("storage.in_memory", false)

	v.SetDefault("sync.reconcile_interval", time.Minute)
	v.SetDefault("sync.bootstrap_timeout", 15*time.Second)

	v.SetDefault("view.listen", "127.0.0.1:8090")

	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.env", "dev")
	v.SetDefault("archive.postgres.host", "localhost")
	v.SetDefault("archive.postgres.port", 5432)
	v.SetDefault("archive.postgres.user", "postgres")
	v.SetDefault("archive.postgres.dbname", "memepump")
	v.SetDefault("archive.postgres.sslmode", "disable")
	v.SetDefault("archive.postgres.timezone", "UTC")
	v.SetDefault("archive.postgres.max_open_conns", 10)
	v.SetDefault("archive.postgres.max_idle_conns", 5)
	v.SetDefault("archive.postgres.conn_max_lifetime", time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.environment", "dev")
}

func defaultStoragePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "memepump-data")
	}
	return filepath.Join(dir, "memepump")
}

// Load loads application configuration using Viper.
// If path is set it is read directly; otherwise config.yaml is searched for in
// ./config and next to the executable. A missing file is not an error when no
// path was given. Environment variables (e.g. MEMEPUMP_WS_URL) override both.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config") // config.yaml
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		if ex, err := os.Executable(); err == nil {
			v.AddConfigPath(filepath.Join(filepath.Dir(ex), "../config"))
		}
	}

	// Support environment variables with dot notation (e.g., MEMEPUMP_API_BASE_URL)
	v.SetEnvPrefix("MEMEPUMP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
