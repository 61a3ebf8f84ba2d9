package config

import (
	"os"

	postgres_wrapper "github.com/joripage/execution-core/pkg/infra/postgres"
	redis_wrapper "github.com/joripage/execution-core/pkg/infra/redis"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type CoordinatorConfig struct {
	PollIntervalMS int `yaml:"poll_interval_ms"`
	MaxOpenOrders  int `yaml:"max_open_orders"`
	MaxRetries     int `yaml:"max_retries"`
	HistoryLimit   int `yaml:"history_limit"`
}

type RiskConfig struct {
	MaxPositionRisk float64 `yaml:"max_position_risk"`
	MaxPositionPct  float64 `yaml:"max_position_pct"`
}

type LedgerConfig struct {
	Backend  string `yaml:"backend"` // file | redis
	FilePath string `yaml:"file_path"`
	RedisKey string `yaml:"redis_key"`
}

type ReconcileConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
}

type NatsConfig struct {
	URL     string `yaml:"url"`
	Stream  string `yaml:"stream"`
	Subject string `yaml:"subject"`
	Durable string `yaml:"durable"`
}

type FixConfig struct {
	ConfigFilepath string  `yaml:"config_filepath"`
	Account        string  `yaml:"account"`
	BuyingPower    float64 `yaml:"buying_power"`
	AckTimeoutMS   int     `yaml:"ack_timeout_ms"`
}

type AppConfig struct {
	ServiceName string                           `yaml:"service_name"`
	LogLevel    string                           `yaml:"log_level"`
	Coordinator *CoordinatorConfig               `yaml:"coordinator"`
	Risk        *RiskConfig                      `yaml:"risk"`
	Ledger      *LedgerConfig                    `yaml:"ledger"`
	Reconcile   *ReconcileConfig                 `yaml:"reconcile"`
	BlotterDB   *postgres_wrapper.PostgresConfig `yaml:"blotter_db"`
	Redis       *redis_wrapper.RedisConfig       `yaml:"redis"`
	Nats        *NatsConfig                      `yaml:"nats"`
	Fix         *FixConfig                       `yaml:"fix"`
}

// Load load config from file and environment variables.
func Load(filePath string) (*AppConfig, error) {
	if len(filePath) == 0 {
		filePath = os.Getenv("CONFIG_FILE")
	}

	sugar := zap.S().With("func", "config.Load", "filePath", filePath)
	sugar.Debug("Load config...")

	configBytes, err := os.ReadFile(filePath)
	if err != nil {
		sugar.Error("Failed to load config file")
		return nil, err
	}
	configBytes = []byte(os.ExpandEnv(string(configBytes)))

	cfg := &AppConfig{}
	if err := yaml.Unmarshal(configBytes, cfg); err != nil {
		sugar.Error("Failed to parse config file")
		return nil, err
	}

	zap.S().Debugf("config: %+v", cfg)
	return cfg, nil
}
