package configloader

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"nav_checker/internal/domain/entity"
)

// ServerConfig holds HTTP server configuration for the daemon.
type ServerConfig struct {
	Port                string `yaml:"port"`
	ReadTimeoutSeconds  int    `yaml:"readTimeoutSeconds"`
	WriteTimeoutSeconds int    `yaml:"writeTimeoutSeconds"`
	IdleTimeoutSeconds  int    `yaml:"idleTimeoutSeconds"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ChainConfig identifies the chain and its JSON-RPC providers. Endpoints
// is one whitespace-separated configuration line; an endpoint prefixed
// with "mev+" is used for transactions only.
type ChainConfig struct {
	ChainID   uint64 `yaml:"chainID"`
	Endpoints string `yaml:"endpoints"`
}

// VaultConfig names the vault under valuation and its denomination.
type VaultConfig struct {
	Address           string   `yaml:"address"`
	DenominationToken string   `yaml:"denominationToken"`
	Intermediaries    []string `yaml:"intermediaries"`
}

// ValuationConfig tunes route building and batch execution.
type ValuationConfig struct {
	BatchSize          int      `yaml:"batchSize"`
	MaxParallelBatches int      `yaml:"maxParallelBatches"`
	FeeTiers           []uint32 `yaml:"feeTiers"`
	UniswapV2Router    string   `yaml:"uniswapV2Router"`
	UniswapV3Quoter    string   `yaml:"uniswapV3Quoter"`
}

// RPCClientConfig tunes the failover behaviour of the JSON-RPC client.
type RPCClientConfig struct {
	MaxRetries             int     `yaml:"maxRetries"`
	SwitchoverSleepSeconds int     `yaml:"switchoverSleepSeconds"`
	BackoffFactor          float64 `yaml:"backoffFactor"`
	RequestsPerSecond      float64 `yaml:"requestsPerSecond"`
}

// TokenListConfig selects the trading universe source: a hosted token
// list URL, a static address list, or both combined.
type TokenListConfig struct {
	URL            string   `yaml:"url"`
	TimeoutSeconds int      `yaml:"timeoutSeconds"`
	StaticTokens   []string `yaml:"staticTokens"`
}

// SwaggerConfig toggles the interactive API documentation.
type SwaggerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Chain     ChainConfig     `yaml:"chain"`
	Vault     VaultConfig     `yaml:"vault"`
	Valuation ValuationConfig `yaml:"valuation"`
	RPCClient RPCClientConfig `yaml:"rpcClient"`
	TokenList TokenListConfig `yaml:"tokenList"`
	Swagger   SwaggerConfig   `yaml:"swagger"`
}

// Load reads the YAML configuration file, applies defaults and validates
// the semantic constraints that must fail startup.
func Load(path string) (*Config, error) {
	log := logrus.WithField("component", "configloader")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
	if cfg.Server.ReadTimeoutSeconds <= 0 {
		cfg.Server.ReadTimeoutSeconds = 15
	}
	if cfg.Server.WriteTimeoutSeconds <= 0 {
		cfg.Server.WriteTimeoutSeconds = 30
	}
	if cfg.Server.IdleTimeoutSeconds <= 0 {
		cfg.Server.IdleTimeoutSeconds = 60
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if cfg.Valuation.BatchSize <= 0 {
		log.Debug("valuation.batchSize not set, defaulting to 40")
		cfg.Valuation.BatchSize = 40
	}
	if cfg.Valuation.MaxParallelBatches <= 0 {
		cfg.Valuation.MaxParallelBatches = 4
	}

	if cfg.RPCClient.MaxRetries <= 0 {
		cfg.RPCClient.MaxRetries = 6
	}
	if cfg.RPCClient.SwitchoverSleepSeconds <= 0 {
		cfg.RPCClient.SwitchoverSleepSeconds = 5
	}
	if cfg.RPCClient.BackoffFactor <= 1 {
		cfg.RPCClient.BackoffFactor = 1.6
	}

	if cfg.TokenList.TimeoutSeconds <= 0 {
		cfg.TokenList.TimeoutSeconds = 10
	}
	if cfg.Swagger.Path == "" {
		cfg.Swagger.Path = "/swagger"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"chainID":   cfg.Chain.ChainID,
		"vault":     cfg.Vault.Address,
		"batchSize": cfg.Valuation.BatchSize,
	}).Info("Configuration loaded")
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Chain.ChainID == 0 {
		return entity.NewConfigurationError("chain.chainID is required")
	}
	if c.Chain.Endpoints == "" {
		return entity.NewConfigurationError("chain.endpoints is required")
	}
	if !common.IsHexAddress(c.Vault.Address) {
		return entity.NewConfigurationError("vault.address %q is not a valid address", c.Vault.Address)
	}
	if !common.IsHexAddress(c.Vault.DenominationToken) {
		return entity.NewConfigurationError("vault.denominationToken %q is not a valid address", c.Vault.DenominationToken)
	}
	for _, addr := range c.Vault.Intermediaries {
		if !common.IsHexAddress(addr) {
			return entity.NewConfigurationError("vault.intermediaries entry %q is not a valid address", addr)
		}
	}
	if c.Valuation.UniswapV2Router != "" && !common.IsHexAddress(c.Valuation.UniswapV2Router) {
		return entity.NewConfigurationError("valuation.uniswapV2Router %q is not a valid address", c.Valuation.UniswapV2Router)
	}
	if c.Valuation.UniswapV3Quoter != "" && !common.IsHexAddress(c.Valuation.UniswapV3Quoter) {
		return entity.NewConfigurationError("valuation.uniswapV3Quoter %q is not a valid address", c.Valuation.UniswapV3Quoter)
	}
	if c.Valuation.UniswapV2Router == "" && c.Valuation.UniswapV3Quoter == "" {
		return entity.NewConfigurationError("at least one of valuation.uniswapV2Router or valuation.uniswapV3Quoter is required")
	}
	if c.TokenList.URL == "" && len(c.TokenList.StaticTokens) == 0 {
		return entity.NewConfigurationError("either tokenList.url or tokenList.staticTokens is required")
	}
	for _, addr := range c.TokenList.StaticTokens {
		if !common.IsHexAddress(addr) {
			return entity.NewConfigurationError("tokenList.staticTokens entry %q is not a valid address", addr)
		}
	}
	return nil
}
