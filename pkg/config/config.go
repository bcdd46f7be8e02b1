package config

import (
	"fmt"
	"os"
	"time"

	"github.com/thepower/tpgo/pkg/composer"
	"github.com/thepower/tpgo/pkg/core/storage/dbconfig"
	"github.com/thepower/tpgo/pkg/rpcclient/waiter"
	"github.com/thepower/tpgo/pkg/smartcontract/codecache"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is the default path to the config file.
	DefaultConfigPath = "./config/tpgo.yml"
	// DefaultRequestTimeout is the default node request timeout.
	DefaultRequestTimeout = 10 * time.Second

	userAgentFormat = "tpgo/%s"
)

// Version is the version of the client, set at build time.
var Version string

// Config is the top level struct representing the config of the client.
type Config struct {
	ProtocolConfiguration    ProtocolConfiguration    `yaml:"ProtocolConfiguration"`
	ApplicationConfiguration ApplicationConfiguration `yaml:"ApplicationConfiguration"`
}

// GenerateUserAgent creates user agent string based on build time environment.
func (c Config) GenerateUserAgent() string {
	return fmt.Sprintf(userAgentFormat, Version)
}

// Default returns the configuration used when no config file is given.
func Default() Config {
	return Config{
		ProtocolConfiguration: ProtocolConfiguration{
			PoWDifficulty: composer.DefaultPoWDifficulty,
			GasToken:      composer.DefaultGasToken,
			GasValue:      composer.DefaultGasValue,
		},
		ApplicationConfiguration: ApplicationConfiguration{
			LogLevel: "info",
			DBConfiguration: dbconfig.DBConfiguration{
				Type: dbconfig.InMemoryDB,
			},
			CodeCacheSize: codecache.DefaultSize,
			Poll: waiter.PollConfig{
				Interval:       waiter.DefaultPollInterval,
				StatusAttempts: waiter.DefaultStatusAttempts,
				BlockAttempts:  waiter.DefaultBlockAttempts,
			},
			RequestTimeout: DefaultRequestTimeout,
		},
	}
}

// LoadFile loads config from the provided path. Values missing in the file
// keep their defaults, the result is validated.
func LoadFile(configPath string) (Config, error) {
	configData, err := os.ReadFile(configPath)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}

	config := Default()
	err = yaml.Unmarshal(configData, &config)
	if err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	err = config.Validate()
	if err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate checks both configuration sections.
func (c Config) Validate() error {
	if err := c.ProtocolConfiguration.Validate(); err != nil {
		return err
	}
	return c.ApplicationConfiguration.Validate()
}
