package config

import (
	"fmt"
	"time"

	"github.com/thepower/tpgo/pkg/core/storage/dbconfig"
	"github.com/thepower/tpgo/pkg/rpcclient/waiter"
	"github.com/thepower/tpgo/pkg/txerr"
	"go.uber.org/zap/zapcore"
)

// ApplicationConfiguration contains settings specific to the client itself.
type ApplicationConfiguration struct {
	LogLevel string `yaml:"LogLevel"`
	LogPath  string `yaml:"LogPath"`
	// DBConfiguration describes the storage of the transaction journal.
	DBConfiguration dbconfig.DBConfiguration `yaml:"DBConfiguration"`
	Prometheus      BasicService             `yaml:"Prometheus"`
	// CodeCacheSize is the number of contracts kept in the code cache.
	CodeCacheSize  int               `yaml:"CodeCacheSize"`
	Poll           waiter.PollConfig `yaml:"Poll"`
	RequestTimeout time.Duration     `yaml:"RequestTimeout"`
}

// Validate checks ApplicationConfiguration for errors.
func (a *ApplicationConfiguration) Validate() error {
	if _, err := a.Level(); err != nil {
		return err
	}
	switch a.DBConfiguration.Type {
	case dbconfig.InMemoryDB:
	case dbconfig.BoltDB:
		if a.DBConfiguration.BoltDBOptions.FilePath == "" {
			return fmt.Errorf("%w: empty BoltDB FilePath", txerr.ErrConfiguration)
		}
	case dbconfig.LevelDB:
		if a.DBConfiguration.LevelDBOptions.DataDirectoryPath == "" {
			return fmt.Errorf("%w: empty LevelDB DataDirectoryPath", txerr.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown DB type %q", txerr.ErrConfiguration, a.DBConfiguration.Type)
	}
	if a.Prometheus.Enabled && len(a.Prometheus.Addresses) == 0 {
		return fmt.Errorf("%w: Prometheus is enabled without Addresses", txerr.ErrConfiguration)
	}
	if a.CodeCacheSize < 0 {
		return fmt.Errorf("%w: negative CodeCacheSize", txerr.ErrConfiguration)
	}
	if a.Poll.Interval < 0 || a.Poll.StatusAttempts < 0 || a.Poll.BlockAttempts < 0 {
		return fmt.Errorf("%w: negative Poll parameter", txerr.ErrConfiguration)
	}
	if a.RequestTimeout < 0 {
		return fmt.Errorf("%w: negative RequestTimeout", txerr.ErrConfiguration)
	}
	return nil
}

// Level returns parsed LogLevel, empty level is Info.
func (a *ApplicationConfiguration) Level() (zapcore.Level, error) {
	var level = zapcore.InfoLevel
	if a.LogLevel != "" {
		if err := level.UnmarshalText([]byte(a.LogLevel)); err != nil {
			return level, fmt.Errorf("%w: log setting: %w", txerr.ErrConfiguration, err)
		}
	}
	return level, nil
}
