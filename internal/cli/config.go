// Config loading for the crudweb CLI.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/crudweb/internal/paths"
	"github.com/mesh-intelligence/crudweb/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	// envPrefix prefixes environment overrides, e.g. CRUDWEB_LISTEN_ADDR.
	envPrefix = "CRUDWEB"
)

// Config keys in config.yaml.
const (
	cfgKeyBackend         = "backend"
	cfgKeyDataDir         = "data_dir"
	cfgKeyDatabaseFile    = "database_file"
	cfgKeyMaxOpenConns    = "max_open_conns"
	cfgKeySearchPushdown  = "search_pushdown"
	cfgKeyListenAddr      = "listen_addr"
	cfgKeyReadTimeout     = "read_timeout"
	cfgKeyWriteTimeout    = "write_timeout"
	cfgKeyShutdownTimeout = "shutdown_timeout"
	cfgKeyLogLevel        = "log_level"
	cfgKeyLogFormat       = "log_format"
)

// defaults lists every key with its default value.
var defaults = map[string]any{
	cfgKeyBackend:         types.BackendSQLite,
	cfgKeyDatabaseFile:    types.DefaultDatabaseFile,
	cfgKeyMaxOpenConns:    types.DefaultMaxOpenConns,
	cfgKeySearchPushdown:  false,
	cfgKeyListenAddr:      ":7000",
	cfgKeyReadTimeout:     10 * time.Second,
	cfgKeyWriteTimeout:    10 * time.Second,
	cfgKeyShutdownTimeout: 5 * time.Second,
	cfgKeyLogLevel:        "info",
	cfgKeyLogFormat:       "text",
}

// newViper returns a Viper instance with defaults and env bindings.
// data_dir has no default or binding; paths.ResolveDataDir applies its
// env override after config.yaml.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	for key, val := range defaults {
		v.SetDefault(key, val)
		_ = v.BindEnv(key)
	}
	return v
}

// loadConfig resolves the config directory and reads config.yaml from it.
// A missing config.yaml is not an error.
func (a *app) loadConfig() error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	a.configDir = configDir

	a.v.SetConfigName(configFileName)
	a.v.SetConfigType(configFileType)
	a.v.AddConfigPath(configDir)

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return userError(fmt.Errorf("read config: %w", err))
	}
	return nil
}

// configDataDir returns data_dir as written in config.yaml.
func (a *app) configDataDir() string {
	return a.v.GetString(cfgKeyDataDir)
}

// storeConfig builds the backend Config from flags and configuration.
func (a *app) storeConfig() (types.Config, error) {
	dataDir, err := a.resolveDataDir()
	if err != nil {
		return types.Config{}, err
	}
	return types.Config{
		Backend:        a.v.GetString(cfgKeyBackend),
		DataDir:        dataDir,
		DatabaseFile:   a.v.GetString(cfgKeyDatabaseFile),
		MaxOpenConns:   a.v.GetInt(cfgKeyMaxOpenConns),
		SearchPushdown: a.v.GetBool(cfgKeySearchPushdown),
	}, nil
}

// configFile holds the structure written to config.yaml by init.
type configFile struct {
	Backend      string `yaml:"backend"`
	DataDir      string `yaml:"data_dir,omitempty"`
	DatabaseFile string `yaml:"database_file"`
	ListenAddr   string `yaml:"listen_addr"`
	LogLevel     string `yaml:"log_level"`
	LogFormat    string `yaml:"log_format"`
}

// writeConfigIfMissing creates config.yaml with the current settings if
// the file does not exist. Returns whether a file was written.
func (a *app) writeConfigIfMissing(dataDir string) (bool, error) {
	if err := os.MkdirAll(a.configDir, 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}

	path := filepath.Join(a.configDir, configFileExt)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	cfg := configFile{
		Backend:      a.v.GetString(cfgKeyBackend),
		DataDir:      dataDir,
		DatabaseFile: a.v.GetString(cfgKeyDatabaseFile),
		ListenAddr:   a.v.GetString(cfgKeyListenAddr),
		LogLevel:     a.v.GetString(cfgKeyLogLevel),
		LogFormat:    a.v.GetString(cfgKeyLogFormat),
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	return true, os.WriteFile(path, data, 0o644)
}
