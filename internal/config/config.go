package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/garyjia/gumball-machine/pkg/utils"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Vending  VendingConfig  `mapstructure:"vending"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds history database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"` // empty uses the embedded migrations
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// VendingConfig lists the machines registered at startup
type VendingConfig struct {
	DefaultInventory int             `mapstructure:"default_inventory"`
	Machines         []MachineConfig `mapstructure:"machines"`
}

// MachineConfig describes one pre-registered machine. A nil Inventory
// falls back to VendingConfig.DefaultInventory.
type MachineConfig struct {
	ID        string `mapstructure:"id"`
	Inventory *int   `mapstructure:"inventory"`
}

// InventoryOr returns the configured inventory or fallback
func (m MachineConfig) InventoryOr(fallback int) int {
	if m.Inventory == nil {
		return fallback
	}
	return *m.Inventory
}

// Load loads configuration from a .env file, the YAML file at configPath and
// GUMBALL_* environment variables, in increasing order of precedence. An
// empty configPath loads defaults only.
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("GUMBALL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv exports variables from path without overriding ones already set
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := gotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)

	// Database defaults
	v.SetDefault("database.path", "data/gumball.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.migrations_dir", "")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	// Vending defaults
	v.SetDefault("vending.default_inventory", 0)
}

// bindEnvVars binds the short environment names used in deployments
func bindEnvVars(v *viper.Viper) {
	v.BindEnv("server.port", "GUMBALL_PORT")
	v.BindEnv("database.path", "GUMBALL_DB_PATH")
	v.BindEnv("logger.level", "GUMBALL_LOG_LEVEL")
	v.BindEnv("logger.format", "GUMBALL_LOG_FORMAT")
	v.BindEnv("vending.default_inventory", "GUMBALL_DEFAULT_INVENTORY")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	switch c.Logger.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logger.format must be json or console, got %q", c.Logger.Format)
	}

	if err := utils.ValidateInventory(c.Vending.DefaultInventory); err != nil {
		return fmt.Errorf("vending.default_inventory: %w", err)
	}

	seen := make(map[string]bool, len(c.Vending.Machines))
	for i, m := range c.Vending.Machines {
		if err := utils.ValidateMachineID(m.ID); err != nil {
			return fmt.Errorf("vending.machines[%d]: %w", i, err)
		}
		if seen[m.ID] {
			return fmt.Errorf("vending.machines[%d]: duplicate id %q", i, m.ID)
		}
		seen[m.ID] = true

		if err := utils.ValidateInventory(m.InventoryOr(c.Vending.DefaultInventory)); err != nil {
			return fmt.Errorf("vending.machines[%d]: %w", i, err)
		}
	}

	return nil
}
