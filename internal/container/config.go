// Package container provides dependency injection and lifecycle management
// for the gumball machine server.
package container

import (
	"fmt"
	"time"

	"github.com/garyjia/gumball-machine/pkg/utils"
)

// Config holds all configuration for the Container.
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Vending  VendingConfig
}

// DatabaseConfig holds history database settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// MigrationsDir overrides the migrations compiled into the binary
	MigrationsDir string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// VendingConfig holds the machines registered on start.
type VendingConfig struct {
	DefaultInventory int
	Machines         []MachineSpec
}

// MachineSpec is one machine to register on start.
type MachineSpec struct {
	ID        string
	Inventory int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/gumball.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if err := utils.ValidateInventory(c.Vending.DefaultInventory); err != nil {
		return fmt.Errorf("vending.default_inventory: %w", err)
	}

	for _, m := range c.Vending.Machines {
		if err := utils.ValidateMachineID(m.ID); err != nil {
			return err
		}
		if err := utils.ValidateInventory(m.Inventory); err != nil {
			return fmt.Errorf("machine %s: %w", m.ID, err)
		}
	}

	return nil
}
