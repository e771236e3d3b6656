package config

import (
	"github.com/garyjia/gumball-machine/internal/container"
)

// ToContainerConfig converts the application Config to a container.Config,
// resolving machines without an inventory to the default inventory.
func (c *Config) ToContainerConfig() *container.Config {
	machines := make([]container.MachineSpec, 0, len(c.Vending.Machines))
	for _, m := range c.Vending.Machines {
		machines = append(machines, container.MachineSpec{
			ID:        m.ID,
			Inventory: m.InventoryOr(c.Vending.DefaultInventory),
		})
	}

	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
			MigrationsDir:   c.Database.MigrationsDir,
		},
		Server: container.ServerConfig{
			Host:         c.Server.Host,
			Port:         c.Server.Port,
			ReadTimeout:  c.Server.ReadTimeout,
			WriteTimeout: c.Server.WriteTimeout,
		},
		Vending: container.VendingConfig{
			DefaultInventory: c.Vending.DefaultInventory,
			Machines:         machines,
		},
	}
}
