package config_test

import (
	"fmt"

	"github.com/moner050/ddal-kkak/backend/pkg/config"
)

// Example demonstrates how to use the config package
func Example() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	// Access configuration values
	fmt.Printf("Server running on port: %s\n", cfg.Port)
	fmt.Printf("Store driver: %s\n", cfg.StoreDriver)
	fmt.Printf("Retention: %d days\n", cfg.Retention.KeepDays)
}
