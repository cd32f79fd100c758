package config

import "fmt"

func validate(c *Config) error {
	if c.Pagination.PageSize < 1 {
		return fmt.Errorf("page size must be >= 1")
	}
	if c.Pagination.MaxPages < 1 {
		return fmt.Errorf("max pages must be >= 1")
	}
	if c.Pagination.BaseDelay < 0 {
		return fmt.Errorf("base delay must be >= 0")
	}
	if c.Pagination.SpikeProbability < 0 || c.Pagination.SpikeProbability > 1 {
		return fmt.Errorf("spike probability must be between 0 and 1")
	}
	if c.StateStore != "file" && c.StateStore != "keyring" {
		return fmt.Errorf("state store must be file or keyring, got %q", c.StateStore)
	}
	if c.StateStore == "file" && c.StatePath == "" {
		return fmt.Errorf("state path is required for the file store")
	}
	if c.MaxRPS < 0 {
		return fmt.Errorf("max rps must be >= 0")
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries must be >= 0")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0")
	}
	return nil
}
