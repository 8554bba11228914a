package config

import (
	"errors"
	"fmt"
)

// ValidateForRun checks everything the server needs before it starts.
func ValidateForRun(cfg *Config) error {
	var errs []error

	if err := cfg.Redis.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := cfg.TaskQueue.Validate(); err != nil {
		errs = append(errs, err)
	}
	if cfg.Planner == nil {
		errs = append(errs, errors.New("planner configuration is missing"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %w", errors.Join(errs...))
	}
	return nil
}
