package main

import (
	"fmt"

	"github.com/ksander314/twmbot/config"
	"github.com/ksander314/twmbot/paths"
)

func loadConfig() (*config.Config, error) {
	cfgPath, err := paths.ConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}
