// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package pass

import (
	"errors"
	"io/fs"

	"github.com/yeungp/OpenStack-tools/cmd/neutron-reconcile/cli"
	"github.com/yeungp/OpenStack-tools/lib/config"
)

// Flags holds the flags shared by every command that reads the
// Neutron database.
type Flags struct {
	cli.LogFlags
	ConfigPath string `json:"-" flag:"config,c" desc:"path to the YAML config (default: $NEUTRON_RECONCILE_CONFIG)"`
}

// LoadConfig loads and validates the config named by --config or
// NEUTRON_RECONCILE_CONFIG.
func (f *Flags) LoadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if f.ConfigPath != "" {
		cfg, err = config.LoadFile(f.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, cli.NotFound("loading config: %w", err)
		}
		return nil, cli.Validation("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, cli.Validation("invalid config: %w", err)
	}
	return cfg, nil
}
