// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the variable [Load] reads the config path from.
const EnvironmentVariable = "NEUTRON_RECONCILE_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for a laptop pointed at a fixture database.
	Development Environment = "development"
	// Staging is for a lab cloud.
	Staging Environment = "staging"
	// Production is for a real Neutron deployment.
	Production Environment = "production"
)

// Config is the master configuration for neutron-reconcile.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Database locates the Neutron database.
	Database DatabaseConfig `yaml:"database"`

	// IdentityDatabase locates the database holding the project table.
	// An empty path means the project table lives in Database.
	IdentityDatabase DatabaseConfig `yaml:"identity_database"`

	// Agents mirrors the Neutron server options the passes depend on.
	Agents AgentsConfig `yaml:"agents"`

	// Inspection configures SSH access to the agent hosts.
	Inspection InspectionConfig `yaml:"inspection"`

	// Output configures the optional journal and metrics files.
	Output OutputConfig `yaml:"output"`

	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Database         *DatabaseConfig      `yaml:"database,omitempty"`
	IdentityDatabase *DatabaseConfig      `yaml:"identity_database,omitempty"`
	Agents           *AgentsConfig        `yaml:"agents,omitempty"`
	Inspection       *InspectionOverrides `yaml:"inspection,omitempty"`
	Output           *OutputConfig        `yaml:"output,omitempty"`
}

// DatabaseConfig locates a SQLite database file.
type DatabaseConfig struct {
	// Path is the database file.
	Path string `yaml:"path"`

	// QueryTimeout bounds each query against the database.
	// Default: 30s
	QueryTimeout time.Duration `yaml:"query_timeout"`
}

// AgentsConfig mirrors neutron.conf settings.
type AgentsConfig struct {
	// AgentDownTime is the heartbeat staleness threshold in seconds.
	// Default: 75
	AgentDownTime int `yaml:"agent_down_time"`

	// DHCPAgentsPerNetwork caps the agents hosting one network.
	// Default: 2
	DHCPAgentsPerNetwork int `yaml:"dhcp_agents_per_network"`

	// Topic selects which agents are DHCP agents.
	// Default: dhcp_agent
	Topic string `yaml:"topic"`
}

// InspectionConfig configures SSH inspection of agent hosts.
type InspectionConfig struct {
	// User is the SSH login user. Default: root
	User string `yaml:"user"`

	// Port is the SSH port. Default: 22
	Port int `yaml:"port"`

	// KeyFiles are private keys offered for authentication.
	KeyFiles []string `yaml:"key_files"`

	// UseAgent offers the keys held by $SSH_AUTH_SOCK.
	// Default: true
	UseAgent bool `yaml:"use_agent"`

	// KnownHosts is the known_hosts file used to verify host keys.
	// Default: ${HOME}/.ssh/known_hosts
	KnownHosts string `yaml:"known_hosts"`

	// StrictHostKeyChecking rejects hosts absent from KnownHosts.
	// Default: true. Forced on in production.
	StrictHostKeyChecking bool `yaml:"strict_host_key_checking"`

	// Timeout bounds one host's inspection. Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// Concurrency caps simultaneous SSH sessions. Default: 16
	Concurrency int `yaml:"concurrency"`

	// NamespacePrefix marks the namespaces that belong to networks.
	// Default: qdhcp-
	NamespacePrefix string `yaml:"namespace_prefix"`
}

// InspectionOverrides is InspectionConfig with optional booleans, so
// an override section can leave them unset.
type InspectionOverrides struct {
	User                  string        `yaml:"user"`
	Port                  int           `yaml:"port"`
	KeyFiles              []string      `yaml:"key_files"`
	UseAgent              *bool         `yaml:"use_agent"`
	KnownHosts            string        `yaml:"known_hosts"`
	StrictHostKeyChecking *bool         `yaml:"strict_host_key_checking"`
	Timeout               time.Duration `yaml:"timeout"`
	Concurrency           int           `yaml:"concurrency"`
	NamespacePrefix       string        `yaml:"namespace_prefix"`
}

// OutputConfig configures files written by a pass.
type OutputConfig struct {
	// Journal is the removal journal. Empty disables journaling.
	// A .zst suffix selects zstd compression.
	Journal string `yaml:"journal"`

	// MetricsFile is the base path for node_exporter textfiles. Each
	// command writes its own file next to it, named by inserting the
	// command before the extension. Empty disables them.
	MetricsFile string `yaml:"metrics_file"`
}

// Default returns the default configuration.
// These defaults are used as a base before loading the config file.
// The config file is still required.
func Default() *Config {
	return &Config{
		Environment: Development,
		Database: DatabaseConfig{
			QueryTimeout: 30 * time.Second,
		},
		Agents: AgentsConfig{
			AgentDownTime:        75,
			DHCPAgentsPerNetwork: 2,
			Topic:                "dhcp_agent",
		},
		Inspection: InspectionConfig{
			User:                  "root",
			Port:                  22,
			UseAgent:              true,
			KnownHosts:            "${HOME}/.ssh/known_hosts",
			StrictHostKeyChecking: true,
			Timeout:               30 * time.Second,
			Concurrency:           16,
			NamespacePrefix:       "qdhcp-",
		},
	}
}

// Load loads configuration from the NEUTRON_RECONCILE_CONFIG
// environment variable. If it is not set, Load fails.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your neutron-reconcile.yaml config file, or use --config flag", EnvironmentVariable)
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	if cfg.IdentityDatabase.Path == "" {
		cfg.IdentityDatabase.Path = cfg.Database.Path
	}
	if cfg.IdentityDatabase.QueryTimeout == 0 {
		cfg.IdentityDatabase.QueryTimeout = cfg.Database.QueryTimeout
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
	}

	if overrides != nil {
		if overrides.Database != nil {
			mergeDatabase(&c.Database, overrides.Database)
		}
		if overrides.IdentityDatabase != nil {
			mergeDatabase(&c.IdentityDatabase, overrides.IdentityDatabase)
		}

		if overrides.Agents != nil {
			if overrides.Agents.AgentDownTime != 0 {
				c.Agents.AgentDownTime = overrides.Agents.AgentDownTime
			}
			if overrides.Agents.DHCPAgentsPerNetwork != 0 {
				c.Agents.DHCPAgentsPerNetwork = overrides.Agents.DHCPAgentsPerNetwork
			}
			if overrides.Agents.Topic != "" {
				c.Agents.Topic = overrides.Agents.Topic
			}
		}

		if inspection := overrides.Inspection; inspection != nil {
			if inspection.User != "" {
				c.Inspection.User = inspection.User
			}
			if inspection.Port != 0 {
				c.Inspection.Port = inspection.Port
			}
			if len(inspection.KeyFiles) > 0 {
				c.Inspection.KeyFiles = inspection.KeyFiles
			}
			if inspection.UseAgent != nil {
				c.Inspection.UseAgent = *inspection.UseAgent
			}
			if inspection.KnownHosts != "" {
				c.Inspection.KnownHosts = inspection.KnownHosts
			}
			if inspection.StrictHostKeyChecking != nil {
				c.Inspection.StrictHostKeyChecking = *inspection.StrictHostKeyChecking
			}
			if inspection.Timeout != 0 {
				c.Inspection.Timeout = inspection.Timeout
			}
			if inspection.Concurrency != 0 {
				c.Inspection.Concurrency = inspection.Concurrency
			}
			if inspection.NamespacePrefix != "" {
				c.Inspection.NamespacePrefix = inspection.NamespacePrefix
			}
		}

		if overrides.Output != nil {
			if overrides.Output.Journal != "" {
				c.Output.Journal = overrides.Output.Journal
			}
			if overrides.Output.MetricsFile != "" {
				c.Output.MetricsFile = overrides.Output.MetricsFile
			}
		}
	}

	if c.Environment == Production {
		c.Inspection.StrictHostKeyChecking = true
	}
}

func mergeDatabase(target, override *DatabaseConfig) {
	if override.Path != "" {
		target.Path = override.Path
	}
	if override.QueryTimeout != 0 {
		target.QueryTimeout = override.QueryTimeout
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.Database.Path = expandVars(c.Database.Path, vars)
	vars["NEUTRON_DATABASE"] = c.Database.Path

	c.IdentityDatabase.Path = expandVars(c.IdentityDatabase.Path, vars)
	c.Inspection.KnownHosts = expandVars(c.Inspection.KnownHosts, vars)
	for i, keyFile := range c.Inspection.KeyFiles {
		c.Inspection.KeyFiles[i] = expandVars(keyFile, vars)
	}
	c.Output.Journal = expandVars(c.Output.Journal, vars)
	c.Output.MetricsFile = expandVars(c.Output.MetricsFile, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// StalenessThreshold returns agents.agent_down_time as a duration.
func (c *Config) StalenessThreshold() time.Duration {
	return time.Duration(c.Agents.AgentDownTime) * time.Second
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	environments := []Environment{Development, Staging, Production}
	if !slices.Contains(environments, c.Environment) {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Database.Path == "" {
		errs = append(errs, fmt.Errorf("database.path is required"))
	}
	if c.Database.QueryTimeout <= 0 {
		errs = append(errs, fmt.Errorf("database.query_timeout must be positive"))
	}

	if c.Agents.AgentDownTime <= 0 {
		errs = append(errs, fmt.Errorf("agents.agent_down_time must be positive, got %d", c.Agents.AgentDownTime))
	}
	if c.Agents.DHCPAgentsPerNetwork < 1 {
		errs = append(errs, fmt.Errorf("agents.dhcp_agents_per_network must be at least 1, got %d", c.Agents.DHCPAgentsPerNetwork))
	}
	if c.Agents.Topic == "" {
		errs = append(errs, fmt.Errorf("agents.topic is required"))
	}

	if c.Inspection.User == "" {
		errs = append(errs, fmt.Errorf("inspection.user is required"))
	}
	if c.Inspection.Port < 1 || c.Inspection.Port > 65535 {
		errs = append(errs, fmt.Errorf("inspection.port out of range: %d", c.Inspection.Port))
	}
	if c.Inspection.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("inspection.timeout must be positive"))
	}
	if c.Inspection.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("inspection.concurrency must be at least 1, got %d", c.Inspection.Concurrency))
	}
	if c.Inspection.NamespacePrefix == "" {
		errs = append(errs, fmt.Errorf("inspection.namespace_prefix is required"))
	}
	if c.Inspection.StrictHostKeyChecking && c.Inspection.KnownHosts == "" {
		errs = append(errs, fmt.Errorf("inspection.known_hosts is required when strict_host_key_checking is on"))
	}
	if !c.Inspection.UseAgent && len(c.Inspection.KeyFiles) == 0 {
		errs = append(errs, fmt.Errorf("inspection needs key_files or use_agent"))
	}

	return errors.Join(errs...)
}
