// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package neutrondb

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Fixture is a set of rows to load into a fresh database. "init-db
// --fixture" reads one from YAML to build lab and test databases.
type Fixture struct {
	Agents         []AgentRow         `yaml:"agents"`
	Networks       []NetworkRow       `yaml:"networks"`
	Bindings       []BindingRow       `yaml:"bindings"`
	SecurityGroups []SecurityGroupRow `yaml:"security_groups"`
	Projects       []ProjectRow       `yaml:"projects"`
}

// AgentRow is one agents row. Topic defaults to the DHCP agent topic
// and Disabled maps to admin_state_up = 0.
type AgentRow struct {
	ID        string `yaml:"id"`
	Host      string `yaml:"host"`
	Topic     string `yaml:"topic"`
	Disabled  bool   `yaml:"disabled"`
	Heartbeat string `yaml:"heartbeat"`
}

// NetworkRow is one networks row.
type NetworkRow struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Disabled bool   `yaml:"disabled"`
}

// BindingRow is one networkdhcpagentbindings row.
type BindingRow struct {
	Network string `yaml:"network"`
	Agent   string `yaml:"agent"`
}

// SecurityGroupRow is one securitygroups row.
type SecurityGroupRow struct {
	ID     string `yaml:"id"`
	Tenant string `yaml:"tenant"`
	Name   string `yaml:"name"`
}

// ProjectRow is one identity project row.
type ProjectRow struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// LoadFixtureFile parses a YAML fixture.
func LoadFixtureFile(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	var fixture Fixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("parsing fixture %s: %w", path, err)
	}
	return &fixture, nil
}

// Load inserts every fixture row, the Neutron tables in one
// transaction and the identity tables in another. The schema must
// exist (see Init).
func (s *Store) Load(ctx context.Context, fixture *Fixture) error {
	if s.readOnly {
		return fmt.Errorf("neutrondb: cannot load a fixture into a read-only store")
	}
	err := s.pool.WithConn(ctx, func(conn *sqlite.Conn) (err error) {
		endFn, err := sqlitex.ImmediateTransaction(conn)
		if err != nil {
			return err
		}
		defer endFn(&err)

		for _, agent := range fixture.Agents {
			topic := agent.Topic
			if topic == "" {
				topic = DefaultAgentTopic
			}
			var heartbeat any
			if agent.Heartbeat != "" {
				heartbeat = agent.Heartbeat
			}
			if err := sqlitex.Execute(conn, `
				INSERT INTO agents (id, topic, host, admin_state_up, heartbeat_timestamp)
				VALUES (?, ?, ?, ?, ?)`, &sqlitex.ExecOptions{
				Args: []any{agent.ID, topic, agent.Host, !agent.Disabled, heartbeat},
			}); err != nil {
				return fmt.Errorf("agent %s: %w", agent.ID, err)
			}
		}
		for _, network := range fixture.Networks {
			if err := sqlitex.Execute(conn, `
				INSERT INTO networks (id, name, admin_state_up) VALUES (?, ?, ?)`, &sqlitex.ExecOptions{
				Args: []any{network.ID, network.Name, !network.Disabled},
			}); err != nil {
				return fmt.Errorf("network %s: %w", network.ID, err)
			}
		}
		for _, binding := range fixture.Bindings {
			if err := sqlitex.Execute(conn, `
				INSERT INTO networkdhcpagentbindings (network_id, dhcp_agent_id) VALUES (?, ?)`, &sqlitex.ExecOptions{
				Args: []any{binding.Network, binding.Agent},
			}); err != nil {
				return fmt.Errorf("binding %s/%s: %w", binding.Network, binding.Agent, err)
			}
		}
		for _, group := range fixture.SecurityGroups {
			if err := sqlitex.Execute(conn, `
				INSERT INTO securitygroups (id, tenant_id, name) VALUES (?, ?, ?)`, &sqlitex.ExecOptions{
				Args: []any{group.ID, group.Tenant, group.Name},
			}); err != nil {
				return fmt.Errorf("security group %s: %w", group.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("neutrondb: loading fixture: %w", err)
	}

	err = s.identity.WithConn(ctx, func(conn *sqlite.Conn) (err error) {
		endFn, err := sqlitex.ImmediateTransaction(conn)
		if err != nil {
			return err
		}
		defer endFn(&err)
		for _, project := range fixture.Projects {
			if err := sqlitex.Execute(conn, `INSERT INTO project (id, name) VALUES (?, ?)`, &sqlitex.ExecOptions{
				Args: []any{project.ID, project.Name},
			}); err != nil {
				return fmt.Errorf("project %s: %w", project.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("neutrondb: loading identity fixture: %w", err)
	}
	return nil
}
