// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

// Package initdb implements "init-db", which creates the Neutron and
// identity schema in the configured databases and optionally loads a
// YAML fixture. It exists for lab and test databases.
package initdb

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/yeungp/OpenStack-tools/cmd/neutron-reconcile/cli"
	"github.com/yeungp/OpenStack-tools/cmd/neutron-reconcile/pass"
	"github.com/yeungp/OpenStack-tools/lib/config"
	"github.com/yeungp/OpenStack-tools/lib/neutrondb"
)

type initParams struct {
	pass.Flags
	cli.JSONOutput
	Fixture string `json:"-" flag:"fixture" desc:"YAML file of agents, networks, bindings, security groups, and projects to load"`
}

type initResult struct {
	Database       string `json:"database"          desc:"Neutron database path"`
	Identity       string `json:"identity_database" desc:"identity database path"`
	Agents         int    `json:"agents"            desc:"agents loaded"`
	Networks       int    `json:"networks"          desc:"networks loaded"`
	Bindings       int    `json:"bindings"          desc:"bindings loaded"`
	SecurityGroups int    `json:"security_groups"   desc:"security groups loaded"`
	Projects       int    `json:"projects"          desc:"projects loaded"`
}

// Command returns the "init-db" command.
func Command() *cli.Command {
	var params initParams

	return &cli.Command{
		Name:    "init-db",
		Summary: "Create the schema in an empty database",
		Description: `Create the agents, networks, networkdhcpagentbindings, and
securitygroups tables in database.path and the project table in
identity_database.path. Existing tables are left alone.

With --fixture, also insert the rows from a YAML file. Refused when
the config's environment is production.`,
		Usage:  "neutron-reconcile init-db [flags]",
		Params: func() any { return &params },
		Examples: []cli.Example{
			{
				Description: "Build a lab database",
				Command:     "neutron-reconcile init-db --config lab.yaml --fixture lab-fixture.yaml",
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			return run(ctx, &params, os.Stdout, logger)
		},
	}
}

func run(ctx context.Context, params *initParams, out io.Writer, logger *slog.Logger) error {
	cfg, err := params.LoadConfig()
	if err != nil {
		return err
	}
	if cfg.Environment == config.Production {
		return cli.Validation("init-db is not allowed in the production environment")
	}

	var fixture *neutrondb.Fixture
	if params.Fixture != "" {
		fixture, err = neutrondb.LoadFixtureFile(params.Fixture)
		if err != nil {
			return pass.Classify(err)
		}
	}

	store, err := neutrondb.Open(neutrondb.Config{
		Path:         cfg.Database.Path,
		IdentityPath: cfg.IdentityDatabase.Path,
		AgentTopic:   cfg.Agents.Topic,
		Logger:       logger,
	})
	if err != nil {
		return pass.Classify(err)
	}
	defer store.Close()

	if err := store.Init(ctx); err != nil {
		return pass.Classify(err)
	}
	result := initResult{
		Database: cfg.Database.Path,
		Identity: cfg.IdentityDatabase.Path,
	}
	if fixture != nil {
		if err := store.Load(ctx, fixture); err != nil {
			return pass.Classify(err)
		}
		result.Agents = len(fixture.Agents)
		result.Networks = len(fixture.Networks)
		result.Bindings = len(fixture.Bindings)
		result.SecurityGroups = len(fixture.SecurityGroups)
		result.Projects = len(fixture.Projects)
	}

	if done, err := params.EmitJSON(out, result); done {
		return err
	}
	fmt.Fprintf(out, "Initialized %s\n", result.Database)
	if result.Identity != result.Database {
		fmt.Fprintf(out, "Initialized %s\n", result.Identity)
	}
	if fixture != nil {
		fmt.Fprintf(out, "Loaded %d agents, %d networks, %d bindings, %d security groups, %d projects\n",
			result.Agents, result.Networks, result.Bindings, result.SecurityGroups, result.Projects)
	}
	return nil
}
