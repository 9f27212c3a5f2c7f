// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package pass

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/yeungp/OpenStack-tools/cmd/neutron-reconcile/cli"
	"github.com/yeungp/OpenStack-tools/lib/clock"
	"github.com/yeungp/OpenStack-tools/lib/config"
	"github.com/yeungp/OpenStack-tools/lib/inspect"
	"github.com/yeungp/OpenStack-tools/lib/journal"
	"github.com/yeungp/OpenStack-tools/lib/neutrondb"
	"github.com/yeungp/OpenStack-tools/lib/passmetrics"
	"github.com/yeungp/OpenStack-tools/lib/reconcile"
)

// Options selects what a run needs beyond read access to the store.
type Options struct {
	// Command labels the run's metrics (e.g. "dhcp-agent/clean").
	Command string

	// Writable opens the store read-write and enables the journal.
	Writable bool

	// Inspect builds an SSH inspector from the inspection section.
	Inspect bool

	// Seed seeds the sampling source. Zero draws a random seed.
	Seed uint64

	// Cap overrides agents.dhcp_agents_per_network when positive.
	Cap int

	// Clock defaults to the real clock.
	Clock clock.Clock

	// Inspector replaces the SSH inspector when Inspect is set.
	Inspector reconcile.Inspector
}

// Pass is one wired run.
type Pass struct {
	Config  *config.Config
	RunID   string
	Seed    uint64
	Engine  *reconcile.Engine
	Metrics *passmetrics.Metrics
	Logger  *slog.Logger

	command string
	clock   clock.Clock
	started time.Time
	closers []io.Closer
}

// Open opens the store and assembles the engine. The caller must call
// Finish.
func Open(cfg *config.Config, options Options, logger *slog.Logger) (*Pass, error) {
	c := options.Clock
	if c == nil {
		c = clock.Real()
	}
	seed := options.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	p := &Pass{
		Config:  cfg,
		RunID:   reconcile.NewRunID(),
		Seed:    seed,
		Metrics: passmetrics.New(),
		command: options.Command,
		clock:   c,
		started: c.Now(),
	}
	p.Logger = logger.With("run_id", p.RunID)

	store, err := neutrondb.Open(neutrondb.Config{
		Path:         cfg.Database.Path,
		IdentityPath: cfg.IdentityDatabase.Path,
		ReadOnly:     !options.Writable,
		AgentTopic:   cfg.Agents.Topic,
		Logger:       p.Logger,
	})
	if err != nil {
		return nil, Classify(err)
	}
	p.closers = append(p.closers, store)

	engineOptions := reconcile.Options{
		Reader: store,
		Clock:  c,
		Random: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		Logger: p.Logger,
		Config: reconcile.Config{
			StalenessThreshold:      cfg.StalenessThreshold(),
			MaxAssigneesPerResource: cfg.Agents.DHCPAgentsPerNetwork,
			QueryTimeout:            cfg.Database.QueryTimeout,
			GroupTimeout:            cfg.Database.QueryTimeout,
			InspectionTimeout:       cfg.Inspection.Timeout,
			InspectionConcurrency:   cfg.Inspection.Concurrency,
		},
	}
	if options.Cap > 0 {
		engineOptions.Config.MaxAssigneesPerResource = options.Cap
	}

	if options.Writable {
		engineOptions.Writer = store
		if cfg.Output.Journal != "" {
			writer, err := journal.Open(cfg.Output.Journal, p.RunID, c)
			if err != nil {
				p.close()
				return nil, Classify(err)
			}
			p.closers = append(p.closers, writer)
			engineOptions.Recorder = writer
		}
	}

	if options.Inspect {
		inspector := options.Inspector
		if inspector == nil {
			sshInspector, err := inspect.NewSSHInspector(inspect.SSHConfig{
				User:                  cfg.Inspection.User,
				Port:                  cfg.Inspection.Port,
				KeyFiles:              cfg.Inspection.KeyFiles,
				UseAgent:              cfg.Inspection.UseAgent,
				KnownHostsFile:        cfg.Inspection.KnownHosts,
				StrictHostKeyChecking: cfg.Inspection.StrictHostKeyChecking,
				NamespacePrefix:       cfg.Inspection.NamespacePrefix,
				Logger:                p.Logger,
			})
			if err != nil {
				p.close()
				return nil, cli.Validation("configuring SSH inspection: %w", err)
			}
			p.closers = append(p.closers, sshInspector)
			inspector = sshInspector
		}
		engineOptions.Inspector = inspector
	}

	p.Engine, err = reconcile.New(engineOptions)
	if err != nil {
		p.close()
		return nil, cli.Internal("building engine: %w", err)
	}
	p.Logger.Debug("pass opened",
		"database", cfg.Database.Path,
		"writable", options.Writable,
		"inspect", options.Inspect,
		"seed", seed,
	)
	return p, nil
}

// Elapsed returns the time since Open.
func (p *Pass) Elapsed() time.Duration {
	return clock.Since(p.clock, p.started)
}

// Finish records the run's outcome, writes the metrics textfile if
// configured, and releases every resource. It returns runErr mapped
// by Classify, joined with any cleanup failure.
func (p *Pass) Finish(runErr error) error {
	finished := p.clock.Now()
	duration := finished.Sub(p.started)
	p.Metrics.ObservePass(p.command, duration, runErr, finished)

	var errs []error
	if runErr != nil {
		errs = append(errs, Classify(runErr))
	}
	if base := p.Config.Output.MetricsFile; base != "" {
		path := passmetrics.TextfilePath(base, p.command)
		if err := p.Metrics.WriteTextfile(path); err != nil {
			p.Logger.Warn("writing metrics textfile failed", "path", path, "error", err)
			errs = append(errs, cli.Internal("%w", err))
		}
	}
	if err := p.close(); err != nil {
		errs = append(errs, cli.Internal("closing: %w", err))
	}

	if runErr == nil {
		p.Logger.Info("pass finished", "duration", duration)
	} else {
		p.Logger.Error("pass failed", "duration", duration, "error", runErr)
	}
	return errors.Join(errs...)
}

// close releases resources in reverse order of acquisition.
func (p *Pass) close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		errs = append(errs, p.closers[i].Close())
	}
	p.closers = nil
	return errors.Join(errs...)
}

// Classify maps a pass error onto a cli.ToolError category. Errors that
// already carry a category, and ExitErrors, pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var toolErr *cli.ToolError
	var exitErr *cli.ExitError
	if errors.As(err, &toolErr) || errors.As(err, &exitErr) {
		return err
	}

	var (
		connErr   *reconcile.StoreConnectionError
		recordErr *reconcile.InvalidRecordError
	)
	switch {
	case errors.Is(err, reconcile.ErrFingerprintMismatch):
		return cli.Conflict("%w", err)
	case errors.As(err, &connErr),
		errors.Is(err, context.DeadlineExceeded):
		return cli.Transient("%w", err)
	case errors.Is(err, fs.ErrNotExist):
		return cli.NotFound("%w", err)
	case errors.As(err, &recordErr):
		return cli.Internal("%w", err)
	case errors.Is(err, context.Canceled):
		return cli.Transient("interrupted: %w", err)
	}
	return cli.Internal("%w", err)
}
