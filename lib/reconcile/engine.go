// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/yeungp/OpenStack-tools/lib/clock"
)

// Reader loads the records a pass works from. Each call returns
// records in the store's stable order.
type Reader interface {
	ListAgents(ctx context.Context) ([]Agent, error)
	ListResources(ctx context.Context) ([]Resource, error)
	ListAssignments(ctx context.Context) ([]Assignment, error)
	ListChildren(ctx context.Context) ([]Child, error)
	ListParents(ctx context.Context) ([]Parent, error)
}

// Config holds the tunables of a pass.
type Config struct {
	// StalenessThreshold is the maximum heartbeat age of an alive
	// agent.
	StalenessThreshold time.Duration

	// MaxAssigneesPerResource is the shedding cap.
	MaxAssigneesPerResource int

	// QueryTimeout bounds each store read. Zero means unbounded.
	QueryTimeout time.Duration

	// GroupTimeout bounds each removal group's transaction.
	GroupTimeout time.Duration

	// InspectionTimeout and InspectionConcurrency bound ground-truth
	// collection.
	InspectionTimeout     time.Duration
	InspectionConcurrency int
}

// Options wires an Engine. Reader, Clock, and Random are required.
// Writer is required only to execute plans, Inspector only to collect
// ground truth.
type Options struct {
	Reader    Reader
	Writer    Writer
	Inspector Inspector
	Recorder  Recorder
	Clock     clock.Clock
	Random    *rand.Rand
	Logger    *slog.Logger
	Config    Config
}

// Engine runs reconciliation passes.
type Engine struct {
	reader    Reader
	writer    Writer
	inspector Inspector
	recorder  Recorder
	clock     clock.Clock
	random    *rand.Rand
	logger    *slog.Logger
	config    Config
}

// New validates options and returns an Engine. Zero tunables take
// the Neutron defaults.
func New(options Options) (*Engine, error) {
	if options.Reader == nil {
		return nil, errors.New("reconcile: reader is required")
	}
	if options.Clock == nil {
		return nil, errors.New("reconcile: clock is required")
	}
	if options.Random == nil {
		return nil, errors.New("reconcile: random source is required")
	}
	config := options.Config
	if config.StalenessThreshold <= 0 {
		config.StalenessThreshold = DefaultStalenessThreshold
	}
	if config.MaxAssigneesPerResource <= 0 {
		config.MaxAssigneesPerResource = DefaultMaxAssigneesPerResource
	}
	if config.InspectionConcurrency <= 0 {
		config.InspectionConcurrency = 1
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		reader:    options.Reader,
		writer:    options.Writer,
		inspector: options.Inspector,
		recorder:  options.Recorder,
		clock:     options.Clock,
		random:    options.Random,
		logger:    logger,
		config:    config,
	}, nil
}

// Config returns the effective configuration after defaults.
func (e *Engine) Config() Config {
	return e.config
}

// Snapshot is the immutable view of the store one pass works from.
// Callers must not modify its slices or maps.
type Snapshot struct {
	TakenAt     time.Time
	Agents      []Agent
	Resources   []Resource
	Assignments []Assignment

	// Index maps resources to assigned agents. Every enabled resource
	// and eligible agent is a key even with no bindings.
	Index *Index[ResourceID, AgentID]

	Liveness      Liveness
	AgentsByID    map[AgentID]Agent
	ResourcesByID map[ResourceID]Resource
}

// Authoritative returns, per agent, the keys of the resources the
// store binds to it.
func (s *Snapshot) Authoritative() map[AgentID][]ResourceKey {
	authoritative := make(map[AgentID][]ResourceKey)
	for _, agent := range s.Index.ReverseKeys() {
		resources := s.Index.Reverse(agent)
		keys := make([]ResourceKey, len(resources))
		for i, resource := range resources {
			keys[i] = ResourceKey(resource)
		}
		authoritative[agent] = keys
	}
	return authoritative
}

// Snapshot reads agents, resources, and assignments, then classifies
// liveness against a single reading of the clock.
func (e *Engine) Snapshot(ctx context.Context) (*Snapshot, error) {
	started := e.clock.Now()
	var (
		agents      []Agent
		resources   []Resource
		assignments []Assignment
	)
	if err := e.read(ctx, "listing agents", func(ctx context.Context) (err error) {
		agents, err = e.reader.ListAgents(ctx)
		return err
	}); err != nil {
		return nil, err
	}
	if err := e.read(ctx, "listing resources", func(ctx context.Context) (err error) {
		resources, err = e.reader.ListResources(ctx)
		return err
	}); err != nil {
		return nil, err
	}
	if err := e.read(ctx, "listing assignments", func(ctx context.Context) (err error) {
		assignments, err = e.reader.ListAssignments(ctx)
		return err
	}); err != nil {
		return nil, err
	}

	now := e.clock.Now()
	liveness, err := ClassifyAgents(agents, now, e.config.StalenessThreshold)
	if err != nil {
		return nil, err
	}

	snapshot := &Snapshot{
		TakenAt:       now,
		Agents:        agents,
		Resources:     resources,
		Assignments:   assignments,
		Liveness:      liveness,
		AgentsByID:    make(map[AgentID]Agent, len(agents)),
		ResourcesByID: make(map[ResourceID]Resource, len(resources)),
	}
	agentIDs := make([]AgentID, len(agents))
	for i, agent := range agents {
		agentIDs[i] = agent.ID
		snapshot.AgentsByID[agent.ID] = agent
	}
	resourceIDs := make([]ResourceID, len(resources))
	for i, resource := range resources {
		resourceIDs[i] = resource.ID
		snapshot.ResourcesByID[resource.ID] = resource
	}
	snapshot.Index = BuildIndex(AssignmentPairs(assignments), resourceIDs, agentIDs)

	alive, dead := liveness.Counts()
	e.logger.Info("snapshot taken",
		"agents", len(agents),
		"alive", alive,
		"dead", dead,
		"resources", len(resources),
		"assignments", len(assignments),
		"duration", now.Sub(started),
	)
	return snapshot, nil
}

// PlanShedding plans removals for snapshot using the engine's cap
// and random source.
func (e *Engine) PlanShedding(snapshot *Snapshot) RemovalPlan {
	return PlanShedding(snapshot.Index, snapshot.Liveness, e.config.MaxAssigneesPerResource, e.random)
}

// CollectGroundTruth inspects the hosts of the snapshot's alive
// agents.
func (e *Engine) CollectGroundTruth(ctx context.Context, snapshot *Snapshot) (GroundTruth, error) {
	if e.inspector == nil {
		return GroundTruth{}, errors.New("reconcile: no inspector configured")
	}
	return CollectGroundTruth(ctx, e.inspector, snapshot.Agents, snapshot.Liveness, CollectOptions{
		Timeout:     e.config.InspectionTimeout,
		Concurrency: e.config.InspectionConcurrency,
		Logger:      e.logger,
	})
}

// CompareOutcome is the result of a comparison pass.
type CompareOutcome struct {
	Snapshot    *Snapshot         `json:"-"`
	GroundTruth GroundTruth       `json:"ground_truth"`
	Report      DiscrepancyReport `json:"report"`
}

// Compare takes a snapshot, collects ground truth, and diffs the two.
func (e *Engine) Compare(ctx context.Context) (CompareOutcome, error) {
	snapshot, err := e.Snapshot(ctx)
	if err != nil {
		return CompareOutcome{}, err
	}
	truth, err := e.CollectGroundTruth(ctx, snapshot)
	if err != nil {
		return CompareOutcome{}, err
	}
	report := Diff(DiffInput{
		Agents:        snapshot.Agents,
		Authoritative: snapshot.Authoritative(),
		GroundTruth:   truth,
		Resources:     snapshot.ResourcesByID,
	})
	e.logger.Info("comparison complete",
		"agents_with_discrepancies", len(report.Agents),
		"discrepancies", report.Total,
		"unreachable", len(truth.Unreachable()),
	)
	return CompareOutcome{Snapshot: snapshot, GroundTruth: truth, Report: report}, nil
}

// ShedOptions controls a load-shedding pass.
type ShedOptions struct {
	// DryRun computes the plan without executing it.
	DryRun bool

	// ExpectFingerprint, if set, must equal the computed plan's
	// fingerprint or the pass stops before writing.
	ExpectFingerprint string
}

// ShedOutcome is the result of a load-shedding pass.
type ShedOutcome struct {
	Snapshot    *Snapshot       `json:"-"`
	Plan        RemovalPlan     `json:"plan"`
	Fingerprint string          `json:"fingerprint"`
	Executed    bool            `json:"executed"`
	Result      ExecutionResult `json:"result"`
}

// Shed takes a snapshot, plans load shedding, and executes the plan
// unless options.DryRun is set. On partial failure the outcome
// describes what was committed and the error joins the group
// failures.
func (e *Engine) Shed(ctx context.Context, options ShedOptions) (ShedOutcome, error) {
	snapshot, err := e.Snapshot(ctx)
	if err != nil {
		return ShedOutcome{}, err
	}
	plan := e.PlanShedding(snapshot)
	outcome := ShedOutcome{Snapshot: snapshot, Plan: plan}

	outcome.Fingerprint, err = CheckFingerprint(plan, options.ExpectFingerprint)
	if err != nil {
		return outcome, err
	}
	reasons := plan.CountByReason()
	e.logger.Info("shedding planned",
		"cap", plan.Cap,
		"groups", len(plan.Groups),
		"excess_dead", reasons[ReasonExcessDead],
		"excess_alive", reasons[ReasonExcessAlive],
		"fingerprint", outcome.Fingerprint,
	)
	if options.DryRun || plan.Empty() {
		return outcome, nil
	}
	outcome.Result, err = e.execute(ctx, plan)
	outcome.Executed = true
	return outcome, err
}

// OrphanOutcome is the result of an orphan pass.
type OrphanOutcome struct {
	Report   OrphanReport    `json:"report"`
	Plan     RemovalPlan     `json:"plan"`
	Executed bool            `json:"executed"`
	Result   ExecutionResult `json:"result"`
}

// Orphans reads parents and children and classifies them. The
// returned outcome carries the removal plan but nothing is executed.
func (e *Engine) Orphans(ctx context.Context) (OrphanOutcome, error) {
	var (
		parents  []Parent
		children []Child
	)
	if err := e.read(ctx, "listing parents", func(ctx context.Context) (err error) {
		parents, err = e.reader.ListParents(ctx)
		return err
	}); err != nil {
		return OrphanOutcome{}, err
	}
	if err := e.read(ctx, "listing children", func(ctx context.Context) (err error) {
		children, err = e.reader.ListChildren(ctx)
		return err
	}); err != nil {
		return OrphanOutcome{}, err
	}

	report := ClassifyOrphans(children, parents)
	e.logger.Info("orphans classified",
		"parents", len(report.OwnedParents),
		"owned", report.OwnedCount,
		"orphaned", report.OrphanCount,
		"vanished_parents", len(report.OrphanParents),
	)
	return OrphanOutcome{Report: report, Plan: PlanOrphanRemoval(report)}, nil
}

// CleanOrphans classifies children and, unless dryRun is set,
// deletes every orphan, one transaction per vanished parent.
func (e *Engine) CleanOrphans(ctx context.Context, dryRun bool) (OrphanOutcome, error) {
	outcome, err := e.Orphans(ctx)
	if err != nil {
		return outcome, err
	}
	if dryRun || outcome.Plan.Empty() {
		return outcome, nil
	}
	outcome.Result, err = e.execute(ctx, outcome.Plan)
	outcome.Executed = true
	return outcome, err
}

func (e *Engine) execute(ctx context.Context, plan RemovalPlan) (ExecutionResult, error) {
	if e.writer == nil {
		return ExecutionResult{}, errors.New("reconcile: no writer configured")
	}
	executor := &Executor{
		Writer:       e.writer,
		Recorder:     e.recorder,
		GroupTimeout: e.config.GroupTimeout,
		Logger:       e.logger,
	}
	return executor.Apply(ctx, plan)
}

func (e *Engine) read(ctx context.Context, op string, fn func(context.Context) error) error {
	if e.config.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.QueryTimeout)
		defer cancel()
	}
	if err := fn(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
