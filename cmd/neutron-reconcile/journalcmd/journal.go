// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

// Package journalcmd implements the "journal" command group, which
// reads the removal journal written by clean passes.
package journalcmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/yeungp/OpenStack-tools/cmd/neutron-reconcile/cli"
	"github.com/yeungp/OpenStack-tools/cmd/neutron-reconcile/pass"
	"github.com/yeungp/OpenStack-tools/lib/codec"
	"github.com/yeungp/OpenStack-tools/lib/journal"
	"github.com/yeungp/OpenStack-tools/lib/reconcile"
)

// Command returns the "journal" subcommand group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "journal",
		Summary: "Read the removal journal",
		Description: `Every removal group committed by a clean pass is appended to the
journal named by output.journal as one CBOR record. A .zst suffix
means the journal is zstd-compressed.`,
		Subcommands: []*cli.Command{
			showCommand(),
		},
	}
}

type showParams struct {
	pass.Flags
	cli.JSONOutput
	File     string `json:"-" flag:"file,f"   desc:"journal file (default: output.journal from the config)"`
	RunID    string `json:"-" flag:"run"      desc:"only show records of this run"`
	Diagnose bool   `json:"-" flag:"diagnose" desc:"print each record in CBOR diagnostic notation"`
}

// entry is one journal record in JSON output.
type entry struct {
	RunID    string              `json:"run_id"   desc:"pass that committed the group"`
	Time     time.Time           `json:"time"     desc:"commit time"`
	Kind     reconcile.PlanKind  `json:"kind"     desc:"assignments or orphans"`
	Group    string              `json:"group"    desc:"removal group key"`
	Removals []reconcile.Removal `json:"removals" desc:"planned removals of the group"`
	Rows     int64               `json:"rows"     desc:"rows deleted"`
}

func showCommand() *cli.Command {
	var params showParams

	return &cli.Command{
		Name:    "show",
		Summary: "List journal records",
		Description: `Print one line per committed removal group: when it was committed,
by which run, and how many rows it deleted.`,
		Usage:  "neutron-reconcile journal show [flags]",
		Params: func() any { return &params },
		Examples: []cli.Example{
			{
				Description: "Show the configured journal",
				Command:     "neutron-reconcile journal show",
			},
			{
				Description: "Inspect one run's raw records",
				Command:     "neutron-reconcile journal show --file /var/log/neutron-reconcile/journal.cbor.zst --run 5b0e... --diagnose",
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			return runShow(&params, os.Stdout, logger)
		},
	}
}

func runShow(params *showParams, out io.Writer, logger *slog.Logger) error {
	if params.Diagnose && params.OutputJSON {
		return cli.Validation("--diagnose and --json are mutually exclusive")
	}
	path := params.File
	if path == "" {
		cfg, err := params.LoadConfig()
		if err != nil {
			return err
		}
		if cfg.Output.Journal == "" {
			return cli.Validation("no journal configured: set output.journal or pass --file")
		}
		path = cfg.Output.Journal
	}
	logger.Debug("reading journal", "path", path)

	entries := []entry{}
	writer := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if !params.OutputJSON && !params.Diagnose {
		fmt.Fprintf(writer, "TIME\tRUN\tKIND\tGROUP\tROWS\n")
	}
	err := journal.Scan(path, func(record journal.Record, raw []byte) error {
		if params.RunID != "" && record.RunID != params.RunID {
			return nil
		}
		switch {
		case params.OutputJSON:
			entries = append(entries, entry(record))
		case params.Diagnose:
			notation, err := codec.Diagnose(raw)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, notation)
		default:
			fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%d\n",
				record.Time.UTC().Format(time.RFC3339), record.RunID, record.Kind, record.Group, record.Rows)
		}
		return nil
	})
	if err != nil {
		return pass.Classify(err)
	}
	if done, err := params.EmitJSON(out, entries); done {
		return err
	}
	if params.Diagnose {
		return nil
	}
	return writer.Flush()
}
