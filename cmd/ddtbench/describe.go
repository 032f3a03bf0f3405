// Copyright (C) 2023-2026  tinypack authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"

	"github.com/datawire/dlib/dlog"
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/tinypack/ddt/lib/binstruct"
	"github.com/tinypack/ddt/lib/binstruct/binint"
	"github.com/tinypack/ddt/lib/dtype"
	"github.com/tinypack/ddt/lib/jsonutil"
	"github.com/tinypack/ddt/lib/textui"
)

// metricsRecord is a binstruct-tagged mirror of dtype.Metrics, dense
// and gap-free so binstruct.Marshal/Unmarshal can drive it directly;
// it's what --json-binary hands to jsonutil.Binary for encoding.
type metricsRecord struct {
	Size      binint.I64le `bin:"off=0, siz=8"`
	Extent    binint.I64le `bin:"off=8, siz=8"`
	LB        binint.I64le `bin:"off=16, siz=8"`
	UB        binint.I64le `bin:"off=24, siz=8"`
	TrueLB    binint.I64le `bin:"off=32, siz=8"`
	TrueUB    binint.I64le `bin:"off=40, siz=8"`
	Alignment binint.I64le  `bin:"off=48, siz=8"`
	_         binstruct.End `bin:"off=56"`
}

func cmdDescribe() *cobra.Command {
	var debug bool
	var jsonBinary bool
	cmd := &cobra.Command{
		Use:   "describe TYPE.json",
		Short: "Construct a derived datatype from a JSON description and print its metrics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := dlog.WithField(cmd.Context(), "ddtbench.cmd", "describe")
			dlog.Debugf(ctx, "reading type description from %s", args[0])
			spec, err := readTypeSpec(args[0])
			if err != nil {
				return err
			}
			table := dtype.NewHandleTable()
			h, err := build(table, spec)
			if err != nil {
				return err
			}
			n, errno := table.Lookup(h)
			if errno != dtype.Success {
				return errno
			}
			m := n.Metrics
			fmt.Fprintf(cmd.OutOrStdout(), "kind:       %v\n", n.Kind)
			fmt.Fprintf(cmd.OutOrStdout(), "size:       %v\n", textui.IEC(int64(m.Size), "B"))
			fmt.Fprintf(cmd.OutOrStdout(), "extent:     %v\n", textui.IEC(int64(m.Extent), "B"))
			fmt.Fprintf(cmd.OutOrStdout(), "lb/ub:      [%v, %v)\n", m.LB, m.UB)
			fmt.Fprintf(cmd.OutOrStdout(), "true_lb/ub: [%v, %v)\n", m.TrueLB, m.TrueUB)
			fmt.Fprintf(cmd.OutOrStdout(), "alignment:  %v\n", m.Alignment)
			fmt.Fprintf(cmd.OutOrStdout(), "is_contig:  %v\n", m.IsContig)
			fmt.Fprintf(cmd.OutOrStdout(), "num_contig: %v\n", m.NumContig)
			fmt.Fprintf(cmd.OutOrStdout(), "tree_depth: %v\n", m.TreeDepth)
			if debug {
				spew.Fdump(cmd.OutOrStdout(), n)
			}
			if jsonBinary {
				rec := jsonutil.Binary[metricsRecord]{Val: metricsRecord{
					Size:      binint.I64le(m.Size),
					Extent:    binint.I64le(m.Extent),
					LB:        binint.I64le(m.LB),
					UB:        binint.I64le(m.UB),
					TrueLB:    binint.I64le(m.TrueLB),
					TrueUB:    binint.I64le(m.TrueUB),
					Alignment: binint.I64le(m.Alignment),
				}}
				if err := rec.EncodeJSON(cmd.OutOrStdout()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "dump the full constructed type tree with go-spew")
	cmd.Flags().BoolVar(&jsonBinary, "json-binary", false, "also print the metrics as a binstruct-encoded split-hex-string JSON value")
	return cmd
}
