// Copyright (C) 2023-2026  tinypack authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"
	"os"

	"github.com/datawire/dlib/dlog"
	"github.com/spf13/cobra"

	"github.com/tinypack/ddt/lib/ddev"
	"github.com/tinypack/ddt/lib/dpack"
	"github.com/tinypack/ddt/lib/dtype"
	"github.com/tinypack/ddt/lib/jsonutil"
	"github.com/tinypack/ddt/lib/textui"
)

func cmdPack() *cobra.Command {
	var typeFile, inFile, outFile string
	var count int
	var offset int64
	var dumpJSON bool

	cmd := &cobra.Command{
		Use:   "pack --type TYPE.json --in IN --out OUT",
		Short: "Pack count copies of a derived datatype read from IN into a flat stream written to OUT",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := dlog.WithField(cmd.Context(), "ddtbench.cmd", "pack")
			dlog.Debugf(ctx, "constructing type from %s", typeFile)
			table := dtype.NewHandleTable()
			spec, err := readTypeSpec(typeFile)
			if err != nil {
				return err
			}
			h, err := build(table, spec)
			if err != nil {
				return err
			}
			defer table.Free(h)
			n, errno := table.Lookup(h)
			if errno != dtype.Success {
				return errno
			}
			size, errno := table.GetSize(h)
			if errno != dtype.Success {
				return errno
			}

			inBytes, err := os.ReadFile(inFile)
			if err != nil {
				return err
			}
			need := int64(count)*int64(size) - offset
			if need < 0 {
				need = 0
			}
			outBytes := make([]byte, need)

			cpu := ddev.NewCPUBackend()
			engine := dpack.NewEngine(cpu, nil)
			src := ddev.WrapHostBuffer(inFile, inBytes)
			dst := ddev.WrapHostBuffer(outFile, outBytes)

			actual, errno := engine.Pack(ddev.Pointer{Buf: src}, count, n, offset, ddev.Pointer{Buf: dst}, need, nil)
			if errno != dtype.Success {
				return errno
			}

			if err := os.WriteFile(outFile, outBytes[:actual], 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "packed %v: %v\n", textui.IEC(actual, "B"), textui.Portion[int64]{N: actual, D: need})
			if dumpJSON {
				// Chunked rather than one giant string, so a reader
				// streaming this output never has to buffer the whole
				// packed blob to parse one token.
				if err := jsonutil.EncodeSplitHexString(cmd.OutOrStdout(), outBytes[:actual], textui.Tunable(64)); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&typeFile, "type", "", "JSON type description")
	cmd.Flags().StringVar(&inFile, "in", "", "input file holding `count` copies of the type")
	cmd.Flags().StringVar(&outFile, "out", "", "output file to receive the packed byte stream")
	cmd.Flags().IntVar(&count, "count", 1, "number of copies of the type present in the input")
	cmd.Flags().Int64Var(&offset, "offset", 0, "byte offset into the type's logical packed stream to start at")
	cmd.Flags().BoolVar(&dumpJSON, "json", false, "also print the packed bytes as a split-hex-string JSON array to stdout")
	for _, name := range []string{"type", "in", "out"} {
		_ = cmd.MarkFlagRequired(name)
		_ = cmd.MarkFlagFilename(name)
	}
	return cmd
}
