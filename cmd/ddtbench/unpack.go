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
	"github.com/tinypack/ddt/lib/textui"
)

func cmdUnpack() *cobra.Command {
	var typeFile, inFile, outFile string
	var count int
	var offset int64

	cmd := &cobra.Command{
		Use:   "unpack --type TYPE.json --in IN --out OUT",
		Short: "Unpack a flat byte stream read from IN into count copies of a derived datatype written to OUT",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := dlog.WithField(cmd.Context(), "ddtbench.cmd", "unpack")
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
			trueExtent, errno := table.GetTrueExtent(h)
			if errno != dtype.Success {
				return errno
			}

			packedBytes, err := os.ReadFile(inFile)
			if err != nil {
				return err
			}
			// outType's blocks can be scattered across a span wider than
			// its packed size (e.g. an HVECTOR's stride), and a Resized
			// type can advertise an extent narrower than its data's real
			// footprint; the destination buffer must cover the true
			// extent, not just the packed size or the advertised extent.
			outSize := int64(count)*int64(trueExtent) + offset
			outBytes := make([]byte, outSize)

			cpu := ddev.NewCPUBackend()
			engine := dpack.NewEngine(cpu, nil)
			src := ddev.WrapHostBuffer(inFile, packedBytes)
			dst := ddev.WrapHostBuffer(outFile, outBytes)

			actual, errno := engine.Unpack(ddev.Pointer{Buf: src}, int64(len(packedBytes)), ddev.Pointer{Buf: dst}, count, n, offset, nil)
			if errno != dtype.Success {
				return errno
			}

			if err := os.WriteFile(outFile, outBytes, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "unpacked %v: %v\n", textui.IEC(actual, "B"), textui.Portion[int64]{N: actual, D: int64(len(packedBytes))})
			return nil
		},
	}
	cmd.Flags().StringVar(&typeFile, "type", "", "JSON type description")
	cmd.Flags().StringVar(&inFile, "in", "", "input file holding the flat packed byte stream")
	cmd.Flags().StringVar(&outFile, "out", "", "output file to receive `count` copies of the type")
	cmd.Flags().IntVar(&count, "count", 1, "number of copies of the type present in the output")
	cmd.Flags().Int64Var(&offset, "offset", 0, "byte offset into the type's logical packed stream to start at")
	for _, name := range []string{"type", "in", "out"} {
		_ = cmd.MarkFlagRequired(name)
		_ = cmd.MarkFlagFilename(name)
	}
	return cmd
}
