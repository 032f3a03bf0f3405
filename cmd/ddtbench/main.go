// Copyright (C) 2023-2026  tinypack authors
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Command ddtbench builds derived datatypes from a JSON description and
// drives the pack/unpack engine over them, for exercising and
// benchmarking the engine outside of a Go test binary.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/datawire/dlib/dgroup"
	"github.com/datawire/dlib/dlog"
	"github.com/datawire/ocibuild/pkg/cliutil"
	"github.com/spf13/cobra"

	"github.com/tinypack/ddt/lib/profile"
	"github.com/tinypack/ddt/lib/textui"
)

func main() {
	verbosity := textui.LogLevelFlag{Level: dlog.LogLevelInfo}

	argparser := &cobra.Command{
		Use:   "ddtbench {[flags]|SUBCOMMAND}",
		Short: "Construct derived datatypes and drive pack/unpack over them",

		Args: cliutil.WrapPositionalArgs(cliutil.OnlySubcommands),
		RunE: cliutil.RunSubcommands,

		SilenceErrors: true,
		SilenceUsage:  true,

		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	argparser.SetFlagErrorFunc(cliutil.FlagErrorFunc)
	argparser.SetHelpTemplate(cliutil.HelpTemplate)
	argparser.PersistentFlags().Var(&verbosity, "verbosity", "set the verbosity")
	stopProfile := profile.AddProfileFlags(argparser.PersistentFlags(), "profile-")

	argparser.AddCommand(cmdDescribe())
	argparser.AddCommand(cmdPack())
	argparser.AddCommand(cmdUnpack())

	ctx := context.Background()
	grp := dgroup.NewGroup(ctx, dgroup.GroupConfig{
		EnableSignalHandling: true,
	})
	grp.Go("main", func(ctx context.Context) error {
		logger := textui.NewLogger(os.Stderr, verbosity.Level)
		argparser.SetContext(dlog.WithLogger(ctx, logger))
		return argparser.Execute()
	})
	err := grp.Wait()
	if stopErr := stopProfile(); err == nil {
		err = stopErr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: error: %v\n", os.Args[0], err)
		os.Exit(1)
	}
}
