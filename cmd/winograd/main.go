// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command winograd inspects and exercises the Winograd convolution engine:
// it lists the supported geometries, prints the buffer sizes of a
// convolution, runs one against the direct reference and reports the tile
// dispatch tables and the CPU features in use.
//
// Usage:
//
//	winograd geometries
//	winograd sizes --geometry 4x4_3x3 --input 1x56x56x64 --out-channels 64
//	winograd conv --geometry 2x2_3x3 --input 8x28x28x32 --out-channels 32 --threads 4
//	winograd tables
//	winograd cpu
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	verbosity int
	log       logr.Logger
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{log: logr.Discard()}
	root := &cobra.Command{
		Use:           "winograd",
		Short:         "Winograd convolution transforms on the CPU",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			stdr.SetVerbosity(opts.verbosity)
			opts.log = stdr.New(log.New(cmd.ErrOrStderr(), "", log.LstdFlags))
		},
	}
	root.PersistentFlags().IntVarP(&opts.verbosity, "verbosity", "v", 0, "log verbosity")

	root.AddCommand(
		newGeometriesCommand(),
		newSizesCommand(),
		newConvCommand(opts),
		newTablesCommand(),
		newCPUCommand(),
	)
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "winograd: %v\n", err)
		os.Exit(1)
	}
}
