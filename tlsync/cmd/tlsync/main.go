// Copyright 2026 The tlsync Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// The tlsync command inspects and signs trust documents and queries a running
// tlsync daemon.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tlsync/tlsync/private/app/command"
)

func main() {
	executable := filepath.Base(os.Args[0])
	cmd := newRoot(executable)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(2)
	}
}

func newRoot(executable string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           executable,
		Short:         "tlsync trust list toolbox",
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}
	cmd.AddCommand(
		newSummary(cmd),
		newCertificates(cmd),
		newHistory(cmd),
		newRefresh(cmd),
		newInspect(cmd),
		newSign(cmd),
		command.NewCompletion(cmd),
		command.NewVersion(cmd),
		command.NewGendocs(cmd),
	)
	return cmd
}
