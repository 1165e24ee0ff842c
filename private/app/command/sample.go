// Copyright 2020 Anapaya Systems
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

package command

import (
	"bytes"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tlsync/tlsync/private/config"
)

// NewSample creates a command that groups the sample sub-commands.
func NewSample(pather Pather, cmds ...func(Pather) *cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Display sample files",
		Args:  cobra.NoArgs,
	}
	for _, f := range cmds {
		cmd.AddCommand(f(cmd))
	}
	return cmd
}

// NewSampleConfig returns the constructor of the command that displays the
// sample configuration written by sampler.
func NewSampleConfig(sampler config.Sampler) func(Pather) *cobra.Command {
	return func(pather Pather) *cobra.Command {
		return &cobra.Command{
			Use:     "config",
			Short:   "Display sample configuration file",
			Example: fmt.Sprintf("  %s config > tlsyncd.toml", pather.CommandPath()),
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				var buf bytes.Buffer
				sampler.Sample(&buf, nil, nil)
				_, err := io.Copy(cmd.OutOrStdout(), &buf)
				return err
			},
		}
	}
}
