// Copyright 2025 Yaru Games
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

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yarugames/bedrockci/pkg/service/archive"
)

func newListCmd() *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed server versions",
		Long:  "Lists completed server installations, or the upstream catalog with --remote.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, _, err := newArchiveService()
			if err != nil {
				return err
			}

			if remote {
				versions, err := store.ListRemoteVersions(ctx)
				if err != nil {
					return err
				}

				fmt.Println(headingStyle.Render("Available server versions:"))
				for _, v := range versions {
					fmt.Printf("  %s\n", archive.VersionString(v.Version))
				}

				return nil
			}

			instances, err := store.ListInstalled(ctx)
			if err != nil {
				return err
			}
			if len(instances) == 0 {
				fmt.Println("No server versions installed. Run 'bedrockci download' first.")

				return nil
			}

			fmt.Println(headingStyle.Render("Installed server versions:"))
			for _, instance := range instances {
				fmt.Printf("  %s  %s\n", archive.VersionString(instance.Version), dimStyle.Render(instance.Path))
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "list the upstream catalog instead of local installations")

	return cmd
}
