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
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"

	"github.com/yarugames/bedrockci/pkg/service/archive"
)

// eulaNotice is printed when a download is attempted without --accept-eula
const eulaNotice = `By proceeding, you agree to the Minecraft End User License Agreement:
  https://minecraft.net/eula
and the Privacy Policy:
  https://go.microsoft.com/fwlink/?LinkId=521839

If you do not agree, you must not use this software.
Re-run with --accept-eula to continue.`

func newDownloadCmd() *cobra.Command {
	var (
		version    string
		acceptEULA bool
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download a Bedrock dedicated server release",
		Long:  "Downloads and installs a specific server version; the newest release from the upstream catalog when no version is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, _, err := newArchiveService()
			if err != nil {
				return err
			}

			if version == "" {
				latest, err := store.LatestRemoteVersion(ctx)
				if err != nil {
					return err
				}
				version = archive.VersionString(latest.Version)
				fmt.Printf("No version specified, using latest release: %s\n", infoStyle.Render(version))
			}

			opts := archive.InstallOptions{AcceptEULA: acceptEULA, ForceReinstall: force}

			// The engine never retries on its own; transient download
			// failures are retried here, in the calling tool.
			var instance *archive.InstalledInstance
			operation := func() error {
				var err error
				instance, err = store.EnsureInstalled(ctx, version, opts)
				if err != nil && !errors.Is(err, archive.ErrDownloadFailed) {
					return backoff.Permanent(err)
				}

				return err
			}

			err = backoff.Retry(operation,
				backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx))
			if errors.Is(err, archive.ErrEulaNotAccepted) {
				fmt.Println(eulaNotice)

				return err
			}
			if err != nil {
				return err
			}

			fmt.Printf("%s %s installed at %s\n",
				okStyle.Render("Server"), archive.VersionString(instance.Version), dimStyle.Render(instance.Path))

			return nil
		},
	}

	cmd.Flags().StringVarP(&version, "version", "v", "", `specific version to download (e.g. "1.21.84.1")`)
	cmd.Flags().BoolVar(&acceptEULA, "accept-eula", false, "accept the Minecraft EULA and Privacy Policy")
	cmd.Flags().BoolVar(&force, "force-reinstall", false, "reinstall even if the version is already present")

	return cmd
}
