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
	"github.com/spf13/cobra"

	"github.com/yarugames/bedrockci/pkg/config"
	"github.com/yarugames/bedrockci/pkg/service/archive"
	"github.com/yarugames/bedrockci/pkg/service/filesystem"
	"github.com/yarugames/bedrockci/pkg/service/httpclient"
)

// appVersion is set at build time via -ldflags
var appVersion = "dev"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bedrockci",
		Short: "Validate Minecraft Bedrock packs against a real dedicated server",
		Long: `BedrockCI downloads official Bedrock dedicated server releases and
validates resource and behavior packs by loading them into a throwaway
server instance and classifying its log output.`,
		Version:       appVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		newDownloadCmd(),
		newListCmd(),
		newValidateCmd(),
		newRunCmd(),
	)

	return cmd
}

// newArchiveService wires the default service stack for CLI commands
func newArchiveService() (*archive.DefaultService, filesystem.Service, error) {
	root, err := config.ServerRoot()
	if err != nil {
		return nil, nil, err
	}

	fs := filesystem.NewDefaultService()

	return archive.NewDefaultService(root, fs, httpclient.NewDefaultHTTPClient()), fs, nil
}
