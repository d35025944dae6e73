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
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yarugames/bedrockci/pkg/classify"
	"github.com/yarugames/bedrockci/pkg/service/archive"
	"github.com/yarugames/bedrockci/pkg/service/process"
	"github.com/yarugames/bedrockci/pkg/service/workspace"
)

func newRunCmd() *cobra.Command {
	var (
		behaviorPack string
		resourcePack string
		version      string
		verbose      bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a server with your packs for interactive testing",
		Long: `Starts a throwaway server with the given packs symlinked in, so pack
edits are picked up on restart. The server runs until Ctrl+C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			store, fs, err := newArchiveService()
			if err != nil {
				return err
			}

			instance, err := resolveInstance(ctx, store, version)
			if err != nil {
				return err
			}
			fmt.Printf("Using server version %s\n", infoStyle.Render(archive.VersionString(instance.Version)))

			packs, err := loadPacks(ctx, fs, behaviorPack, resourcePack)
			if err != nil {
				return err
			}

			ws, err := workspace.Create(ctx, fs, instance, packs, workspace.Options{LinkPacks: true})
			if err != nil {
				return err
			}
			cleanupCtx := context.WithoutCancel(ctx)
			defer func() {
				_ = ws.Destroy(cleanupCtx)
			}()

			proc, err := process.Launch(ctx, ws.ServerBinary(), ws.Path(), nil)
			if err != nil {
				return err
			}

			fmt.Println(okStyle.Render("Server starting, press Ctrl+C to stop."))

			for {
				select {
				case line, ok := <-proc.Lines():
					if !ok {
						fmt.Println(warnStyle.Render("Server exited."))

						return nil
					}
					printServerLine(line, verbose)
				case <-ctx.Done():
					fmt.Println(warnStyle.Render("Stopping server..."))
					if err := proc.Stop(cleanupCtx, 10*time.Second); err != nil {
						return err
					}
					fmt.Println(okStyle.Render("Server stopped."))

					return nil
				}
			}
		},
	}

	cmd.Flags().StringVar(&behaviorPack, "bp", "", "path to the behavior pack")
	cmd.Flags().StringVar(&resourcePack, "rp", "", "path to the resource pack")
	cmd.Flags().StringVarP(&version, "version", "v", "", "server version to run (latest installed when unset)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "l", false, "print all server output")
	_ = cmd.MarkFlagRequired("bp")
	_ = cmd.MarkFlagRequired("rp")

	return cmd
}

// printServerLine colors interactive server output by severity.
// Non-verbose mode hides unclassified chatter except player activity.
func printServerLine(line string, verbose bool) {
	res := classify.Classify(line)

	switch {
	case res.Signal == classify.SignalReady:
		fmt.Println(okStyle.Render("Server is ready for connections."))
	case res.Signal == classify.SignalFatal:
		fmt.Println(errorStyle.Render(line))
	case res.Diagnostic != nil && res.Diagnostic.Kind == classify.KindError:
		fmt.Println(errorStyle.Render(line))
	case res.Diagnostic != nil:
		fmt.Println(warnStyle.Render(line))
	case verbose:
		fmt.Println(dimStyle.Render(line))
	case strings.Contains(line, "Player connected") || strings.Contains(line, "Player disconnected") || strings.Contains(line, "[Chat]"):
		fmt.Println(infoStyle.Render(line))
	}
}
