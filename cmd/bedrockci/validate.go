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
	"time"

	"github.com/spf13/cobra"

	"github.com/yarugames/bedrockci/pkg/config"
	"github.com/yarugames/bedrockci/pkg/fsm/session"
	"github.com/yarugames/bedrockci/pkg/pack"
	"github.com/yarugames/bedrockci/pkg/service/archive"
	"github.com/yarugames/bedrockci/pkg/service/filesystem"
)

func newValidateCmd() *cobra.Command {
	var (
		behaviorPack string
		resourcePack string
		version      string
		timeoutSecs  int
		onlyWarn     bool
		failOnWarn   bool
		verbose      bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate resource and behavior packs",
		Long: `Validates packs by loading them into a throwaway copy of an installed
server and classifying the server's log output until it reports ready,
crashes, or the timeout elapses.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, fs, err := newArchiveService()
			if err != nil {
				return err
			}

			cfg, err := config.Load(ctx, fs, config.DefaultFileName)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("bp") && cfg.BehaviorPack != "" {
				behaviorPack = cfg.BehaviorPack
			}
			if !cmd.Flags().Changed("rp") && cfg.ResourcePack != "" {
				resourcePack = cfg.ResourcePack
			}
			if !cmd.Flags().Changed("version") && cfg.Version != "" {
				version = cfg.Version
			}
			if !cmd.Flags().Changed("timeout") && cfg.TimeoutSeconds > 0 {
				timeoutSecs = cfg.TimeoutSeconds
			}
			if !cmd.Flags().Changed("only-warn") {
				onlyWarn = cfg.OnlyWarn
			}
			if !cmd.Flags().Changed("fail-on-warn") {
				failOnWarn = cfg.FailOnWarn
			}
			if behaviorPack == "" || resourcePack == "" {
				return fmt.Errorf("both --bp and --rp are required (or set behavior_pack/resource_pack in %s)", config.DefaultFileName)
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

			opts := session.Options{
				Deadline: time.Duration(timeoutSecs) * time.Second,
				Policy:   session.Policy{OnlyWarn: onlyWarn, FailOnWarn: failOnWarn},
			}
			if verbose {
				opts.OnLine = func(line string) {
					fmt.Println(dimStyle.Render(line))
				}
			}

			result, err := session.Validate(ctx, fs, instance, packs, opts)
			if err != nil {
				return err
			}

			return renderResult(result)
		},
	}

	cmd.Flags().StringVar(&behaviorPack, "bp", "", "path to the behavior pack")
	cmd.Flags().StringVar(&resourcePack, "rp", "", "path to the resource pack")
	cmd.Flags().StringVarP(&version, "version", "v", "", "server version to validate against (latest installed when unset)")
	cmd.Flags().IntVarP(&timeoutSecs, "timeout", "t", 60, "seconds to wait for the server to report ready")
	cmd.Flags().BoolVar(&onlyWarn, "only-warn", false, "demote errors to warnings; never fail the run on diagnostics")
	cmd.Flags().BoolVar(&failOnWarn, "fail-on-warn", false, "fail the run on warnings too")
	cmd.Flags().BoolVarP(&verbose, "verbose", "l", false, "print all server output")
	cmd.MarkFlagsMutuallyExclusive("only-warn", "fail-on-warn")

	return cmd
}

// resolveInstance picks an installed server, by exact version or latest
func resolveInstance(ctx context.Context, store archive.Service, version string) (*archive.InstalledInstance, error) {
	if version == "" {
		instance, err := store.LatestInstalled(ctx)
		if err != nil {
			return nil, fmt.Errorf("no server versions installed; run 'bedrockci download --accept-eula' first: %w", err)
		}

		return instance, nil
	}

	instances, err := store.ListInstalled(ctx)
	if err != nil {
		return nil, err
	}
	for i := range instances {
		if archive.VersionString(instances[i].Version) == version {
			return &instances[i], nil
		}
	}

	return nil, fmt.Errorf("server version %s not installed; run 'bedrockci download --version %s --accept-eula' first", version, version)
}

// loadPacks reads both pack manifests, behavior pack first
func loadPacks(ctx context.Context, fs filesystem.Service, behaviorPack, resourcePack string) ([]*pack.Reference, error) {
	bp, err := pack.Load(ctx, fs, behaviorPack, pack.KindBehavior)
	if err != nil {
		return nil, err
	}
	rp, err := pack.Load(ctx, fs, resourcePack, pack.KindResource)
	if err != nil {
		return nil, err
	}

	return []*pack.Reference{bp, rp}, nil
}

// renderResult prints diagnostics and the verdict; a failed validation is
// returned as an error so the process exits non-zero for CI.
func renderResult(result *session.Result) error {
	fmt.Println(headingStyle.Render("Validation results:"))

	if errs := result.Errors(); len(errs) > 0 {
		fmt.Println(errorStyle.Render("Errors:"))
		for _, d := range errs {
			fmt.Printf("  %s%s\n", errorStyle.Render(d.Message), packSuffix(d))
		}
	}
	if warns := result.Warnings(); len(warns) > 0 {
		fmt.Println(warnStyle.Render("Warnings:"))
		for _, d := range warns {
			fmt.Printf("  %s%s\n", warnStyle.Render(d.Message), packSuffix(d))
		}
	}

	errors := len(result.Errors())
	warnings := len(result.Warnings())

	switch {
	case result.Passed:
		fmt.Printf("%s (%d errors, %d warnings)\n", okStyle.Render("Validation passed"), errors, warnings)

		return nil
	case result.Reason != session.ReasonReadyDetected:
		return fmt.Errorf("validation failed: server did not become ready (%s)", result.Reason)
	default:
		return fmt.Errorf("validation failed with %d errors and %d warnings", errors, warnings)
	}
}

// packSuffix renders the originating pack of a diagnostic, when known
func packSuffix(d session.Diagnostic) string {
	if d.SourcePack == nil {
		return ""
	}

	return dimStyle.Render(fmt.Sprintf("  [%s %s]", d.SourcePack.Kind, d.SourcePack.Name))
}
