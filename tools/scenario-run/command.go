// Copyright 2023 The Ruletest Authors
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
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newRootCmd() *cobra.Command {
	opts := &Options{}
	root := &cobra.Command{
		Use:          "scenario-run",
		Short:        "Run declarative build-rule scenarios against a real build tool",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.BazelPath, "bazel", "", "build tool binary, defaults to BAZEL_PATH or the PATH lookup")
	root.PersistentFlags().StringVar(&opts.FixtureDir, "fixture-dir", "", "base directory for fixture assets, defaults to runfiles discovery")
	root.PersistentFlags().BoolVar(&opts.Keep, "keep", false, "keep scratch workspaces for inspection")
	root.AddCommand(newRunCmd(opts), newWatchCmd(opts), newListCmd())
	return root
}

func newRunCmd(opts *Options) *cobra.Command {
	var parallel int
	cmd := &cobra.Command{
		Use:   "run <path ...>",
		Short: "Run scenario files, directories or globs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			files, err := Discover(args)
			if err != nil {
				return err
			}
			return runAll(files, opts, parallel)
		},
	}
	cmd.Flags().IntVar(&parallel, "parallel", 1, "number of scenarios to run concurrently")
	return cmd
}

// runAll executes each scenario in its own scratch workspace. Scenarios are
// independent, so they may run concurrently; the steps inside one scenario
// stay strictly sequential.
func runAll(files []string, opts *Options, parallel int) error {
	if parallel < 1 {
		parallel = 1
	}
	var g errgroup.Group
	g.SetLimit(parallel)
	failed := make([]error, len(files))
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			scenario, err := LoadScenario(file)
			if err != nil {
				failed[i] = err
				return nil
			}
			if err := RunScenario(scenario, opts); err != nil {
				failed[i] = fmt.Errorf("%s: %v", file, err)
				log.Printf("FAILED %s", file)
				return nil
			}
			log.Printf("passed %s", file)
			return nil
		})
	}
	g.Wait()
	var errs []error
	for _, err := range failed {
		if err != nil {
			fmt.Println(err)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d out of %d scenarios failed", len(errs), len(files))
	}
	log.Printf("all %d scenarios passed", len(files))
	return nil
}

func newWatchCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <dir>",
		Short: "Rerun the scenarios in a directory whenever a file changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return watchScenarios(args[0], func() {
				files, err := Discover(args)
				if err != nil {
					log.Printf("discover: %v", err)
					return
				}
				if err := runAll(files, opts, 1); err != nil {
					log.Printf("%v", err)
				}
			})
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <path ...>",
		Short: "List scenario names and descriptions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := Discover(args)
			if err != nil {
				return err
			}
			for _, file := range files {
				scenario, err := LoadScenario(file)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", file, scenario.Name, scenario.Description)
			}
			return nil
		},
	}
}
