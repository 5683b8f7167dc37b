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
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"rulekit.dev/ruletest/test/bazele2e/driver"
	"rulekit.dev/ruletest/test/bazele2e/env"
)

// Scenario is one declarative test case: files to materialize in a scratch
// workspace and tool invocations to run against them. The same driver the Go
// suites use executes it, step by step.
type Scenario struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Vars        map[string]string `yaml:"vars"`
	Files       []File            `yaml:"files"`
	Steps       []Invocation      `yaml:"steps"`
}

// File is one workspace file. Exactly one content source applies: Fixture
// names an asset to copy, Lines hold the content to write. Build marks the
// file as a build manifest.
type File struct {
	Path    string   `yaml:"path"`
	Fixture string   `yaml:"fixture"`
	Build   bool     `yaml:"build"`
	Lines   []string `yaml:"lines"`
}

// Invocation is one tool run with an expected outcome.
type Invocation struct {
	Command string   `yaml:"command"`
	Target  string   `yaml:"target"`
	Flags   []string `yaml:"flags"`
	Expect  string   `yaml:"expect"`
	Message string   `yaml:"message"`
}

// ParseScenario decodes a scenario strictly: unknown fields are errors, so a
// typo in a scenario file cannot silently drop an assertion.
func ParseScenario(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	s := &Scenario{}
	if err := dec.Decode(s); err != nil {
		return nil, err
	}
	return s, s.validate()
}

// LoadScenario reads and parses one scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %v", path, err)
	}
	return s, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario has no name")
	}
	for _, f := range s.Files {
		if f.Path == "" {
			return fmt.Errorf("file entry has no path")
		}
		if (f.Fixture == "") == (len(f.Lines) == 0) {
			return fmt.Errorf("file %q needs exactly one of fixture or lines", f.Path)
		}
		if f.Fixture != "" && f.Build {
			return fmt.Errorf("file %q cannot be both a fixture and a manifest", f.Path)
		}
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("scenario %q has no steps", s.Name)
	}
	for _, st := range s.Steps {
		if st.Command != "build" && st.Command != "test" {
			return fmt.Errorf("step command %q is not build or test", st.Command)
		}
		if st.Target == "" {
			return fmt.Errorf("%s step has no target", st.Command)
		}
		switch st.Expect {
		case "", "success", "failure":
		default:
			return fmt.Errorf("step expect %q is not success or failure", st.Expect)
		}
		if st.Message != "" && st.Expect != "failure" {
			return fmt.Errorf("step message %q only applies to expect: failure", st.Message)
		}
	}
	return nil
}

// Driver converts the declarative form into driver steps, files first in
// declaration order, then the invocations.
func (s *Scenario) Driver() *driver.Scenario {
	steps := make([]driver.Step, 0, len(s.Files)+len(s.Steps))
	for _, f := range s.Files {
		switch {
		case f.Fixture != "":
			steps = append(steps, &driver.FixtureFile{Source: f.Fixture, Dest: f.Path})
		case f.Build:
			steps = append(steps, &driver.BuildFile{Path: f.Path, Lines: f.Lines})
		default:
			steps = append(steps, &driver.SourceFile{Path: f.Path, Lines: f.Lines})
		}
	}
	for _, st := range s.Steps {
		switch {
		case st.Command == "build" && st.Expect == "failure":
			steps = append(steps, &driver.BuildFails{Target: st.Target, Flags: st.Flags, Message: st.Message})
		case st.Command == "build":
			steps = append(steps, &driver.Build{Target: st.Target, Flags: st.Flags})
		case st.Expect == "failure":
			steps = append(steps, &driver.TestFails{Target: st.Target, Flags: st.Flags, Message: st.Message})
		default:
			steps = append(steps, &driver.TestPasses{Target: st.Target, Flags: st.Flags})
		}
	}
	return &driver.Scenario{Steps: steps}
}

// Options configure scenario execution, injected from CLI flags.
type Options struct {
	// BazelPath overrides build tool resolution.
	BazelPath string
	// FixtureDir overrides fixture discovery with an explicit base path.
	FixtureDir string
	// Keep leaves scratch workspaces behind for inspection.
	Keep bool
}

func (o *Options) tool() (*env.Tool, error) {
	path := o.BazelPath
	if path == "" {
		var err error
		if path, err = env.FindBazel(); err != nil {
			return nil, err
		}
	}
	return &env.Tool{Path: path}, nil
}

func (o *Options) fixtures() (*env.Fixtures, error) {
	if o.FixtureDir != "" {
		return env.NewFixtures(o.FixtureDir), nil
	}
	return env.DiscoverFixtures()
}

// RunScenario executes one scenario in a fresh scratch workspace.
func RunScenario(s *Scenario, opts *Options) error {
	tool, err := opts.tool()
	if err != nil {
		return err
	}
	fixtures, err := opts.fixtures()
	if err != nil {
		return err
	}
	ws, err := env.NewWorkspace("")
	if err != nil {
		return err
	}
	defer func() {
		if opts.Keep || env.KeepWorkspaces() {
			log.Printf("keeping workspace %v", ws.Root())
			return
		}
		if err := ws.Remove(); err != nil {
			log.Printf("failed to remove workspace %v: %v", ws.Root(), err)
		}
	}()
	log.Printf("scenario %q in %v", s.Name, ws.Root())
	vars := s.Vars
	if vars == nil {
		vars = map[string]string{}
	}
	return s.Driver().Run(&driver.Params{
		Workspace: ws,
		Fixtures:  fixtures,
		Tool:      tool,
		Vars:      vars,
	})
}

// Discover resolves CLI path arguments to scenario files: plain files pass
// through, directories are searched recursively, everything else is treated
// as a glob pattern. The result is sorted and de-duplicated.
func Discover(args []string) ([]string, error) {
	seen := map[string]bool{}
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}
	for _, arg := range args {
		info, err := os.Stat(arg)
		switch {
		case err == nil && info.IsDir():
			matches, err := doublestar.FilepathGlob(filepath.Join(arg, "**", "*.yaml"))
			if err != nil {
				return nil, err
			}
			for _, m := range matches {
				add(m)
			}
		case err == nil:
			add(arg)
		default:
			matches, err := doublestar.FilepathGlob(arg)
			if err != nil {
				return nil, fmt.Errorf("bad pattern %q: %v", arg, err)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("no scenarios match %q", arg)
			}
			for _, m := range matches {
				if strings.HasSuffix(m, ".yaml") || strings.HasSuffix(m, ".yml") {
					add(m)
				}
			}
		}
	}
	sort.Strings(files)
	return files, nil
}
