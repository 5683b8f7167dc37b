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

package env

import (
	"log"
	"os"
	"testing"
)

// TestSetup stores the scratch state for one e2e test: the workspace the
// scenario builds in and the resolved build tool it invokes.
type TestSetup struct {
	t        *testing.T
	testName uint16

	ws       *Workspace
	tool     *Tool
	fixtures *Fixtures
	home     string

	// ToolPath overrides build tool resolution.
	ToolPath string

	// FixtureDir overrides fixture discovery with an explicit base path.
	FixtureDir string

	// ExtraStartupArgs are appended to the tool's startup arguments.
	ExtraStartupArgs []string
}

// Tool is a resolved build tool binary together with the startup arguments
// and the client environment every invocation uses.
type Tool struct {
	Path        string
	StartupArgs []string
	Env         []string
}

// NewTestSetup creates a new TestSetup for a registered test id.
func NewTestSetup(name uint16, t *testing.T) *TestSetup {
	return &TestSetup{
		t:        t,
		testName: name,
	}
}

// SetUp creates the scratch workspace and resolves the build tool. The
// invocation environment is rebuilt from scratch rather than inherited:
// PATH passes through, HOME and TMPDIR point at per-test scratch dirs, so a
// user's rc files and caches cannot leak into scenarios.
func (s *TestSetup) SetUp() error {
	ws, err := NewWorkspace("")
	if err != nil {
		return err
	}
	s.ws = ws

	s.home, err = os.MkdirTemp("", "ruletest-home-")
	if err != nil {
		return err
	}

	path := s.ToolPath
	if path == "" {
		if path, err = FindBazel(); err != nil {
			return err
		}
	}
	outputRoot, err := OutputUserRoot(s.testName)
	if err != nil {
		return err
	}
	s.tool = &Tool{
		Path: path,
		StartupArgs: append([]string{
			"--output_user_root=" + outputRoot,
			"--nosystem_rc",
			"--nohome_rc",
		}, s.ExtraStartupArgs...),
		Env: []string{
			"PATH=" + os.Getenv("PATH"),
			"HOME=" + s.home,
			"TMPDIR=" + s.home,
		},
	}

	if s.FixtureDir != "" {
		s.fixtures = NewFixtures(s.FixtureDir)
	} else if s.fixtures, err = DiscoverFixtures(); err != nil {
		return err
	}
	return nil
}

// TearDown removes the scratch state unless keep-workspace is requested.
func (s *TestSetup) TearDown() {
	if KeepWorkspaces() {
		log.Printf("keeping workspace %v", s.ws.Root())
		return
	}
	if s.ws != nil {
		if err := s.ws.Remove(); err != nil {
			log.Printf("failed to remove workspace %v: %v", s.ws.Root(), err)
		}
	}
	if s.home != "" {
		os.RemoveAll(s.home)
	}
}

// Workspace returns the scratch workspace. Only valid after SetUp.
func (s *TestSetup) Workspace() *Workspace {
	return s.ws
}

// Tool returns the resolved build tool. Only valid after SetUp.
func (s *TestSetup) Tool() *Tool {
	return s.tool
}

// Fixtures returns the fixture resolver. Only valid after SetUp.
func (s *TestSetup) Fixtures() *Fixtures {
	return s.fixtures
}
