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

package driver

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"rulekit.dev/ruletest/test/bazele2e/env"
)

// Loads resources in the repo test data directories.
// Functions here panic since test artifacts are usually loaded prior to
// execution, so there is no clean-up necessary.

// RepoRoot returns the checkout root of this repository. The module layout
// is tried first so plain `go test` runs need no build tool, then the build
// tool is asked for its workspace.
func RepoRoot() string {
	if root, err := env.ModuleRoot(); err == nil {
		return root
	}
	workspace, err := exec.Command("bazel", "info", "workspace").Output()
	if err != nil {
		panic(err)
	}
	return strings.TrimSuffix(string(workspace), "\n")
}

// TestPath normalizes a repo-relative test data path.
func TestPath(testFileName string) string {
	return filepath.Join(RepoRoot(), testFileName)
}

// LoadTestData loads a test file content.
func LoadTestData(testFileName string) string {
	data, err := os.ReadFile(TestPath(testFileName))
	if err != nil {
		panic(err)
	}
	return string(data)
}

// LoadTestData loads a test file and fills in template variables.
func (p *Params) LoadTestData(testFileName string) string {
	data := LoadTestData(testFileName)
	out, err := p.Fill(data)
	if err != nil {
		panic(err)
	}
	return out
}
