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
	"os"
	"os/exec"
	"testing"
)

// FindBazel resolves the build tool binary. BAZEL_PATH overrides the lookup
// and is trusted as-is, otherwise the PATH is searched for "bazel".
func FindBazel() (string, error) {
	if path, exists := os.LookupEnv("BAZEL_PATH"); exists {
		return path, nil
	}
	return exec.LookPath("bazel")
}

// SkipWithoutBazel skips tests that need a real build tool binary.
func SkipWithoutBazel(t *testing.T) {
	if _, err := FindBazel(); err != nil {
		t.Skip("no bazel binary found, install bazel or set BAZEL_PATH")
	}
}

// KeepWorkspaces reports whether scratch workspaces should survive teardown
// for post-mortem inspection.
func KeepWorkspaces() bool {
	return os.Getenv("RULETEST_KEEP_WORKSPACE") != ""
}
