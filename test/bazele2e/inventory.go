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

package bazele2e

import (
	env "rulekit.dev/ruletest/test/bazele2e/env"
)

// Test ids used for scratch resource allocation. Every e2e test is listed
// here so its output user root stays stable across runs.
const (
	ForeachSrcsAcrossPackagesTest uint16 = iota
	ForeachSrcsMissingSourceTest
	ForeachSrcsCommandFailureTest
)

var RuleE2ETests *env.TestInventory

func init() {
	// TODO: generate this list from the _test.go files.
	RuleE2ETests = &env.TestInventory{
		Tests: []string{
			"TestForeachSrcsAcrossPackages",
			"TestForeachSrcsMissingSource",
			"TestForeachSrcsCommandFailure",
		},
	}
}
