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
	"fmt"
	"os"
	"path/filepath"
)

// Output root allocation scheme
// In order to run the tests in parallel, each test owns a distinct output
// user root for the build tool, keyed by its stable test id. The tool holds
// a lock per output root, so two tests never contend for the same server.
// Roots are reused across runs to keep the tool's extracted install warm.

// TestInventory registers every e2e test by name. A test's position in the
// list is its stable id.
type TestInventory struct {
	Tests []string
}

// GetTestIndex returns the stable id of a registered test name.
func (i *TestInventory) GetTestIndex(name string) (uint16, bool) {
	for n, t := range i.Tests {
		if t == name {
			return uint16(n), true
		}
	}
	return 0, false
}

// OutputUserRoot returns the build tool output user root owned by the test
// with the given id, creating it if needed.
func OutputUserRoot(id uint16) (string, error) {
	root := filepath.Join(os.TempDir(), fmt.Sprintf("ruletest-out-%d", id))
	if err := os.MkdirAll(root, 0755); err != nil {
		return "", err
	}
	return root, nil
}
