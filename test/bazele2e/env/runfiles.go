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
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Fixtures resolves logical fixture paths, repo-relative with forward
// slashes, to files on disk. Scenarios receive a resolver explicitly instead
// of consulting process-wide state, so a suite can point a scenario at any
// fixture tree.
type Fixtures struct {
	manifest map[string]string
	bases    []string
}

// Runfiles trees qualify paths with the workspace name. Both the classic
// and the bzlmod spelling are tried after the unqualified path.
var workspacePrefixes = []string{"ruletest/", "_main/"}

// NewFixtures returns a resolver rooted at an explicit base directory.
func NewFixtures(base string) *Fixtures {
	return &Fixtures{bases: []string{base}}
}

// DiscoverFixtures locates fixtures the way a test binary launched by the
// build tool would: a runfiles manifest first, then runfiles directories,
// then the enclosing module checkout so plain `go test` runs find in-repo
// assets.
func DiscoverFixtures() (*Fixtures, error) {
	if manifest := os.Getenv("RUNFILES_MANIFEST_FILE"); manifest != "" {
		m, err := readManifest(manifest)
		if err != nil {
			return nil, err
		}
		return &Fixtures{manifest: m}, nil
	}
	var bases []string
	for _, key := range []string{"RUNFILES_DIR", "TEST_SRCDIR"} {
		if dir := os.Getenv(key); dir != "" {
			bases = append(bases, dir)
		}
	}
	if argv0, err := os.Executable(); err == nil {
		if dir := argv0 + ".runfiles"; isDir(dir) {
			bases = append(bases, dir)
		}
	}
	if root, err := ModuleRoot(); err == nil {
		bases = append(bases, root)
	}
	if len(bases) == 0 {
		return nil, errors.New("no runfiles location found")
	}
	return &Fixtures{bases: bases}, nil
}

// Path resolves a logical fixture path to a file that exists on disk. The
// error names every location that was consulted.
func (f *Fixtures) Path(logical string) (string, error) {
	if err := validateFixturePath(logical); err != nil {
		return "", err
	}
	if f.manifest != nil {
		if p, ok := f.manifest[logical]; ok {
			return p, nil
		}
		for _, prefix := range workspacePrefixes {
			if p, ok := f.manifest[prefix+logical]; ok {
				return p, nil
			}
		}
		return "", fmt.Errorf("fixture %q not present in runfiles manifest", logical)
	}
	var tried []string
	for _, base := range f.bases {
		for _, prefix := range append([]string{""}, workspacePrefixes...) {
			p := filepath.Join(base, filepath.FromSlash(prefix+logical))
			if _, err := os.Stat(p); err == nil {
				return p, nil
			}
			tried = append(tried, p)
		}
	}
	return "", fmt.Errorf("fixture %q not found, tried: %s", logical, strings.Join(tried, ", "))
}

func validateFixturePath(rpath string) error {
	if rpath == "" {
		return errors.New("empty fixture path")
	}
	if strings.HasPrefix(rpath, "/") || filepath.IsAbs(rpath) {
		return fmt.Errorf("fixture path %q must be relative", rpath)
	}
	if strings.HasPrefix(rpath, "../") ||
		strings.Contains(rpath, "/..") ||
		strings.HasPrefix(rpath, "./") ||
		strings.Contains(rpath, "/./") ||
		strings.HasSuffix(rpath, "/.") ||
		strings.Contains(rpath, "//") {
		return fmt.Errorf("fixture path %q is not normalized", rpath)
	}
	return nil
}

// readManifest parses a runfiles manifest: one entry per line, the logical
// path separated from the file path by the first space.
func readManifest(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	entries := map[string]string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if tokens := strings.SplitN(line, " ", 2); len(tokens) == 2 {
			entries[tokens[0]] = tokens[1]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// ModuleRoot walks from this source file up to the directory holding go.mod.
func ModuleRoot() (string, error) {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "", errors.New("caller information unavailable")
	}
	root := filepath.Join(filepath.Dir(file), "..", "..", "..")
	if _, err := os.Stat(filepath.Join(root, "go.mod")); err != nil {
		return "", fmt.Errorf("module root not found at %s", root)
	}
	return root, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
