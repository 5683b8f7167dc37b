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
	"io"
	"os"
	"path/filepath"
	"strings"
)

// WorkspaceMarker is the file whose presence makes a directory a workspace
// root. The build tool walks up from its working directory until it finds a
// directory containing this file.
const WorkspaceMarker = "WORKSPACE"

// Workspace is a scratch build workspace rooted at a directory that contains
// a WORKSPACE marker file. All file operations take workspace-relative,
// slash-separated paths.
type Workspace struct {
	root string
}

// NewWorkspace creates the workspace marker in dir and returns the
// workspace. An empty dir allocates a fresh temp directory. A directory that
// already carries a marker is rejected so tests cannot silently share state.
func NewWorkspace(dir string) (*Workspace, error) {
	if dir == "" {
		tmp, err := os.MkdirTemp("", "ruletest-workspace-")
		if err != nil {
			return nil, err
		}
		dir = tmp
	} else if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	marker := filepath.Join(dir, WorkspaceMarker)
	if _, err := os.Stat(marker); err == nil {
		return nil, fmt.Errorf("%s already contains a %s marker", dir, WorkspaceMarker)
	}
	if err := os.WriteFile(marker, nil, 0644); err != nil {
		return nil, err
	}
	return &Workspace{root: dir}, nil
}

// Root returns the workspace root directory.
func (w *Workspace) Root() string {
	return w.root
}

// Path resolves a workspace-relative path without validating it.
func (w *Workspace) Path(rel string) string {
	return filepath.Join(w.root, filepath.FromSlash(rel))
}

func (w *Workspace) resolve(rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("empty workspace path")
	}
	if filepath.IsAbs(rel) || strings.HasPrefix(rel, "/") {
		return "", fmt.Errorf("workspace path %q must be relative", rel)
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("workspace path %q escapes the workspace root", rel)
	}
	return filepath.Join(w.root, clean), nil
}

// ScratchFile writes the given lines to a workspace-relative path, creating
// parent directories as needed. The file content is exactly the lines joined
// with newlines, without a trailing newline. Returns the absolute path.
func (w *Workspace) ScratchFile(rel string, lines ...string) (string, error) {
	return w.write(rel, strings.Join(lines, "\n"), 0644)
}

// ScratchExecutable is ScratchFile with the executable bit set. Harness
// tests use it to plant stub build tools.
func (w *Workspace) ScratchExecutable(rel string, lines ...string) (string, error) {
	return w.write(rel, strings.Join(lines, "\n"), 0755)
}

func (w *Workspace) write(rel, content string, mode os.FileMode) (string, error) {
	path, err := w.resolve(rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		return "", err
	}
	return path, nil
}

// CopyFile copies the file at src, byte for byte, to a workspace-relative
// destination. Returns the absolute destination path.
func (w *Workspace) CopyFile(src, destRel string) (string, error) {
	dest, err := w.resolve(destRel)
	if err != nil {
		return "", err
	}
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", err
	}
	out, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", err
	}
	return dest, out.Close()
}

// Remove deletes the workspace tree.
func (w *Workspace) Remove() error {
	return os.RemoveAll(w.root)
}
