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
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"rulekit.dev/ruletest/test/bazele2e/env"
)

// Workspace creates a fresh scratch workspace and installs it in the
// params. Scenarios driven by a TestSetup receive their workspace from the
// setup instead; this step serves standalone runners.
type Workspace struct {
	// Dir is the workspace root. Empty allocates a temp directory.
	Dir string

	ws *env.Workspace
}

var _ Step = &Workspace{}

func (w *Workspace) Run(p *Params) error {
	dir, err := p.Fill(w.Dir)
	if err != nil {
		return err
	}
	ws, err := env.NewWorkspace(dir)
	if err != nil {
		return err
	}
	log.Printf("workspace root %v", ws.Root())
	w.ws = ws
	p.Workspace = ws
	return nil
}

func (w *Workspace) Cleanup() {
	if w.ws == nil {
		return
	}
	if env.KeepWorkspaces() {
		log.Printf("keeping workspace %v", w.ws.Root())
		return
	}
	if err := w.ws.Remove(); err != nil {
		log.Printf("failed to remove workspace %v: %v", w.ws.Root(), err)
	}
}

// SourceFile writes a source file into the workspace. The content is
// exactly Lines joined with newlines, rendered through the params.
type SourceFile struct {
	Path  string
	Lines []string
}

var _ Step = &SourceFile{}

func (s *SourceFile) Run(p *Params) error {
	ws, err := workspaceOf(p)
	if err != nil {
		return err
	}
	path, err := p.Fill(s.Path)
	if err != nil {
		return err
	}
	content, err := p.Fill(strings.Join(s.Lines, "\n"))
	if err != nil {
		return err
	}
	full, err := ws.ScratchFile(path, content)
	if err != nil {
		return err
	}
	log.Printf("wrote %v", full)
	return nil
}
func (s *SourceFile) Cleanup() {}

// FixtureFile copies a fixture asset into the workspace byte for byte. The
// scenario fails when the asset cannot be resolved.
type FixtureFile struct {
	// Source is the logical fixture path, e.g. "tools/build_rules/maprule.bzl".
	Source string
	// Dest is the workspace-relative destination.
	Dest string
}

var _ Step = &FixtureFile{}

func (f *FixtureFile) Run(p *Params) error {
	ws, err := workspaceOf(p)
	if err != nil {
		return err
	}
	if p.Fixtures == nil {
		return fmt.Errorf("no fixture resolver configured, cannot copy %q", f.Source)
	}
	source, err := p.Fill(f.Source)
	if err != nil {
		return err
	}
	dest, err := p.Fill(f.Dest)
	if err != nil {
		return err
	}
	src, err := p.Fixtures.Path(source)
	if err != nil {
		return err
	}
	full, err := ws.CopyFile(src, dest)
	if err != nil {
		return err
	}
	log.Printf("copied %v to %v", src, full)
	return nil
}
func (f *FixtureFile) Cleanup() {}

// FileExists asserts that a workspace-relative file is present.
type FileExists struct {
	Path string
}

var _ Step = &FileExists{}

func (f *FileExists) Run(p *Params) error {
	ws, err := workspaceOf(p)
	if err != nil {
		return err
	}
	path, err := p.Fill(f.Path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(ws.Path(path)); err != nil {
		return fmt.Errorf("expected file %q in workspace: %v", path, err)
	}
	return nil
}
func (f *FileExists) Cleanup() {}

// FileContent asserts the exact content of a workspace-relative file.
type FileContent struct {
	Path    string
	Content string
}

var _ Step = &FileContent{}

func (f *FileContent) Run(p *Params) error {
	ws, err := workspaceOf(p)
	if err != nil {
		return err
	}
	path, err := p.Fill(f.Path)
	if err != nil {
		return err
	}
	want, err := p.Fill(f.Content)
	if err != nil {
		return err
	}
	got, err := os.ReadFile(ws.Path(path))
	if err != nil {
		return err
	}
	if string(got) != want {
		return fmt.Errorf("file %q content mismatch:\nwant: %q\ngot:  %q", path, want, string(got))
	}
	return nil
}
func (f *FileContent) Cleanup() {}

func workspaceOf(p *Params) (*env.Workspace, error) {
	if p.Workspace == nil {
		return nil, errors.New("params have no workspace, add a Workspace step or a test setup")
	}
	return p.Workspace, nil
}
