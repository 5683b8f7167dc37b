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
	"bytes"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"strings"
)

// Invocation records a single build tool run.
type Invocation struct {
	Args     []string
	ExitCode int
	Stdout   []string
	Stderr   []string
}

// Output returns the stdout lines followed by the stderr lines, original
// order kept within each stream.
func (i *Invocation) Output() []string {
	out := make([]string, 0, len(i.Stdout)+len(i.Stderr))
	out = append(out, i.Stdout...)
	return append(out, i.Stderr...)
}

// FailureMessage renders the complete tool output the way failing
// assertions surface it: every line prefixed with " | ", fenced between a
// FAIL: head and a --- tail.
func (i *Invocation) FailureMessage() string {
	return fmt.Sprintf("FAIL:\n | %s\n---", strings.Join(i.Output(), "\n | "))
}

// RunTool invokes the resolved build tool with the given command and
// arguments from the workspace root. The exit code and both output streams
// are captured; a non-zero exit is not an error here, callers decide what
// the exit code means.
func RunTool(p *Params, command string, args ...string) (*Invocation, error) {
	ws, err := workspaceOf(p)
	if err != nil {
		return nil, err
	}
	if p.Tool == nil {
		return nil, errors.New("params have no build tool configured")
	}
	full := append([]string{}, p.Tool.StartupArgs...)
	full = append(full, command)
	full = append(full, args...)
	cmd := exec.Command(p.Tool.Path, full...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Dir = ws.Root()
	cmd.Env = p.Tool.Env
	log.Printf("tool cmd %v", cmd.Args)
	err = cmd.Run()
	inv := &Invocation{
		Args:   cmd.Args,
		Stdout: splitLines(stdout.String()),
		Stderr: splitLines(stderr.String()),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("failed to run %v: %v", cmd.Args, err)
		}
		inv.ExitCode = exitErr.ExitCode()
	}
	log.Printf("tool exited %d", inv.ExitCode)
	p.Result = inv
	return inv, nil
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func fillArgs(p *Params, args []string) ([]string, error) {
	out := make([]string, len(args))
	for i, a := range args {
		f, err := p.Fill(a)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

// Build runs `<tool> build <target>` and fails the scenario unless it exits
// zero. The error carries the complete tool output.
type Build struct {
	Target string
	Flags  []string
}

var _ Step = &Build{}

func (b *Build) Run(p *Params) error {
	target, err := p.Fill(b.Target)
	if err != nil {
		return err
	}
	flags, err := fillArgs(p, b.Flags)
	if err != nil {
		return err
	}
	inv, err := RunTool(p, "build", append(flags, target)...)
	if err != nil {
		return err
	}
	if inv.ExitCode != 0 {
		return fmt.Errorf("build %s exited %d\n%s", target, inv.ExitCode, inv.FailureMessage())
	}
	return nil
}
func (b *Build) Cleanup() {}

// BuildFails runs `<tool> build <target>` and fails the scenario if the
// build succeeds. A non-empty Message must appear in the tool output.
type BuildFails struct {
	Target  string
	Flags   []string
	Message string
}

var _ Step = &BuildFails{}

func (b *BuildFails) Run(p *Params) error {
	target, err := p.Fill(b.Target)
	if err != nil {
		return err
	}
	flags, err := fillArgs(p, b.Flags)
	if err != nil {
		return err
	}
	inv, err := RunTool(p, "build", append(flags, target)...)
	if err != nil {
		return err
	}
	if inv.ExitCode == 0 {
		return fmt.Errorf("build %s succeeded, expected a failure", target)
	}
	return expectMessage(p, inv, b.Message)
}
func (b *BuildFails) Cleanup() {}

// TestPasses runs `<tool> test <target>` with test errors surfaced and
// fails the scenario unless everything passes.
type TestPasses struct {
	Target string
	Flags  []string
}

var _ Step = &TestPasses{}

func (t *TestPasses) Run(p *Params) error {
	target, err := p.Fill(t.Target)
	if err != nil {
		return err
	}
	flags, err := fillArgs(p, t.Flags)
	if err != nil {
		return err
	}
	inv, err := RunTool(p, "test", append(flags, target, "--test_output=errors")...)
	if err != nil {
		return err
	}
	if inv.ExitCode != 0 {
		return fmt.Errorf("test %s exited %d\n%s", target, inv.ExitCode, inv.FailureMessage())
	}
	return nil
}
func (t *TestPasses) Cleanup() {}

// TestFails runs `<tool> test <target>` and fails the scenario if the tests
// pass. A non-empty Message must appear in the tool output.
type TestFails struct {
	Target  string
	Flags   []string
	Message string
}

var _ Step = &TestFails{}

func (t *TestFails) Run(p *Params) error {
	target, err := p.Fill(t.Target)
	if err != nil {
		return err
	}
	flags, err := fillArgs(p, t.Flags)
	if err != nil {
		return err
	}
	inv, err := RunTool(p, "test", append(flags, target)...)
	if err != nil {
		return err
	}
	if inv.ExitCode == 0 {
		return fmt.Errorf("test %s passed, expected a failure", target)
	}
	return expectMessage(p, inv, t.Message)
}
func (t *TestFails) Cleanup() {}

func expectMessage(p *Params, inv *Invocation, message string) error {
	if message == "" {
		return nil
	}
	msg, err := p.Fill(message)
	if err != nil {
		return err
	}
	if !strings.Contains(strings.Join(inv.Output(), "\n"), msg) {
		return fmt.Errorf("tool output does not mention %q\n%s", msg, inv.FailureMessage())
	}
	return nil
}
