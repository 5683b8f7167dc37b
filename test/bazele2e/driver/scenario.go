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
	"log"
	"text/template"
	"time"

	"github.com/Masterminds/sprig"

	"rulekit.dev/ruletest/test/bazele2e/env"
)

type (
	// Params is the mutable state threaded through a scenario. Steps read
	// and update it in order; nothing in here is shared across scenarios.
	Params struct {
		Workspace *env.Workspace
		Fixtures  *env.Fixtures
		Tool      *env.Tool
		Vars      map[string]string

		// Result is the most recent build tool invocation.
		Result *Invocation
	}
	Step interface {
		Run(*Params) error
		Cleanup()
	}
	Scenario struct {
		Steps []Step
	}
	Repeat struct {
		N    int
		Step Step
	}
	Sleep struct {
		time.Duration
	}
)

var _ Step = &Repeat{}

func (r *Repeat) Run(p *Params) error {
	for i := 0; i < r.N; i++ {
		log.Printf("repeat %d out of %d", i, r.N)
		if err := r.Step.Run(p); err != nil {
			return err
		}
	}
	return nil
}
func (r *Repeat) Cleanup() {}

var _ Step = &Sleep{}

func (s *Sleep) Run(_ *Params) error {
	log.Printf("sleeping %v\n", s.Duration)
	time.Sleep(s.Duration)
	return nil
}
func (s *Sleep) Cleanup() {}

// Fill renders a template over the params. Missing keys render as zero
// values so scenario text can reference optional vars, and the sprig text
// functions are available for string shaping.
func (p *Params) Fill(s string) (string, error) {
	t := template.Must(template.New("params").
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=zero").
		Parse(s))
	var b bytes.Buffer
	if err := t.Execute(&b, p); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Run executes the steps strictly in order and stops at the first failure.
// Cleanup runs over the passed steps in reverse order.
func (s *Scenario) Run(p *Params) error {
	passed := make([]Step, 0, len(s.Steps))
	defer func() {
		for i := range passed {
			passed[len(passed)-1-i].Cleanup()
		}
	}()
	for _, step := range s.Steps {
		if err := step.Run(p); err != nil {
			return err
		}
		passed = append(passed, step)
	}
	return nil
}

func Counter(base int) func() int {
	state := base - 1
	return func() int {
		state++
		return state
	}
}
