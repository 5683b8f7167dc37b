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

// gen-scenario writes a ready-to-edit scenario file for the scenario-run
// tool.
package main

import (
	"bytes"
	_ "embed"
	"flag"
	"fmt"
	"os"
	"text/template"
)

//go:embed scenario.yaml.tpl
var scenarioTmpl string

// ScenarioOptions fill the scaffold template.
type ScenarioOptions struct {
	Name    string
	Target  string
	Fixture string
}

var (
	name   = flag.String("name", "new-scenario", "scenario name")
	target = flag.String("target", "//foo:x", "build target the scenario exercises")
	out    = flag.String("out", "", "output file, defaults to <name>.yaml")
)

func main() {
	flag.Parse()

	opts := ScenarioOptions{
		Name:    *name,
		Target:  *target,
		Fixture: env("RULETEST_FIXTURE", "tools/build_rules/maprule.bzl"),
	}

	b, err := eval(opts)
	if err != nil {
		fmt.Println("eval template fail, ", err)
		os.Exit(1)
	}

	outFile := *out
	if outFile == "" {
		outFile = *name + ".yaml"
	}
	if err := os.WriteFile(outFile, b, 0644); err != nil {
		fmt.Println("write scenario file fail, ", err)
		os.Exit(1)
	}
	fmt.Println("wrote", outFile)
}

func eval(opts ScenarioOptions) ([]byte, error) {
	tpl, err := template.New("scenario").Parse(scenarioTmpl)
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer
	if err := tpl.Execute(&b, opts); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

func env(key, defaultVal string) string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	return v
}
