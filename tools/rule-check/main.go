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

// rule-check verifies that the shipped rule-definition assets export the
// symbols the test suites load from them. It parses the Starlark syntax only
// and never executes the files, since rule definitions load() tool-provided
// modules that do not exist outside a build.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.starlark.net/syntax"
	"sigs.k8s.io/yaml"
)

var (
	configFile = flag.String("config", "", "YAML file listing required symbols per rule file")
	rootDir    = flag.String("root", ".", "directory rule file paths are relative to")
)

// Config lists the rule files to verify.
type Config struct {
	Rules []RuleFile `json:"rules"`
}

// RuleFile names one Starlark file and the symbols it must define.
type RuleFile struct {
	File    string   `json:"file"`
	Symbols []string `json:"symbols"`
}

// defaultConfig covers the assets shipped in this repository.
var defaultConfig = &Config{
	Rules: []RuleFile{
		{File: "tools/build_rules/maprule.bzl", Symbols: []string{"maprule"}},
	},
}

func main() {
	flag.Parse()
	config := defaultConfig
	if *configFile != "" {
		var err error
		if config, err = readConfig(*configFile); err != nil {
			fmt.Printf("error: %v\n", err)
			os.Exit(1)
		}
	}
	missing, err := check(*rootDir, config)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
	for _, m := range missing {
		fmt.Printf("missing symbol: %v\n", m)
	}
	if len(missing) > 0 {
		os.Exit(1)
	}
}

func readConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	config := &Config{}
	if err := yaml.UnmarshalStrict(data, config); err != nil {
		return nil, fmt.Errorf("config %s: %v", path, err)
	}
	return config, nil
}

// check parses every listed rule file and returns "file: symbol" entries for
// each required symbol the file does not define at the top level.
func check(root string, config *Config) ([]string, error) {
	var missing []string
	for _, rule := range config.Rules {
		defined, err := symbols(filepath.Join(root, filepath.FromSlash(rule.File)))
		if err != nil {
			return nil, err
		}
		for _, sym := range rule.Symbols {
			if !defined[sym] {
				missing = append(missing, fmt.Sprintf("%s: %s", rule.File, sym))
			}
		}
	}
	return missing, nil
}

// symbols returns the names a Starlark file defines at the top level, both
// def statements and assignments.
func symbols(filename string) (map[string]bool, error) {
	f, err := syntax.Parse(filename, nil, 0)
	if err != nil {
		return nil, err
	}
	names := map[string]bool{}
	for _, stmt := range f.Stmts {
		switch s := stmt.(type) {
		case *syntax.DefStmt:
			names[s.Name.Name] = true
		case *syntax.AssignStmt:
			if id, ok := s.LHS.(*syntax.Ident); ok {
				names[id.Name] = true
			}
		}
	}
	return names, nil
}
