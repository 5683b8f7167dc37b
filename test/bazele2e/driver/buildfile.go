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
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	bzl "github.com/bazelbuild/buildtools/build"
)

// Load brings macro symbols into a manifest:
// load("//foo:maprule.bzl", "maprule").
type Load struct {
	Bzl     string
	Symbols []string
}

// Attr is a single rule attribute. Supported value types: string, []string,
// map[string]string, bool and int.
type Attr struct {
	Name  string
	Value interface{}
}

// Rule is one rule call in a manifest, attributes rendered in the order
// listed.
type Rule struct {
	Kind  string
	Attrs []Attr
}

// BuildFile writes a build manifest into the workspace. Lines are written
// verbatim, newline-joined; Loads and Rules render through the Starlark AST
// printer instead. Setting both forms, or neither, is a step error.
type BuildFile struct {
	Path  string
	Lines []string
	Loads []Load
	Rules []Rule
}

var _ Step = &BuildFile{}

func (b *BuildFile) Run(p *Params) error {
	ws, err := workspaceOf(p)
	if err != nil {
		return err
	}
	path, err := p.Fill(b.Path)
	if err != nil {
		return err
	}
	var content string
	switch {
	case len(b.Lines) > 0 && (len(b.Rules) > 0 || len(b.Loads) > 0):
		return fmt.Errorf("manifest %q sets both Lines and Rules", b.Path)
	case len(b.Lines) > 0:
		content, err = p.Fill(strings.Join(b.Lines, "\n"))
	case len(b.Rules) > 0 || len(b.Loads) > 0:
		content, err = b.render(p)
	default:
		return fmt.Errorf("manifest %q has no content", b.Path)
	}
	if err != nil {
		return err
	}
	full, err := ws.ScratchFile(path, content)
	if err != nil {
		return err
	}
	log.Printf("wrote manifest %v", full)
	return nil
}
func (b *BuildFile) Cleanup() {}

func (b *BuildFile) render(p *Params) (string, error) {
	f := &bzl.File{Type: bzl.TypeBuild}
	for _, l := range b.Loads {
		module, err := p.Fill(l.Bzl)
		if err != nil {
			return "", err
		}
		stmt := &bzl.LoadStmt{Module: &bzl.StringExpr{Value: module}}
		for _, sym := range l.Symbols {
			ident := &bzl.Ident{Name: sym}
			stmt.From = append(stmt.From, ident)
			stmt.To = append(stmt.To, ident)
		}
		f.Stmt = append(f.Stmt, stmt)
	}
	for _, r := range b.Rules {
		call := &bzl.CallExpr{
			X:              &bzl.Ident{Name: r.Kind},
			ForceMultiLine: true,
		}
		for _, attr := range r.Attrs {
			value, err := attrExpr(p, attr)
			if err != nil {
				return "", err
			}
			call.List = append(call.List, &bzl.AssignExpr{
				LHS: &bzl.Ident{Name: attr.Name},
				Op:  "=",
				RHS: value,
			})
		}
		f.Stmt = append(f.Stmt, call)
	}
	return string(bzl.Format(f)), nil
}

func attrExpr(p *Params, attr Attr) (bzl.Expr, error) {
	switch v := attr.Value.(type) {
	case string:
		s, err := p.Fill(v)
		if err != nil {
			return nil, err
		}
		return &bzl.StringExpr{Value: s}, nil
	case []string:
		list := &bzl.ListExpr{}
		for _, e := range v {
			s, err := p.Fill(e)
			if err != nil {
				return nil, err
			}
			list.List = append(list.List, &bzl.StringExpr{Value: s})
		}
		return list, nil
	case map[string]string:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		dict := &bzl.DictExpr{}
		for _, k := range keys {
			s, err := p.Fill(v[k])
			if err != nil {
				return nil, err
			}
			dict.List = append(dict.List, &bzl.KeyValueExpr{
				Key:   &bzl.StringExpr{Value: k},
				Value: &bzl.StringExpr{Value: s},
			})
		}
		return dict, nil
	case bool:
		name := "False"
		if v {
			name = "True"
		}
		return &bzl.Ident{Name: name}, nil
	case int:
		return &bzl.LiteralExpr{Token: strconv.Itoa(v)}, nil
	default:
		return nil, fmt.Errorf("attribute %q has unsupported type %T", attr.Name, attr.Value)
	}
}
