package maprule

import (
	"testing"

	"rulekit.dev/ruletest/test/bazele2e"
	"rulekit.dev/ruletest/test/bazele2e/driver"
	"rulekit.dev/ruletest/test/bazele2e/env"
)

// The rule-definition asset under test, resolved through the fixture layer.
const mapruleBzl = "tools/build_rules/maprule.bzl"

// TestForeachSrcsAcrossPackages asserts that one output is generated per
// file in foreach_srcs, including files gathered from another package.
func TestForeachSrcsAcrossPackages(t *testing.T) {
	env.SkipWithoutBazel(t)
	s := env.NewTestSetup(bazele2e.ForeachSrcsAcrossPackagesTest, t)
	if err := s.SetUp(); err != nil {
		t.Fatal(err)
	}
	defer s.TearDown()
	if err := (&driver.Scenario{
		Steps: []driver.Step{
			&driver.FixtureFile{Source: mapruleBzl, Dest: "foo/maprule.bzl"},
			&driver.BuildFile{Path: "foo/BUILD", Lines: []string{
				`load(":maprule.bzl", "maprule")`,
				``,
				`filegroup(`,
				`    name = "files",`,
				`    srcs = ["a.txt", "//bar:files"],`,
				`)`,
				``,
				`maprule(`,
				`    name = "x",`,
				`    outs = {"wc": "{src_name}_wc.txt"},`,
				`    cmd = "wc -c $(src) > $(wc)",`,
				`    foreach_srcs = [":files"],`,
				`)`,
			}},
			&driver.BuildFile{Path: "bar/BUILD", Lines: []string{
				`filegroup(`,
				`    name = "files",`,
				`    srcs = ["b.txt"],`,
				`    visibility = ["//visibility:public"],`,
				`)`,
			}},
			&driver.SourceFile{Path: "foo/a.txt", Lines: []string{"hello", "world"}},
			&driver.SourceFile{Path: "bar/b.txt", Lines: []string{"Hallo", "Welt"}},
			// Exit code only. The output tree layout under the tool's
			// convenience symlinks varies across tool versions.
			&driver.Build{Target: "//foo:x"},
		},
	}).Run(&driver.Params{
		Workspace: s.Workspace(),
		Fixtures:  s.Fixtures(),
		Tool:      s.Tool(),
		Vars:      map[string]string{},
	}); err != nil {
		t.Fatal(err)
	}
}

// TestForeachSrcsMissingSource asserts that a fan-out over a file that was
// never written fails the build and names the file.
func TestForeachSrcsMissingSource(t *testing.T) {
	env.SkipWithoutBazel(t)
	s := env.NewTestSetup(bazele2e.ForeachSrcsMissingSourceTest, t)
	if err := s.SetUp(); err != nil {
		t.Fatal(err)
	}
	defer s.TearDown()
	if err := (&driver.Scenario{
		Steps: []driver.Step{
			&driver.FixtureFile{Source: mapruleBzl, Dest: "foo/maprule.bzl"},
			&driver.BuildFile{Path: "foo/BUILD", Lines: []string{
				`load(":maprule.bzl", "maprule")`,
				``,
				`maprule(`,
				`    name = "x",`,
				`    outs = {"wc": "{src_name}_wc.txt"},`,
				`    cmd = "wc -c $(src) > $(wc)",`,
				`    foreach_srcs = ["missing.txt"],`,
				`)`,
			}},
			&driver.BuildFails{Target: "//foo:x", Message: "missing.txt"},
		},
	}).Run(&driver.Params{
		Workspace: s.Workspace(),
		Fixtures:  s.Fixtures(),
		Tool:      s.Tool(),
		Vars:      map[string]string{},
	}); err != nil {
		t.Fatal(err)
	}
}

// TestForeachSrcsCommandFailure asserts that a failing per-source command
// fails the whole build.
func TestForeachSrcsCommandFailure(t *testing.T) {
	env.SkipWithoutBazel(t)
	s := env.NewTestSetup(bazele2e.ForeachSrcsCommandFailureTest, t)
	if err := s.SetUp(); err != nil {
		t.Fatal(err)
	}
	defer s.TearDown()
	if err := (&driver.Scenario{
		Steps: []driver.Step{
			&driver.FixtureFile{Source: mapruleBzl, Dest: "foo/maprule.bzl"},
			&driver.BuildFile{Path: "foo/BUILD", Lines: []string{
				`load(":maprule.bzl", "maprule")`,
				``,
				`maprule(`,
				`    name = "x",`,
				`    outs = {"wc": "{src_name}_wc.txt"},`,
				`    cmd = "false",`,
				`    foreach_srcs = ["a.txt"],`,
				`)`,
			}},
			&driver.SourceFile{Path: "foo/a.txt", Lines: []string{"hello", "world"}},
			&driver.BuildFails{Target: "//foo:x"},
		},
	}).Run(&driver.Params{
		Workspace: s.Workspace(),
		Fixtures:  s.Fixtures(),
		Tool:      s.Tool(),
		Vars:      map[string]string{},
	}); err != nil {
		t.Fatal(err)
	}
}
