package driver

import (
	"os"
	"testing"

	bzl "github.com/bazelbuild/buildtools/build"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFileWritesLinesVerbatim(t *testing.T) {
	p := scratchParams(t)
	step := &BuildFile{Path: "foo/BUILD", Lines: []string{
		`filegroup(`,
		`    name = "files",`,
		`    srcs = ["a.txt"],`,
		`)`,
	}}
	require.NoError(t, step.Run(p))
	data, err := os.ReadFile(p.Workspace.Path("foo/BUILD"))
	require.NoError(t, err)
	assert.Equal(t, "filegroup(\n    name = \"files\",\n    srcs = [\"a.txt\"],\n)", string(data))
}

// Typed manifests round-trip through the Starlark parser, so the rendered
// form is checked structurally rather than byte for byte.
func TestBuildFileRendersRules(t *testing.T) {
	p := scratchParams(t)
	step := &BuildFile{
		Path:  "foo/BUILD",
		Loads: []Load{{Bzl: ":maprule.bzl", Symbols: []string{"maprule"}}},
		Rules: []Rule{
			{Kind: "filegroup", Attrs: []Attr{
				{Name: "name", Value: "files"},
				{Name: "srcs", Value: []string{"a.txt", "//bar:files"}},
			}},
			{Kind: "maprule", Attrs: []Attr{
				{Name: "name", Value: "x"},
				{Name: "outs", Value: map[string]string{"wc": "{src_name}_wc.txt"}},
				{Name: "cmd", Value: "wc -c $(src) > $(wc)"},
				{Name: "foreach_srcs", Value: []string{":files"}},
			}},
		},
	}
	require.NoError(t, step.Run(p))
	data, err := os.ReadFile(p.Workspace.Path("foo/BUILD"))
	require.NoError(t, err)

	f, err := bzl.ParseBuild("foo/BUILD", data)
	require.NoError(t, err)

	groups := f.Rules("filegroup")
	require.Len(t, groups, 1)
	assert.Equal(t, "files", groups[0].Name())
	assert.Equal(t, []string{"a.txt", "//bar:files"}, groups[0].AttrStrings("srcs"))

	maprules := f.Rules("maprule")
	require.Len(t, maprules, 1)
	assert.Equal(t, "x", maprules[0].Name())
	assert.Equal(t, "wc -c $(src) > $(wc)", maprules[0].AttrString("cmd"))
	assert.Equal(t, []string{":files"}, maprules[0].AttrStrings("foreach_srcs"))

	assert.Contains(t, string(data), `load(":maprule.bzl", "maprule")`)
	assert.Contains(t, string(data), `"wc": "{src_name}_wc.txt"`)
}

func TestBuildFileFillsAttributes(t *testing.T) {
	p := scratchParams(t)
	p.Vars["Name"] = "files"
	step := &BuildFile{
		Path: "{{ .Vars.Name }}/BUILD",
		Rules: []Rule{
			{Kind: "filegroup", Attrs: []Attr{
				{Name: "name", Value: "{{ .Vars.Name }}"},
				{Name: "testonly", Value: true},
				{Name: "count", Value: 2},
			}},
		},
	}
	require.NoError(t, step.Run(p))
	data, err := os.ReadFile(p.Workspace.Path("files/BUILD"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `name = "files"`)
	assert.Contains(t, string(data), "testonly = True")
	assert.Contains(t, string(data), "count = 2")
}

func TestBuildFileRejectsMixedForms(t *testing.T) {
	p := scratchParams(t)
	err := (&BuildFile{
		Path:  "foo/BUILD",
		Lines: []string{"# raw"},
		Rules: []Rule{{Kind: "filegroup"}},
	}).Run(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "both Lines and Rules")
}

func TestBuildFileRejectsEmpty(t *testing.T) {
	p := scratchParams(t)
	err := (&BuildFile{Path: "foo/BUILD"}).Run(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no content")
}

func TestBuildFileUnsupportedAttrType(t *testing.T) {
	p := scratchParams(t)
	err := (&BuildFile{
		Path:  "foo/BUILD",
		Rules: []Rule{{Kind: "filegroup", Attrs: []Attr{{Name: "srcs", Value: 3.14}}}},
	}).Run(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type")
}
