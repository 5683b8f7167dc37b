package main

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalGolden(t *testing.T) {
	b, err := eval(ScenarioOptions{
		Name:    "maprule-fanout",
		Target:  "//foo:x",
		Fixture: "tools/build_rules/maprule.bzl",
	})
	require.NoError(t, err)
	g := goldie.New(t)
	g.Assert(t, "scaffold", b)
}

func TestEnvDefault(t *testing.T) {
	t.Setenv("RULETEST_FIXTURE", "")
	assert.Equal(t, "", env("RULETEST_FIXTURE", "fallback"))

	t.Setenv("RULETEST_FIXTURE", "other/rules.bzl")
	assert.Equal(t, "other/rules.bzl", env("RULETEST_FIXTURE", "fallback"))

	assert.Equal(t, "fallback", env("RULETEST_UNSET_KEY", "fallback"))
}
