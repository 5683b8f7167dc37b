package env

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetUpResolvesToolAndWorkspace(t *testing.T) {
	tool := filepath.Join(t.TempDir(), "bazel")
	require.NoError(t, os.WriteFile(tool, []byte("#!/bin/sh\nexit 0\n"), 0755))

	s := NewTestSetup(42, t)
	s.ToolPath = tool
	s.FixtureDir = t.TempDir()
	require.NoError(t, s.SetUp())
	defer s.TearDown()

	assert.FileExists(t, filepath.Join(s.Workspace().Root(), WorkspaceMarker))
	assert.Equal(t, tool, s.Tool().Path)
	assert.NotNil(t, s.Fixtures())
}

func TestSetUpStartupArgsIsolateInvocation(t *testing.T) {
	s := NewTestSetup(42, t)
	s.ToolPath = "/usr/bin/true"
	s.FixtureDir = t.TempDir()
	s.ExtraStartupArgs = []string{"--max_idle_secs=5"}
	require.NoError(t, s.SetUp())
	defer s.TearDown()

	args := s.Tool().StartupArgs
	root, err := OutputUserRoot(42)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"--output_user_root=" + root,
		"--nosystem_rc",
		"--nohome_rc",
		"--max_idle_secs=5",
	}, args)
}

func TestSetUpScrubsClientEnv(t *testing.T) {
	s := NewTestSetup(42, t)
	s.ToolPath = "/usr/bin/true"
	s.FixtureDir = t.TempDir()
	require.NoError(t, s.SetUp())
	defer s.TearDown()

	env := s.Tool().Env
	require.Len(t, env, 3)
	assert.Equal(t, "PATH="+os.Getenv("PATH"), env[0])
	assert.True(t, strings.HasPrefix(env[1], "HOME="), "env %v", env)
	// HOME points at a scratch dir, not at the real home.
	assert.NotEqual(t, "HOME="+os.Getenv("HOME"), env[1])
}

func TestTearDownRemovesScratchState(t *testing.T) {
	s := NewTestSetup(42, t)
	s.ToolPath = "/usr/bin/true"
	s.FixtureDir = t.TempDir()
	require.NoError(t, s.SetUp())
	root := s.Workspace().Root()
	s.TearDown()
	assert.NoDirExists(t, root)
}

func TestTearDownKeepsWorkspaceOnRequest(t *testing.T) {
	t.Setenv("RULETEST_KEEP_WORKSPACE", "1")
	s := NewTestSetup(42, t)
	s.ToolPath = "/usr/bin/true"
	s.FixtureDir = t.TempDir()
	require.NoError(t, s.SetUp())
	root := s.Workspace().Root()
	s.TearDown()
	defer os.RemoveAll(root)
	assert.DirExists(t, root)
}

func TestFindBazelOverride(t *testing.T) {
	t.Setenv("BAZEL_PATH", "/opt/bazel/bin/bazel")
	path, err := FindBazel()
	require.NoError(t, err)
	// The override is trusted as-is, no existence check.
	assert.Equal(t, "/opt/bazel/bin/bazel", path)
}

func TestKeepWorkspaces(t *testing.T) {
	t.Setenv("RULETEST_KEEP_WORKSPACE", "")
	assert.False(t, KeepWorkspaces())
	t.Setenv("RULETEST_KEEP_WORKSPACE", "1")
	assert.True(t, KeepWorkspaces())
}

func TestInventoryIndices(t *testing.T) {
	inv := &TestInventory{Tests: []string{
		"TestForeachSrcsAcrossPackages",
		"TestForeachSrcsMissingSource",
	}}
	idx, ok := inv.GetTestIndex("TestForeachSrcsMissingSource")
	require.True(t, ok)
	assert.Equal(t, uint16(1), idx)
	_, ok = inv.GetTestIndex("TestUnregistered")
	assert.False(t, ok)
}

func TestOutputUserRootIsStable(t *testing.T) {
	a, err := OutputUserRoot(7)
	require.NoError(t, err)
	b, err := OutputUserRoot(7)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.DirExists(t, a)
}
