package maprule

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.starlark.net/syntax"

	"rulekit.dev/ruletest/test/bazele2e/driver"
)

// The shipped rule-definition asset must at least parse and export the
// maprule macro, so a broken fixture fails fast even where no build tool is
// installed.
func TestFixtureDefinesMaprule(t *testing.T) {
	path := driver.TestPath(mapruleBzl)
	f, err := syntax.Parse(path, nil, 0)
	require.NoError(t, err)

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
	require.True(t, names["maprule"], "fixture %s does not define maprule, found %v", mapruleBzl, names)
}
