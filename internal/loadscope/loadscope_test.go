package loadscope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/djls/djls/internal/template"
)

func parseLoads(t *testing.T, src string) []Statement {
	t.Helper()
	result := template.Parse([]byte(src))
	require.Empty(t, result.Errors)
	return ParseStatements(result.Nodes)
}

func TestParseStatementsFullAndSelective(t *testing.T) {
	t.Parallel()

	stmts := parseLoads(t, `{% load i18n l10n %}{% load trans blocktrans from i18n %}`)
	require.Len(t, stmts, 2)

	assert.Equal(t, KindFull, stmts[0].Kind)
	assert.Equal(t, []string{"i18n", "l10n"}, stmts[0].Libraries)

	assert.Equal(t, KindSelective, stmts[1].Kind)
	assert.Equal(t, []string{"trans", "blocktrans"}, stmts[1].Symbols)
	assert.Equal(t, "i18n", stmts[1].Library)
}

func TestOracleDegradedModeAlwaysAvailable(t *testing.T) {
	t.Parallel()
	o := NewOracle(nil, nil, nil, true)
	assert.Equal(t, Available, o.Resolve("trans", 0))
	assert.Equal(t, Available, o.Resolve("anything", 1_000_000))
}

func TestOracleRequiresLoadBeforeLoadStatement(t *testing.T) {
	t.Parallel()

	// {% trans "hi" %} at position 0, {% load i18n %} appears after.
	src := `{% trans "hi" %}{% load i18n %}`
	result := template.Parse([]byte(src))
	stmts := ParseStatements(result.Nodes)

	candidates := map[string][]string{"trans": {"i18n"}}
	o := NewOracle(stmts, candidates, nil, false)

	transTagSpan := result.Nodes[0].Span
	assert.Equal(t, RequiresLoad, o.Resolve("trans", transTagSpan.Start))
	assert.Equal(t, []string{"i18n"}, o.Candidates("trans"))

	// After the load statement, the same name resolves to Available.
	loadSpan := result.Nodes[1].Span
	assert.Equal(t, Available, o.Resolve("trans", loadSpan.End))
}

func TestOracleAmbiguousAcrossTwoLibraries(t *testing.T) {
	t.Parallel()

	o := NewOracle(nil, map[string][]string{"widget": {"admin_widgets", "forms_extras"}}, nil, false)
	assert.Equal(t, Ambiguous, o.Resolve("widget", 0))
	assert.Equal(t, []string{"admin_widgets", "forms_extras"}, o.Candidates("widget"))
}

func TestOracleSelectiveLoadDoesNotGrantUnlistedSymbol(t *testing.T) {
	t.Parallel()

	// {% load trans from i18n %}{% blocktrans %} -- blocktrans was never
	// selectively imported, so it still requires its own load (scenario 6).
	stmts := parseLoads(t, `{% load trans from i18n %}`)
	candidates := map[string][]string{"blocktrans": {"i18n"}}
	o := NewOracle(stmts, candidates, nil, false)
	assert.Equal(t, RequiresLoad, o.Resolve("blocktrans", 1000))
}

func TestOracleFullLoadClearsSelectiveButGrantsFullAvailability(t *testing.T) {
	t.Parallel()

	// Selective load of "trans" from i18n, then a full load of i18n: the
	// effective availability must not shrink (§8 property #3) -- trans
	// remains available because Full adds i18n to fully_loaded.
	stmts := parseLoads(t, `{% load trans from i18n %}{% load i18n %}`)
	candidates := map[string][]string{"trans": {"i18n"}}
	o := NewOracle(stmts, candidates, nil, false)

	afterBoth := stmts[1].Span.End
	assert.Equal(t, Available, o.Resolve("trans", afterBoth))
}

func TestOracleBuiltinAlwaysAvailable(t *testing.T) {
	t.Parallel()
	o := NewOracle(nil, nil, func(name string) bool { return name == "if" }, false)
	assert.Equal(t, Available, o.Resolve("if", 0))
}

func TestOracleIsKnownDistinguishesUnknownFromRequiresLoad(t *testing.T) {
	t.Parallel()
	o := NewOracle(nil, map[string][]string{"trans": {"i18n"}}, func(name string) bool { return name == "if" }, false)

	assert.True(t, o.IsKnown("if"), "builtin is known")
	assert.True(t, o.IsKnown("trans"), "has a candidate library")
	assert.False(t, o.IsKnown("nosuchthing"), "neither builtin nor any candidate library")

	degraded := NewOracle(nil, nil, nil, true)
	assert.True(t, degraded.IsKnown("anything"), "degraded mode treats every name as known")
}
