// Package features provides the thin, read-only completion/hover/snippet
// surface the core's TagSpec assembly and load-scope oracle drive (spec
// §3.4's "drives completions/snippets" note). None of these functions touch
// the database or the filesystem: every one is a pure function over an
// already-assembled tagspec.Result, exactly like internal/diag.Diagnostic
// carries no LSP types — internal/lspserver projects these into whatever
// protocol shape the editor needs.
package features

import (
	"strconv"
	"strings"

	"github.com/djls/djls/internal/extraction"
	"github.com/djls/djls/internal/tagspec"
)

// Snippet renders an editor-insertable snippet for tagName from its
// assembled ArgStructure (§4.4, §6.3's completion/snippet note), in LSP
// tab-stop syntax: a required ArgChoice becomes a `${n|a,b,c|}` choice
// placeholder, other args become `${n:name}`, and an optional arg's
// placeholder is additionally wrapped in the conventional `[...]` bracket
// notation used for Django tag documentation, so it is still a tab stop.
func Snippet(tagName string, spec tagspec.TagSpec) string {
	var b strings.Builder
	b.WriteString("{% ")
	b.WriteString(tagName)

	stop := 1
	for _, arg := range spec.ArgStructure {
		b.WriteByte(' ')
		if !arg.Required {
			b.WriteByte('[')
		}
		b.WriteString(argPlaceholder(arg, &stop))
		if !arg.Required {
			b.WriteByte(']')
		}
	}
	b.WriteString(" %}")
	return b.String()
}

func argPlaceholder(arg extraction.Arg, stop *int) string {
	switch arg.Kind {
	case extraction.ArgLiteral:
		return arg.Literal
	case extraction.ArgChoice:
		n := *stop
		*stop++
		return "${" + strconv.Itoa(n) + "|" + strings.Join(arg.Choices, ",") + "|}"
	case extraction.ArgVarArgs, extraction.ArgKeywordArgs:
		name := arg.Name
		if name == "" {
			name = "args"
		}
		return name + "..."
	default: // ArgVariable
		n := *stop
		*stop++
		name := arg.Name
		if name == "" {
			name = "value"
		}
		return "${" + strconv.Itoa(n) + ":" + name + "}"
	}
}
