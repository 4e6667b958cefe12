package extraction

import sitter "github.com/smacker/go-tree-sitter"

// nodeText slices src by byte range, the cheapest way to read a node's
// source text without re-serializing the tree.
func nodeText(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	return string(src[n.StartByte():n.EndByte()])
}

// walk visits n and every descendant, depth-first, pre-order. Used for
// discovery passes that don't care about scope boundaries (module vs.
// class body) — §4.4 explicitly requires descending into class bodies,
// and a plain recursive visit does that for free.
func walk(n *sitter.Node, visit func(*sitter.Node)) {
	if n == nil {
		return
	}
	visit(n)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		walk(n.NamedChild(i), visit)
	}
}

// stringLiteralValue strips a Python string node's quotes (and a leading
// string-prefix letter, e.g. r"...") returning its textual content as
// written in source. Good enough for the literal tag/filter names and
// error messages this package needs; it does not interpret escapes.
func stringLiteralValue(raw string) (string, bool) {
	s := raw
	for len(s) > 0 && (s[0] == 'r' || s[0] == 'R' || s[0] == 'b' || s[0] == 'B' || s[0] == 'u' || s[0] == 'U' || s[0] == 'f' || s[0] == 'F') {
		s = s[1:]
	}
	if len(s) >= 6 && (s[:3] == `"""` || s[:3] == "'''") {
		return s[3 : len(s)-3], true
	}
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1], true
	}
	return "", false
}
