package lspserver

import (
	"strings"

	"github.com/djls/djls/internal/lsp/protocol"
)

// positionToOffset converts an LSP Position into a byte offset into
// content. LSP positions count UTF-16 code units; djls treats Character as
// a byte count instead, which matches for the ASCII tag/filter/variable
// names completion and hover care about and only drifts for non-ASCII text
// elsewhere on the line — an accepted, documented simplification rather
// than a full UTF-16 accounting pass.
func positionToOffset(content string, pos protocol.Position) int {
	lines := strings.Split(content, "\n")
	line := int(pos.Line)
	if line < 0 {
		return 0
	}
	if line >= len(lines) {
		return len(content)
	}

	offset := 0
	for i := 0; i < line; i++ {
		offset += len(lines[i]) + 1
	}

	col := int(pos.Character)
	if col < 0 {
		col = 0
	}
	if col > len(lines[line]) {
		col = len(lines[line])
	}
	return offset + col
}

// completionPrefix returns the run of identifier characters immediately
// before offset, the partial tag/filter name the client is completing.
func completionPrefix(content string, offset int) string {
	if offset < 0 || offset > len(content) {
		return ""
	}
	start := offset
	for start > 0 && isIdentByte(content[start-1]) {
		start--
	}
	return content[start:offset]
}

func isIdentByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}
