package lspserver

import (
	"github.com/djls/djls/internal/features"
	protocol "github.com/djls/djls/internal/lsp/protocol"
	"github.com/djls/djls/internal/loadscope"
	"github.com/djls/djls/internal/template"
)

// completionsAt resolves tag-name completions for the cursor position in
// doc, projecting internal/features's transport-agnostic CompletionItem
// into the LSP wire shape.
func (s *Server) completionsAt(doc *Document, pos protocol.Position) []*protocol.CompletionItem {
	offset := positionToOffset(doc.Content, pos)
	prefix := completionPrefix(doc.Content, offset)

	proj := s.currentProject()
	stmts := loadscope.ParseStatements(template.Parse([]byte(doc.Content)).Nodes)
	oracle := proj.oracle(stmts)

	items := features.Completions(proj.specs, oracle, offset, prefix)
	out := make([]*protocol.CompletionItem, 0, len(items))
	for _, it := range items {
		label := it.Label
		insertText := it.InsertText
		ci := &protocol.CompletionItem{
			Label:            label,
			InsertText:       &insertText,
			InsertTextFormat: ptrTo(protocol.InsertTextFormatSnippet),
		}
		if it.Detail != "" {
			detail := it.Detail
			ci.Detail = &detail
		}
		out = append(out, ci)
	}
	return out
}

// hoverAt resolves hover documentation for the tag or filter under the
// cursor position in doc, or nil if neither covers it.
func (s *Server) hoverAt(doc *Document, pos protocol.Position) *protocol.Hover {
	offset := positionToOffset(doc.Content, pos)

	result := template.Parse([]byte(doc.Content))
	proj := s.currentProject()
	oracle := proj.oracle(loadscope.ParseStatements(result.Nodes))

	for i := range result.Nodes {
		n := &result.Nodes[i]
		if !n.Span.Contains(offset) {
			continue
		}
		switch n.Kind {
		case template.KindTag:
			spec, ok := proj.specs.Tags[n.Name]
			if !ok {
				return nil
			}
			return hoverFromInfo(features.HoverTag(n.Name, spec, oracle, offset))
		case template.KindVariable:
			for _, f := range n.Filters {
				if !f.Span.Contains(offset) {
					continue
				}
				arity := proj.specs.FilterArity[f.Name]
				return hoverFromInfo(features.HoverFilter(f.Name, arity, oracle, offset))
			}
			return nil
		default:
			return nil
		}
	}
	return nil
}

func hoverFromInfo(info features.HoverInfo) *protocol.Hover {
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: info.Markdown,
		},
	}
}
