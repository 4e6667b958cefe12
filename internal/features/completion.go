package features

import (
	"sort"
	"strings"

	"github.com/djls/djls/internal/loadscope"
	"github.com/djls/djls/internal/tagspec"
)

// CompletionItem is a single tag-name completion candidate. It carries no
// LSP types; the caller projects it into whatever protocol.CompletionItem
// shape the editor transport needs.
type CompletionItem struct {
	Label          string
	InsertText     string
	Detail         string
	RequiresLoad   bool
	LoadCandidates []string
}

// Completions returns every tag in result whose name has prefix, resolved
// against oracle at pos so the editor can show which candidates still need
// a {% load %} (§4.6) and surface that as Detail text rather than silently
// omitting them — an unloaded tag is still a valid completion, just one
// that will also insert a load statement's worth of guidance.
func Completions(result *tagspec.Result, oracle *loadscope.Oracle, pos int, prefix string) []CompletionItem {
	if result == nil {
		return nil
	}

	items := make([]CompletionItem, 0, len(result.Tags))
	for name, spec := range result.Tags {
		if prefix != "" && !strings.HasPrefix(name, prefix) {
			continue
		}

		item := CompletionItem{
			Label:      name,
			InsertText: Snippet(name, spec),
		}

		switch oracle.Resolve(name, pos) {
		case loadscope.RequiresLoad:
			libs := oracle.Candidates(name)
			item.RequiresLoad = true
			item.LoadCandidates = libs
			if len(libs) == 1 {
				item.Detail = "requires {% load " + libs[0] + " %}"
			} else {
				item.Detail = "requires a {% load %}"
			}
		case loadscope.Ambiguous:
			libs := oracle.Candidates(name)
			item.RequiresLoad = true
			item.LoadCandidates = libs
			item.Detail = "ambiguous: defined by " + strings.Join(libs, ", ")
		}

		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Label < items[j].Label })
	return items
}
