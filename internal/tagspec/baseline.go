package tagspec

import "github.com/djls/djls/internal/extraction"

// baseline is the compile-time minimum tag-spec table (§4.5 step 1): just
// enough structural knowledge of Django's own built-in block tags for the
// block tree builder and parser to classify openers/intermediates/closers
// before inspector-driven extraction has run at all.
func baseline() map[string]TagSpec {
	return map[string]TagSpec{
		"if":         {EndTag: "endif", IntermediateTags: []string{"elif", "else"}},
		"for":        {EndTag: "endfor", IntermediateTags: []string{"empty"}},
		"block":      {EndTag: "endblock"},
		"verbatim":   {EndTag: "endverbatim", Opaque: true},
		"autoescape": {EndTag: "endautoescape"},
		"with":       {EndTag: "endwith"},
		"spaceless":  {EndTag: "endspaceless"},
		"comment":    {EndTag: "endcomment", Opaque: true},
		"filter":     {EndTag: "endfilter"},
		"ifchanged":  {EndTag: "endifchanged", IntermediateTags: []string{"else"}},
		"ifequal":    {EndTag: "endifequal", IntermediateTags: []string{"else"}},
		"ifnotequal": {EndTag: "endifnotequal", IntermediateTags: []string{"else"}},
		"blocktranslate": {EndTag: "endblocktranslate", IntermediateTags: []string{"plural"}},
		"blocktrans":     {EndTag: "endblocktrans", IntermediateTags: []string{"plural"}},
		"localize":       {EndTag: "endlocalize"},
		"cache":          {EndTag: "endcache"},
	}
}

// fromExtracted converts one extraction.TagResult into the merged TagSpec
// shape (§3.5). A nil tag yields the zero TagSpec.
func fromExtracted(tr *extraction.TagResult) TagSpec {
	if tr == nil {
		return TagSpec{}
	}
	spec := TagSpec{Rules: tr.Rules, ArgStructure: tr.Args}
	if tr.Block != nil {
		spec.EndTag = tr.Block.EndTag
		spec.IntermediateTags = tr.Block.IntermediateTags
		spec.Opaque = tr.Block.Opaque
	}
	return spec
}
