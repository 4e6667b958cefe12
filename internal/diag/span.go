package diag

// Span is a half-open byte range [Start, End) in a single file's source.
// All node and diagnostic positions in the core are expressed in bytes;
// line/column conversion for LSP output happens at the edge (see
// internal/sourcemap), never inside a tracked query.
type Span struct {
	Start int
	End   int
}

// Contains reports whether p lies within the half-open span.
func (s Span) Contains(p int) bool { return p >= s.Start && p < s.End }

// Len returns the span's byte length.
func (s Span) Len() int { return s.End - s.Start }

// Valid reports whether the span is well formed (Start <= End, both >= 0).
func (s Span) Valid() bool { return s.Start >= 0 && s.End >= s.Start }
