package sourcemap

import "testing"

func TestNew(t *testing.T) {
	source := []byte("{% load i18n %}\n{% trans \"hi\" %}\n{{ value }}")
	sm := New(source)

	if sm.LineCount() != 3 {
		t.Errorf("LineCount() = %d, want 3", sm.LineCount())
	}
}

func TestNew_EmptySource(t *testing.T) {
	sm := New([]byte{})
	if sm.LineCount() != 1 {
		t.Errorf("LineCount() = %d, want 1", sm.LineCount())
	}
}

func TestNew_CRLF(t *testing.T) {
	source := []byte("{% load i18n %}\r\n{% trans \"hi\" %}\r\n")
	sm := New(source)

	if sm.LineCount() != 3 {
		t.Errorf("LineCount() = %d, want 3", sm.LineCount())
	}
	if sm.Line(0) != "{% load i18n %}" {
		t.Errorf("Line(0) = %q, want no trailing \\r", sm.Line(0))
	}
}

func TestPosition(t *testing.T) {
	source := []byte("{% load i18n %}\n{% trans \"hi\" %}\n")
	sm := New(source)

	cases := []struct {
		offset       int
		line, column int
	}{
		{0, 0, 0},
		{16, 1, 0},              // just past the first '\n'
		{16 + 3, 1, 3},          // "{% " into the second line
		{1 << 20, 2, 0},         // past EOF clamps to last line
	}
	for _, tc := range cases {
		line, column := sm.Position(tc.offset)
		if line != tc.line || column != tc.column {
			t.Errorf("Position(%d) = (%d,%d), want (%d,%d)", tc.offset, line, column, tc.line, tc.column)
		}
	}
}

func TestPosition_Negative(t *testing.T) {
	sm := New([]byte("abc"))
	line, column := sm.Position(-5)
	if line != 0 || column != 0 {
		t.Errorf("Position(-5) = (%d,%d), want (0,0)", line, column)
	}
}

func TestSnippet(t *testing.T) {
	source := []byte("one\ntwo\nthree\nfour\nfive")
	sm := New(source)

	if got := sm.Snippet(1, 3); got != "two\nthree\nfour" {
		t.Errorf("Snippet(1,3) = %q", got)
	}
	if got := sm.Snippet(-1, 100); got != "one\ntwo\nthree\nfour\nfive" {
		t.Errorf("Snippet clamps out-of-range, got %q", got)
	}
	if got := sm.Snippet(3, 1); got != "" {
		t.Errorf("Snippet with inverted range = %q, want empty", got)
	}
}

func TestSnippetAround(t *testing.T) {
	source := []byte("one\ntwo\nthree\nfour\nfive")
	sm := New(source)

	if got := sm.SnippetAround(2, 1, 1); got != "two\nthree\nfour" {
		t.Errorf("SnippetAround(2,1,1) = %q", got)
	}
}
