package metrics_test

import (
	"testing"

	"github.com/petasbytes/go-toolchat/internal/metrics"
)

func TestMeasure_Table(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want metrics.TextFeatures
	}{
		{"Empty", "", metrics.TextFeatures{}},
		{"ASCII", "What's the weather in Paris?", metrics.TextFeatures{Bytes: 28, Runes: 28, Words: 5, Lines: 1}},
		{"Multibyte", "héllö 世界", metrics.TextFeatures{Bytes: 14, Runes: 8, Words: 2, Lines: 1}},
		{"Multiline_Trailing", "a\nb\n", metrics.TextFeatures{Bytes: 4, Runes: 4, Words: 2, Lines: 3}},
		{"Whitespace_Tabs_Spaces", "  foo\tbar   baz  ", metrics.TextFeatures{Bytes: 17, Runes: 17, Words: 3, Lines: 1}},
		{"OnlyWhitespace", " \t\n", metrics.TextFeatures{Bytes: 3, Runes: 3, Words: 0, Lines: 2}},
		{"CRLF", "a\r\nb\r\nc", metrics.TextFeatures{Bytes: 7, Runes: 7, Words: 3, Lines: 3}},
		{"EmSpace", "foo\u2003bar", metrics.TextFeatures{Bytes: 9, Runes: 7, Words: 2, Lines: 1}},
		{"ZeroWidthSpace_NoSplit", "foo\u200Bbar", metrics.TextFeatures{Bytes: 9, Runes: 7, Words: 1, Lines: 1}},
		{"Combining_Marks", "e\u0301", metrics.TextFeatures{Bytes: 3, Runes: 2, Words: 1, Lines: 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := metrics.Measure(tc.in); got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestTextFeatures_Fields(t *testing.T) {
	f := metrics.Measure("two words")
	m := f.Fields()
	if len(m) != 4 {
		t.Fatalf("want 4 fields, got %d: %#v", len(m), m)
	}
	if m["bytes"] != 9 || m["runes"] != 9 || m["words"] != 2 || m["lines"] != 1 {
		t.Fatalf("unexpected fields: %#v", m)
	}
}
