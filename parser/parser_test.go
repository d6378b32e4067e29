package parser

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
)

func fragment(t *testing.T, html string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body>" + html + "</body></html>"))
	if err != nil {
		t.Fatalf("parse fragment: %v", err)
	}
	return doc.Find("body")
}

func TestExtractTextMissing(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{name: "absent node", html: `<p>other</p>`},
		{name: "empty text", html: `<span class="v"></span>`},
		{name: "whitespace only", html: `<span class="v">   </span>`},
		{name: "sentinel", html: `<span class="v">tbd</span>`},
		{name: "padded sentinel", html: `<span class="v">  tbd </span>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := fragment(t, tt.html).Find("span.v")
			if got := ExtractText(sel); got != nil {
				t.Fatalf("ExtractText = %q, want nil", *got)
			}
			got, err := ExtractNumber(sel)
			if err != nil || got != nil {
				t.Fatalf("ExtractNumber = (%v, %v), want (nil, nil)", got, err)
			}
		})
	}
}

func TestExtractTextNilSelection(t *testing.T) {
	if got := ExtractText(nil); got != nil {
		t.Fatalf("ExtractText(nil) = %q, want nil", *got)
	}
}

func TestExtractText(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected string
	}{
		{name: "plain", html: `<span class="v">Album X</span>`, expected: "Album X"},
		{name: "trimmed", html: `<span class="v">
			Album X  </span>`, expected: "Album X"},
		{name: "first match wins", html: `<span class="v">A</span><span class="v">B</span>`, expected: "A"},
		{name: "sentinel in larger text", html: `<span class="v">tbd later</span>`, expected: "tbd later"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractText(fragment(t, tt.html).Find("span.v"))
			if got == nil || *got != tt.expected {
				t.Fatalf("ExtractText = %v, want %q", got, tt.expected)
			}
		})
	}
}

func TestExtractNumber(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected float64
	}{
		{name: "integer", html: `<div class="v">85</div>`, expected: 85},
		{name: "decimal", html: `<div class="v"> 7.9 </div>`, expected: 7.9},
		{name: "zero", html: `<div class="v">0</div>`, expected: 0},
		{name: "signed", html: `<div class="v">-3</div>`, expected: -3},
		{name: "leading dot", html: `<div class="v">.5</div>`, expected: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractNumber(fragment(t, tt.html).Find("div.v"))
			if err != nil {
				t.Fatalf("ExtractNumber error: %v", err)
			}
			if got == nil || *got != tt.expected {
				t.Fatalf("ExtractNumber = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestExtractNumberNotNumeric(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "word", text: "Metascore"},
		{name: "nan", text: "NaN"},
		{name: "inf", text: "Inf"},
		{name: "infinity", text: "-infinity"},
		{name: "hex float", text: "0x1p3"},
		{name: "exponent", text: "1e2"},
		{name: "overflow", text: "1" + strings.Repeat("0", 400)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractNumber(fragment(t, `<div class="v">`+tt.text+`</div>`).Find("div.v"))
			if got != nil {
				t.Fatalf("ExtractNumber = %v, want nil", *got)
			}
			if !errors.Is(err, ErrNotNumeric) {
				t.Fatalf("error = %v, want ErrNotNumeric", err)
			}
		})
	}
}

func TestResolveURL(t *testing.T) {
	const origin = "https://www.metacritic.com"
	str := func(s string) *string { return &s }

	tests := []struct {
		name      string
		candidate *string
		expected  *string
	}{
		{name: "missing", candidate: nil, expected: nil},
		{name: "empty", candidate: str(""), expected: nil},
		{name: "relative", candidate: str("/music/album-x"), expected: str(origin + "/music/album-x")},
		{name: "absolute https", candidate: str("https://cdn.example/a"), expected: str("https://cdn.example/a")},
		{name: "absolute http", candidate: str("http://example/a"), expected: str("http://example/a")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveURL(tt.candidate, origin)
			switch {
			case tt.expected == nil && got != nil:
				t.Fatalf("ResolveURL = %q, want nil", *got)
			case tt.expected != nil && (got == nil || *got != *tt.expected):
				t.Fatalf("ResolveURL = %v, want %q", got, *tt.expected)
			}
		})
	}
}

func TestResolveURLIdempotent(t *testing.T) {
	const origin = "https://www.metacritic.com"
	for _, c := range []string{"/music/a", "https://www.metacritic.com/music/b"} {
		c := c
		once := ResolveURL(&c, origin)
		twice := ResolveURL(once, origin)
		if *once != *twice {
			t.Fatalf("ResolveURL not idempotent for %q: %q != %q", c, *once, *twice)
		}
	}
}

func TestNormalizeArtist(t *testing.T) {
	str := func(s string) *string { return &s }
	tests := []struct {
		name     string
		input    *string
		expected string
	}{
		{name: "prefixed", input: str("by Radiohead"), expected: "Radiohead"},
		{name: "plain", input: str("Björk"), expected: "Björk"},
		{name: "padded prefix", input: str("  by   Low "), expected: "Low"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeArtist(tt.input)
			if got == nil || *got != tt.expected {
				t.Fatalf("NormalizeArtist = %v, want %q", got, tt.expected)
			}
		})
	}

	if got := NormalizeArtist(nil); got != nil {
		t.Fatalf("NormalizeArtist(nil) = %q, want nil", *got)
	}
	if got := NormalizeArtist(str("   ")); got != nil {
		t.Fatalf("NormalizeArtist(blank) = %q, want nil", *got)
	}
}

func TestExtractAlbumNilRowRecovered(t *testing.T) {
	got := ExtractAlbum(nil, "https://example.test", time.Now())
	if got.OK() {
		t.Fatalf("expected skip for nil row")
	}
	if got.Skip != SkipPanic {
		t.Fatalf("skip=%q, want %q", got.Skip, SkipPanic)
	}
	if got.Err == nil {
		t.Fatalf("expected recovered error")
	}
}
