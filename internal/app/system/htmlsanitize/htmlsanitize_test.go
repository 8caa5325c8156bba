package htmlsanitize_test

import (
	"testing"

	"github.com/dalemusser/clubreviews/internal/app/system/htmlsanitize"
)

func TestPlainText_Empty(t *testing.T) {
	if got := htmlsanitize.PlainText(""); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestPlainText_Unchanged(t *testing.T) {
	in := "Great club, met lots of people"
	if got := htmlsanitize.PlainText(in); got != in {
		t.Errorf("expected plain text unchanged, got %q", got)
	}
}

func TestPlainText_KeepsAmpersand(t *testing.T) {
	in := "Arts & Crafts"
	if got := htmlsanitize.PlainText(in); got != in {
		t.Errorf("got %q, want %q", got, in)
	}
}

func TestPlainText_StripsTags(t *testing.T) {
	if got := htmlsanitize.PlainText("<p><strong>Bold</strong> move</p>"); got != "Bold move" {
		t.Errorf("got %q", got)
	}
}

func TestPlainText_RemovesScript(t *testing.T) {
	if got := htmlsanitize.PlainText("Hello<script>alert('xss')</script>"); got != "Hello" {
		t.Errorf("expected script removed, got %q", got)
	}
}

func TestPlainText_RemovesHandlers(t *testing.T) {
	got := htmlsanitize.PlainText(`<img src=x onerror="alert(1)">ok`)
	if got != "ok" {
		t.Errorf("got %q", got)
	}
}

func TestIsPlainText(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"no tags here", true},
		{"2 > 1", true},
		{"<b>x</b>", false},
		{"I <3 this club", true},
		{"Arts & Crafts", true},
		{"&lt;script&gt;alert(1)&lt;/script&gt; nice club", false},
		{"I rate x<y and y>z highly", false},
		{"  padded  ", true},
	}
	for _, tt := range tests {
		if got := htmlsanitize.IsPlainText(tt.in); got != tt.want {
			t.Errorf("IsPlainText(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPlainText_EncodedMarkupStaysDead(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"&lt;script&gt;alert(1)&lt;/script&gt; nice club", "nice club"},
		{"&amp;lt;b&amp;gt;bold&amp;lt;/b&amp;gt;", "bold"},
		{"&lt;img src=x onerror=alert(1)&gt;hi", "hi"},
	}
	for _, tt := range tests {
		got := htmlsanitize.PlainText(tt.in)
		if got != tt.want {
			t.Errorf("PlainText(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if !htmlsanitize.IsPlainText(got) {
			t.Errorf("PlainText(%q) = %q is not stable", tt.in, got)
		}
	}
}

func TestPlainText_Idempotent(t *testing.T) {
	for _, in := range []string{
		"I rate x<y and y>z highly",
		"&lt;script&gt;alert(1)&lt;/script&gt;",
		"2 > 1 & 1 < 2",
		"<p>Hello</p>",
	} {
		once := htmlsanitize.PlainText(in)
		if twice := htmlsanitize.PlainText(once); twice != once {
			t.Errorf("PlainText not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}
