package markdown

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestToHTML(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"**bold**", []string{"<strong>bold</strong>"}},
		{"*italic*", []string{"<em>italic</em>"}},
		{"## Sets and Reps", []string{`<h2 id="sets-and-reps">Sets and Reps</h2>`}},
		{"- squat\n- bench\n", []string{"<ul>", "<li>squat</li>", "<li>bench</li>"}},
		{"1. warm up\n2. lift\n", []string{"<ol>", "<li>warm up</li>"}},
		{"```go\nfmt.Println()\n```\n", []string{"<pre>", `class="language-go"`}},
		{"| Day | Focus |\n|---|---|\n| Mon | Legs |\n", []string{"<table>", "<td>Legs</td>"}},
		{"[guide](https://example.com)", []string{`href="https://example.com"`, `target="_blank"`}},
		{"> rest matters", []string{"<blockquote>"}},
	}
	for _, tt := range tests {
		got := ToHTML(tt.input)
		for _, w := range tt.want {
			if !strings.Contains(got, w) {
				t.Errorf("ToHTML(%q) = %q, want it to contain %q", tt.input, got, w)
			}
		}
	}
}

func TestToHTMLEscapesText(t *testing.T) {
	got := ToHTML("5 < 6 & 7 > 3")
	if !strings.Contains(got, "5 &lt; 6 &amp; 7 &gt; 3") {
		t.Errorf("text not escaped: %q", got)
	}
}

func TestIsHTMLAndNormalize(t *testing.T) {
	generated := "<h2>Intro</h2><p>Hello</p>"
	if !IsHTML(generated) {
		t.Fatalf("expected generated content to be detected as HTML")
	}
	if got := Normalize(generated); got != generated {
		t.Errorf("Normalize changed HTML input: %q", got)
	}

	md := "# Intro\n\nHello"
	if IsHTML(md) {
		t.Fatalf("markdown detected as HTML")
	}
	if got := Normalize(md); !strings.Contains(got, "<h1") {
		t.Errorf("Normalize did not render markdown: %q", got)
	}
	if IsHTML("<pretend> not a block") {
		t.Errorf("unknown tag should not count as block HTML")
	}
}

func TestMarkdownComponent(t *testing.T) {
	var buf bytes.Buffer
	if err := Markdown("**hi**").Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "<strong>hi</strong>") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestPlainText(t *testing.T) {
	got := PlainText("<h2>Why   Sleep</h2>\n<p>Rest &amp; recover.</p>")
	if got != "Why Sleep Rest & recover." {
		t.Errorf("PlainText = %q", got)
	}
}

func TestExcerpt(t *testing.T) {
	short := "<p>Short post.</p>"
	if got := Excerpt(short, 150); got != "Short post." {
		t.Errorf("Excerpt(short) = %q", got)
	}

	long := "<p>" + strings.Repeat("progressive overload builds strength ", 20) + "</p>"
	got := Excerpt(long, 60)
	if n := utf8.RuneCountInString(got); n > 60 {
		t.Errorf("excerpt has %d runes, want <= 60", n)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("excerpt should end with an ellipsis: %q", got)
	}
	if strings.HasSuffix(strings.TrimSuffix(got, "…"), " ") {
		t.Errorf("excerpt should not end in a space: %q", got)
	}
}

func TestReadingTime(t *testing.T) {
	tests := []struct {
		words int
		want  int
	}{
		{0, 0},
		{1, 1},
		{200, 1},
		{201, 2},
		{1200, 6},
	}
	for _, tt := range tests {
		in := "<p>" + strings.TrimSpace(strings.Repeat("word ", tt.words)) + "</p>"
		if got := ReadingTime(in); got != tt.want {
			t.Errorf("ReadingTime(%d words) = %d, want %d", tt.words, got, tt.want)
		}
	}
}
