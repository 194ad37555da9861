package utils

import (
	"strings"
	"testing"
)

func TestSanitizeStripsScriptsAndImageExtras(t *testing.T) {
	in := `<p onclick="x()">hi<script>alert(1)</script><img src="https://cdn.io/a.png" alt="a" width="20" height="10" align="left"></p>`
	out := Sanitize(in)
	for _, bad := range []string{"script", "onclick", "width", "height", "align"} {
		if strings.Contains(out, bad) {
			t.Fatalf("%q survived sanitizing: %s", bad, out)
		}
	}
	if !strings.Contains(out, `<img src="https://cdn.io/a.png" alt="a">`) {
		t.Fatalf("image not reduced to src/alt: %s", out)
	}
}

func TestClearImgAttributesKeepsSelfClosing(t *testing.T) {
	got := ClearImgAttributes(`<img width="3" src="x.png"/>`)
	if got != `<img src="x.png"/>` {
		t.Fatalf("got %q", got)
	}
}

func TestStripTags(t *testing.T) {
	if got := StripTags("  <p>a &amp; <b>b</b></p> "); got != "a & b" {
		t.Fatalf("got %q", got)
	}
}

func TestPlainTextDropsMarkup(t *testing.T) {
	cases := []struct{ in, want string }{
		{`<img src=x onerror=alert(1)>bob`, "bob"},
		{`&lt;b&gt;eve&lt;/b&gt;`, "beve/b"},
		{`<a href="https://x.io">ann</a>`, "ann"},
		{"tom & jerry", "tom & jerry"},
	}
	for _, tc := range cases {
		if got := PlainText(tc.in); got != tc.want {
			t.Fatalf("PlainText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
