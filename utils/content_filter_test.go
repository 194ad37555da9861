package utils

import "testing"

func TestRegexFilter(t *testing.T) {
	f, err := NewRegexFilter(`spam-token|viagra`)
	if err != nil {
		t.Fatal(err)
	}
	if tok, ok := f.Match("nick: buy spam-token today"); !ok || tok != "spam-token" {
		t.Fatalf("Match = %q %v", tok, ok)
	}
	if _, ok := f.Match("clean text"); ok {
		t.Fatal("clean text matched")
	}

	empty, err := NewRegexFilter("   ")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := empty.Match("anything"); ok {
		t.Fatal("blank rule must never match")
	}

	if _, err := NewRegexFilter("("); err == nil {
		t.Fatal("invalid regex accepted")
	}
}

func TestWordFilterIsLiteralAndCaseInsensitive(t *testing.T) {
	f := NewWordFilter("a.b", "", "Casino")
	if _, ok := f.Match("axb"); ok {
		t.Fatal("dot must be literal")
	}
	if tok, ok := f.Match("my CASINO"); !ok || tok != "CASINO" {
		t.Fatalf("Match = %q %v", tok, ok)
	}
	var nilFilter *RegexFilter
	if _, ok := nilFilter.Match("x"); ok {
		t.Fatal("nil filter matched")
	}
}
