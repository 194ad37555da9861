package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNotifyTemplateRender(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notify.html")
	if err := os.WriteFile(path, []byte("<h1>{{title}}</h1>{{nickname}}@{{time}}:{{content}} {{link}} {{link}}"), 0o644); err != nil {
		t.Fatal(err)
	}
	got := NewNotifyTemplate(path).Render(NotifyData{
		Title: "Board", Time: "2024-01-01 00:00:00", NickName: "amy", Content: "<p>x</p>", Link: "https://l",
	})
	want := "<h1>Board</h1>amy@2024-01-01 00:00:00:<p>x</p> https://l https://l"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNotifyTemplateEscapesPlainFields(t *testing.T) {
	got := NewNotifyTemplateFromString("{{title}}|{{nickname}}|{{content}}|{{link}}").Render(NotifyData{
		Title:    "<b>t</b>",
		NickName: `<img src=x onerror="alert(1)">`,
		Content:  "<p>kept</p>",
		Link:     "https://l/?a=1&b=2",
	})
	want := `&lt;b&gt;t&lt;/b&gt;|&lt;img src=x onerror=&#34;alert(1)&#34;&gt;|<p>kept</p>|https://l/?a=1&amp;b=2`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNotifyTemplateFallsBackWhenMissing(t *testing.T) {
	got := NewNotifyTemplate(filepath.Join(t.TempDir(), "absent.html")).Render(NotifyData{Link: "https://l"})
	if !strings.Contains(got, "https://l") {
		t.Fatalf("fallback template lost the link: %q", got)
	}
}
