package utils

import (
	"html"
	"os"
	"strings"
	"sync"
)

const fallbackNotifyTemplate = `<h3>{{title}}</h3>
<p>{{nickname}} wrote at {{time}}:</p>
<div>{{content}}</div>
<p><a href="{{link}}">{{link}}</a></p>`

// NotifyData fills the placeholders of the notification template.
type NotifyData struct {
	Title    string
	Time     string
	NickName string
	Content  string
	Link     string
}

// NotifyTemplate renders notification emails from an HTML file with {{...}} placeholders.
type NotifyTemplate struct {
	path string

	once sync.Once
	body string
}

// NewNotifyTemplate prepares a template read lazily from path.
func NewNotifyTemplate(path string) *NotifyTemplate {
	return &NotifyTemplate{path: path}
}

// NewNotifyTemplateFromString builds a template from an in-memory body.
func NewNotifyTemplateFromString(body string) *NotifyTemplate {
	t := &NotifyTemplate{body: body}
	t.once.Do(func() {})
	return t
}

func (t *NotifyTemplate) load() {
	b, err := os.ReadFile(t.path)
	if err != nil {
		Sugar.Warnf("notify template %s unavailable, using built-in: %v", t.path, err)
		t.body = fallbackNotifyTemplate
		return
	}
	t.body = string(b)
}

// Render substitutes the placeholders. Content is inserted as is and must be
// sanitized HTML already; every other value is escaped.
func (t *NotifyTemplate) Render(d NotifyData) string {
	t.once.Do(t.load)
	r := strings.NewReplacer(
		"{{title}}", html.EscapeString(d.Title),
		"{{time}}", html.EscapeString(d.Time),
		"{{nickname}}", html.EscapeString(d.NickName),
		"{{content}}", d.Content,
		"{{link}}", html.EscapeString(d.Link),
	)
	return r.Replace(t.body)
}
