package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/hpungsan/lifeline/internal/snapshot"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 52rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.5; }
code { background: #f3f3f3; padding: 0 .2rem; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// pageData is the template data for an exported handoff page.
type pageData struct {
	Title string
	Body  template.HTML
}

// HTML renders the handoff document as a standalone HTML page.
func HTML(s *snapshot.Snapshot) (string, error) {
	body, err := markdownToHTML(Markdown(s))
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	data := pageData{
		Title: fmt.Sprintf("Agent Handoff: %s", s.Cwd),
		Body:  body,
	}
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}

// markdownToHTML converts markdown text to HTML using goldmark.
// Raw HTML in the input is omitted since the renderer is not configured as unsafe.
func markdownToHTML(md string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}
