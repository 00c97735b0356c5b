package render

import (
	"bytes"
	"html/template"
	"log/slog"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// ugcPolicy strips anything a commenter or author could abuse. Post and
// comment bodies both pass through it before reaching a template.
var ugcPolicy = bluemonday.UGCPolicy()

// Markdown converts markdown to sanitized HTML safe for template injection.
func Markdown(source string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		slog.Error("markdown conversion failed", "error", err)
		return template.HTML(template.HTMLEscapeString(source))
	}
	return template.HTML(ugcPolicy.SanitizeBytes(buf.Bytes()))
}

// SanitizeText strips all HTML from user text, for plain-text contexts.
func SanitizeText(source string) string {
	return bluemonday.StrictPolicy().Sanitize(source)
}
