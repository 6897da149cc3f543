// Package web embeds the HTML templates and static assets into the binary.
package web

import "embed"

// TemplatesFS holds the page templates
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the stylesheet and scripts served under /static
//
//go:embed static
var StaticFS embed.FS
