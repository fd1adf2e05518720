// Package web provides embedded static assets (CSS) for the admin interface.
// In development, templates load assets from CDN; in production, the files
// embedded here are served at /static/.
package web

import "embed"

// StaticFS embeds the web/static/ directory tree.
//
//go:embed all:static
var StaticFS embed.FS
