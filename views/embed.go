// Package views embeds the HTML templates of the client review portal.
package views

import "embed"

// FS holds the *.html templates.
//
//go:embed *.html layouts/*.html
var FS embed.FS
