// Package web embeds the browser catalog served by tvhomerun-web.
package web

import (
	"embed"
	"io/fs"
)

//go:embed public
var public embed.FS

// Public returns the static site rooted at public/.
func Public() fs.FS {
	sub, err := fs.Sub(public, "public")
	if err != nil {
		panic(err)
	}
	return sub
}
