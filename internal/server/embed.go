package server

import (
	"embed"
	"io/fs"
)

// StaticVersion is appended to static asset URLs for cache busting. Bump it
// when deploying CSS/JS changes.
const StaticVersion = "1.0.0"

//go:embed all:web
var webFS embed.FS

// staticFS returns the embedded static asset tree rooted at its own
// directory so it can be mounted at /static.
func staticFS() fs.FS {
	sub, err := fs.Sub(webFS, "web/static")
	if err != nil {
		panic(err)
	}
	return sub
}
