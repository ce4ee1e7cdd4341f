package static

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed web
var web embed.FS

// Handler serves the embedded operator landing page and any bundled assets.
// The actual screens are rendered by the installation's front-of-house
// machines; this is just enough to verify the server from a browser.
func Handler() http.Handler {
	sub, err := fs.Sub(web, "web")
	if err != nil {
		return http.NotFoundHandler()
	}
	return http.FileServer(http.FS(sub))
}
