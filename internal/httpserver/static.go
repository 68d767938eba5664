package httpserver

import (
	"embed"
	"io/fs"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Frank-Junran-Yang/portfolio/internal/site"
)

//go:embed all:web
var webFS embed.FS

var fileServer = newFileServer()

func newFileServer() http.Handler {
	sub, err := fs.Sub(webFS, "web")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

// serveStatic answers every unmatched GET with the embedded pages. Requests
// under the published base path are served as if at the root.
func (s *Server) serveStatic(c *gin.Context) {
	p := c.Request.URL.Path
	if (c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) || strings.HasPrefix(p, "/api/") {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	req := c.Request
	if base := site.BaseFor("", s.basePath); base != "/" && strings.HasPrefix(p, base) {
		req = req.Clone(req.Context())
		req.URL = &url.URL{Path: "/" + strings.TrimPrefix(p, base), RawQuery: c.Request.URL.RawQuery}
	}
	fileServer.ServeHTTP(c.Writer, req)
}
