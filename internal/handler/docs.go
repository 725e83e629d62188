package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
)

// DocsHandler serves the OpenAPI document and a Swagger UI page that loads it.
type DocsHandler struct {
	spec []byte
	etag string
}

func NewDocsHandler(spec []byte) *DocsHandler {
	sum := sha256.Sum256(spec)
	return &DocsHandler{spec: spec, etag: `"` + hex.EncodeToString(sum[:8]) + `"`}
}

func (h *DocsHandler) Spec(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("If-None-Match") == h.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("ETag", h.etag)
	if _, err := w.Write(h.spec); err != nil {
		slog.Warn("failed to write openapi spec", "error", err)
	}
}

func (h *DocsHandler) UI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(swaggerHTML)); err != nil {
		slog.Warn("failed to write docs page", "error", err)
	}
}

const swaggerHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Khata API Documentation</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: "/docs/openapi.yaml",
      dom_id: "#swagger-ui",
      presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
      layout: "BaseLayout"
    });
  </script>
</body>
</html>`
