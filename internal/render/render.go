package render

import (
	"io"

	"github.com/wonny/screener/backend/internal/screen"
)

// Renderer draws a screener result
type Renderer interface {
	Render(w io.Writer, res screen.Result) error
}

// New returns the renderer for a format name: "table" (default) or "json"
func New(format string, color bool) Renderer {
	switch format {
	case "json":
		return &JSONRenderer{Pretty: true}
	default:
		return &TableRenderer{Color: color}
	}
}
