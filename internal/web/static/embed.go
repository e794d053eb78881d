// Package static embeds the operator page.
package static

import (
	"embed"
	"io/fs"
)

//go:embed dist/*
var distFS embed.FS

// IndexHTML returns the single-page UI.
func IndexHTML() []byte {
	data, err := fs.ReadFile(distFS, "dist/index.html")
	if err != nil {
		panic(err)
	}
	return data
}
