package web

import (
	"embed"
	"net/http"
)

//go:embed index.html styles.css app.js
var assets embed.FS

// FS serves the browser front end for the match API.
func FS() http.FileSystem { return http.FS(assets) }
