// Package web embeds the browser shell served at the root route. All pipeline
// logic lives server-side; the shell only renders state pushed over the event
// relay and hosts the sandboxed preview frame.
package web

import _ "embed"

//go:embed index.html
var IndexHTML []byte
