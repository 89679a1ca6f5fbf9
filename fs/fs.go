// Package appfs embeds the app's static files.
package appfs

import "embed"

//go:embed migrations
var FS embed.FS
