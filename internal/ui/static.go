package ui

import (
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"sync"

	"bike-dash/internal/ui/assets"
)

const stylesheetPath = "/ui/static/css/app.css"

var (
	stylesheetOnce sync.Once
	stylesheetHref = stylesheetPath
)

// uiStylesheetHref returns the stylesheet URL with a content hash so a
// redeploy busts browser caches.
func uiStylesheetHref() string {
	stylesheetOnce.Do(func() {
		b, err := fs.ReadFile(assets.StaticFS(), "static/css/app.css")
		if err != nil {
			return
		}
		sum := sha256.Sum256(b)
		stylesheetHref = stylesheetPath + "?v=" + hex.EncodeToString(sum[:6])
	})
	return stylesheetHref
}
