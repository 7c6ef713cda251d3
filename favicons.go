/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/Seednode/charades/internal/skeleton"
)

func getFavicon(prefix string) string {
	return `<link rel="icon" type="image/svg+xml" href="` + prefix + `/favicon.svg">
	<meta name="theme-color" content="#ffffff">`
}

// serveFavicon draws the canonical stickman as the site icon.
func serveFavicon(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		skel, err := skeleton.Generate(canvasCenter, cfg.limbLength)
		if err != nil {
			http.Error(w, "bad limb length", http.StatusInternalServerError)
			return
		}

		data := renderSVG(skel, figureBox(canvasCenter, cfg.limbLength), cfg.limbLength/6, 64)

		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		securityHeaders(cfg, w)

		_, err = w.Write([]byte(data))
		if err != nil {
			errs <- err

			return
		}
	}
}
