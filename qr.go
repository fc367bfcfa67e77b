package main

import (
	"net/http"

	qrcode "github.com/skip2/go-qrcode"
)

const qrSize = 256

// spectatorURL is the WebSocket URL observers should dial.
func spectatorURL(publicURL string, r *http.Request) string {
	if publicURL != "" {
		return publicURL
	}
	scheme := "ws"
	if r.TLS != nil {
		scheme = "wss"
	}
	return scheme + "://" + r.Host + "/ws"
}

// handleQR serves a PNG QR code of the spectator URL so a phone can join.
func handleQR(publicURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		png, err := qrcode.Encode(spectatorURL(publicURL, r), qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr encode failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		w.Write(png)
	}
}
