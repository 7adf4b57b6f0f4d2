package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimit caps requests per client IP across the chat endpoints. The window
// comes from config as a duration string; an unparsable value falls back to
// one minute rather than failing the boot.
func RateLimit(requests int, windowStr string) func(next http.Handler) http.Handler {
	window, err := time.ParseDuration(windowStr)
	if err != nil {
		window = time.Minute
	}

	return httprate.LimitByIP(requests, window)
}
