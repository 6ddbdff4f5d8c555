package middleware

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
)

// RecoverPanic turns a handler panic into a 500 response
func RecoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().Str("panic", fmt.Sprint(rec)).Str("path", r.URL.Path).Msg("Recovered from handler panic")
				w.Header().Set("Connection", "close")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"internal server error","code":"INTERNAL"}`))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
