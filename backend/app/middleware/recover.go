package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"pollhub/backend/global"
)

// Recover logs a handler panic and answers with a JSON 500.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			global.Logger.Error().
				Str("request_id", GetRequestID(r.Context())).
				Str("path", r.URL.Path).
				Str("panic", fmt.Sprint(rec)).
				Msg("handler panic")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "message": "internal error"})
		}()
		next.ServeHTTP(w, r)
	})
}
