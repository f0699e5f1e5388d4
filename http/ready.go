package http

import (
	"encoding/json"
	"net/http"
	"time"
)

// ReadyHandler reports readiness along with how long the process has been up.
func ReadyHandler() http.Handler {
	up := time.Now()
	fn := func(w http.ResponseWriter, r *http.Request) {
		var status = struct {
			Status  string    `json:"status"`
			Started time.Time `json:"started"`
			Up      string    `json:"up"`
		}{
			Status:  "ready",
			Started: up,
			Up:      time.Since(up).String(),
		}
		b, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
	}
	return http.HandlerFunc(fn)
}
