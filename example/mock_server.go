package main

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// StartMockService serves a version endpoint that simulates a slow boot:
// until bootDelay has elapsed it answers 502 with an HTML error page (the
// kind a reverse proxy emits while the backend starts), then it answers
// with a JSON version payload.
func StartMockService(addr string, bootDelay time.Duration) {
	var booted atomic.Bool
	time.AfterFunc(bootDelay, func() { booted.Store(true) })

	mux := http.NewServeMux()
	mux.HandleFunc("/api/version", func(w http.ResponseWriter, r *http.Request) {
		if !booted.Load() {
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusBadGateway)
			fmt.Fprintln(w, "<html><body>502 Bad Gateway</body></html>")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{"version_major": "23.0", "version_minor": "1"}`)
	})

	go func() {
		_ = http.ListenAndServe(addr, mux)
	}()
}
