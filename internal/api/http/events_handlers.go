package http

import (
	"net/http"
	"strconv"

	syncx "github.com/mind-engage/quizgrade/internal/sync"
)

const maxEventPage = 500

// GET /events?after=<offset>&limit=<n>
// Pages through the append-only event log for downstream sync.
func EventsHandler(events syncx.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var after int64
		if s := q.Get("after"); s != "" {
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil || n < 0 {
				http.Error(w, "bad after", http.StatusBadRequest)
				return
			}
			after = n
		}
		limit := 100
		if s := q.Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				http.Error(w, "bad limit", http.StatusBadRequest)
				return
			}
			limit = min(n, maxEventPage)
		}
		evs, err := events.Since(r.Context(), after, limit)
		if err != nil {
			writeErr(w, err)
			return
		}
		if evs == nil {
			evs = []syncx.Event{}
		}
		writeJSON(w, evs)
	}
}
