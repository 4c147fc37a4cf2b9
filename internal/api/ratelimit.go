// Per-client quota for endpoints that walk the whole population. Each client
// gets a fixed number of scans per window; the tick loop shares the
// simulation read lock with them.
package api

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ScanQuota counts scans per client in fixed windows.
type ScanQuota struct {
	mu      sync.Mutex
	windows map[string]*scanWindow
	limit   int
	period  time.Duration
	now     func() time.Time
}

type scanWindow struct {
	start time.Time
	used  int
}

// NewScanQuota allows limit scans per client every period.
func NewScanQuota(limit int, period time.Duration) *ScanQuota {
	return &ScanQuota{
		windows: make(map[string]*scanWindow),
		limit:   limit,
		period:  period,
		now:     time.Now,
	}
}

// Take spends one scan for client. When the quota is exhausted it returns
// false and the time left until the client's window resets.
func (q *ScanQuota) Take(client string) (ok bool, retry time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	q.expire(now)

	w, found := q.windows[client]
	if !found || now.Sub(w.start) >= q.period {
		w = &scanWindow{start: now}
		q.windows[client] = w
	}
	if w.used >= q.limit {
		return false, q.period - now.Sub(w.start)
	}
	w.used++
	return true, 0
}

// expire forgets clients whose window ended more than one period ago.
// Caller holds mu.
func (q *ScanQuota) expire(now time.Time) {
	if len(q.windows) < 1024 {
		return
	}
	for c, w := range q.windows {
		if now.Sub(w.start) > 2*q.period {
			delete(q.windows, c)
		}
	}
}

// clientIP returns the first X-Forwarded-For hop, or the remote host.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// limitScans answers 429 with Retry-After in whole seconds once a client
// has used its quota.
func limitScans(q *ScanQuota, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, retry := q.Take(clientIP(r))
		if !ok {
			secs := int((retry + time.Second - 1) / time.Second)
			w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
			http.Error(w, "population scan quota exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}
