package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"habita-engine/internal/config"
	"habita-engine/internal/fetch"
)

type HealthHandler struct{}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(map[string]any{
		"ok": true,
	})
}

// Portal is one probe target for diagnostics.
type Portal struct {
	Name    string
	BaseURL string
}

type portalStatus struct {
	Name         string `json:"name"`
	Reachable    bool   `json:"reachable"`
	StatusCode   int    `json:"status_code,omitempty"`
	Bytes        int    `json:"bytes"`
	HasPageState bool   `json:"has_page_state"`
	Error        string `json:"error,omitempty"`
}

type DiagnosticsHandler struct {
	DB          *sql.DB
	CfgVal      *atomic.Value // stores config.Config
	Fetcher     fetch.Fetcher // nil skips live probes
	Portals     []Portal
	HasProxyKey bool
}

// Diagnostics reports what the engine can actually do right now: whether
// each portal answers and yields parseable markup, whether the DB
// responds, and the live validation state.
func (h DiagnosticsHandler) Diagnostics(w http.ResponseWriter, r *http.Request) {
	cur := h.CfgVal.Load().(config.Config)
	_, vr := config.NormalizeAndValidate(cur)

	dbOK := h.DB.PingContext(r.Context()) == nil

	writeJSON(w, map[string]any{
		"portals":       h.probePortals(r.Context()),
		"db_ok":         dbOK,
		"proxy_enabled": h.HasProxyKey,
		"ai_enabled":    cur.AI.Enabled,
		"validation":    vr,
	})
}

func (h DiagnosticsHandler) probePortals(ctx context.Context) []portalStatus {
	out := make([]portalStatus, len(h.Portals))
	if h.Fetcher == nil {
		for i, p := range h.Portals {
			out[i] = portalStatus{Name: p.Name}
		}
		return out
	}

	pctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for i, p := range h.Portals {
		wg.Add(1)
		go func(i int, p Portal) {
			defer wg.Done()
			st := portalStatus{Name: p.Name}
			res, err := h.Fetcher.Get(pctx, p.BaseURL, nil)
			if err != nil {
				st.Error = err.Error()
			} else {
				st.Reachable = res.OK()
				st.StatusCode = res.StatusCode
				st.Bytes = len(res.Body)
				st.HasPageState = strings.Contains(res.Body, "__NEXT_DATA__")
			}
			out[i] = st
		}(i, p)
	}
	wg.Wait()
	return out
}
